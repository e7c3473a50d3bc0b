package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Enable       bool     `yaml:"enable"`
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic" default:"issue-notes.activity"`
	WriteTimeout string   `yaml:"write-timeout" default:"10s"`
}

// messageWriter 由 *kafka.Writer 实现
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher 以笔记 ID 为 key 写入 Kafka，同一笔记的事件落在同一分区
type KafkaPublisher struct {
	writer messageWriter
	source string
}

// NewKafkaPublisher 创建 Kafka 发布者；source 标识当前实例
func NewKafkaPublisher(cfg KafkaConfig, source string) (*KafkaPublisher, error) {
	brokers := make([]string, 0, len(cfg.Brokers))
	for _, b := range cfg.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	timeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond, // 同步发送，不等默认的 1s 攒批
		WriteTimeout: timeout,
		ReadTimeout:  timeout,
	}
	return &KafkaPublisher{writer: writer, source: source}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event *NoteEvent) error {
	if event.Source == "" {
		event.Source = p.source
	}
	value, err := sonic.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.NoteID),
		Value: value,
		Time:  event.Timestamp,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
