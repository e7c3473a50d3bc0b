package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

// WebhookConfig Webhook 配置
type WebhookConfig struct {
	Enable  bool              `yaml:"enable"`
	URL     string            `yaml:"url"`
	Timeout string            `yaml:"timeout" default:"10s"`
	Headers map[string]string `yaml:"headers"`
}

// webhookPayload 请求体
type webhookPayload struct {
	Event    string   `json:"event"`
	SentAt   int64    `json:"sentAt"`
	Reminder Reminder `json:"reminder"`
}

// WebhookChannel 以 JSON POST 投递
type WebhookChannel struct {
	cfg    WebhookConfig
	client *http.Client
}

// NewWebhookChannel 创建 Webhook 渠道
func NewWebhookChannel(cfg WebhookConfig) *WebhookChannel {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookChannel{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

func (c *WebhookChannel) Name() string { return "webhook" }

func (c *WebhookChannel) Deliver(ctx context.Context, r Reminder) error {
	body, err := sonic.Marshal(webhookPayload{
		Event:    "note.deadline_reminder",
		SentAt:   time.Now().UnixMilli(),
		Reminder: r,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
