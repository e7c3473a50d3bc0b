package delivery

import (
	"github.com/haierkeys/issue-note-service/internal/membership"

	"go.uber.org/zap"
)

// Config 投递渠道配置
type Config struct {
	Log     bool          `yaml:"log" default:"true"`
	Email   EmailConfig   `yaml:"email"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// NewChannel 按配置组装渠道；没有任何渠道启用时退回日志渠道
func NewChannel(cfg Config, directory membership.Directory, lg *zap.Logger) Channel {
	var channels []Channel
	if cfg.Log {
		channels = append(channels, NewLogChannel(lg))
	}
	if cfg.Email.Enable && directory != nil {
		channels = append(channels, NewEmailChannel(cfg.Email, directory))
	}
	if cfg.Webhook.Enable && cfg.Webhook.URL != "" {
		channels = append(channels, NewWebhookChannel(cfg.Webhook))
	}

	switch len(channels) {
	case 0:
		return NewLogChannel(lg)
	case 1:
		return channels[0]
	default:
		return NewMulti(channels...)
	}
}
