package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/haierkeys/issue-note-service/internal/membership"

	"gopkg.in/gomail.v2"
)

// ErrNoEmailAddress 接收人没有邮箱
var ErrNoEmailAddress = errors.New("recipient has no email address")

// EmailConfig SMTP 配置
type EmailConfig struct {
	Enable   bool   `yaml:"enable"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" default:"587"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from-name" default:"Issue Notes"`
}

// IsConfigured 是否已配置 SMTP
func (c EmailConfig) IsConfigured() bool {
	return c.Enable && c.Host != "" && c.Port > 0 && c.From != ""
}

// mailSender 由 *gomail.Dialer 实现
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailChannel 邮件渠道，收件地址来自成员目录
type EmailChannel struct {
	cfg       EmailConfig
	sender    mailSender
	directory membership.Directory
}

// NewEmailChannel 创建邮件渠道
func NewEmailChannel(cfg EmailConfig, directory membership.Directory) *EmailChannel {
	return &EmailChannel{
		cfg:       cfg,
		sender:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		directory: directory,
	}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) Deliver(ctx context.Context, r Reminder) error {
	if !c.cfg.IsConfigured() {
		return errors.New("email not configured")
	}
	to, err := c.directory.Email(ctx, r.RecipientID)
	if err != nil {
		return fmt.Errorf("lookup email for %s: %w", r.RecipientID, err)
	}
	if to == "" {
		return ErrNoEmailAddress
	}

	return c.sender.DialAndSend(c.buildMessage(to, r))
}

func (c *EmailChannel) buildMessage(to string, r Reminder) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", c.cfg.From, c.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", r.Title)
	m.SetBody("text/plain", fmt.Sprintf("%s\n\n%s (%s)\n", r.Message, r.NoteTitle, r.Urgency()))
	return m
}
