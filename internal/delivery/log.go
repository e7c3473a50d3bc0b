package delivery

import (
	"context"

	"github.com/haierkeys/issue-note-service/pkg/logger"

	"go.uber.org/zap"
)

// LogChannel 只写日志的渠道，未配置其他渠道时使用
type LogChannel struct {
	logger *zap.Logger
}

// NewLogChannel 创建日志渠道
func NewLogChannel(lg *zap.Logger) *LogChannel {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &LogChannel{logger: lg}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Deliver(_ context.Context, r Reminder) error {
	c.logger.Info("deadline reminder",
		zap.String(logger.FieldNotificationID, r.NotificationID),
		zap.String(logger.FieldRecipient, r.RecipientID),
		zap.String(logger.FieldNoteID, r.NoteID),
		zap.String(logger.FieldContainer, r.ContainerKey),
		zap.String("urgency", r.Urgency()),
		zap.String("message", r.Message),
	)
	return nil
}
