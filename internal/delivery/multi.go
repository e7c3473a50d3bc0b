package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Multi 依次投递到全部渠道，任一失败即视为失败
type Multi struct {
	channels []Channel
}

// NewMulti 组合多个渠道
func NewMulti(channels ...Channel) *Multi {
	return &Multi{channels: channels}
}

func (m *Multi) Name() string {
	names := make([]string, 0, len(m.channels))
	for _, c := range m.channels {
		names = append(names, c.Name())
	}
	return strings.Join(names, "+")
}

// Deliver 每个渠道都会尝试，返回合并后的错误
func (m *Multi) Deliver(ctx context.Context, r Reminder) error {
	var errs []error
	for _, c := range m.channels {
		if err := c.Deliver(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Len 渠道数量
func (m *Multi) Len() int {
	return len(m.channels)
}
