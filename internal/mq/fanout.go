package mq

import (
	"context"
	"errors"
)

// Sink 解析事件接收方
type Sink interface {
	PublishParseEvent(ctx context.Context, event *ParseEvent) error
}

// Fanout 将事件依次投递给多个接收方, 单个失败不影响其余
type Fanout []Sink

// PublishParseEvent 投递事件, 返回所有失败的合并错误
func (f Fanout) PublishParseEvent(ctx context.Context, event *ParseEvent) error {
	var errs []error
	for _, sink := range f {
		if err := sink.PublishParseEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
