package analysis

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/go-kratos/kratos/v2/log"
)

// subscription 抽象 Pub/Sub 订阅的消费入口，便于测试替换。
type subscription interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Runner 封装分析结果的消费循环。
type Runner struct {
	sub     subscription
	handler *EventHandler
	decoder *eventDecoder
	logger  *log.Helper
}

// NewRunner 构造分析 Runner。
func NewRunner(sub subscription, handler *EventHandler, logger log.Logger) (*Runner, error) {
	if sub == nil {
		return nil, fmt.Errorf("analysis: subscription is required")
	}
	if handler == nil {
		return nil, fmt.Errorf("analysis: handler is required")
	}
	return &Runner{
		sub:     sub,
		handler: handler,
		decoder: newEventDecoder(),
		logger:  log.NewHelper(logger),
	}, nil
}

// Run 启动消费循环，直到 context 取消。
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.sub == nil {
		return nil
	}
	return r.sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := r.processMessage(ctx, msg.Data); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// processMessage 解码并处理一条消息。解码失败直接丢弃（返回 nil）：
// 坏载荷重投只会无限循环。
func (r *Runner) processMessage(ctx context.Context, data []byte) error {
	evt, err := r.decoder.Decode(data)
	if err != nil {
		r.logger.WithContext(ctx).Warnw("msg", "decode analysis event failed", "error", err)
		return nil
	}
	return r.handler.Handle(ctx, evt)
}
