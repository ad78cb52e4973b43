package analysis

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	loader "github.com/bionicotaku/lingo-services-journal/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-journal/internal/services"
)

// ProviderSet 暴露分析任务构造器供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	ProvideRunner,
)

// ProvideRunner 装配分析 Runner：Pub/Sub 客户端 + 订阅 + 处理器。
// 返回的 cleanup 关闭底层客户端。
func ProvideRunner(ctx context.Context, cfg loader.PubSubConfig, svc *services.AnalysisService, logger log.Logger) (*Runner, func(), error) {
	if cfg.ProjectID == "" {
		return nil, nil, fmt.Errorf("analysis: pubsub project id is required")
	}
	if cfg.Subscription == "" {
		return nil, nil, fmt.Errorf("analysis: pubsub subscription is required")
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("analysis: init pubsub client: %w", err)
	}

	handler := NewEventHandler(svc, logger, newMetrics())
	runner, err := NewRunner(client.Subscription(cfg.Subscription), handler, logger)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			log.NewHelper(logger).Warnf("close pubsub client: %v", err)
		}
	}
	return runner, cleanup, nil
}
