package gcs

import "github.com/google/wire"

// ProviderSet 暴露 GCS 媒体存储构造器供 Wire 依赖注入使用。
var ProviderSet = wire.NewSet(
	NewMediaStore,
)
