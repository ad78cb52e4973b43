package loader

import (
	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/google/wire"
)

// ProviderSet exposes configuration-derived dependencies for Wire graphs.
var ProviderSet = wire.NewSet(
	ProvideServiceMetadata,
	ProvideServerConfig,
	ProvideDatabaseConfig,
	ProvideStorageConfig,
	ProvidePubSubConfig,
	ProvideObservabilityConfig,
)

// ProvideServiceMetadata returns the resolved ServiceMetadata from the bundle.
func ProvideServiceMetadata(b *Bundle) ServiceMetadata {
	if b == nil {
		return ServiceMetadata{}
	}
	return b.Service
}

// ProvideServerConfig returns the HTTP server section of the bundle.
func ProvideServerConfig(b *Bundle) ServerConfig {
	if b == nil {
		return ServerConfig{}
	}
	return b.Server
}

// ProvideDatabaseConfig returns the postgres section of the bundle.
func ProvideDatabaseConfig(b *Bundle) DatabaseConfig {
	if b == nil {
		return DatabaseConfig{}
	}
	return b.Database
}

// ProvideStorageConfig returns the media storage section of the bundle.
func ProvideStorageConfig(b *Bundle) StorageConfig {
	if b == nil {
		return StorageConfig{}
	}
	return b.Storage
}

// ProvidePubSubConfig returns the analysis subscription section of the bundle.
func ProvidePubSubConfig(b *Bundle) PubSubConfig {
	if b == nil {
		return PubSubConfig{}
	}
	return b.PubSub
}

// ProvideObservabilityConfig exposes the normalized observability configuration.
func ProvideObservabilityConfig(b *Bundle) obswire.ObservabilityConfig {
	if b == nil {
		return obswire.ObservabilityConfig{}
	}
	return b.ObsConfig
}
