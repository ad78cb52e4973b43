package loader

const (
	// defaultConfPath is the fallback configuration directory when no overrides are provided.
	defaultConfPath = "configs"
	// defaultEnvironment is used when APP_ENV is missing.
	defaultEnvironment = "development"
	// defaultServiceName labels logs and telemetry when SERVICE_NAME is missing.
	defaultServiceName = "journal"
	// defaultServiceVersion labels logs and telemetry when SERVICE_VERSION is missing.
	defaultServiceVersion = "dev"
	// defaultHTTPAddr is the listen address applied when the config omits one.
	defaultHTTPAddr = ":8000"
	// defaultHTTPTimeout bounds request handling when the config omits a timeout.
	defaultHTTPTimeout = "60s"
)
