// Package loader 负责加载并规范化服务配置：配置文件 + .env + 环境变量覆盖。
package loader

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	obswire "github.com/bionicotaku/lingo-utils/observability"
	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/joho/godotenv"
)

const (
	envConfPath       = "CONF_PATH"
	envServiceName    = "SERVICE_NAME"
	envServiceVersion = "SERVICE_VERSION"
	envAppEnv         = "APP_ENV"
	envDatabaseURL    = "DATABASE_URL"
	envPort           = "PORT"
	envMediaBucket    = "MEDIA_BUCKET"
	envPubSubProject  = "PUBSUB_PROJECT_ID"
)

var envFileNames = []string{".env.local", ".env"}

// Params 包含构造配置 Bundle 所需的运行时输入参数。
type Params struct {
	ConfPath string // 配置文件路径（可为空，使用默认值）
}

// fileConfig 是配置文件的原始形态，经 normalize 转换为强类型 Bundle。
// 时长字段以字符串表示（"5s"、"30m"），由 time.ParseDuration 解析。
type fileConfig struct {
	Server struct {
		HTTP struct {
			Network string `json:"network"`
			Addr    string `json:"addr"`
			Timeout string `json:"timeout"`
		} `json:"http"`
	} `json:"server"`
	Data struct {
		Postgres struct {
			DSN                string `json:"dsn"`
			Schema             string `json:"schema"`
			MaxOpenConns       int32  `json:"max_open_conns"`
			MinOpenConns       int32  `json:"min_open_conns"`
			MaxConnLifetime    string `json:"max_conn_lifetime"`
			MaxConnIdleTime    string `json:"max_conn_idle_time"`
			HealthCheckPeriod  string `json:"health_check_period"`
			PreparedStatements bool   `json:"prepared_statements_enabled"`
		} `json:"postgres"`
		Storage struct {
			Bucket string `json:"bucket"`
			Prefix string `json:"prefix"`
		} `json:"storage"`
		PubSub struct {
			ProjectID    string `json:"project_id"`
			Subscription string `json:"subscription"`
		} `json:"pubsub"`
	} `json:"data"`
	Observability struct {
		Tracing struct {
			Enabled       bool    `json:"enabled"`
			Exporter      string  `json:"exporter"`
			Endpoint      string  `json:"endpoint"`
			Insecure      bool    `json:"insecure"`
			SamplingRatio float64 `json:"sampling_ratio"`
		} `json:"tracing"`
		Metrics struct {
			Enabled  bool   `json:"enabled"`
			Exporter string `json:"exporter"`
			Endpoint string `json:"endpoint"`
			Insecure bool   `json:"insecure"`
			Interval string `json:"interval"`
		} `json:"metrics"`
	} `json:"observability"`
}

// ServerConfig 是 HTTP 服务器的规范化配置。
type ServerConfig struct {
	Network string
	Addr    string
	Timeout time.Duration
}

// DatabaseConfig 是 PostgreSQL 连接池的规范化配置。
type DatabaseConfig struct {
	DSN                string
	Schema             string
	MaxOpenConns       int32
	MinOpenConns       int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	PreparedStatements bool
}

// StorageConfig 是媒体对象存储（GCS）的规范化配置。
type StorageConfig struct {
	Bucket string
	Prefix string
}

// PubSubConfig 是分析结果订阅的规范化配置。
type PubSubConfig struct {
	ProjectID    string
	Subscription string
}

// ServiceMetadata 保存服务标识信息，供日志和可观测性组件使用。
type ServiceMetadata struct {
	Name        string
	Version     string
	Environment string
	InstanceID  string
}

// Bundle 聚合强类型的配置片段，供下游 Wire 注入使用。
type Bundle struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	PubSub    PubSubConfig
	ObsConfig obswire.ObservabilityConfig
	Service   ServiceMetadata
}

// BuildError 捕获配置构建过程中的上下文错误信息。
type BuildError struct {
	Stage string
	Path  string
	Err   error
}

// Error 实现 error 接口，提供包含上下文的错误信息。
func (e BuildError) Error() string {
	if e.Stage == "" {
		return e.Err.Error()
	}
	if e.Path != "" {
		return fmt.Sprintf("config %s at %q: %v", e.Stage, e.Path, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Stage, e.Err)
}

// Unwrap 暴露底层错误，支持 errors.Is/As 链式查询。
func (e BuildError) Unwrap() error {
	return e.Err
}

// ObservabilityInfo 将服务元信息转换为 observability.ServiceInfo。
func (m ServiceMetadata) ObservabilityInfo() obswire.ServiceInfo {
	return obswire.ServiceInfo{
		Name:        m.Name,
		Version:     m.Version,
		Environment: m.Environment,
	}
}

// Build 从配置文件构建 Bundle。
//
// 流程：
// 1. 解析配置路径（显式传入 > CONF_PATH > 默认 configs/）
// 2. best-effort 加载 .env 文件
// 3. 加载配置文件并扫描为原始结构
// 4. 应用环境变量覆盖（DATABASE_URL、PORT、MEDIA_BUCKET 等）
// 5. 规范化为强类型 Bundle 并校验必填项
func Build(params Params) (*Bundle, error) {
	confPath := ResolveConfPath(params.ConfPath)
	loadEnvFiles(confPath)

	raw, err := loadFileConfig(confPath)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(raw)

	bundle, err := normalize(raw)
	if err != nil {
		return nil, BuildError{Stage: "normalize", Path: confPath, Err: err}
	}
	bundle.Service = buildServiceMetadata()
	if err := validate(bundle); err != nil {
		return nil, BuildError{Stage: "validate", Path: confPath, Err: err}
	}
	return bundle, nil
}

// ResolveConfPath 应用回退规则确定要加载的配置目录/文件路径。
// 优先级：显式传入路径 > CONF_PATH 环境变量 > 默认路径。
func ResolveConfPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(envConfPath); env != "" {
		return env
	}
	return defaultConfPath
}

func loadFileConfig(confPath string) (*fileConfig, error) {
	c := config.New(config.WithSource(file.NewSource(confPath)))
	if err := c.Load(); err != nil {
		return nil, BuildError{Stage: "load", Path: confPath, Err: err}
	}
	defer c.Close()

	var raw fileConfig
	if err := c.Scan(&raw); err != nil {
		return nil, BuildError{Stage: "scan", Path: confPath, Err: err}
	}
	return &raw, nil
}

// applyEnvOverrides 应用环境变量覆盖配置文件中的特定字段。
// 环境变量为空时不覆盖，保留配置文件原值。
func applyEnvOverrides(raw *fileConfig) {
	if raw == nil {
		return
	}
	if dsn := os.Getenv(envDatabaseURL); dsn != "" {
		raw.Data.Postgres.DSN = dsn
	}
	if port := os.Getenv(envPort); port != "" {
		raw.Server.HTTP.Addr = replacePort(raw.Server.HTTP.Addr, port)
	}
	if bucket := os.Getenv(envMediaBucket); bucket != "" {
		raw.Data.Storage.Bucket = bucket
	}
	if project := os.Getenv(envPubSubProject); project != "" {
		raw.Data.PubSub.ProjectID = project
	}
}

func normalize(raw *fileConfig) (*Bundle, error) {
	srv := ServerConfig{
		Network: raw.Server.HTTP.Network,
		Addr:    firstNonEmpty(raw.Server.HTTP.Addr, defaultHTTPAddr),
	}
	var err error
	if srv.Timeout, err = durationOrZero(firstNonEmpty(raw.Server.HTTP.Timeout, defaultHTTPTimeout)); err != nil {
		return nil, fmt.Errorf("server.http.timeout: %w", err)
	}

	db := DatabaseConfig{
		DSN:                raw.Data.Postgres.DSN,
		Schema:             raw.Data.Postgres.Schema,
		MaxOpenConns:       raw.Data.Postgres.MaxOpenConns,
		MinOpenConns:       raw.Data.Postgres.MinOpenConns,
		PreparedStatements: raw.Data.Postgres.PreparedStatements,
	}
	if db.MaxConnLifetime, err = durationOrZero(raw.Data.Postgres.MaxConnLifetime); err != nil {
		return nil, fmt.Errorf("data.postgres.max_conn_lifetime: %w", err)
	}
	if db.MaxConnIdleTime, err = durationOrZero(raw.Data.Postgres.MaxConnIdleTime); err != nil {
		return nil, fmt.Errorf("data.postgres.max_conn_idle_time: %w", err)
	}
	if db.HealthCheckPeriod, err = durationOrZero(raw.Data.Postgres.HealthCheckPeriod); err != nil {
		return nil, fmt.Errorf("data.postgres.health_check_period: %w", err)
	}

	bundle := &Bundle{
		Server:   srv,
		Database: db,
		Storage: StorageConfig{
			Bucket: raw.Data.Storage.Bucket,
			Prefix: raw.Data.Storage.Prefix,
		},
		PubSub: PubSubConfig{
			ProjectID:    raw.Data.PubSub.ProjectID,
			Subscription: raw.Data.PubSub.Subscription,
		},
		ObsConfig: toObservabilityConfig(raw),
	}
	return bundle, nil
}

func toObservabilityConfig(raw *fileConfig) obswire.ObservabilityConfig {
	cfg := obswire.ObservabilityConfig{}
	if tr := raw.Observability.Tracing; tr.Enabled {
		cfg.Tracing = &obswire.TracingConfig{
			Enabled:       tr.Enabled,
			Exporter:      tr.Exporter,
			Endpoint:      tr.Endpoint,
			Insecure:      tr.Insecure,
			SamplingRatio: tr.SamplingRatio,
		}
	}
	if mt := raw.Observability.Metrics; mt.Enabled {
		interval, err := durationOrZero(mt.Interval)
		if err != nil {
			interval = 0
		}
		cfg.Metrics = &obswire.MetricsConfig{
			Enabled:  mt.Enabled,
			Exporter: mt.Exporter,
			Endpoint: mt.Endpoint,
			Insecure: mt.Insecure,
			Interval: interval,
		}
	}
	return cfg
}

func validate(b *Bundle) error {
	if b.Database.DSN == "" {
		return fmt.Errorf("postgres DSN is required (set DATABASE_URL)")
	}
	if b.Storage.Bucket == "" {
		return fmt.Errorf("media storage bucket is required (set MEDIA_BUCKET)")
	}
	return nil
}

// buildServiceMetadata 构建服务元信息，用于日志、追踪和指标标签。
// 优先级：环境变量（SERVICE_NAME 等）> 默认值。
func buildServiceMetadata() ServiceMetadata {
	name := firstNonEmpty(os.Getenv(envServiceName), defaultServiceName)
	version := firstNonEmpty(os.Getenv(envServiceVersion), defaultServiceVersion)
	env := firstNonEmpty(os.Getenv(envAppEnv), defaultEnvironment)
	host, _ := os.Hostname()

	return ServiceMetadata{
		Name:        name,
		Version:     version,
		Environment: env,
		InstanceID:  host,
	}
}

// loadEnvFiles best-effort 加载配置相关的 .env 文件，失败时忽略以保持幂等。
func loadEnvFiles(confPath string) {
	files := envFileCandidates(confPath)
	if len(files) == 0 {
		return
	}
	_ = godotenv.Load(files...)
}

// envFileCandidates 按优先级（confPath 目录 → 工作目录）返回存在的 .env 文件。
// .env.local 优先于 .env；godotenv 不覆盖已设置的变量。
func envFileCandidates(confPath string) []string {
	dirs := orderedDirs(confPath)
	seen := make(map[string]struct{})
	var files []string
	for _, dir := range dirs {
		for _, name := range envFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if _, ok := seen[candidate]; ok {
				continue
			}
			files = append(files, candidate)
			seen[candidate] = struct{}{}
		}
	}
	return files
}

func orderedDirs(confPath string) []string {
	var dirs []string
	seen := make(map[string]struct{})
	appendUnique := func(dir string) {
		dir = filepath.Clean(dir)
		if _, ok := seen[dir]; ok {
			return
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}

	if confPath != "" {
		if info, err := os.Stat(confPath); err == nil {
			if info.IsDir() {
				appendUnique(confPath)
			} else {
				appendUnique(filepath.Dir(confPath))
			}
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		appendUnique(cwd)
	}
	return dirs
}

// replacePort 替换 host:port 形式地址中的端口部分，保留 host。
func replacePort(addr, port string) string {
	if addr == "" {
		return ":" + port
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return ":" + port
	}
	return net.JoinHostPort(host, port)
}

func durationOrZero(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
