// Package sroconfig provides the YAML configuration schema and loader for
// the Speech Recognition Orchestrator.
package sroconfig

// Config is the root configuration structure for the orchestrator.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Quota  QuotaConfig  `yaml:"quota"`
	Lang   LangConfig   `yaml:"lang"`
	Media  MediaConfig  `yaml:"media"`
	Object ObjectConfig `yaml:"object"`
	Long   LongConfig   `yaml:"long"`
	Google GoogleConfig `yaml:"google"`
}

// ServerConfig holds logging settings.
type ServerConfig struct {
	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// QuotaConfig mirrors [sro.OrchestratorConfig]'s quota knobs.
type QuotaConfig struct {
	// DailyLimitSeconds is the per-key daily recognition budget.
	DailyLimitSeconds int `yaml:"daily_limit_seconds"`

	// Scope selects "user" or "guild_user" quota scoping.
	Scope string `yaml:"scope"`

	// LocalTZ is the IANA time zone name quota days roll over in.
	LocalTZ string `yaml:"local_tz"`

	// RedisAddr is the Redis server address backing the quota store.
	RedisAddr string `yaml:"redis_addr"`

	// RedisDB selects the Redis logical database.
	RedisDB int `yaml:"redis_db"`
}

// LangConfig configures the language resolver.
type LangConfig struct {
	DefaultPrimaryLanguage    string  `yaml:"default_primary_language"`
	StrictConfidenceThreshold float64 `yaml:"strict_confidence_threshold"`

	// DampJPWhenUncertain and JPMinWeight tune the ja-JP damping knob named
	// in the open questions.
	DampJPWhenUncertain bool    `yaml:"damp_jp_when_uncertain"`
	JPMinWeight         float64 `yaml:"jp_min_weight"`
}

// MediaConfig configures transcode and mode-selection thresholds.
type MediaConfig struct {
	FFmpegBinary  string `yaml:"ffmpeg_binary"`
	FFprobeBinary string `yaml:"ffprobe_binary"`

	SyncMaxBytes           int64 `yaml:"sync_max_bytes"`
	LongCompressedMinBytes int64 `yaml:"long_compressed_min_bytes"`
	DurationFloorSeconds   int   `yaml:"duration_floor_seconds"`
}

// ObjectConfig configures the transient object store used by long mode.
type ObjectConfig struct {
	Bucket                   string `yaml:"bucket"`
	KeyPrefix                string `yaml:"key_prefix"`
	DeleteImmediate          bool   `yaml:"delete_immediate"`
	ObjectDeleteDelaySeconds int    `yaml:"delete_delay_seconds"`
}

// LongConfig configures long-recognize polling.
type LongConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	PollMaxSeconds      int `yaml:"poll_max_seconds"`
}

// GoogleConfig holds credentials/project settings for the Speech and Storage
// clients.
type GoogleConfig struct {
	// CredentialsFile is a path to a service-account JSON key. cmd/sro-demo
	// does not read it: its Speech and Storage clients always use
	// application-default credentials.
	CredentialsFile string `yaml:"credentials_file"`

	ProjectID string `yaml:"project_id"`
}
