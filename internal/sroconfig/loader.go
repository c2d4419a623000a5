package sroconfig

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nopparoot15/saltybot/pkg/sro"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}
var validScopes = []string{"user", "guild_user"}

// Load reads the YAML configuration file at path and returns a validated
// [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sroconfig: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("sroconfig: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("sroconfig: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values, returning a
// joined error listing every failure found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !slices.Contains(validLogLevels, cfg.Server.LogLevel) {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: %v", cfg.Server.LogLevel, validLogLevels))
	}

	if cfg.Quota.Scope != "" && !slices.Contains(validScopes, cfg.Quota.Scope) {
		errs = append(errs, fmt.Errorf("quota.scope %q is invalid; valid values: %v", cfg.Quota.Scope, validScopes))
	}
	if cfg.Quota.DailyLimitSeconds < 0 {
		errs = append(errs, fmt.Errorf("quota.daily_limit_seconds must be >= 0, got %d", cfg.Quota.DailyLimitSeconds))
	}
	if cfg.Quota.LocalTZ != "" {
		if _, err := time.LoadLocation(cfg.Quota.LocalTZ); err != nil {
			errs = append(errs, fmt.Errorf("quota.local_tz %q: %w", cfg.Quota.LocalTZ, err))
		}
	}
	if cfg.Quota.RedisAddr == "" {
		slog.Warn("quota.redis_addr is empty; the quota store will fail open on every request")
	}

	if cfg.Lang.StrictConfidenceThreshold < 0 {
		errs = append(errs, fmt.Errorf("lang.strict_confidence_threshold must be >= 0, got %.2f", cfg.Lang.StrictConfidenceThreshold))
	}
	if cfg.Lang.DampJPWhenUncertain && cfg.Lang.JPMinWeight <= 0 {
		slog.Warn("lang.damp_jp_when_uncertain is set but lang.jp_min_weight is <= 0; defaulting to 2.0")
	}

	if cfg.Media.SyncMaxBytes < 0 {
		errs = append(errs, fmt.Errorf("media.sync_max_bytes must be >= 0, got %d", cfg.Media.SyncMaxBytes))
	}
	if cfg.Media.LongCompressedMinBytes < 0 {
		errs = append(errs, fmt.Errorf("media.long_compressed_min_bytes must be >= 0, got %d", cfg.Media.LongCompressedMinBytes))
	}

	if cfg.Object.Bucket == "" {
		slog.Warn("object.bucket is empty; long-mode recognition will fail every upload")
	}
	if !cfg.Object.DeleteImmediate && cfg.Object.ObjectDeleteDelaySeconds <= 0 {
		slog.Warn("object.delete_immediate is false but delete_delay_seconds is <= 0; cleanup will run immediately anyway")
	}

	if cfg.Long.PollIntervalSeconds < 0 {
		errs = append(errs, fmt.Errorf("long.poll_interval_seconds must be >= 0, got %d", cfg.Long.PollIntervalSeconds))
	}
	if cfg.Long.PollMaxSeconds > 0 && cfg.Long.PollIntervalSeconds > cfg.Long.PollMaxSeconds {
		errs = append(errs, fmt.Errorf("long.poll_interval_seconds (%d) exceeds long.poll_max_seconds (%d)", cfg.Long.PollIntervalSeconds, cfg.Long.PollMaxSeconds))
	}

	return errors.Join(errs...)
}

// ToOrchestratorConfig maps the YAML-decoded config onto
// [sro.OrchestratorConfig], filling unset numeric fields from
// [sro.DefaultOrchestratorConfig].
func ToOrchestratorConfig(cfg *Config) sro.OrchestratorConfig {
	out := sro.DefaultOrchestratorConfig()

	if cfg.Quota.DailyLimitSeconds > 0 {
		out.DailyLimitSeconds = cfg.Quota.DailyLimitSeconds
	}
	if cfg.Quota.Scope == "guild_user" {
		out.Scope = sro.ScopeGuildUser
	} else if cfg.Quota.Scope == "user" {
		out.Scope = sro.ScopeUser
	}
	if cfg.Quota.LocalTZ != "" {
		out.LocalTZ = cfg.Quota.LocalTZ
	}

	if cfg.Lang.DefaultPrimaryLanguage != "" {
		out.DefaultPrimaryLanguage = cfg.Lang.DefaultPrimaryLanguage
	}
	if cfg.Lang.StrictConfidenceThreshold > 0 {
		out.StrictConfidenceThreshold = cfg.Lang.StrictConfidenceThreshold
	}

	if cfg.Media.SyncMaxBytes > 0 {
		out.SyncMaxBytes = cfg.Media.SyncMaxBytes
	}
	if cfg.Media.LongCompressedMinBytes > 0 {
		out.LongCompressedMinBytes = cfg.Media.LongCompressedMinBytes
	}
	if cfg.Media.DurationFloorSeconds > 0 {
		out.DurationFloorSeconds = cfg.Media.DurationFloorSeconds
	}

	out.ObjectDeleteImmediate = cfg.Object.DeleteImmediate
	if cfg.Object.ObjectDeleteDelaySeconds > 0 {
		out.ObjectDeleteDelaySeconds = cfg.Object.ObjectDeleteDelaySeconds
	}

	if cfg.Long.PollIntervalSeconds > 0 {
		out.LongPollIntervalSeconds = cfg.Long.PollIntervalSeconds
	}
	if cfg.Long.PollMaxSeconds > 0 {
		out.LongPollMaxSeconds = cfg.Long.PollMaxSeconds
	}

	return out
}
