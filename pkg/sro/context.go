package sro

// ServiceContext bundles the explicit, typed handles the orchestrator needs.
// It replaces a pattern of ambient module-level clients: every dependency is
// a field here, constructed once at program start and passed down rather
// than reached for through a package-level global.
type ServiceContext struct {
	Quota  QuotaStore
	Object ObjectStore
	Sync   SyncRecognizer
	Long   LongRecognizer
	Trans  Transcoder
	Lang   LanguageResolver

	Config OrchestratorConfig
}

// OrchestratorConfig holds the tunable knobs named in the external interface
// surface. Zero-value fields are not valid; use [DefaultOrchestratorConfig]
// and override as needed.
type OrchestratorConfig struct {
	DailyLimitSeconds int
	Scope             QuotaScope
	LocalTZ           string

	DefaultPrimaryLanguage    string
	StrictConfidenceThreshold float64

	SyncMaxBytes           int64
	LongCompressedMinBytes int64

	ObjectDeleteImmediate    bool
	ObjectDeleteDelaySeconds int

	LongPollIntervalSeconds int
	LongPollMaxSeconds      int

	// DurationFloorSeconds is applied when the duration probe returns 0.
	DurationFloorSeconds int
}

// DefaultOrchestratorConfig returns the configuration defaults named in the
// external interface surface.
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		DailyLimitSeconds:         120,
		Scope:                     ScopeUser,
		LocalTZ:                   "Asia/Bangkok",
		DefaultPrimaryLanguage:    "th-TH",
		StrictConfidenceThreshold: 2.0,
		SyncMaxBytes:              9_000_000,
		LongCompressedMinBytes:    1_800_000,
		ObjectDeleteImmediate:     true,
		ObjectDeleteDelaySeconds:  0,
		LongPollIntervalSeconds:   5,
		LongPollMaxSeconds:        900,
		DurationFloorSeconds:      60,
	}
}
