package sro

import "context"

// QuotaStore enforces a daily seconds budget per [QuotaKey] with
// at-most-one reservation semantics under concurrent requests. Component A.
type QuotaStore interface {
	// TryReserve atomically reserves seconds against the key's daily limit,
	// setting/refreshing the key's TTL to ttlSeconds (seconds until local
	// midnight plus a small grace period — the caller computes this since
	// it alone knows the configured time zone). It returns (true,
	// used-after-reservation) on success, or (false, used-before-reservation)
	// when the reservation would exceed limit. On store unavailability it
	// fails open: returns (true, 0) and logs.
	TryReserve(ctx context.Context, key QuotaKey, seconds, limit, ttlSeconds int) (ok bool, used int, err error)

	// Refund decrements the counter for key by seconds, clamped at zero,
	// re-asserting ttlSeconds if the key's TTL is missing.
	Refund(ctx context.Context, key QuotaKey, seconds, ttlSeconds int) error

	// GetUsed is a best-effort read; it returns 0 on store error.
	GetUsed(ctx context.Context, key QuotaKey) int
}

// ObjectStore is the transient cloud object store used by the long
// recognizer. Component E depends on this; it is not used by sync mode.
type ObjectStore interface {
	// Put uploads data under key with the given content type and returns a
	// URI the recognizer backend can reference.
	Put(ctx context.Context, key string, data []byte, contentType string) (uri string, err error)

	// Delete removes the object at key. Implementations should tolerate
	// double-deletes.
	Delete(ctx context.Context, key string) error
}

// SyncRecognizer issues a bounded-size synchronous recognition request.
// Component D.
type SyncRecognizer interface {
	Recognize(ctx context.Context, req RecognitionRequest) (RecognitionOutcome, error)
}

// LongRecognizer performs recognition for inputs too large for sync mode by
// uploading to an [ObjectStore], starting an operation, and polling it to
// completion. Component E.
type LongRecognizer interface {
	Recognize(ctx context.Context, req RecognitionRequest) (RecognitionOutcome, error)
}

// Transcoder converts arbitrary audio/video bytes into canonical WAV 16 kHz
// mono PCM. Component B.
type Transcoder interface {
	// ToWAV16kMono runs the multi-plan strategy and returns the canonical
	// blob, or a *[TranscodeError] wrapping [ErrTranscode] if every plan is
	// exhausted.
	ToWAV16kMono(ctx context.Context, blob AudioBlob) (AudioBlob, error)

	// EnsureRecognizerCompatible applies the pass-through/transcode rules:
	// MP4/AAC family and non-Opus WebM are transcoded; everything else
	// passes through unchanged with didTranscode=false.
	EnsureRecognizerCompatible(ctx context.Context, blob AudioBlob) (out AudioBlob, didTranscode bool, err error)

	// ProbeDuration returns the blob's duration in seconds, or 0 if the
	// probe fails.
	ProbeDuration(ctx context.Context, blob AudioBlob) int
}

// LanguageResolver chooses a primary language and alternates from context
// signals and histories. Component C.
type LanguageResolver interface {
	Resolve(ctx context.Context, in LanguageResolveInput) LanguageHints

	// AlternatesFor computes alternates (round 1, round 2) for an explicit
	// primary language, independent of how the primary was chosen. Used when
	// a caller-supplied primary override skips Resolve's primary selection;
	// alternates computation is unconditional regardless of where the
	// primary came from.
	AlternatesFor(ctx context.Context, primary string, in LanguageResolveInput) LanguageHints

	// ObserveScript classifies recognized text by dominant Unicode script
	// and returns the BCP-47 code to credit to both histograms.
	ObserveScript(text string) string

	// RecordHistogram increments the channel and user histograms for lang.
	RecordHistogram(ctx context.Context, channelID, userID, lang string)
}

// LanguageResolveInput carries the untrusted free-text context signals and
// the current histogram snapshots consumed by the resolver.
type LanguageResolveInput struct {
	UserName    string
	ChannelName string
	Caption     string

	ChannelHistogram map[string]int
	UserHistogram    map[string]int
}

// ProgressSink receives best-effort, opaque progress notifications from the
// orchestrator. It replaces callback-style progress reporting: the chat
// adapter implements this to project updates onto its own medium.
type ProgressSink interface {
	Update(state, detail string)
}

// NopProgressSink discards all updates.
type NopProgressSink struct{}

func (NopProgressSink) Update(string, string) {}
