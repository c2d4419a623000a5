package sro

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/nopparoot15/saltybot/internal/observe"
)

// Orchestrator sequences quota reservation, transcoding, language
// resolution, and recognizer attempts for one attachment at a time.
// Component F — the single public entry point of the package.
type Orchestrator struct {
	svc *ServiceContext
	loc *time.Location
}

// New builds an [Orchestrator] from svc. It resolves the configured time
// zone immediately so a bad LocalTZ value fails fast at construction rather
// than on the first request.
func New(svc *ServiceContext) (*Orchestrator, error) {
	loc, err := time.LoadLocation(svc.Config.LocalTZ)
	if err != nil {
		return nil, fmt.Errorf("sro: load location %q: %w", svc.Config.LocalTZ, err)
	}
	return &Orchestrator{svc: svc, loc: loc}, nil
}

// TranscribeRequest carries the caller-supplied context for one Transcribe
// call.
type TranscribeRequest struct {
	Attachment Attachment

	UserID  string
	GuildID string // only meaningful when Config.Scope is ScopeGuildUser
	ChannelID string

	UserName    string
	ChannelName string
	Caption     string

	ChannelHistogram map[string]int
	UserHistogram    map[string]int

	// PrimaryOverride, when non-empty, skips the language resolver's primary
	// selection (used by an interactive language picker upstream).
	PrimaryOverride string

	Progress ProgressSink
}

// Transcribe runs the full state machine for one attachment: Prepare,
// Reserve, Normalize, Resolve, pick a backend, and up to three recognition
// attempts with the documented retry/fallback sequence. It returns a
// terminal [Result] and never a transcript without having first consumed
// quota ([Result.Kind] == [ResultQuotaExceeded] is the only success path
// that reserves nothing).
func (o *Orchestrator) Transcribe(ctx context.Context, req TranscribeRequest) Result {
	ctx, span := observe.StartSpan(ctx, "sro.Transcribe")
	defer span.End()

	progress := req.Progress
	if progress == nil {
		progress = NopProgressSink{}
	}

	metrics := observe.DefaultMetrics()
	start := time.Now()
	metrics.ActiveTranscriptions.Add(ctx, 1)
	defer func() {
		metrics.ActiveTranscriptions.Add(ctx, -1)
		metrics.RecognitionDuration.Record(ctx, time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return Result{Kind: ResultError, Err: fmt.Errorf("%w: %w", ErrCancelled, err)}
	}

	// --- Prepare ---
	progress.Update("prepare", "downloading attachment")
	blob, err := o.download(ctx, req.Attachment)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}

	durationSec := req.Attachment.DurationHint
	if durationSec <= 0 {
		durationSec = o.svc.Trans.ProbeDuration(ctx, blob)
	}
	if durationSec <= 0 {
		durationSec = o.svc.Config.DurationFloorSeconds
	}

	// --- Reserve ---
	progress.Update("reserve", "checking quota")
	key := NewQuotaKey(o.svc.Config.Scope, req.UserID, req.GuildID, o.loc, time.Now())
	ttlSeconds := SecondsUntilLocalMidnight(o.loc, time.Now()) + 60
	ok, used, err := o.svc.Quota.TryReserve(ctx, key, durationSec, o.svc.Config.DailyLimitSeconds, ttlSeconds)
	if err != nil {
		slog.Warn("sro: quota store error, failing open", "error", err)
	}
	metrics.RecordQuotaReservation(ctx, ok)
	if !ok {
		remaining := o.svc.Config.DailyLimitSeconds - used
		if remaining < 0 {
			remaining = 0
		}
		return Result{
			Kind:      ResultQuotaExceeded,
			Used:      used,
			Remaining: remaining,
			Err: &QuotaExceededError{
				Used:      used,
				Remaining: remaining,
				Limit:     o.svc.Config.DailyLimitSeconds,
			},
		}
	}
	resv := newReservation(o.svc.Quota, key, durationSec, ttlSeconds)
	defer resv.release(ctx)

	if err := ctx.Err(); err != nil {
		return Result{Kind: ResultError, Err: fmt.Errorf("%w: %w", ErrCancelled, err)}
	}

	// --- Normalize ---
	progress.Update("normalize", "adapting audio format")
	normalized, didTranscode, err := o.svc.Trans.EnsureRecognizerCompatible(ctx, blob)
	if err != nil {
		return Result{Kind: ResultError, Err: fmt.Errorf("%w: %v", ErrTranscode, err)}
	}

	// --- Resolve ---
	hints := o.resolveLanguage(ctx, req, normalized, req.PrimaryOverride)

	// --- Pick backend ---
	useLong := o.useLong(normalized)

	// --- Force mono for long ---
	if useLong && !isCanonicalWAV(normalized.Tag) {
		progress.Update("retranscode", "forcing mono for long-running recognition")
		remono, err := o.svc.Trans.ToWAV16kMono(ctx, normalized)
		if err != nil {
			return Result{Kind: ResultError, Err: fmt.Errorf("%w: %v", ErrTranscode, err)}
		}
		normalized = remono
	}

	outcome, mode, err := o.attemptSequence(ctx, progress, normalized, hints, useLong, didTranscode)
	if err != nil {
		return Result{Kind: ResultError, Err: err}
	}

	switch outcome.Kind {
	case OutcomeText:
		resv.commit()
		lang := o.svc.Lang.ObserveScript(outcome.Text)
		o.svc.Lang.RecordHistogram(ctx, req.ChannelID, req.UserID, lang)
		return Result{Kind: ResultSuccess, Transcript: outcome.Text, Mode: mode}

	case OutcomeAPIError:
		return Result{Kind: ResultError, Err: fmt.Errorf("%w: %s", ErrRecognizerAPI, outcome.Message)}

	default: // OutcomeEmpty after exhausting all attempts
		resv.commit()
		return Result{Kind: ResultNoSpeech, Err: ErrNoSpeech}
	}
}

// download reads the full attachment body into memory, tagged with its
// declared extension/content type.
func (o *Orchestrator) download(ctx context.Context, a Attachment) (AudioBlob, error) {
	rc, err := a.Open()
	if err != nil {
		return AudioBlob{}, fmt.Errorf("sro: open attachment: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return AudioBlob{}, fmt.Errorf("sro: read attachment: %w", err)
	}

	return AudioBlob{
		Bytes: data,
		Tag:   tagFromFilename(a.Filename, a.ContentType),
	}, nil
}

// resolveLanguage runs the language resolver's primary selection unless
// override is set, but always computes alternates: alternates selection is
// unconditional regardless of where the primary came from.
func (o *Orchestrator) resolveLanguage(ctx context.Context, req TranscribeRequest, blob AudioBlob, override string) LanguageHints {
	in := LanguageResolveInput{
		UserName:         req.UserName,
		ChannelName:      req.ChannelName,
		Caption:          req.Caption,
		ChannelHistogram: req.ChannelHistogram,
		UserHistogram:    req.UserHistogram,
	}
	if override != "" {
		return o.svc.Lang.AlternatesFor(ctx, override, in)
	}
	return o.svc.Lang.Resolve(ctx, in)
}

// useLong implements the backend-selection rule: size > 9MB, or compressed
// family with size > 1.8MB.
func (o *Orchestrator) useLong(blob AudioBlob) bool {
	size := blob.Size()
	if size > o.svc.Config.SyncMaxBytes {
		return true
	}
	if IsCompressedFamily(blob.Tag) && size > o.svc.Config.LongCompressedMinBytes {
		return true
	}
	return false
}

// isCanonicalWAV reports whether tag already identifies a WAV 16k mono blob
// (best-effort, by container alone — sample rate/channel count are asserted
// by the transcoder when it produces the blob).
func isCanonicalWAV(tag MediaTag) bool {
	return tag.Ext == ".wav"
}

// tagFromFilename derives a [MediaTag] from an attachment's name and
// declared content type.
func tagFromFilename(filename, contentType string) MediaTag {
	ext := extOf(filename)
	return MediaTag{Ext: ext, ContentType: contentType}
}
