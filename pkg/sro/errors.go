package sro

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying orchestrator failures. Use [errors.Is] against
// these, or [errors.As] against the accompanying typed errors for detail.
var (
	// ErrQuotaExceeded is returned when try_reserve refuses a reservation.
	// No refund is needed because nothing was reserved.
	ErrQuotaExceeded = errors.New("sro: daily quota exceeded")

	// ErrQuotaStoreUnavailable is returned by a [QuotaStore] alongside ok=true
	// when the store is unreachable (the fixed fail-open policy). The
	// orchestrator logs it and never surfaces it in a [Result].
	ErrQuotaStoreUnavailable = errors.New("sro: quota store unavailable")

	// ErrTranscode is returned when every transcode plan has been exhausted.
	ErrTranscode = errors.New("sro: transcode failed")

	// ErrUpload is returned when uploading a blob to the object store fails.
	ErrUpload = errors.New("sro: object upload failed")

	// ErrStart is returned when starting a long-running recognize operation
	// fails.
	ErrStart = errors.New("sro: recognize start failed")

	// ErrPollTimeout is returned when a long-running operation does not
	// complete within the configured wall-clock bound.
	ErrPollTimeout = errors.New("sro: recognize poll timed out")

	// ErrRecognizerAPI is returned for any other recognizer-side failure.
	ErrRecognizerAPI = errors.New("sro: recognizer api error")

	// ErrNoSpeech is returned when every attempt came back empty.
	ErrNoSpeech = errors.New("sro: no intelligible speech")

	// ErrCancelled wraps caller cancellation.
	ErrCancelled = errors.New("sro: cancelled")
)

// QuotaExceededError carries the used/remaining figures surfaced to the
// caller alongside [ErrQuotaExceeded].
type QuotaExceededError struct {
	Used      int
	Remaining int
	Limit     int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("sro: daily quota exceeded (used=%d remaining=%d limit=%d)", e.Used, e.Remaining, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// TranscodeError carries the diagnostic stderr tail (at most 600 bytes) from
// the last failed transcode plan.
type TranscodeError struct {
	StderrTail string
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("sro: transcode failed: %s", e.StderrTail)
}

func (e *TranscodeError) Unwrap() error { return ErrTranscode }

// RecognizerErrorKind discriminates the recognizer-side failure reported by
// a [RecognizerError].
type RecognizerErrorKind int

const (
	RecognizerErrorUpload RecognizerErrorKind = iota
	RecognizerErrorStart
	RecognizerErrorPollTimeout
	RecognizerErrorAPI
)

// RecognizerError carries a short diagnostic preview for any of the
// recognizer-related failure modes.
type RecognizerError struct {
	Kind    RecognizerErrorKind
	Preview string
}

func (e *RecognizerError) Error() string {
	return fmt.Sprintf("sro: recognizer error (%s): %s", e.sentinel(), e.Preview)
}

func (e *RecognizerError) Unwrap() error {
	switch e.Kind {
	case RecognizerErrorUpload:
		return ErrUpload
	case RecognizerErrorStart:
		return ErrStart
	case RecognizerErrorPollTimeout:
		return ErrPollTimeout
	default:
		return ErrRecognizerAPI
	}
}

func (e *RecognizerError) sentinel() string {
	switch e.Kind {
	case RecognizerErrorUpload:
		return "upload"
	case RecognizerErrorStart:
		return "start"
	case RecognizerErrorPollTimeout:
		return "poll_timeout"
	default:
		return "api"
	}
}
