package sro

import (
	"context"
	"time"

	"github.com/nopparoot15/saltybot/internal/observe"
)

// defaultRecognizeTimeout is applied to every built [RecognitionRequest].
const defaultRecognizeTimeout = 120 * time.Second

// attemptSequence runs attempts 1 through 3 per the documented recovery
// sequence and returns the outcome that ends the sequence, plus the mode tag
// of whichever recognizer produced it.
func (o *Orchestrator) attemptSequence(
	ctx context.Context,
	progress ProgressSink,
	blob AudioBlob,
	hints LanguageHints,
	useLong bool,
	alreadyTranscoded bool,
) (RecognitionOutcome, ModeTag, error) {
	mode := modeTag(useLong)

	// Attempt 1 — strict.
	progress.Update("attempt", "strict pass")
	outcome, err := o.recognize(ctx, useLong, buildRequest(blob, hints.Primary, nil))
	if err != nil {
		return RecognitionOutcome{}, mode, err
	}
	switch outcome.Kind {
	case OutcomeText, OutcomeAPIError:
		return outcome, mode, nil
	}

	// Attempt 2 — alternates.
	alts := hints.AlternatesRound1
	if alts == nil {
		alts = hints.AlternatesRound2
	}
	if len(alts) > 0 {
		progress.Update("attempt", "alternates pass")
		outcome, err = o.recognize(ctx, useLong, buildRequest(blob, hints.Primary, alts))
		if err != nil {
			return RecognitionOutcome{}, mode, err
		}
		switch outcome.Kind {
		case OutcomeText, OutcomeAPIError:
			return outcome, mode, nil
		}
	}

	// Attempt 3 — force re-transcode then retry, only if the input was not
	// already transcoded during Normalize.
	if alreadyTranscoded {
		return outcome, mode, nil // still OutcomeEmpty
	}

	progress.Update("attempt", "forced re-transcode and retry")
	remono, err := o.svc.Trans.ToWAV16kMono(ctx, blob)
	if err != nil {
		return RecognitionOutcome{}, mode, err
	}
	useLong = o.useLong(remono)
	mode = modeTag(useLong)

	outcome, err = o.recognize(ctx, useLong, buildRequest(remono, hints.Primary, nil))
	if err != nil {
		return RecognitionOutcome{}, mode, err
	}
	if outcome.Kind != OutcomeEmpty {
		return outcome, mode, nil
	}

	if len(alts) > 0 {
		outcome, err = o.recognize(ctx, useLong, buildRequest(remono, hints.Primary, alts))
		if err != nil {
			return RecognitionOutcome{}, mode, err
		}
	}
	return outcome, mode, nil
}

// recognize dispatches to the sync or long recognizer client.
func (o *Orchestrator) recognize(ctx context.Context, useLong bool, req RecognitionRequest) (RecognitionOutcome, error) {
	if useLong {
		outcome, err := o.svc.Long.Recognize(ctx, req)
		recordAttemptMetric(ctx, ModeLong, outcome, err)
		return outcome, err
	}
	outcome, err := o.svc.Sync.Recognize(ctx, req)
	if err != nil {
		recordAttemptMetric(ctx, ModeSync, outcome, err)
		return RecognitionOutcome{}, err
	}
	if outcome.IsOversized() {
		// Sync refused on size; promote to long mode for this same attempt.
		longOutcome, longErr := o.svc.Long.Recognize(ctx, req)
		recordAttemptMetric(ctx, ModeLong, longOutcome, longErr)
		return longOutcome, longErr
	}
	recordAttemptMetric(ctx, ModeSync, outcome, nil)
	return outcome, nil
}

// recordAttemptMetric reports one recognizer attempt to the default metrics
// instance, tagged by backend mode and outcome.
func recordAttemptMetric(ctx context.Context, mode ModeTag, outcome RecognitionOutcome, err error) {
	result := "error"
	if err == nil {
		switch outcome.Kind {
		case OutcomeText:
			result = "text"
		case OutcomeEmpty:
			result = "empty"
		case OutcomeAPIError:
			result = "api_error"
		default:
			result = "oversized"
		}
	}
	observe.DefaultMetrics().RecordRecognitionAttempt(ctx, string(mode), result)
}

func modeTag(useLong bool) ModeTag {
	if useLong {
		return ModeLong
	}
	return ModeSync
}

// buildRequest assembles a fresh [RecognitionRequest] for one attempt.
func buildRequest(blob AudioBlob, primary string, alternates []string) RecognitionRequest {
	if len(alternates) > 3 {
		alternates = alternates[:3]
	}
	req := RecognitionRequest{
		Blob:            blob,
		Primary:         primary,
		Alternates:      alternates,
		EncodingHint:    EncodingForTag(blob.Tag),
		Punctuation:     true,
		MaxAlternatives: 1,
		Timeout:         defaultRecognizeTimeout,
	}
	if req.EncodingHint == "OGG_OPUS" || req.EncodingHint == "WEBM_OPUS" {
		req.SampleRateHint = 48000
	} else if req.EncodingHint == "LINEAR16" {
		req.SampleRateHint = 16000
		req.MonoHint = true
	}
	return req
}
