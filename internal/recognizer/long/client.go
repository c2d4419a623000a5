// Package long implements the Long Recognizer Client component:
// upload-start-poll-join-cleanup recognition for inputs too large for sync
// mode.
package long

import (
	"context"
	"log/slog"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/nopparoot15/saltybot/internal/objectstore"
	"github.com/nopparoot15/saltybot/pkg/sro"
)

// Config controls polling cadence and cleanup policy.
type Config struct {
	PollInterval time.Duration
	PollMax      time.Duration

	// DeleteImmediate deletes the uploaded object synchronously on success.
	// When false, DeleteDelay is used for a best-effort scheduled deletion.
	DeleteImmediate bool
	DeleteDelay     time.Duration
}

// Client wraps a [speech.Client] and an [sro.ObjectStore] to implement
// [sro.LongRecognizer].
type Client struct {
	speech *speech.Client
	object sro.ObjectStore
	cfg    Config
}

var _ sro.LongRecognizer = (*Client)(nil)

// New creates a [Client].
func New(speechClient *speech.Client, object sro.ObjectStore, cfg Config) *Client {
	return &Client{speech: speechClient, object: object, cfg: cfg}
}

// Recognize implements [sro.LongRecognizer]: upload, start, poll, join,
// cleanup.
func (c *Client) Recognize(ctx context.Context, req sro.RecognitionRequest) (sro.RecognitionOutcome, error) {
	key := objectstore.NewKey(req.Blob.Tag.Ext)

	uri, err := c.object.Put(ctx, key, req.Blob.Bytes, req.Blob.Tag.ContentType)
	if err != nil {
		return sro.RecognitionOutcome{}, &sro.RecognizerError{Kind: sro.RecognizerErrorUpload, Preview: err.Error()}
	}
	// Every path past this point must schedule cleanup of the uploaded object.
	defer c.cleanup(key)

	op, err := c.speech.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: buildConfig(req),
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: uri},
		},
	})
	if err != nil {
		return sro.RecognitionOutcome{}, &sro.RecognizerError{Kind: sro.RecognizerErrorStart, Preview: err.Error()}
	}

	resp, err := c.poll(ctx, op)
	if err != nil {
		return sro.RecognitionOutcome{}, err
	}

	transcript := joinTranscripts(resp.Results)
	if transcript == "" {
		return sro.RecognitionOutcome{Kind: sro.OutcomeEmpty}, nil
	}
	return sro.RecognitionOutcome{Kind: sro.OutcomeText, Text: transcript}, nil
}

// poll waits for op to finish, bounded by cfg.PollMax. op.Wait blocks until
// the operation resolves on its own cadence; alongside it, a separate
// goroutine polls op's metadata every cfg.PollInterval purely to log
// progress — it never resolves the operation itself.
func (c *Client) poll(ctx context.Context, op *speech.LongRunningRecognizeOperation) (*speechpb.LongRunningRecognizeResponse, error) {
	pollMax := c.cfg.PollMax
	if pollMax <= 0 {
		pollMax = 900 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, pollMax)
	defer cancel()

	if c.cfg.PollInterval > 0 {
		done := make(chan struct{})
		defer close(done)
		go c.reportProgress(ctx, op, c.cfg.PollInterval, done)
	}

	resp, err := op.Wait(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &sro.RecognizerError{Kind: sro.RecognizerErrorPollTimeout, Preview: "long recognize poll exceeded wall-clock limit"}
		}
		return nil, &sro.RecognizerError{Kind: sro.RecognizerErrorAPI, Preview: err.Error()}
	}
	return resp, nil
}

// reportProgress logs the operation's progress percentage every interval
// until done is closed or ctx is cancelled. It is advisory only: op.Wait in
// poll is what actually resolves the recognition.
func (c *Client) reportProgress(ctx context.Context, op *speech.LongRunningRecognizeOperation, interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	lastPercent := int32(-1)
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			meta, err := op.Metadata()
			if err != nil || meta == nil {
				continue
			}
			if p := meta.GetProgressPercent(); p != lastPercent {
				lastPercent = p
				slog.Debug("long recognizer progress", "percent", p)
			}
		}
	}
}

// cleanup deletes the uploaded object per policy. Scheduled deletions are
// best-effort and run detached from the request context.
func (c *Client) cleanup(key string) {
	if c.cfg.DeleteImmediate || c.cfg.DeleteDelay <= 0 {
		if err := c.object.Delete(context.Background(), key); err != nil {
			slog.Warn("long recognizer cleanup failed", "key", key, "err", err)
		}
		return
	}
	delay := c.cfg.DeleteDelay
	go func() {
		time.Sleep(delay)
		if err := c.object.Delete(context.Background(), key); err != nil {
			slog.Warn("long recognizer delayed cleanup failed", "key", key, "err", err)
		}
	}()
}

func buildConfig(req sro.RecognitionRequest) *speechpb.RecognitionConfig {
	cfg := &speechpb.RecognitionConfig{
		Encoding:                   encodingFor(req.EncodingHint),
		LanguageCode:               req.Primary,
		AlternativeLanguageCodes:   limitThree(req.Alternates),
		EnableAutomaticPunctuation: req.Punctuation,
		MaxAlternatives:            int32(req.MaxAlternatives),
		ProfanityFilter:            req.ProfanityFilter,
		Model:                      req.Model,
		UseEnhanced:                req.UseEnhanced,
	}
	if req.SampleRateHint > 0 {
		cfg.SampleRateHertz = int32(req.SampleRateHint)
	}
	if req.MonoHint {
		cfg.AudioChannelCount = 1
	}
	if req.Diarization != nil {
		cfg.DiarizationConfig = &speechpb.SpeakerDiarizationConfig{
			EnableSpeakerDiarization: req.Diarization.Enabled,
			MinSpeakerCount:          int32(req.Diarization.MinSpeakers),
			MaxSpeakerCount:          int32(req.Diarization.MaxSpeakers),
		}
	}
	for _, phrase := range req.SpeechContexts {
		cfg.SpeechContexts = append(cfg.SpeechContexts, &speechpb.SpeechContext{Phrases: []string{phrase}})
	}
	return cfg
}

func encodingFor(hint string) speechpb.RecognitionConfig_AudioEncoding {
	switch hint {
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "MP3":
		return speechpb.RecognitionConfig_MP3
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func limitThree(alts []string) []string {
	if len(alts) > 3 {
		return alts[:3]
	}
	return alts
}

func joinTranscripts(results []*speechpb.SpeechRecognitionResult) string {
	var b strings.Builder
	for _, r := range results {
		if len(r.Alternatives) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(r.Alternatives[0].Transcript)
	}
	return b.String()
}
