// Package sync implements the Sync Recognizer Client component: a bounded
// synchronous recognition request against Google Cloud Speech-to-Text.
package sync

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/nopparoot15/saltybot/pkg/sro"
)

// oversizedCeiling is the synchronous API's approximate input size limit.
const oversizedCeiling = 9_000_000

// Client wraps a [speech.Client] to implement [sro.SyncRecognizer].
type Client struct {
	client *speech.Client
}

var _ sro.SyncRecognizer = (*Client)(nil)

// New creates a [Client] from an already-authenticated speech client.
func New(client *speech.Client) *Client {
	return &Client{client: client}
}

// Recognize implements [sro.SyncRecognizer]. Blobs over the synchronous
// ceiling return an internal oversized outcome via [sro.RecognitionOutcome.IsOversized]
// so the orchestrator can promote to long mode without surfacing an error.
func (c *Client) Recognize(ctx context.Context, req sro.RecognitionRequest) (sro.RecognitionOutcome, error) {
	if req.Blob.Size() > oversizedCeiling {
		return oversizedOutcome(), nil
	}

	cfg := buildConfig(req)

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	resp, err := c.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: req.Blob.Bytes},
		},
	})
	if err != nil {
		if isSyncInputTooLong(err) {
			return oversizedOutcome(), nil
		}
		return sro.RecognitionOutcome{Kind: sro.OutcomeAPIError, Message: err.Error()}, nil
	}

	transcript := joinTranscripts(resp.Results)
	if transcript == "" {
		return sro.RecognitionOutcome{Kind: sro.OutcomeEmpty}, nil
	}
	return sro.RecognitionOutcome{Kind: sro.OutcomeText, Text: transcript}, nil
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

// isSyncInputTooLong reports whether err's message indicates the API itself
// rejected the request as too large for sync mode, in which case the
// orchestrator should promote to long mode rather than surface an error.
func isSyncInputTooLong(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "sync input too long")
}

func oversizedOutcome() sro.RecognitionOutcome {
	return sro.NewOversizedOutcome()
}
