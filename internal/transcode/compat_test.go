package transcode

import (
	"context"
	"testing"

	"github.com/nopparoot15/saltybot/pkg/sro"
)

func TestEnsureRecognizerCompatiblePassthroughForCanonicalWAV(t *testing.T) {
	tr := New()
	blob := sro.AudioBlob{
		Bytes: []byte("RIFF....WAVEfmt "),
		Tag:   sro.MediaTag{Ext: ".wav", ContentType: "audio/wav"},
	}

	out, didTranscode, err := tr.EnsureRecognizerCompatible(context.Background(), blob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if didTranscode {
		t.Fatalf("did_transcode should be false for an already-canonical WAV")
	}
	if len(out.Bytes) != len(blob.Bytes) {
		t.Fatalf("passthrough should not alter bytes")
	}
}

func TestEnsureRecognizerCompatibleWebmWithOpusPassesThrough(t *testing.T) {
	tr := New()
	blob := sro.AudioBlob{
		Bytes: []byte("fake"),
		Tag:   sro.MediaTag{Ext: ".webm", ContentType: "audio/webm;codecs=opus"},
	}

	_, didTranscode, err := tr.EnsureRecognizerCompatible(context.Background(), blob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if didTranscode {
		t.Fatalf("webm with opus codec hint should pass through")
	}
}

func TestProbeDurationReturnsZeroOnFailure(t *testing.T) {
	tr := New()
	tr.Binary = "ffmpeg"
	blob := sro.AudioBlob{Bytes: []byte("not real audio"), Tag: sro.MediaTag{Ext: ".wav"}}

	got := tr.ProbeDuration(context.Background(), blob)
	if got != 0 {
		t.Fatalf("expected 0 on probe failure of garbage input, got %d", got)
	}
}
