package long

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/nopparoot15/saltybot/pkg/sro"
)

type fakeObjectStore struct {
	mu      sync.Mutex
	deleted []string
	putErr  error
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	return "gs://bucket/" + key, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeObjectStore) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func TestRecognizeUploadFailureReturnsRecognizerError(t *testing.T) {
	store := &fakeObjectStore{putErr: errors.New("bucket unreachable")}
	c := New(nil, store, Config{})

	_, err := c.Recognize(context.Background(), sro.RecognitionRequest{Blob: sro.AudioBlob{Bytes: []byte("x")}})
	var recErr *sro.RecognizerError
	if !errors.As(err, &recErr) {
		t.Fatalf("expected *sro.RecognizerError, got %v", err)
	}
	if recErr.Kind != sro.RecognizerErrorUpload {
		t.Fatalf("kind = %v, want upload", recErr.Kind)
	}
	if !errors.Is(err, sro.ErrUpload) {
		t.Fatalf("expected errors.Is ErrUpload")
	}
}

func TestCleanupDeletesImmediatelyByDefault(t *testing.T) {
	store := &fakeObjectStore{}
	c := New(nil, store, Config{DeleteImmediate: true})
	c.cleanup("discord_uploads/abc.wav")
	if got := store.deletedKeys(); len(got) != 1 || got[0] != "discord_uploads/abc.wav" {
		t.Fatalf("deleted = %v", got)
	}
}

func TestCleanupSchedulesDelayedDeletion(t *testing.T) {
	store := &fakeObjectStore{}
	c := New(nil, store, Config{DeleteImmediate: false, DeleteDelay: 10 * time.Millisecond})
	c.cleanup("discord_uploads/abc.wav")
	if got := store.deletedKeys(); len(got) != 0 {
		t.Fatalf("expected no immediate delete, got %v", got)
	}
	time.Sleep(50 * time.Millisecond)
	if got := store.deletedKeys(); len(got) != 1 {
		t.Fatalf("expected delayed delete to have run, got %v", got)
	}
}

func TestJoinTranscriptsSkipsEmptyAlternatives(t *testing.T) {
	results := []*speechpb.SpeechRecognitionResult{
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "part one"}}},
		{Alternatives: nil},
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "part two"}}},
	}
	if got := joinTranscripts(results); got != "part one part two" {
		t.Fatalf("got %q", got)
	}
}

func TestEncodingForKnownHints(t *testing.T) {
	if got := encodingFor("LINEAR16"); got != speechpb.RecognitionConfig_LINEAR16 {
		t.Fatalf("got %v", got)
	}
	if got := encodingFor("unknown"); got != speechpb.RecognitionConfig_ENCODING_UNSPECIFIED {
		t.Fatalf("got %v", got)
	}
}
