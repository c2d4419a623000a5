package sro_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/nopparoot15/saltybot/pkg/sro"
)

// fakeQuotaStore is an in-memory stand-in for [sro.QuotaStore].
type fakeQuotaStore struct {
	used      map[string]int
	limit     int
	refunds   []int
	reserves  []int
	failOpen  bool
}

func newFakeQuotaStore(limit, startUsed int) *fakeQuotaStore {
	return &fakeQuotaStore{used: map[string]int{"k": startUsed}, limit: limit}
}

func (f *fakeQuotaStore) TryReserve(ctx context.Context, key sro.QuotaKey, seconds, limit, ttlSeconds int) (bool, int, error) {
	f.reserves = append(f.reserves, seconds)
	cur := f.used["k"]
	if cur+seconds > limit {
		return false, cur, nil
	}
	f.used["k"] = cur + seconds
	return true, f.used["k"], nil
}

func (f *fakeQuotaStore) Refund(ctx context.Context, key sro.QuotaKey, seconds, ttlSeconds int) error {
	f.refunds = append(f.refunds, seconds)
	cur := f.used["k"] - seconds
	if cur < 0 {
		cur = 0
	}
	f.used["k"] = cur
	return nil
}

func (f *fakeQuotaStore) GetUsed(ctx context.Context, key sro.QuotaKey) int {
	return f.used["k"]
}

type fakeObjectStore struct {
	deletedImmediately bool
	putCount           int
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.putCount++
	return "gs://bucket/" + key, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	f.deletedImmediately = true
	return nil
}

// fakeRecognizer returns outcomes from a queue, one per call, for either the
// sync or long arm, recording every request it was invoked with.
type fakeRecognizer struct {
	outcomes []sro.RecognitionOutcome
	errs     []error
	calls    int
	reqs     []sro.RecognitionRequest
}

func (f *fakeRecognizer) Recognize(ctx context.Context, req sro.RecognitionRequest) (sro.RecognitionOutcome, error) {
	i := f.calls
	f.calls++
	f.reqs = append(f.reqs, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return sro.RecognitionOutcome{}, f.errs[i]
	}
	if i < len(f.outcomes) {
		return f.outcomes[i], nil
	}
	return sro.RecognitionOutcome{Kind: sro.OutcomeEmpty}, nil
}

type fakeTranscoder struct {
	duration     int
	didTranscode bool
	remono       sro.AudioBlob
}

func (f *fakeTranscoder) ToWAV16kMono(ctx context.Context, blob sro.AudioBlob) (sro.AudioBlob, error) {
	if f.remono.Bytes != nil {
		return f.remono, nil
	}
	return sro.AudioBlob{Bytes: blob.Bytes, Tag: sro.MediaTag{Ext: ".wav", ContentType: "audio/wav"}}, nil
}

func (f *fakeTranscoder) EnsureRecognizerCompatible(ctx context.Context, blob sro.AudioBlob) (sro.AudioBlob, bool, error) {
	return blob, f.didTranscode, nil
}

func (f *fakeTranscoder) ProbeDuration(ctx context.Context, blob sro.AudioBlob) int {
	return f.duration
}

type fakeLangResolver struct {
	hints      sro.LanguageHints // returned by Resolve
	alternates sro.LanguageHints // AlternatesRound1/2 returned by AlternatesFor

	resolveCalled        bool
	alternatesForCalled  bool
	alternatesForPrimary string

	observed     string
	recordedLang string
	recordCalled bool
}

func (f *fakeLangResolver) Resolve(ctx context.Context, in sro.LanguageResolveInput) sro.LanguageHints {
	f.resolveCalled = true
	return f.hints
}

// AlternatesFor mirrors internal/langresolver.Resolver.AlternatesFor: it
// computes alternates for an explicit primary, independent of Resolve.
func (f *fakeLangResolver) AlternatesFor(ctx context.Context, primary string, in sro.LanguageResolveInput) sro.LanguageHints {
	f.alternatesForCalled = true
	f.alternatesForPrimary = primary
	hints := f.alternates
	hints.Primary = primary
	return hints
}

func (f *fakeLangResolver) ObserveScript(text string) string {
	return f.observed
}

func (f *fakeLangResolver) RecordHistogram(ctx context.Context, channelID, userID, lang string) {
	f.recordCalled = true
	f.recordedLang = lang
}

func attachmentFromBytes(name string, data []byte) sro.Attachment {
	return sro.Attachment{
		Filename: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
		DeclaredSize: int64(len(data)),
	}
}

func newTestServiceContext(quota *fakeQuotaStore, obj *fakeObjectStore, syncRec, longRec *fakeRecognizer, trans *fakeTranscoder, lang *fakeLangResolver) *sro.ServiceContext {
	cfg := sro.DefaultOrchestratorConfig()
	cfg.LocalTZ = "UTC"
	return &sro.ServiceContext{
		Quota:  quota,
		Object: obj,
		Sync:   syncRec,
		Long:   longRec,
		Trans:  trans,
		Lang:   lang,
		Config: cfg,
	}
}

func TestTranscribeHappyPathShortThaiWAV(t *testing.T) {
	quota := newFakeQuotaStore(120, 0)
	lang := &fakeLangResolver{observed: "th-TH"}
	syncRec := &fakeRecognizer{outcomes: []sro.RecognitionOutcome{{Kind: sro.OutcomeText, Text: "สวัสดี"}}}
	trans := &fakeTranscoder{duration: 12}
	svc := newTestServiceContext(quota, &fakeObjectStore{}, syncRec, &fakeRecognizer{}, trans, lang)

	orch, err := sro.New(svc)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result := orch.Transcribe(context.Background(), sro.TranscribeRequest{
		Attachment:      attachmentFromBytes("a.wav", make([]byte, 200_000)),
		UserID:          "u1",
		ChannelID:       "c1",
		PrimaryOverride: "th-TH",
	})

	if result.Kind != sro.ResultSuccess {
		t.Fatalf("Kind = %v, want Success (err=%v)", result.Kind, result.Err)
	}
	if result.Mode != sro.ModeSync {
		t.Fatalf("Mode = %v, want sync", result.Mode)
	}
	if quota.used["k"] != 12 {
		t.Fatalf("used = %d, want 12", quota.used["k"])
	}
	if !lang.recordCalled || lang.recordedLang != "th-TH" {
		t.Fatalf("expected histogram recorded for th-TH, got called=%v lang=%q", lang.recordCalled, lang.recordedLang)
	}
	if !lang.alternatesForCalled || lang.alternatesForPrimary != "th-TH" {
		t.Fatalf("expected AlternatesFor called with override primary, got called=%v primary=%q", lang.alternatesForCalled, lang.alternatesForPrimary)
	}
	if lang.resolveCalled {
		t.Fatalf("expected Resolve not called when PrimaryOverride is set")
	}
}

// TestTranscribeFallsBackToAlternates covers the documented recovery
// sequence when a caller-supplied primary override's first attempt returns
// no speech: alternates computation must run even though Resolve's primary
// selection was skipped, and the second attempt's request must carry them.
func TestTranscribeFallsBackToAlternates(t *testing.T) {
	quota := newFakeQuotaStore(120, 0)
	lang := &fakeLangResolver{
		alternates: sro.LanguageHints{AlternatesRound1: []string{"en-US"}},
		observed:   "en-US",
	}
	syncRec := &fakeRecognizer{outcomes: []sro.RecognitionOutcome{
		{Kind: sro.OutcomeEmpty},
		{Kind: sro.OutcomeText, Text: "hello there"},
	}}
	trans := &fakeTranscoder{duration: 8}
	svc := newTestServiceContext(quota, &fakeObjectStore{}, syncRec, &fakeRecognizer{}, trans, lang)

	orch, _ := sro.New(svc)
	result := orch.Transcribe(context.Background(), sro.TranscribeRequest{
		Attachment:      attachmentFromBytes("b.wav", make([]byte, 100_000)),
		UserID:          "u1",
		PrimaryOverride: "th-TH",
	})

	if result.Kind != sro.ResultSuccess || result.Transcript != "hello there" {
		t.Fatalf("result = %+v", result)
	}
	if syncRec.calls != 2 {
		t.Fatalf("expected 2 recognizer calls, got %d", syncRec.calls)
	}
	if !lang.alternatesForCalled || lang.alternatesForPrimary != "th-TH" {
		t.Fatalf("expected AlternatesFor called with override primary, got called=%v primary=%q", lang.alternatesForCalled, lang.alternatesForPrimary)
	}
	if lang.resolveCalled {
		t.Fatalf("expected Resolve not called when PrimaryOverride is set")
	}
	if len(syncRec.reqs) != 2 || len(syncRec.reqs[1].Alternates) != 1 || syncRec.reqs[1].Alternates[0] != "en-US" {
		t.Fatalf("expected attempt 2 request to carry alternates [en-US], got %+v", syncRec.reqs)
	}
	if lang.recordedLang != "en-US" {
		t.Fatalf("expected en-US recorded, got %q", lang.recordedLang)
	}
}

func TestTranscribeQuotaExceededSkipsRecognition(t *testing.T) {
	quota := newFakeQuotaStore(120, 110)
	syncRec := &fakeRecognizer{}
	trans := &fakeTranscoder{duration: 60}
	lang := &fakeLangResolver{hints: sro.LanguageHints{Primary: "th-TH"}}
	svc := newTestServiceContext(quota, &fakeObjectStore{}, syncRec, &fakeRecognizer{}, trans, lang)

	orch, _ := sro.New(svc)
	result := orch.Transcribe(context.Background(), sro.TranscribeRequest{
		Attachment: attachmentFromBytes("c.wav", make([]byte, 1000)),
		UserID:     "u1",
	})

	if result.Kind != sro.ResultQuotaExceeded {
		t.Fatalf("Kind = %v, want QuotaExceeded", result.Kind)
	}
	if result.Used != 110 || result.Remaining != 10 {
		t.Fatalf("used=%d remaining=%d, want 110/10", result.Used, result.Remaining)
	}
	if syncRec.calls != 0 {
		t.Fatalf("expected no recognizer calls, got %d", syncRec.calls)
	}
	if lang.recordCalled {
		t.Fatalf("expected no histogram update")
	}
}

func TestTranscribeRecognizerAPIErrorRefunds(t *testing.T) {
	quota := newFakeQuotaStore(120, 0)
	syncRec := &fakeRecognizer{outcomes: []sro.RecognitionOutcome{{Kind: sro.OutcomeAPIError, Message: "500"}}}
	trans := &fakeTranscoder{duration: 30}
	lang := &fakeLangResolver{hints: sro.LanguageHints{Primary: "th-TH"}}
	svc := newTestServiceContext(quota, &fakeObjectStore{}, syncRec, &fakeRecognizer{}, trans, lang)

	orch, _ := sro.New(svc)
	result := orch.Transcribe(context.Background(), sro.TranscribeRequest{
		Attachment: attachmentFromBytes("d.wav", make([]byte, 1000)),
		UserID:     "u1",
	})

	if result.Kind != sro.ResultError {
		t.Fatalf("Kind = %v, want ResultError", result.Kind)
	}
	if quota.used["k"] != 0 {
		t.Fatalf("used = %d, want 0 after refund", quota.used["k"])
	}
	if len(quota.refunds) != 1 || quota.refunds[0] != 30 {
		t.Fatalf("refunds = %v, want [30]", quota.refunds)
	}
}

func TestTranscribeNoSpeechAfterAllAttemptsNoRefund(t *testing.T) {
	quota := newFakeQuotaStore(120, 0)
	// Attempt 1 (strict) empty, attempt 3 (forced re-transcode, no alternates
	// since hints carry none) empty — attemptSequence exhausts without a
	// refund since NoSpeech still commits the reservation.
	syncRec := &fakeRecognizer{outcomes: []sro.RecognitionOutcome{
		{Kind: sro.OutcomeEmpty},
		{Kind: sro.OutcomeEmpty},
	}}
	trans := &fakeTranscoder{duration: 10}
	lang := &fakeLangResolver{hints: sro.LanguageHints{Primary: "th-TH"}}
	svc := newTestServiceContext(quota, &fakeObjectStore{}, syncRec, &fakeRecognizer{}, trans, lang)

	orch, _ := sro.New(svc)
	result := orch.Transcribe(context.Background(), sro.TranscribeRequest{
		Attachment: attachmentFromBytes("silence.wav", make([]byte, 1000)),
		UserID:     "u1",
	})

	if result.Kind != sro.ResultNoSpeech {
		t.Fatalf("Kind = %v, want NoSpeech (err=%v)", result.Kind, result.Err)
	}
	if quota.used["k"] != 10 {
		t.Fatalf("used = %d, want 10 (committed, no refund)", quota.used["k"])
	}
	if len(quota.refunds) != 0 {
		t.Fatalf("expected no refunds, got %v", quota.refunds)
	}
	if lang.recordCalled {
		t.Fatalf("expected no histogram update on NoSpeech")
	}
}

func TestTranscribeLongModeForcesMono(t *testing.T) {
	quota := newFakeQuotaStore(600, 0)
	longRec := &fakeRecognizer{outcomes: []sro.RecognitionOutcome{{Kind: sro.OutcomeText, Text: "long form transcript"}}}
	trans := &fakeTranscoder{duration: 180}
	lang := &fakeLangResolver{hints: sro.LanguageHints{Primary: "th-TH"}, observed: "th-TH"}
	obj := &fakeObjectStore{}
	cfg := sro.DefaultOrchestratorConfig()
	cfg.LocalTZ = "UTC"
	cfg.ObjectDeleteImmediate = true
	svc := &sro.ServiceContext{
		Quota: quota, Object: obj, Sync: &fakeRecognizer{}, Long: longRec, Trans: trans, Lang: lang, Config: cfg,
	}

	orch, _ := sro.New(svc)
	result := orch.Transcribe(context.Background(), sro.TranscribeRequest{
		Attachment: attachmentFromBytes("big.mp3", make([]byte, 12_000_000)),
		UserID:     "u1",
	})

	if result.Kind != sro.ResultSuccess || result.Mode != sro.ModeLong {
		t.Fatalf("result = %+v", result)
	}
	if longRec.calls != 1 {
		t.Fatalf("expected exactly one long recognizer call, got %d", longRec.calls)
	}
	if req := longRec.reqs[0]; req.Blob.Tag.Ext != ".wav" || !req.MonoHint {
		t.Fatalf("expected long request on re-transcoded mono WAV, got ext=%q mono=%v", req.Blob.Tag.Ext, req.MonoHint)
	}
}
