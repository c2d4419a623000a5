// Package transcode implements the Transcoder component: conversion of
// arbitrary audio/video bytes into canonical WAV 16 kHz mono PCM via a
// multi-plan ffmpeg strategy with fallback across pipe, forced-demuxer, and
// seekable-temp-file invocations.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/nopparoot15/saltybot/internal/observe"
	"github.com/nopparoot15/saltybot/pkg/sro"
)

// successFloor is the minimum output byte length treated as a real success;
// shorter output usually means ffmpeg emitted a WAV header and nothing else.
const successFloor = 1000

// stderrTailLen bounds the diagnostic stderr tail surfaced on total failure.
const stderrTailLen = 600

var commonTail = []string{
	"-vn", "-sn",
	"-acodec", "pcm_s16le",
	"-ac", "1",
	"-ar", "16000",
	"-f", "wav", "pipe:1",
}

// Transcoder runs ffmpeg as a subprocess per plan. Binary defaults to
// "ffmpeg" found on PATH.
type Transcoder struct {
	Binary string
}

var _ sro.Transcoder = (*Transcoder)(nil)

// New returns a [Transcoder] using the ffmpeg binary on PATH.
func New() *Transcoder {
	return &Transcoder{Binary: "ffmpeg"}
}

func (t *Transcoder) bin() string {
	if t.Binary == "" {
		return "ffmpeg"
	}
	return t.Binary
}

// run executes one ffmpeg invocation, optionally piping stdin, and returns
// stdout, stderr, and any process-start/wait error (a non-zero exit status
// is reported via err, matching exec.Cmd.Run's convention).
func (t *Transcoder) run(ctx context.Context, args []string, stdin []byte) ([]byte, string, error) {
	cmd := exec.CommandContext(ctx, t.bin(), args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.String(), err
}

// ToWAV16kMono runs the multi-plan strategy documented on [sro.Transcoder].
func (t *Transcoder) ToWAV16kMono(ctx context.Context, blob sro.AudioBlob) (sro.AudioBlob, error) {
	metrics := observe.DefaultMetrics()
	start := time.Now()
	defer func() {
		metrics.TranscodeDuration.Record(ctx, time.Since(start).Seconds())
	}()

	ext := strings.ToLower(blob.Tag.Ext)
	ctype := strings.ToLower(blob.Tag.ContentType)
	var lastErr string

	tryPlan := func(out []byte, stderr string, rc error) (sro.AudioBlob, bool) {
		if rc == nil && len(out) > successFloor {
			return sro.AudioBlob{Bytes: out, Tag: sro.MediaTag{Ext: ".wav", ContentType: "audio/wav"}}, true
		}
		if stderr != "" {
			lastErr = stderr
		}
		return sro.AudioBlob{}, false
	}

	// Plan A: pipe.
	argsA := append([]string{
		"-nostdin", "-loglevel", "error", "-hide_banner", "-y",
		"-probesize", "50M", "-analyzeduration", "200M", "-i", "pipe:0",
	}, commonTail...)
	out, stderr, err := t.run(ctx, argsA, blob.Bytes)
	if result, ok := tryPlan(out, stderr, err); ok {
		metrics.RecordTranscodePlan(ctx, "pipe", true)
		return result, nil
	}
	metrics.RecordTranscodePlan(ctx, "pipe", false)

	// Plan B: force demuxer by family.
	forceDemux := func(format string) (sro.AudioBlob, bool) {
		args := append([]string{
			"-nostdin", "-loglevel", "error", "-hide_banner", "-y",
			"-f", format, "-probesize", "50M", "-analyzeduration", "200M", "-i", "pipe:0",
		}, commonTail...)
		out, stderr, err := t.run(ctx, args, blob.Bytes)
		return tryPlan(out, stderr, err)
	}
	switch {
	case ext == ".m4a" || ext == ".mp4" || strings.Contains(ctype, "audio/mp4") || strings.Contains(ctype, "video/mp4"):
		if result, ok := forceDemux("mp4"); ok {
			metrics.RecordTranscodePlan(ctx, "force_demux", true)
			return result, nil
		}
		metrics.RecordTranscodePlan(ctx, "force_demux", false)
	case ext == ".aac" || strings.Contains(ctype, "audio/aac"):
		if result, ok := forceDemux("aac"); ok {
			metrics.RecordTranscodePlan(ctx, "force_demux", true)
			return result, nil
		}
		metrics.RecordTranscodePlan(ctx, "force_demux", false)
	case ext == ".webm" || strings.Contains(ctype, "webm"):
		if result, ok := forceDemux("webm"); ok {
			metrics.RecordTranscodePlan(ctx, "force_demux", true)
			return result, nil
		}
		metrics.RecordTranscodePlan(ctx, "force_demux", false)
	}

	// Plan C: seekable temp file, needed for containers ffmpeg cannot probe
	// from a non-seekable pipe.
	needSeekable := ext == ".m4a" || ext == ".mp4" || ext == ".aac" ||
		strings.Contains(ctype, "audio/mp4") || strings.Contains(ctype, "video/mp4") || strings.Contains(ctype, "audio/aac")
	if needSeekable {
		if result, ok, err := t.planTempFile(ctx, blob.Bytes, tempSuffix(ext), &lastErr); err != nil {
			return sro.AudioBlob{}, err
		} else if ok {
			metrics.RecordTranscodePlan(ctx, "temp_file", true)
			return result, nil
		}
		metrics.RecordTranscodePlan(ctx, "temp_file", false)
	}

	// Plan D: webm temp file variant.
	if ext == ".webm" || strings.Contains(ctype, "webm") {
		if result, ok, err := t.planWebmTempFile(ctx, blob.Bytes, &lastErr); err != nil {
			return sro.AudioBlob{}, err
		} else if ok {
			metrics.RecordTranscodePlan(ctx, "webm_temp_file", true)
			return result, nil
		}
		metrics.RecordTranscodePlan(ctx, "webm_temp_file", false)
	}

	tail := lastErr
	if tail == "" {
		tail = "no stderr"
	}
	if len(tail) > stderrTailLen {
		tail = tail[len(tail)-stderrTailLen:]
	}
	return sro.AudioBlob{}, fmt.Errorf("%w", &sro.TranscodeError{StderrTail: tail})
}

// planTempFile implements Plan C: write to a seekable temp file, then retry
// the base invocation and, if that still fails, an error-tolerant
// sub-attempt with fflags/err_detect set.
func (t *Transcoder) planTempFile(ctx context.Context, data []byte, suffix string, lastErr *string) (sro.AudioBlob, bool, error) {
	f, err := os.CreateTemp("", "sro-transcode-*"+suffix)
	if err != nil {
		return sro.AudioBlob{}, false, fmt.Errorf("sro: create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return sro.AudioBlob{}, false, fmt.Errorf("sro: write temp file: %w", err)
	}
	f.Close()

	args1 := append([]string{
		"-nostdin", "-loglevel", "error", "-hide_banner", "-y",
		"-probesize", "50M", "-analyzeduration", "200M", "-i", path,
	}, commonTail...)
	out, stderr, err := t.run(ctx, args1, nil)
	if err == nil && len(out) > successFloor {
		return sro.AudioBlob{Bytes: out, Tag: sro.MediaTag{Ext: ".wav", ContentType: "audio/wav"}}, true, nil
	}
	if stderr != "" {
		*lastErr = stderr
	}

	args2 := append([]string{
		"-nostdin", "-loglevel", "error", "-hide_banner", "-y",
		"-fflags", "+genpts+ignidx", "-err_detect", "ignore_err",
		"-probesize", "50M", "-analyzeduration", "200M", "-i", path,
	}, commonTail...)
	out, stderr, err = t.run(ctx, args2, nil)
	if err == nil && len(out) > successFloor {
		return sro.AudioBlob{Bytes: out, Tag: sro.MediaTag{Ext: ".wav", ContentType: "audio/wav"}}, true, nil
	}
	if stderr != "" {
		*lastErr = stderr
	}
	return sro.AudioBlob{}, false, nil
}

// planWebmTempFile implements Plan D.
func (t *Transcoder) planWebmTempFile(ctx context.Context, data []byte, lastErr *string) (sro.AudioBlob, bool, error) {
	f, err := os.CreateTemp("", "sro-transcode-*.webm")
	if err != nil {
		return sro.AudioBlob{}, false, fmt.Errorf("sro: create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return sro.AudioBlob{}, false, fmt.Errorf("sro: write temp file: %w", err)
	}
	f.Close()

	args := append([]string{
		"-nostdin", "-loglevel", "error", "-hide_banner", "-y",
		"-probesize", "50M", "-analyzeduration", "200M", "-i", path,
	}, commonTail...)
	out, stderr, err := t.run(ctx, args, nil)
	if err == nil && len(out) > successFloor {
		return sro.AudioBlob{Bytes: out, Tag: sro.MediaTag{Ext: ".wav", ContentType: "audio/wav"}}, true, nil
	}
	if stderr != "" {
		*lastErr = stderr
	}
	return sro.AudioBlob{}, false, nil
}

func tempSuffix(ext string) string {
	switch ext {
	case ".m4a", ".mp4", ".aac":
		return ext
	default:
		return ".bin"
	}
}
