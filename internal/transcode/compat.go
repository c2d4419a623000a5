package transcode

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/nopparoot15/saltybot/pkg/sro"
)

// EnsureRecognizerCompatible applies the pass-through/transcode rules: MP4,
// AAC family, and non-Opus WebM are transcoded to WAV 16k mono; everything
// else passes through unchanged.
func (t *Transcoder) EnsureRecognizerCompatible(ctx context.Context, blob sro.AudioBlob) (sro.AudioBlob, bool, error) {
	ext := strings.ToLower(blob.Tag.Ext)
	ct := strings.ToLower(blob.Tag.ContentType)

	needWAV := ext == ".m4a" || ext == ".mp4" || ext == ".aac" ||
		strings.Contains(ct, "audio/mp4") || strings.Contains(ct, "video/mp4") || strings.Contains(ct, "audio/aac") ||
		(ext == ".webm" && !strings.Contains(ct, "opus"))

	if !needWAV {
		return blob, false, nil
	}

	out, err := t.ToWAV16kMono(ctx, blob)
	if err != nil {
		return sro.AudioBlob{}, false, err
	}
	return out, true, nil
}

// ProbeDuration returns blob's duration in seconds using ffprobe, or 0 if the
// probe fails or ffprobe is unavailable.
func (t *Transcoder) ProbeDuration(ctx context.Context, blob sro.AudioBlob) int {
	f, err := os.CreateTemp("", "sro-probe-*"+blob.Tag.Ext)
	if err != nil {
		return 0
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.Write(blob.Bytes); err != nil {
		f.Close()
		return 0
	}
	f.Close()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || seconds < 0 {
		return 0
	}
	return int(seconds)
}
