package sro

import (
	"path/filepath"
	"strings"
)

// extOf returns the lowercase extension (including the leading dot) of
// filename, or "" if it has none.
func extOf(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// compressedExts are the extensions treated as the "compressed family" for
// backend selection purposes.
var compressedExts = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".mp4":  true,
	".ogg":  true,
	".opus": true,
	".webm": true,
}

// compressedMIMEPrefixes are the MIME types treated as the compressed family.
var compressedMIMEPrefixes = []string{
	"audio/ogg",
	"audio/webm",
	"audio/mpeg",
	"video/mp4",
}

// IsCompressedFamily reports whether tag identifies a container in the
// compressed family named in the backend-selection rule.
func IsCompressedFamily(tag MediaTag) bool {
	if compressedExts[strings.ToLower(tag.Ext)] {
		return true
	}
	ct := strings.ToLower(tag.ContentType)
	for _, p := range compressedMIMEPrefixes {
		if strings.HasPrefix(ct, p) {
			return true
		}
	}
	return false
}

// isMP4AACFamily reports whether tag is MP4/AAC, forcing a transcode per
// EnsureRecognizerCompatible's rules.
func isMP4AACFamily(tag MediaTag) bool {
	switch strings.ToLower(tag.Ext) {
	case ".m4a", ".mp4", ".aac":
		return true
	}
	ct := strings.ToLower(tag.ContentType)
	return strings.Contains(ct, "mp4") || strings.Contains(ct, "aac")
}

// isNonOpusWebM reports whether tag is a .webm container without an opus
// codec hint in its MIME type.
func isNonOpusWebM(tag MediaTag) bool {
	if strings.ToLower(tag.Ext) != ".webm" {
		return false
	}
	return !strings.Contains(strings.ToLower(tag.ContentType), "opus")
}

// EncodingForTag maps a [MediaTag] to the recognizer wire encoding name per
// the encoding table.
func EncodingForTag(tag MediaTag) string {
	ext := strings.ToLower(tag.Ext)
	ct := strings.ToLower(tag.ContentType)
	switch {
	case ext == ".webm" || strings.Contains(ct, "webm"):
		return "WEBM_OPUS"
	case ext == ".ogg" || ext == ".opus" || strings.Contains(ct, "ogg"):
		return "OGG_OPUS"
	case ext == ".mp3" || strings.Contains(ct, "mpeg"):
		return "MP3"
	case ext == ".flac":
		return "FLAC"
	case ext == ".wav":
		return "LINEAR16"
	default:
		return "ENCODING_UNSPECIFIED"
	}
}
