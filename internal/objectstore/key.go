package objectstore

import "github.com/google/uuid"

// UploadPrefix is the fixed namespace long-mode uploads live under.
const UploadPrefix = "discord_uploads/"

// NewKey returns a UUID-suffixed key under [UploadPrefix] carrying ext
// (including its leading dot) so the recognizer backend can still infer the
// container format from the object name.
func NewKey(ext string) string {
	return UploadPrefix + uuid.NewString() + ext
}
