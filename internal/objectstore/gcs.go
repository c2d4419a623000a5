// Package objectstore implements the transient Object Store used by the
// long recognizer to stage audio blobs Google Cloud Speech reads by URI.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/nopparoot15/saltybot/pkg/sro"
)

// Store wraps a [storage.Client] bucket handle to implement [sro.ObjectStore].
type Store struct {
	bucket *storage.BucketHandle
	name   string
}

var _ sro.ObjectStore = (*Store)(nil)

// New returns a [Store] bound to the named bucket.
func New(client *storage.Client, bucketName string) *Store {
	return &Store{bucket: client.Bucket(bucketName), name: bucketName}
}

// Put uploads data under key and returns its gs:// URI.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	obj := s.bucket.Object(key)
	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return "", fmt.Errorf("objectstore: write %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("objectstore: close %q: %w", key, err)
	}
	return s.uri(key), nil
}

// Delete removes the object at key. Already-deleted objects are tolerated.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil {
		if err == storage.ErrObjectNotExist {
			return nil
		}
		return fmt.Errorf("objectstore: delete %q: %w", key, err)
	}
	return nil
}

func (s *Store) uri(key string) string {
	return "gs://" + s.name + "/" + key
}
