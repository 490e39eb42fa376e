// Package blobstore declares the keyed blob storage contract used for
// thumbnails, snapshots and recording segments, with a local filesystem
// implementation (fsstore) and an object-storage implementation
// (miniostore) behind the same interface.
package blobstore

import (
	"context"
	"io"
)

// Store puts, fetches, deletes and lists binary objects addressed by a
// flat string key (e.g. "snapshots/thumb_<uuid>.jpg"). Keys never encode
// an absolute filesystem path; callers compose a key and the backend
// decides where it actually lives.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// List returns every key with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Size returns the byte size of the object stored under key, without
	// fetching its contents.
	Size(ctx context.Context, key string) (int64, error)
}

// Writer exposes streaming writes for large objects (recording segments),
// implemented alongside Store by both backends.
type Writer interface {
	PutStream(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}
