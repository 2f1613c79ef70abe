package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo is metadata about a stored file.
type FileInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage abstracts where uploaded attachments live.
type Storage interface {
	// Write stores content from r under key. size is the expected content
	// length, -1 if unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read returns the content for key. The caller closes the reader.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content for key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether content for key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a URL for accessing the content. Local storage returns
	// a serving path; S3 returns a presigned URL valid for expires.
	GetURL(ctx context.Context, key string, expires time.Duration) (string, error)
}
