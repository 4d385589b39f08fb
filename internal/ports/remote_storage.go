package ports

import (
	"context"
	"io"
	"time"
)

// RemoteEntry describes a file or folder held by a third-party storage provider.
type RemoteEntry struct {
	Name     string
	Path     string
	IsFolder bool
	Size     int64
	Modified time.Time
	Rev      string
	Hash     string
}

// RemoteStorage is a third-party storage connector (e.g., Dropbox).
type RemoteStorage interface {
	List(ctx context.Context, path string) ([]RemoteEntry, error)
	Stat(ctx context.Context, path string) (RemoteEntry, error)
	Download(ctx context.Context, path string) (io.ReadCloser, RemoteEntry, error)
	Upload(ctx context.Context, path string, r io.Reader) (RemoteEntry, error)
	Delete(ctx context.Context, path string) error
}
