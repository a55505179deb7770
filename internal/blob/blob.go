package blob

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"

	"github.com/alanbriolat/audio-downloader/internal/sync_"
)

// Blob is a transient local reference to a downloaded payload. It stays readable until Release is called.
type Blob struct {
	store    *Store
	path     string
	size     int64
	released sync_.Event
}

func (b *Blob) Path() string {
	return b.path
}

func (b *Blob) Size() int64 {
	return b.size
}

// SizeMB is the size in mebibytes, as shown to users.
func (b *Blob) SizeMB() float64 {
	return float64(b.size) / 1024 / 1024
}

// URL is a file:// reference to the blob's data.
func (b *Blob) URL() string {
	return (&url.URL{Scheme: "file", Path: b.path}).String()
}

// Open returns a reader over the blob's data.
func (b *Blob) Open() (io.ReadCloser, error) {
	if b.released.IsSet() {
		return nil, ErrReleased
	}
	return os.Open(b.path)
}

func (b *Blob) Released() bool {
	return b.released.IsSet()
}

// Release idempotently deletes the blob's data.
func (b *Blob) Release() error {
	if !b.released.Set() {
		return nil
	}
	if b.store != nil {
		b.store.forget(b)
	}
	if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to release blob %s: %w", b.path, err)
	}
	return nil
}

func (b *Blob) String() string {
	return fmt.Sprintf("Blob{Path:%q, Size:%d}", b.path, b.size)
}
