// Package blob holds downloaded payloads in temporary files until they have been saved, and implements the save
// action that copies them to their final name.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/alanbriolat/audio-downloader"
	"github.com/alanbriolat/audio-downloader/generic"
	"github.com/alanbriolat/audio-downloader/internal/sync_"
)

var (
	ErrReleased    = errors.New("blob released")
	ErrStoreClosed = errors.New("blob store closed")
)

// ProgressFunc is called as bytes are written; expected is -1 if unknown.
type ProgressFunc func(written int64, expected int64)

type storeConfig struct {
	baseTempDir string
	pattern     string
}

type StoreOption func(*storeConfig)

// WithTempDir sets the directory the store's private temporary directory is created in.
func WithTempDir(dir string) StoreOption {
	return func(c *storeConfig) {
		c.baseTempDir = dir
	}
}

// WithPattern sets the os.MkdirTemp pattern of the store's temporary directory.
func WithPattern(pattern string) StoreOption {
	return func(c *storeConfig) {
		c.pattern = pattern
	}
}

type storeState struct {
	blobs  generic.Set[*Blob]
	closed bool
}

// Store owns a temporary directory of Blobs.
type Store struct {
	dir   string
	log   *zap.SugaredLogger
	state *sync_.Mutexed[storeState]
}

func NewStore(opts ...StoreOption) (*Store, error) {
	config := storeConfig{
		baseTempDir: os.TempDir(),
		pattern:     "audio-downloader-*",
	}
	for _, opt := range opts {
		opt(&config)
	}
	dir, err := os.MkdirTemp(config.baseTempDir, config.pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	s := &Store{
		dir:   dir,
		log:   zap.S().Named("blob"),
		state: sync_.NewMutexed(storeState{blobs: generic.NewSet[*Blob]()}),
	}
	s.log.Debugf("blob store created at %s", dir)
	return s, nil
}

// Dir is the store's temporary directory.
func (s *Store) Dir() string {
	return s.dir
}

// Put spools r into a new Blob. Reading stops early if ctx is cancelled, in which case nothing is kept.
func (s *Store) Put(ctx context.Context, r io.Reader, expected int64, progress ProgressFunc) (*Blob, error) {
	if s.isClosed() {
		return nil, ErrStoreClosed
	}
	f, err := os.CreateTemp(s.dir, "blob-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create blob file: %w", err)
	}
	// The counter goes last, so failed writes are never counted
	counter := &progressWriter{expected: expected, progress: progress}
	n, err := io.Copy(io.MultiWriter(f, counter), audio_downloader.ReaderWithContext(ctx, r))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("failed to spool blob: %w", err)
	}
	b := &Blob{store: s, path: f.Name(), size: n}
	err = s.state.Locked(func(state *storeState) error {
		if state.closed {
			return ErrStoreClosed
		}
		state.blobs.Add(b)
		return nil
	})
	if err != nil {
		_ = os.Remove(b.path)
		return nil, err
	}
	s.log.Debugf("stored %d bytes in %s", n, b.path)
	return b, nil
}

// Outstanding is the number of blobs not yet released.
func (s *Store) Outstanding() int {
	var n int
	_ = s.state.Locked(func(state *storeState) error {
		n = state.blobs.Count()
		return nil
	})
	return n
}

// Close releases every outstanding blob and removes the temporary directory.
func (s *Store) Close() error {
	var blobs []*Blob
	_ = s.state.Locked(func(state *storeState) error {
		state.closed = true
		blobs = state.blobs.ToSlice()
		return nil
	})
	var result error
	for _, b := range blobs {
		if err := b.Release(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := os.RemoveAll(s.dir); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to remove temp dir: %w", err))
	}
	return result
}

func (s *Store) isClosed() bool {
	return s.state.Get().closed
}

func (s *Store) forget(b *Blob) {
	_ = s.state.Locked(func(state *storeState) error {
		state.blobs.Remove(b)
		return nil
	})
}

// progressWriter discards data, but reports the running byte count.
type progressWriter struct {
	written  int64
	expected int64
	progress ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.written += int64(len(p))
	if w.progress != nil {
		w.progress(w.written, w.expected)
	}
	return len(p), nil
}
