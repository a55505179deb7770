package blob

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	s, err := NewStore(WithTempDir(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_Put_Release(t *testing.T) {
	assert := assert_.New(t)
	s := newTestStore(t)

	var reported []int64
	b, err := s.Put(context.Background(), strings.NewReader("hello, world"), 12, func(written int64, expected int64) {
		assert.Equal(int64(12), expected)
		reported = append(reported, written)
	})
	require.NoError(t, err)
	assert.Equal(int64(12), b.Size())
	assert.NotEmpty(reported)
	assert.Equal(int64(12), reported[len(reported)-1])
	assert.Equal(1, s.Outstanding())
	assert.True(strings.HasPrefix(b.URL(), "file://"))

	r, err := b.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	assert.Nil(err)
	assert.Nil(r.Close())
	assert.Equal("hello, world", string(data))

	// Release removes the data, and is idempotent
	assert.Nil(b.Release())
	assert.True(b.Released())
	assert.Equal(0, s.Outstanding())
	_, err = os.Stat(b.Path())
	assert.True(os.IsNotExist(err))
	assert.Nil(b.Release())
	_, err = b.Open()
	assert.ErrorIs(err, ErrReleased)
}

func TestStore_Put_Cancelled(t *testing.T) {
	assert := assert_.New(t)
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Put(ctx, strings.NewReader("data"), -1, nil)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(0, s.Outstanding())
	entries, err := os.ReadDir(s.Dir())
	assert.Nil(err)
	assert.Empty(entries, "cancelled blob should leave nothing behind")
}

func TestStore_Close(t *testing.T) {
	assert := assert_.New(t)
	s, err := NewStore(WithTempDir(t.TempDir()), WithPattern("close-test-*"))
	require.NoError(t, err)
	assert.True(strings.HasPrefix(filepath.Base(s.Dir()), "close-test-"))

	b1, err := s.Put(context.Background(), bytes.NewReader([]byte{1, 2, 3}), 3, nil)
	require.NoError(t, err)
	b2, err := s.Put(context.Background(), bytes.NewReader([]byte{4, 5}), 2, nil)
	require.NoError(t, err)

	assert.Nil(s.Close())
	assert.True(b1.Released())
	assert.True(b2.Released())
	_, err = os.Stat(s.Dir())
	assert.True(os.IsNotExist(err))

	_, err = s.Put(context.Background(), bytes.NewReader(nil), 0, nil)
	assert.ErrorIs(err, ErrStoreClosed)
}
