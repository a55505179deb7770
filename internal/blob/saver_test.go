package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/alanbriolat/audio-downloader/util"
)

func TestDirSaver_Save(t *testing.T) {
	assert := assert_.New(t)
	s := newTestStore(t)
	target := filepath.Join(t.TempDir(), "music")
	saver := NewDirSaver(target)

	b, err := s.Put(context.Background(), strings.NewReader("ID3 audio"), -1, nil)
	require.NoError(t, err)

	path, err := saver.Save(context.Background(), b, "song.mp3")
	require.NoError(t, err)
	assert.Equal(filepath.Join(target, "song.mp3"), path)
	data, err := os.ReadFile(path)
	assert.Nil(err)
	assert.Equal("ID3 audio", string(data))

	// Existing names are never overwritten
	path, err = saver.Save(context.Background(), b, "song.mp3")
	require.NoError(t, err)
	assert.Equal(filepath.Join(target, "song (1).mp3"), path)
	path, err = saver.Save(context.Background(), b, "song.mp3")
	require.NoError(t, err)
	assert.Equal(filepath.Join(target, "song (2).mp3"), path)

	// Server-supplied names can't escape the directory
	path, err = saver.Save(context.Background(), b, "../../escape.mp3")
	require.NoError(t, err)
	assert.Equal(filepath.Join(target, "escape.mp3"), path)

	// No partial files left behind
	matches, err := filepath.Glob(filepath.Join(target, "*.part"))
	assert.Nil(err)
	assert.Empty(matches)
}

func TestDirSaver_Logger(t *testing.T) {
	assert := assert_.New(t)
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	saver := NewDirSaver(t.TempDir())
	restore()

	// The logger is fixed at construction, not looked up per save
	s := newTestStore(t)
	b, err := s.Put(context.Background(), strings.NewReader("x"), -1, nil)
	require.NoError(t, err)
	_, err = saver.Save(context.Background(), b, "a.mp3")
	require.NoError(t, err)

	saved := logs.FilterMessageSnippet("saved ")
	assert.Equal(1, saved.Len())
	assert.Equal("blob", saved.All()[0].LoggerName)
}

func TestDirSaver_Save_Errors(t *testing.T) {
	assert := assert_.New(t)
	s := newTestStore(t)
	saver := NewDirSaver(t.TempDir())

	b, err := s.Put(context.Background(), strings.NewReader("x"), 1, nil)
	require.NoError(t, err)

	_, err = saver.Save(context.Background(), b, "..")
	assert.ErrorIs(err, util.ErrNoFilename)

	assert.Nil(b.Release())
	_, err = saver.Save(context.Background(), b, "late.mp3")
	assert.ErrorIs(err, ErrReleased)
}
