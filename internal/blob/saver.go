package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/alanbriolat/audio-downloader"
	"github.com/alanbriolat/audio-downloader/util"
)

// DirSaver saves blobs into a directory, never overwriting an existing file.
type DirSaver struct {
	Dir string
	log *zap.SugaredLogger
}

func NewDirSaver(dir string) *DirSaver {
	return &DirSaver{Dir: dir, log: zap.S().Named("blob")}
}

// Save copies the blob to filename inside the directory and returns the path actually written. If the name is
// taken, " (1)", " (2)", ... is inserted before the extension.
func (s *DirSaver) Save(ctx context.Context, b *Blob, filename string) (string, error) {
	filename, err := util.SanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create target dir: %w", err)
	}
	src, err := b.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	target, err := uniquePath(s.Dir, filename)
	if err != nil {
		return "", err
	}
	// Write to a temporary name and rename, so a failed save never leaves a partial file under the real name
	tmp := target + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to open target file: %w", err)
	}
	_, err = io.Copy(f, audio_downloader.ReaderWithContext(ctx, src))
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmp, target)
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to save %s: %w", filename, err)
	}
	s.log.Debugf("saved %s as %s", b.Path(), target)
	return target, nil
}

func uniquePath(dir string, filename string) (string, error) {
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	candidate := filepath.Join(dir, filename)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		} else if err != nil {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}
