package link

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/sdejongh/devsync/internal/platform"
	"github.com/sdejongh/devsync/pkg/logging"
)

// partialSuffix marks in-flight writes; listings never report them
const partialSuffix = ".partial"

// LocalLink is a Link over a directory tree
type LocalLink struct {
	fs     afero.Fs
	logger logging.Logger
}

// NewLocalLink creates a link rooted at dir on the OS filesystem
func NewLocalLink(dir string, logger logging.Logger) *LocalLink {
	return NewLocalLinkFs(afero.NewBasePathFs(afero.NewOsFs(), dir), logger)
}

// NewLocalLinkFs creates a link over an arbitrary filesystem whose root is
// the repository root
func NewLocalLinkFs(fsys afero.Fs, logger logging.Logger) *LocalLink {
	return &LocalLink{
		fs:     fsys,
		logger: logging.OrNull(logger).WithFields(logging.Fields{"component": "local_link"}),
	}
}

// PutFile writes data to a hidden temp file next to the target and renames
// it into place, so readers see either the old or the new content
func (l *LocalLink) PutFile(ctx context.Context, p string, data []byte, modTime time.Time) error {
	if err := ctx.Err(); err != nil {
		return wrap("put", p, err)
	}
	clean, err := platform.CleanRelative(p)
	if err != nil {
		return wrap("put", p, err)
	}
	if modTime.IsZero() {
		modTime = time.Now()
	}

	dir, name := path.Split(clean)
	if dir != "" {
		if err := l.fs.MkdirAll(dir, 0755); err != nil {
			return wrap("put", clean, fmt.Errorf("failed to create directory: %w", err))
		}
	}

	tmp := path.Join(dir, "."+name+"."+uuid.NewString()[:8]+partialSuffix)
	if err := l.writeTemp(tmp, data, modTime); err != nil {
		l.fs.Remove(tmp)
		return wrap("put", clean, err)
	}
	if err := l.fs.Rename(tmp, clean); err != nil {
		l.fs.Remove(tmp)
		return wrap("put", clean, fmt.Errorf("failed to move file into place: %w", err))
	}

	l.logger.Debug(ctx, "stored file", logging.Fields{"path": clean, "bytes": len(data)})
	return nil
}

func (l *LocalLink) writeTemp(tmp string, data []byte, modTime time.Time) error {
	f, err := l.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := l.fs.Chtimes(tmp, modTime, modTime); err != nil {
		return fmt.Errorf("failed to set modification time: %w", err)
	}
	return nil
}

// GetFile reads the file at p
func (l *LocalLink) GetFile(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap("get", p, err)
	}
	clean, err := platform.CleanRelative(p)
	if err != nil {
		return nil, wrap("get", p, err)
	}

	data, err := afero.ReadFile(l.fs, clean)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, wrap("get", clean, ErrNotFound)
	}
	if err != nil {
		return nil, wrap("get", clean, err)
	}
	return data, nil
}

// ListFiles walks dir. A missing dir yields an empty listing.
func (l *LocalLink) ListFiles(ctx context.Context, dir string) ([]FileInfo, error) {
	root, err := platform.CleanDir(dir)
	if err != nil {
		return nil, wrap("list", dir, err)
	}
	walkRoot := root
	if walkRoot == "" {
		walkRoot = "."
	}

	if exists, err := afero.DirExists(l.fs, walkRoot); err != nil {
		return nil, wrap("list", root, err)
	} else if !exists {
		return []FileInfo{}, nil
	}

	files := []FileInfo{}
	err = afero.Walk(l.fs, walkRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if info.IsDir() || isPartial(info.Name()) {
			return nil
		}

		rel := filepath.ToSlash(p)
		rel = strings.TrimPrefix(rel, "./")
		files = append(files, FileInfo{Path: rel, ModTime: info.ModTime(), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, wrap("list", root, err)
	}
	return files, nil
}

// SendNotification records the event; a host repository has no UI to notify
func (l *LocalLink) SendNotification(ctx context.Context, event string) error {
	l.logger.Info(ctx, "notification", logging.Fields{"event": event})
	return nil
}

func isPartial(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, partialSuffix)
}
