// Package carousel serves a broadcast object carousel mounted as a local
// directory.
//
// Carousel names map to files below the root: "~//menu", "//menu",
// "DSM://menu" and "menu" all name <root>/menu. Group files may carry a
// ".cue" extension that names leave out.
package carousel

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/mheg/internal/ir"
)

// GroupExt is the extension of group description files.
const GroupExt = ".cue"

// Dir is a carousel rooted at a directory. File contents are cached until
// Watch sees them change. Safe for concurrent use.
type Dir struct {
	root string

	mu    sync.Mutex
	cache map[string][]byte // by resolved path
}

// NewDir opens the carousel at root.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("carousel root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("carousel root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("carousel root %s is not a directory", abs)
	}
	return &Dir{root: abs, cache: make(map[string][]byte)}, nil
}

// Root returns the absolute carousel directory.
func (d *Dir) Root() string {
	return d.root
}

// path maps a carousel name to a file path below root.
func (d *Dir) path(name string) (string, bool) {
	rel := strings.TrimPrefix(name, "DSM:")
	rel = strings.TrimPrefix(rel, "~")
	rel = strings.TrimLeft(rel, "/")
	if rel == "" || !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", false
	}
	return filepath.Join(d.root, filepath.FromSlash(rel)), true
}

// resolve finds the regular file for name, trying the group extension
// second.
func (d *Dir) resolve(name string) (string, bool) {
	p, ok := d.path(name)
	if !ok {
		return "", false
	}
	for _, candidate := range []string{p, p + GroupExt} {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

// CheckContentRef reports whether name is present on the carousel.
func (d *Dir) CheckContentRef(name string) bool {
	_, ok := d.resolve(name)
	return ok
}

// LoadFile returns the contents of name.
func (d *Dir) LoadFile(name string) ([]byte, error) {
	p, ok := d.resolve(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}

	d.mu.Lock()
	data, cached := d.cache[p]
	d.mu.Unlock()
	if cached {
		return data, nil
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	d.mu.Lock()
	d.cache[p] = data
	d.mu.Unlock()
	return data, nil
}

// OpenStream opens name for streaming; streams bypass the cache.
func (d *Dir) OpenStream(name string) (io.ReadCloser, error) {
	p, ok := d.resolve(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, fs.ErrNotExist)
	}
	return os.Open(p)
}

// Groups lists the group ids of every group file on the carousel, sorted.
func (d *Dir) Groups() ([]ir.GroupID, error) {
	var ids []ir.GroupID
	err := filepath.WalkDir(d.root, func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != GroupExt {
			return nil
		}
		rel, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		rel = strings.TrimSuffix(filepath.ToSlash(rel), GroupExt)
		ids = append(ids, ir.GroupID(ir.AbsolutePrefix+rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan carousel: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}

// Invalidate drops the cached contents of name.
func (d *Dir) Invalidate(name string) {
	p, ok := d.path(name)
	if !ok {
		return
	}
	d.forget(p)
}

func (d *Dir) forget(path string) {
	path = filepath.Clean(path)
	d.mu.Lock()
	delete(d.cache, path)
	delete(d.cache, strings.TrimSuffix(path, GroupExt))
	d.mu.Unlock()
}

// Watch drops cached files as they change on disk, until ctx is done.
// Directories created after Watch starts are watched too.
func (d *Dir) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("carousel watcher: %w", err)
	}
	defer watcher.Close()

	err = filepath.WalkDir(d.root, func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("carousel watcher: %w", err)
	}

	slog.Info("carousel watch started", "root", d.root)
	for {
		select {
		case <-ctx.Done():
			slog.Info("carousel watch ended", "root", d.root)
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			d.forget(event.Name)
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						slog.Warn("carousel watch add failed", "dir", event.Name, "error", err)
					}
				}
			}
			slog.Debug("carousel file changed", "file", event.Name, "op", event.Op.String())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("carousel watch error", "error", err)
		}
	}
}
