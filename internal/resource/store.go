// Package resource resolves resource identifiers to image files.
package resource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/roboco-io/mdimg/internal/ir"
)

var (
	// ErrInvalidID is returned for identifiers that are not 32 lowercase hex characters.
	ErrInvalidID = errors.New("invalid resource id")
	// ErrNotFound is returned when no file exists for a valid identifier.
	ErrNotFound = errors.New("resource not found")
)

// Store is the host's resource storage.
type Store interface {
	// Path returns a local file path for the resource.
	Path(ctx context.Context, id string) (string, error)

	// Bytes returns the resource content.
	Bytes(ctx context.Context, id string) ([]byte, error)
}

// Empty is a Store that holds no resources.
var Empty Store = emptyStore{}

type emptyStore struct{}

func (emptyStore) Path(ctx context.Context, id string) (string, error) {
	return "", lookupEmpty(ctx, id)
}

func (emptyStore) Bytes(ctx context.Context, id string) ([]byte, error) {
	return nil, lookupEmpty(ctx, id)
}

func lookupEmpty(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ir.IsResourceID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// DirStore serves resources stored as <id>[.ext] files in one directory.
type DirStore struct {
	dir string
	log *zap.Logger

	mu    sync.RWMutex
	index map[string]string // id -> file name
}

// Open indexes dir and returns a store over it.
func Open(dir string, log *zap.Logger) (*DirStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open resource directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("resource path is not a directory: %s", dir)
	}

	s := &DirStore{
		dir:   dir,
		log:   log,
		index: make(map[string]string),
	}
	if err := s.Reindex(); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the indexed directory.
func (s *DirStore) Dir() string {
	return s.dir
}

// Reindex rebuilds the id index from the directory listing.
func (s *DirStore) Reindex() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read resource directory: %w", err)
	}

	index := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := idFromName(e.Name()); ok {
			index[id] = e.Name()
		}
	}

	s.mu.Lock()
	s.index = index
	s.mu.Unlock()

	s.log.Debug("resource index built", zap.String("dir", s.dir), zap.Int("count", len(index)))
	return nil
}

// Len returns the number of indexed resources.
func (s *DirStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index)
}

// Path implements Store.
func (s *DirStore) Path(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !ir.IsResourceID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	s.mu.RLock()
	name, ok := s.index[id]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return filepath.Join(s.dir, name), nil
}

// Bytes implements Store.
func (s *DirStore) Bytes(ctx context.Context, id string) ([]byte, error) {
	path, err := s.Path(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read resource %s: %w", id, err)
	}
	return data, nil
}

// Watch keeps the index in step with the directory until ctx is done.
func (s *DirStore) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			s.handleEvent(event)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("resource watcher error", zap.Error(err))
		}
	}
}

func (s *DirStore) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	id, ok := idFromName(name)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		s.index[id] = name
		s.log.Debug("resource added", zap.String("id", id))
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if s.index[id] == name {
			delete(s.index, id)
			s.log.Debug("resource removed", zap.String("id", id))
		}
	}
}

// idFromName extracts the id from "<id>" or "<id>.<ext>".
func idFromName(name string) (string, bool) {
	id := name
	if i := strings.IndexByte(name, '.'); i >= 0 {
		id = name[:i]
	}
	return id, ir.IsResourceID(id)
}
