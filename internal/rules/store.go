package rules

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"ihsan/internal/compliance"
	"ihsan/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Snapshot is one immutable generation of the rule set.
type Snapshot struct {
	Version    int64
	LoadedAt   time.Time
	Source     string
	Rules      compliance.Rules
	Classifier *compliance.Classifier
}

// Store publishes the current Snapshot. Readers never block and a reload
// swaps the whole snapshot at once.
type Store struct {
	path    string
	current atomic.Pointer[Snapshot]
}

// NewStore loads the rules at path, or the built-in defaults when path is
// empty. A broken file at startup is an error.
func NewStore(path string) (*Store, error) {
	s := &Store{path: strings.TrimSpace(path)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Snapshot returns the active generation.
func (s *Store) Snapshot() *Snapshot { return s.current.Load() }

// Classifier returns the classifier of the active generation.
func (s *Store) Classifier() *compliance.Classifier { return s.current.Load().Classifier }

// Reload re-reads the file. On failure the previous snapshot stays active.
func (s *Store) Reload() error {
	r, err := Load(s.path)
	if err != nil {
		return err
	}
	var version int64 = 1
	if prev := s.current.Load(); prev != nil {
		version = prev.Version + 1
	}
	source := s.path
	if source == "" {
		source = "builtin"
	}
	s.current.Store(&Snapshot{
		Version:    version,
		LoadedAt:   time.Now(),
		Source:     source,
		Rules:      r,
		Classifier: compliance.New(r),
	})
	logger.Infof("compliance rules loaded v%d from %s", version, filepath.Base(source))
	return nil
}

// Watch reloads the rules whenever the file changes, until ctx is done. The
// parent directory is watched so editors that replace the file by rename are
// picked up too. Watch is a no-op for built-in rules.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create rules watcher failed: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watch rules dir failed: %w", err)
	}
	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != target {
				continue
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				logger.Warnf("compliance rules reload failed, keeping v%d: %v", s.Snapshot().Version, err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("rules watcher error: %v", err)
		}
	}
}
