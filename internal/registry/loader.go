package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/patternlab/patternlab/internal/logging"
)

// Overlay is the shape of the optional patterns YAML file. Entries are
// matched to built-in patterns by category and slug; only the display
// fields present in the file are replaced.
type Overlay struct {
	Patterns []OverlayPattern `yaml:"patterns"`
}

// OverlayPattern overrides display fields of one built-in pattern.
type OverlayPattern struct {
	Category    string          `yaml:"category"`
	Slug        string          `yaml:"slug"`
	Title       string          `yaml:"title"`
	Description string          `yaml:"description"`
	Steps       []ExecutionStep `yaml:"steps"`
	Code        string          `yaml:"code"`
}

// LoadOverlay applies a patterns file on top of the registry. Unknown
// category/slug pairs are skipped with a warning rather than failing
// the load.
func LoadOverlay(r *PatternRegistry, path string, logger logging.Logger) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("reading patterns file: %w", err)
	}

	var overlay Overlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing patterns file %s: %w", path, err)
	}

	ctx := context.Background()
	applied := 0
	for _, op := range overlay.Patterns {
		pattern, exists := r.Get(op.Category, op.Slug)
		if !exists {
			logger.Warn(ctx, nil, "patterns file names an unknown pattern",
				"category", op.Category, "slug", op.Slug)
			continue
		}

		// Copy so readers holding the old pointer are unaffected.
		updated := *pattern
		if op.Title != "" {
			updated.Title = op.Title
		}
		if op.Description != "" {
			updated.Description = op.Description
		}
		if len(op.Steps) > 0 {
			updated.Steps = op.Steps
		}
		if op.Code != "" {
			updated.Code = op.Code
		}
		r.Register(&updated)
		applied++
	}

	logger.Info(ctx, "patterns overlay applied", "file", path, "patterns", applied)
	return nil
}

// Watcher reloads the overlay file when it changes on disk.
type Watcher struct {
	registry *PatternRegistry
	path     string
	logger   logging.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// NewWatcher creates a watcher for the overlay file. Call Start to
// begin watching.
func NewWatcher(r *PatternRegistry, path string, logger logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files on save
	// and the watch would die with the old inode.
	if err := fsw.Add(filepath.Dir(filepath.Clean(path))); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}
	return &Watcher{
		registry: r,
		path:     filepath.Clean(path),
		logger:   logger.WithComponent("patterns-watcher"),
		watcher:  fsw,
		debounce: 250 * time.Millisecond,
	}, nil
}

// Start runs the watch loop until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Close releases the underlying file watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := LoadOverlay(w.registry, w.path, w.logger); err != nil {
				w.logger.Warn(ctx, err, "patterns overlay reload failed")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, err, "patterns watcher error")
		}
	}
}
