package server

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/ivlev/shoppable/internal/content"
	"github.com/ivlev/shoppable/internal/logger"
)

// Summary is the catalog listing entry of one video
type Summary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Duration  float64 `json:"duration,omitempty"`
	Hotspots  int     `json:"hotspots"`
	SourceURL string  `json:"sourceUrl,omitempty"`
}

// Catalog holds the shoppable videos of a content directory. Sessions get
// their own copy, so a reload only affects sessions opened afterwards.
type Catalog struct {
	dir    string
	mu     sync.RWMutex
	videos map[string]*content.ShoppableVideo
	log    *zap.Logger
}

// NewCatalog loads every content file in dir
func NewCatalog(dir string) (*Catalog, error) {
	c := &Catalog{
		dir:    dir,
		videos: make(map[string]*content.ShoppableVideo),
		log:    logger.Named("catalog"),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the content directory. Unreadable files are logged and
// skipped; the previous catalog is kept when the directory itself fails.
func (c *Catalog) Reload() error {
	files, err := content.List(c.dir)
	if err != nil {
		return err
	}

	videos := make(map[string]*content.ShoppableVideo, len(files))
	// List is newest first; the newest file wins a key collision
	for i := len(files) - 1; i >= 0; i-- {
		sv, err := content.Read(files[i])
		if err != nil {
			c.log.Warn("Skipping content file", zap.String("file", files[i]), zap.Error(err))
			continue
		}
		key := sv.Video.Key()
		if key == "" {
			key = strings.TrimSuffix(filepath.Base(files[i]), filepath.Ext(files[i]))
		}
		for _, issue := range content.Validate(sv) {
			c.log.Warn("Content issue", zap.String("video", key), zap.String("issue", issue.String()))
		}
		videos[key] = sv
	}

	c.mu.Lock()
	c.videos = videos
	c.mu.Unlock()

	c.log.Info("Catalog loaded", zap.String("dir", c.dir), zap.Int("videos", len(videos)))
	return nil
}

// Put adds or replaces a video under its key
func (c *Catalog) Put(sv *content.ShoppableVideo) {
	c.mu.Lock()
	c.videos[sv.Video.Key()] = sv
	c.mu.Unlock()
}

// Get returns a private copy of the video
func (c *Catalog) Get(id string) (*content.ShoppableVideo, bool) {
	c.mu.RLock()
	sv, ok := c.videos[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return content.Clone(sv), true
}

// List returns a summary of every video sorted by ID
func (c *Catalog) List() []Summary {
	c.mu.RLock()
	out := make([]Summary, 0, len(c.videos))
	for id, sv := range c.videos {
		out = append(out, Summary{
			ID:        id,
			Name:      sv.Video.Name,
			Duration:  sv.Video.Duration,
			Hotspots:  len(sv.Hotspots),
			SourceURL: sv.Video.SourceURL(),
		})
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of videos
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.videos)
}

// Watch reloads the catalog whenever a content file in the directory
// changes, until ctx is done. Bursts of events are coalesced.
func (c *Catalog) Watch(ctx context.Context, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(c.dir); err != nil {
		return err
	}

	var reload <-chan time.Time
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isContentFile(event.Name) || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			reload = timer.C
		case <-reload:
			reload = nil
			if err := c.Reload(); err != nil {
				c.log.Error("Catalog reload failed", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.log.Warn("Watcher error", zap.Error(err))
		case <-ctx.Done():
			return nil
		}
	}
}

func isContentFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
