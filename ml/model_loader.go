package ml

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Loader yields the predictor used for one request.
type Loader interface {
	Load(ctx context.Context) (Predictor, error)
}

// FileLoader reads the artifact from disk on every call.
type FileLoader struct {
	Path   string
	Schema Schema
}

func (l *FileLoader) Load(ctx context.Context) (Predictor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, err := LoadArtifact(l.Path, l.Schema)
	if err != nil {
		return nil, err
	}
	return model, nil
}

// CachedLoader keeps the loaded artifact in memory until the file changes
// on disk.
type CachedLoader struct {
	source  Loader
	key     string
	cache   *lru.Cache[string, Predictor]
	watcher *fsnotify.Watcher
	logger  *zap.Logger

	// generation counts evictions; a load that straddles one is not cached.
	generation atomic.Uint64

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewCachedLoader(path string, schema Schema, logger *zap.Logger) (*CachedLoader, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[string, Predictor](1)
	if err != nil {
		return nil, fmt.Errorf("model cache: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("model watcher: %w", err)
	}
	// Watch the directory: editors and deploy tools replace the file by
	// rename, which drops a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	l := &CachedLoader{
		source:  &FileLoader{Path: abs, Schema: schema},
		key:     abs,
		cache:   cache,
		watcher: watcher,
		logger:  logger,
	}
	l.wg.Add(1)
	go l.watch()
	return l, nil
}

func (l *CachedLoader) Load(ctx context.Context) (Predictor, error) {
	if p, ok := l.cache.Get(l.key); ok {
		return p, nil
	}
	gen := l.generation.Load()
	p, err := l.source.Load(ctx)
	if err != nil {
		return nil, err
	}
	if l.generation.Load() == gen {
		l.cache.Add(l.key, p)
		l.logger.Info("model artifact loaded", zap.String("path", l.key))
	}
	return p, nil
}

// evict drops the cached artifact and invalidates loads already in flight.
func (l *CachedLoader) evict() bool {
	l.generation.Add(1)
	return l.cache.Remove(l.key)
}

func (l *CachedLoader) Close() error {
	var err error
	l.closeOnce.Do(func() {
		err = l.watcher.Close()
		l.wg.Wait()
	})
	return err
}

func (l *CachedLoader) watch() {
	defer l.wg.Done()
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != l.key {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if l.evict() {
					l.logger.Info("model artifact changed, evicted", zap.String("path", l.key), zap.String("op", event.Op.String()))
				}
			}
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			l.logger.Warn("model watcher error", zap.Error(err))
		}
	}
}
