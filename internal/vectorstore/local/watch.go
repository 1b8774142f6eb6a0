package local

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/srushtikandagal/Bhagavad-Gita-GPT/internal/domain"
)

const defaultDebounce = 500 * time.Millisecond

// Watched serves searches from the latest loaded copy of an index directory
// and reloads it when the offline indexer rewrites index.db.
type Watched struct {
	dir      string
	current  atomic.Pointer[Storage]
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
	done     chan struct{}
}

// OpenWatched loads dir like Open and keeps watching it.
func OpenWatched(ctx context.Context, dir string, logger *zap.Logger) (*Watched, error) {
	return openWatched(ctx, dir, defaultDebounce, logger)
}

func openWatched(ctx context.Context, dir string, debounce time.Duration, logger *zap.Logger) (*Watched, error) {
	s, err := Open(ctx, dir)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}
	w := &Watched{dir: dir, watcher: fw, debounce: debounce, logger: logger, done: make(chan struct{})}
	w.current.Store(s)
	go w.loop()
	return w, nil
}

// Len returns the passage count of the loaded copy.
func (w *Watched) Len() int { return w.current.Load().Len() }

// Search delegates to the loaded copy.
func (w *Watched) Search(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	return w.current.Load().Search(ctx, vector, topK)
}

// Close stops watching.
func (w *Watched) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watched) loop() {
	defer close(w.done)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != FileName {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("index watcher error", zap.Error(err))
		case <-timer.C:
			w.reload()
		}
	}
}

// reload keeps the previous copy when the new one cannot be read or is empty.
func (w *Watched) reload() {
	s, err := Open(context.Background(), w.dir)
	if err != nil {
		w.logger.Warn("index reload failed, keeping previous copy", zap.Error(err))
		return
	}
	if s.Len() == 0 {
		return
	}
	w.current.Store(s)
	w.logger.Info("index reloaded", zap.String("dir", w.dir), zap.Int("passages", s.Len()))
}
