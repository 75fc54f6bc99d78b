package catalog

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/meridian-pos/meridian-pos/internal/observability"
)

// Watcher polls the product file's modification time and reloads the
// repository when another writer changes it, handing a fresh snapshot to
// the registered callback. Rapid successive writes are coalesced by a
// short debounce delay.
type Watcher struct {
	repo     *Repository
	path     string
	interval time.Duration
	debounce time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu       sync.Mutex
	callback func([]Product)
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWatcher builds a watcher for repo's backing file. metrics may be nil.
func NewWatcher(repo *Repository, interval, debounce time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		repo:     repo,
		path:     repo.path,
		interval: interval,
		debounce: debounce,
		logger:   logger,
		metrics:  metrics,
	}
}

// OnCatalogChanged registers the callback invoked with a fresh product
// snapshot after every detected change.
func (w *Watcher) OnCatalogChanged(fn func([]Product)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callback = fn
}

// Start launches the polling goroutine. It returns immediately; the
// goroutine runs until Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx, w.done)
}

// Stop cancels the polling goroutine and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Watcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last := w.modTime()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		current := w.modTime()
		if current.Equal(last) {
			continue
		}
		// Coalesce a burst of writes into one reload.
		timer := time.NewTimer(w.debounce)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		last = w.modTime()
		if err := w.repo.Reload(); err != nil {
			w.logger.Warn("catalog reload failed", slog.Any("error", err))
			continue
		}
		w.metrics.RecordWatcherReload()
		w.logger.Info("catalog change detected, reloaded products", slog.Int("count", w.repo.Count()))
		w.mu.Lock()
		fn := w.callback
		w.mu.Unlock()
		if fn != nil {
			fn(w.repo.All())
		}
	}
}

// modTime returns the file's modification time, or the zero time when the
// file does not exist yet.
func (w *Watcher) modTime() time.Time {
	info, err := os.Stat(w.path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
