package extraction

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrWatcherClosed is returned by Start after Shutdown.
var ErrWatcherClosed = eris.New("extraction: watcher is shut down")

// WatchInfo describes a running watch.
type WatchInfo struct {
	JobID     string    `json:"job_id"`
	TenantID  string    `json:"tenant_id"`
	StartedAt time.Time `json:"started_at"`
}

type watch struct {
	cancel    context.CancelFunc
	done      chan struct{}
	tenantID  string
	startedAt time.Time
}

// Watcher runs background polls keyed by job id. Every poll goroutine is
// bound to a context that Stop or Shutdown cancels.
type Watcher struct {
	mu      sync.Mutex
	watches map[string]*watch
	closed  bool
	wg      sync.WaitGroup
}

// NewWatcher creates an empty Watcher.
func NewWatcher() *Watcher {
	return &Watcher{watches: make(map[string]*watch)}
}

// Start runs fn in the background for the tenant's job. A watch already
// running for the same job is cancelled and replaced.
func (w *Watcher) Start(tenantID, jobID string, fn func(ctx context.Context)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if old, ok := w.watches[jobID]; ok {
		old.cancel()
		zap.L().Info("extraction: replacing watch", zap.String("job_id", jobID))
	}

	ctx, cancel := context.WithCancel(context.Background())
	wt := &watch{cancel: cancel, done: make(chan struct{}), tenantID: tenantID, startedAt: time.Now().UTC()}
	w.watches[jobID] = wt

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(wt.done)
		defer w.remove(jobID, wt)
		defer cancel()
		fn(ctx)
	}()
	return nil
}

// remove drops wt unless it was already replaced.
func (w *Watcher) remove(jobID string, wt *watch) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watches[jobID] == wt {
		delete(w.watches, jobID)
	}
}

// Stop cancels the watch for jobID and waits for it to return. It reports
// whether a watch was running.
func (w *Watcher) Stop(jobID string) bool {
	w.mu.Lock()
	wt, ok := w.watches[jobID]
	if ok {
		delete(w.watches, jobID)
	}
	w.mu.Unlock()

	if !ok {
		return false
	}
	wt.cancel()
	<-wt.done
	return true
}

// Active lists the running watches ordered by job id.
func (w *Watcher) Active() []WatchInfo {
	return w.list(func(*watch) bool { return true })
}

// ActiveFor lists the tenant's running watches ordered by job id.
func (w *Watcher) ActiveFor(tenantID string) []WatchInfo {
	return w.list(func(wt *watch) bool { return wt.tenantID == tenantID })
}

func (w *Watcher) list(keep func(*watch) bool) []WatchInfo {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]WatchInfo, 0, len(w.watches))
	for id, wt := range w.watches {
		if keep(wt) {
			out = append(out, WatchInfo{JobID: id, TenantID: wt.tenantID, StartedAt: wt.startedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out
}

// Shutdown cancels every watch and waits for all of them to return. Later
// calls to Start fail.
func (w *Watcher) Shutdown() {
	w.mu.Lock()
	w.closed = true
	for _, wt := range w.watches {
		wt.cancel()
	}
	w.mu.Unlock()

	w.wg.Wait()
}
