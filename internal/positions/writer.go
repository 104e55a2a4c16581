package positions

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/champtc/cyio-graph/internal/domain"
)

// DefaultDebounce is the quiet period after the last update before a
// container's positions are written.
const DefaultDebounce = 2 * time.Second

// ErrWriterClosed is returned by Queue after Close.
var ErrWriterClosed = errors.New("positions writer closed")

// Writer buffers position updates per container and writes only the latest
// one once updates stop arriving for the debounce period. Saves of one
// container never overlap, and an update stays visible through Pending until
// the store has accepted it. It is safe for concurrent use.
type Writer struct {
	store   Store
	delay   time.Duration
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	version uint64
	pending map[string]pendingLayout
	timers  map[string]*time.Timer
	saving  map[string]*saveLock
	closed  bool
	wg      sync.WaitGroup
}

type pendingLayout struct {
	positions domain.Positions
	version   uint64
}

type saveLock struct {
	mu   sync.Mutex
	refs int
}

// NewWriter returns a Writer flushing to store after delay of inactivity.
func NewWriter(store Store, delay time.Duration, logger *slog.Logger) *Writer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		store:   store,
		delay:   delay,
		logger:  logger.With("component", "positions_writer"),
		timeout: 10 * time.Second,
		pending: make(map[string]pendingLayout),
		timers:  make(map[string]*time.Timer),
		saving:  make(map[string]*saveLock),
	}
}

// Queue records the latest positions of a container and restarts its
// debounce timer.
func (w *Writer) Queue(containerID string, positions domain.Positions) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}
	w.version++
	w.pending[containerID] = pendingLayout{positions: positions, version: w.version}
	if t, ok := w.timers[containerID]; ok {
		t.Stop()
	}
	w.timers[containerID] = time.AfterFunc(w.delay, func() {
		// After Close the buffered update is written by Close itself.
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()
		if err := w.FlushContainer(ctx, containerID); err != nil {
			w.logger.Error("flush positions failed", "container", containerID, "error", err)
		}
	})
	return nil
}

// Pending returns the buffered positions of a container not yet written.
func (w *Writer) Pending(containerID string) (domain.Positions, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.pending[containerID]
	return p.positions, ok
}

// FlushContainer writes the buffered positions of one container immediately.
// It waits for an in-flight save of the same container to finish first.
func (w *Writer) FlushContainer(ctx context.Context, containerID string) error {
	release := w.lockContainer(containerID)
	defer release()

	w.mu.Lock()
	layout, ok := w.pending[containerID]
	if t, found := w.timers[containerID]; found {
		t.Stop()
		delete(w.timers, containerID)
	}
	w.mu.Unlock()

	if !ok {
		return nil
	}
	if err := w.store.Save(ctx, containerID, layout.positions); err != nil {
		return err
	}

	w.mu.Lock()
	if cur, still := w.pending[containerID]; still && cur.version == layout.version {
		delete(w.pending, containerID)
	}
	w.mu.Unlock()
	w.logger.Debug("positions flushed", "container", containerID, "nodes", len(layout.positions))
	return nil
}

func (w *Writer) lockContainer(containerID string) func() {
	w.mu.Lock()
	l, ok := w.saving[containerID]
	if !ok {
		l = &saveLock{}
		w.saving[containerID] = l
	}
	l.refs++
	w.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		w.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(w.saving, containerID)
		}
		w.mu.Unlock()
	}
}

// Flush writes every buffered container immediately.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	ids := make([]string, 0, len(w.pending))
	for id := range w.pending {
		ids = append(ids, id)
	}
	w.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := w.FlushContainer(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close stops accepting updates, waits for in-flight timer flushes and writes
// whatever is still buffered.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.wg.Wait()
	return w.Flush(ctx)
}
