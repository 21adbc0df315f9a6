// Package apartment runs work on long-lived OS threads that have entered a
// specific COM apartment.
//
// COM objects created on a single-threaded apartment thread must be used on
// that thread, so enumeration requests carry an apartment Kind and are
// dispatched to the worker pre-configured for it instead of spawning an ad
// hoc thread per call.
package apartment

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
)

// Kind is the threading apartment a worker enters.
type Kind int

const (
	// STA is the single-threaded apartment.
	STA Kind = iota
	// MTA is the multi-threaded apartment.
	MTA
)

// String returns the command line form used by the isolation protocol.
func (k Kind) String() string {
	if k == MTA {
		return "m"
	}
	return "s"
}

// ParseKind parses the isolation protocol form ("s" or "m").
func ParseKind(s string) (Kind, error) {
	switch s {
	case "s", "S":
		return STA, nil
	case "m", "M":
		return MTA, nil
	default:
		return STA, fmt.Errorf("invalid apartment %q (want s or m)", s)
	}
}

// ErrClosed is returned when work is submitted to a closed dispatcher.
var ErrClosed = errors.New("apartment dispatcher closed")

// Initializer enters and leaves an apartment on the current OS thread.
type Initializer interface {
	Enter(kind Kind) error
	Leave()
}

// Dispatcher owns one worker per apartment kind. Workers start lazily and
// live until Close or Retire.
type Dispatcher struct {
	initializer Initializer
	logger      zerolog.Logger

	mu      sync.Mutex
	workers map[Kind]*worker
	closed  bool
}

// NewDispatcher creates a dispatcher. A nil initializer uses the platform
// initializer.
func NewDispatcher(initializer Initializer, logger zerolog.Logger) *Dispatcher {
	if initializer == nil {
		initializer = NewPlatformInitializer()
	}
	return &Dispatcher{
		initializer: initializer,
		logger:      logger.With().Str("component", "apartment").Logger(),
		workers:     make(map[Kind]*worker),
	}
}

// Submit queues fn on the worker for kind. The returned channel is closed
// after fn returns.
func (d *Dispatcher) Submit(kind Kind, fn func()) (<-chan struct{}, error) {
	w, err := d.worker(kind)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	job := func() {
		defer close(done)
		fn()
	}
	select {
	case w.jobs <- job:
		return done, nil
	case <-w.quit:
		return nil, ErrClosed
	}
}

// Retire detaches the current worker for kind so the next Submit starts a
// fresh one. Used when a job on the worker is stuck in a native call; the
// old thread exits on its own if the call ever returns.
func (d *Dispatcher) Retire(kind Kind) {
	d.mu.Lock()
	w := d.workers[kind]
	delete(d.workers, kind)
	d.mu.Unlock()

	if w != nil {
		d.logger.Warn().Str("apartment", kind.String()).Msg("Retiring wedged apartment worker")
		w.stop()
	}
}

// Close stops all workers. A job already running finishes first.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for kind, w := range d.workers {
		w.stop()
		delete(d.workers, kind)
	}
}

func (d *Dispatcher) worker(kind Kind) (*worker, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if w, ok := d.workers[kind]; ok {
		return w, nil
	}

	w, err := startWorker(kind, d.initializer, d.logger)
	if err != nil {
		return nil, err
	}
	d.workers[kind] = w
	return w, nil
}

// queueDepth bounds how many requests can wait for a busy worker without
// blocking Submit.
const queueDepth = 16

type worker struct {
	jobs chan func()
	quit chan struct{}
	once sync.Once
}

func (w *worker) stop() {
	w.once.Do(func() { close(w.quit) })
}

func startWorker(kind Kind, initializer Initializer, logger zerolog.Logger) (*worker, error) {
	w := &worker{
		jobs: make(chan func(), queueDepth),
		quit: make(chan struct{}),
	}
	ready := make(chan error, 1)

	go func() {
		// The apartment belongs to the thread, not the goroutine.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if err := initializer.Enter(kind); err != nil {
			ready <- fmt.Errorf("enter %s apartment: %w", kind, err)
			return
		}
		defer initializer.Leave()
		ready <- nil

		logger.Debug().Str("apartment", kind.String()).Msg("Apartment worker started")
		for {
			select {
			case job := <-w.jobs:
				job()
			case <-w.quit:
				logger.Debug().Str("apartment", kind.String()).Msg("Apartment worker stopped")
				return
			}
		}
	}()

	if err := <-ready; err != nil {
		return nil, err
	}
	return w, nil
}
