// Package enumerator discovers the interfaces implemented by a COM class by
// probing a live class factory and instance with every candidate IID.
package enumerator

import (
	"fmt"
	"os"
	"time"

	"github.com/go-ole/go-ole"
	"github.com/rs/zerolog"

	"github.com/coral-mesh/ifprobe/internal/apartment"
	"github.com/coral-mesh/ifprobe/internal/catalog"
	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/constants"
	"github.com/coral-mesh/ifprobe/internal/probe"
	"github.com/coral-mesh/ifprobe/internal/record"
	"github.com/coral-mesh/ifprobe/internal/watchdog"
)

// WellKnownIIDs are probed on every object before the catalog candidates.
var WellKnownIIDs = []ole.GUID{comid.IIDMarshal, comid.IIDPSFactoryBuffer}

// Enumerator runs in-process enumerations.
type Enumerator struct {
	activator  probe.Activator
	locator    probe.ModuleLocator
	candidates catalog.Source
	dispatcher *apartment.Dispatcher
	logger     zerolog.Logger
	exit       watchdog.ExitFunc
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithDispatcher sets the apartment dispatcher. By default the Enumerator
// creates one using the platform initializer.
func WithDispatcher(d *apartment.Dispatcher) Option {
	return func(e *Enumerator) { e.dispatcher = d }
}

// WithExitFunc replaces os.Exit for the hard-exit watchdog.
func WithExitFunc(exit watchdog.ExitFunc) Option {
	return func(e *Enumerator) { e.exit = exit }
}

// New creates an enumerator.
func New(activator probe.Activator, locator probe.ModuleLocator, candidates catalog.Source, logger zerolog.Logger, opts ...Option) *Enumerator {
	e := &Enumerator{
		activator:  activator,
		locator:    locator,
		candidates: candidates,
		logger:     logger.With().Str("component", "enumerator").Logger(),
		exit:       os.Exit,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dispatcher == nil {
		e.dispatcher = apartment.NewDispatcher(nil, logger)
	}
	return e
}

// Close stops the apartment workers.
func (e *Enumerator) Close() {
	e.dispatcher.Close()
}

// Enumerate probes clsid on the calling thread. The caller must already be
// in a suitable apartment. Failures are reported in Result.Failure.
func (e *Enumerator) Enumerate(clsid ole.GUID, clsctx record.ClassContext) (res *record.Result) {
	res = &record.Result{}
	logger := e.logger.With().Str("clsid", comid.Braced(clsid)).Stringer("clsctx", clsctx).Logger()

	defer func() {
		// Native faults surface as Go panics on some platforms; keep them
		// inside the result.
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Enumeration panicked")
			res.Failure = fmt.Errorf("enumeration panicked: %v", r)
		}
	}()

	factory, err := e.activator.GetClassObject(clsid, clsctx)
	if err != nil {
		logger.Debug().Err(err).Msg("No class factory")
		res.Failure = fmt.Errorf("%w: %w", record.ErrFactoryUnavailable, err)
		return res
	}
	defer factory.Release()

	instance, err := e.activator.CreateInstance(clsid, clsctx)
	if err != nil {
		logger.Debug().Err(fmt.Errorf("%w: %w", record.ErrInstanceUnavailable, err)).Msg("No instance, probing factory only")
		instance = nil
	} else {
		defer instance.Release()
	}

	candidates, err := e.candidateIIDs()
	if err != nil {
		logger.Warn().Err(err).Int("candidates", len(candidates)).Msg("Interface catalog partially unavailable")
	}

	resolver := probe.NewResolver(e.locator, logger)
	prober := probe.NewProber(clsctx, resolver, logger)

	res.Instance = prober.ProbeAll(res.Instance, instance, WellKnownIIDs)
	res.Factory = prober.ProbeAll(res.Factory, factory, WellKnownIIDs)
	res.Instance = prober.ProbeAll(res.Instance, instance, candidates)
	res.Factory = prober.ProbeAll(res.Factory, factory, candidates)

	logger.Debug().
		Int("instance", len(res.Instance)).
		Int("factory", len(res.Factory)).
		Int("candidates", len(candidates)).
		Int("modules", resolver.CacheSize()).
		Msg("Enumeration complete")
	return res
}

func (e *Enumerator) candidateIIDs() ([]ole.GUID, error) {
	if e.candidates == nil {
		return nil, nil
	}
	return e.candidates.InterfaceIDs()
}

// Options controls an in-process enumeration.
type Options struct {
	// SingleThreaded runs the enumeration on the STA worker instead of the
	// MTA worker.
	SingleThreaded bool

	// Timeout bounds the enumeration. Zero uses constants.DefaultEnumerationTimeout.
	Timeout time.Duration

	// ExitOnTimeout terminates the whole process when the budget elapses.
	// Only the disposable helper process sets this; other callers get
	// ErrEnumerationTimeout and the wedged worker is retired.
	ExitOnTimeout bool
}

// EnumerateInProcess enumerates clsid on the apartment worker selected by
// opts and blocks until it finishes or the watchdog fires.
func (e *Enumerator) EnumerateInProcess(clsid ole.GUID, clsctx record.ClassContext, opts Options) *record.Result {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultEnumerationTimeout
	}
	kind := apartment.MTA
	if opts.SingleThreaded {
		kind = apartment.STA
	}

	var action func()
	if opts.ExitOnTimeout {
		action = watchdog.Terminate(e.logger, timeout, constants.ExitCodeTimeout, e.exit)
	}
	wd := watchdog.Arm(timeout, action)
	defer wd.Disarm()

	var res *record.Result
	done, err := e.dispatcher.Submit(kind, func() {
		res = e.Enumerate(clsid, clsctx)
	})
	if err != nil {
		return &record.Result{Failure: fmt.Errorf("dispatch to %s apartment: %w", kind, err)}
	}

	select {
	case <-done:
		return res
	case <-wd.Fired():
		// With ExitOnTimeout the process is already on its way out.
		e.dispatcher.Retire(kind)
		e.logger.Warn().
			Str("clsid", comid.Braced(clsid)).
			Dur("timeout", timeout).
			Msg("Enumeration timed out")
		return &record.Result{Failure: fmt.Errorf("%w after %s", record.ErrEnumerationTimeout, timeout)}
	}
}
