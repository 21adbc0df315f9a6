// Package watchdog bounds how long a native call may run.
//
// A Watchdog fires once when its budget elapses. What happens then is up to
// the action it was armed with: the isolated helper terminates the whole
// process (see Terminate), in-process callers only observe Fired.
package watchdog

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ExitFunc terminates the process. Replaced in tests.
type ExitFunc func(code int)

// Watchdog is a one-shot timer.
type Watchdog struct {
	timer *time.Timer
	fired chan struct{}
	once  sync.Once
}

// Arm starts a watchdog that runs action, on its own goroutine, after
// timeout. A nil action only closes Fired. A non-positive timeout never
// fires.
func Arm(timeout time.Duration, action func()) *Watchdog {
	w := &Watchdog{fired: make(chan struct{})}
	if timeout <= 0 {
		return w
	}
	w.timer = time.AfterFunc(timeout, func() {
		w.once.Do(func() { close(w.fired) })
		if action != nil {
			action()
		}
	})
	return w
}

// Fired is closed when the budget has elapsed.
func (w *Watchdog) Fired() <-chan struct{} {
	return w.fired
}

// Disarm stops the watchdog. It reports false if the watchdog already fired
// or was never armed.
func (w *Watchdog) Disarm() bool {
	if w.timer == nil {
		return false
	}
	return w.timer.Stop()
}

// Terminate returns an action that logs and exits the process with code.
// Only the disposable helper process should arm a watchdog with it.
func Terminate(logger zerolog.Logger, timeout time.Duration, code int, exit ExitFunc) func() {
	if exit == nil {
		exit = os.Exit
	}
	return func() {
		logger.Error().
			Dur("timeout", timeout).
			Int("exit_code", code).
			Msg("Enumeration exceeded its time budget, terminating process")
		exit(code)
	}
}
