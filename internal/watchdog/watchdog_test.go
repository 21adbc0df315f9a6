package watchdog

import (
	"bytes"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestArm_FiresAfterTimeout(t *testing.T) {
	var calls atomic.Int32
	w := Arm(20*time.Millisecond, func() { calls.Add(1) })

	select {
	case <-w.Fired():
	case <-time.After(5 * time.Second):
		t.Fatal("watchdog did not fire")
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, w.Disarm(), "disarming a fired watchdog reports false")
}

func TestArm_DisarmBeforeExpiry(t *testing.T) {
	var calls atomic.Int32
	w := Arm(time.Hour, func() { calls.Add(1) })

	assert.True(t, w.Disarm())
	select {
	case <-w.Fired():
		t.Fatal("disarmed watchdog fired")
	default:
	}
	assert.Zero(t, calls.Load())
}

func TestArm_ZeroTimeoutNeverFires(t *testing.T) {
	w := Arm(0, func() { t.Error("action must not run") })

	select {
	case <-w.Fired():
		t.Fatal("zero timeout fired")
	case <-time.After(30 * time.Millisecond):
	}
	assert.False(t, w.Disarm())
}

func TestTerminate(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	got := make(chan int, 1)
	action := Terminate(logger, 250*time.Millisecond, 3, func(code int) { got <- code })

	w := Arm(10*time.Millisecond, action)
	defer w.Disarm()

	select {
	case code := <-got:
		assert.Equal(t, 3, code)
	case <-time.After(5 * time.Second):
		t.Fatal("exit was not called")
	}
	assert.Contains(t, buf.String(), "terminating process")
}
