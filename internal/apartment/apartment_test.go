package apartment

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInit struct {
	mu      sync.Mutex
	entered []Kind
	left    int
	err     error
}

func (r *recordingInit) Enter(kind Kind) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entered = append(r.entered, kind)
	return nil
}

func (r *recordingInit) Leave() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.left++
}

func (r *recordingInit) snapshot() ([]Kind, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Kind(nil), r.entered...), r.left
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not finish")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "s", want: STA},
		{in: "m", want: MTA},
		{in: "M", want: MTA},
		{in: "x", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in == "s", got.String() == "s")
		})
	}
}

func TestDispatcher_ReusesWorkerPerKind(t *testing.T) {
	ini := &recordingInit{}
	d := NewDispatcher(ini, zerolog.Nop())
	defer d.Close()

	var ran []string
	var mu sync.Mutex
	for i := 0; i < 3; i++ {
		done, err := d.Submit(STA, func() {
			mu.Lock()
			ran = append(ran, "sta")
			mu.Unlock()
		})
		require.NoError(t, err)
		waitDone(t, done)
	}
	done, err := d.Submit(MTA, func() {
		mu.Lock()
		ran = append(ran, "mta")
		mu.Unlock()
	})
	require.NoError(t, err)
	waitDone(t, done)

	entered, _ := ini.snapshot()
	assert.ElementsMatch(t, []Kind{STA, MTA}, entered)
	assert.Equal(t, []string{"sta", "sta", "sta", "mta"}, ran)
}

func TestDispatcher_RetireStartsFreshWorker(t *testing.T) {
	ini := &recordingInit{}
	d := NewDispatcher(ini, zerolog.Nop())
	defer d.Close()

	hang := make(chan struct{})
	defer close(hang)
	_, err := d.Submit(STA, func() { <-hang })
	require.NoError(t, err)

	d.Retire(STA)

	done, err := d.Submit(STA, func() {})
	require.NoError(t, err)
	waitDone(t, done)

	entered, _ := ini.snapshot()
	assert.Equal(t, []Kind{STA, STA}, entered)
}

func TestDispatcher_EnterFailure(t *testing.T) {
	ini := &recordingInit{err: errors.New("boom")}
	d := NewDispatcher(ini, zerolog.Nop())
	defer d.Close()

	_, err := d.Submit(MTA, func() { t.Error("job must not run") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enter m apartment")
}

func TestDispatcher_Close(t *testing.T) {
	ini := &recordingInit{}
	d := NewDispatcher(ini, zerolog.Nop())

	done, err := d.Submit(STA, func() {})
	require.NoError(t, err)
	waitDone(t, done)

	d.Close()
	d.Close()

	_, err = d.Submit(STA, func() {})
	assert.ErrorIs(t, err, ErrClosed)

	assert.Eventually(t, func() bool {
		_, left := ini.snapshot()
		return left == 1
	}, 5*time.Second, 10*time.Millisecond)
}
