package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/ifprobe/internal/comid"
)

var iidFoo = comid.MustParse("11111111-2222-3333-4444-555555555555")

func TestNewWithModule(t *testing.T) {
	rec := NewWithModule(iidFoo, `C:\foo.dll`, 0x40)
	mod, ok := rec.Module()
	assert.True(t, ok)
	assert.Equal(t, `C:\foo.dll`, mod)
	assert.Equal(t, int64(0x40), rec.Offset())

	bare := NewWithModule(iidFoo, "", 0x40)
	_, ok = bare.Module()
	assert.False(t, ok)
	assert.Zero(t, bare.Offset(), "offset is meaningless without a module")
	assert.Equal(t, New(iidFoo), bare)
}

func TestFallback(t *testing.T) {
	res := Fallback()
	require.Len(t, res.Instance, 1)
	require.Len(t, res.Factory, 1)
	assert.Equal(t, comid.IIDUnknown, res.Instance[0].IID())
	assert.Equal(t, comid.IIDUnknown, res.Factory[0].IID())
	assert.NoError(t, res.Failure)
	assert.True(t, res.Faulted)

	// Each call returns a fresh result.
	res.Instance = nil
	assert.Len(t, Fallback().Instance, 1)
}

func TestResult_Rows(t *testing.T) {
	res := &Result{
		Instance: []Interface{NewWithModule(iidFoo, `C:\foo.dll`, 0x1F0)},
		Factory:  []Interface{New(comid.IIDMarshal)},
	}

	rows := res.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, Row{
		Side:   "instance",
		IID:    "{11111111-2222-3333-4444-555555555555}",
		Module: `C:\foo.dll`,
		Offset: "0x1F0",
	}, rows[0])
	assert.Equal(t, Row{
		Side: "factory",
		IID:  "{00000003-0000-0000-C000-000000000046}",
	}, rows[1])
}

func TestSentinelsAreDistinct(t *testing.T) {
	errs := []error{ErrFactoryUnavailable, ErrInstanceUnavailable, ErrChildProcessFault, ErrEnumerationTimeout}
	for i, a := range errs {
		for j, b := range errs {
			assert.Equal(t, i == j, errors.Is(a, b))
		}
	}
}

func TestParseClassContext(t *testing.T) {
	tests := []struct {
		in      string
		want    ClassContext
		wantErr bool
	}{
		{in: "1", want: ContextInprocServer},
		{in: "0x14", want: ContextLocalServer | ContextRemoteServer},
		{in: "inproc", want: ContextInprocServer},
		{in: "inproc|local", want: ContextInprocServer | ContextLocalServer},
		{in: "Local, Remote", want: ContextLocalServer | ContextRemoteServer},
		{in: "server", want: ContextServer},
		{in: "handler|0x20", want: ContextInprocHandler | 0x20},
		{in: "none", want: 0},
		{in: "", wantErr: true},
		{in: "sideways", wantErr: true},
		{in: "inproc|sideways", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClassContext(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassContext_String(t *testing.T) {
	assert.Equal(t, "none", ClassContext(0).String())
	assert.Equal(t, "inproc|local|remote", ContextServer.String())
	assert.Equal(t, "handler|0x20", (ContextInprocHandler | 0x20).String())
}

func TestClassContext_TextRoundTrip(t *testing.T) {
	for _, c := range []ClassContext{0, ContextInprocServer, ContextServer, ContextInprocHandler | 0x400} {
		text, err := c.MarshalText()
		require.NoError(t, err)

		var got ClassContext
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, c, got, string(text))
	}
}

func TestClassContext_InProcess(t *testing.T) {
	assert.True(t, ContextInprocServer.InProcess())
	assert.True(t, (ContextInprocServer | ContextInprocHandler).InProcess())
	assert.False(t, ContextServer.InProcess())
	assert.False(t, ContextLocalServer.InProcess())
	assert.False(t, ContextInprocHandler.InProcess())
}
