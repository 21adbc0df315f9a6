package enumerator_test

import (
	"errors"
	"testing"
	"time"

	"github.com/go-ole/go-ole"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/ifprobe/internal/apartment"
	"github.com/coral-mesh/ifprobe/internal/catalog"
	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/constants"
	"github.com/coral-mesh/ifprobe/internal/enumerator"
	"github.com/coral-mesh/ifprobe/internal/record"
	"github.com/coral-mesh/ifprobe/internal/testutil"
)

var (
	clsid      = comid.MustParse("{E436EBB3-524F-11CE-9F53-0020AF0BA770}")
	iidFoo     = comid.MustParse("11111111-2222-3333-4444-555555555555")
	iidBar     = comid.MustParse("AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE")
	iidMissing = comid.MustParse("99999999-0000-0000-0000-000000000000")
)

func candidates(ids ...ole.GUID) catalog.Source {
	ifaces := make([]catalog.Interface, len(ids))
	for i, id := range ids {
		ifaces[i] = catalog.Interface{IID: id}
	}
	return catalog.New(ifaces, nil)
}

func locator() *testutil.FakeLocator {
	return &testutil.FakeLocator{
		Modules: []testutil.FakeModule{
			{Base: 0x10000000, Size: 0x100000, Path: `C:\Windows\System32\combase.dll`},
			{Base: 0x20000000, Size: 0x100000, Path: `C:\Program Files\Foo\foo.dll`},
		},
	}
}

func newEnumerator(t *testing.T, act *testutil.FakeActivator, src catalog.Source, opts ...enumerator.Option) *enumerator.Enumerator {
	t.Helper()
	return newEnumeratorWithLogger(t, testutil.NewTestLogger(t), act, src, opts...)
}

func newEnumeratorWithLogger(t *testing.T, logger zerolog.Logger, act *testutil.FakeActivator, src catalog.Source, opts ...enumerator.Option) *enumerator.Enumerator {
	t.Helper()
	opts = append([]enumerator.Option{enumerator.WithDispatcher(apartment.NewDispatcher(nil, logger))}, opts...)
	e := enumerator.New(act, locator(), src, logger, opts...)
	t.Cleanup(e.Close)
	return e
}

func iids(recs []record.Interface) []ole.GUID {
	out := make([]ole.GUID, len(recs))
	for i, r := range recs {
		out[i] = r.IID()
	}
	return out
}

func TestEnumerate_FactoryAndInstance(t *testing.T) {
	instance := testutil.NewFakeObject(map[ole.GUID]uintptr{
		iidFoo:           0x20000100,
		comid.IIDMarshal: 0x10000040,
	})
	factory := testutil.NewFakeObject(map[ole.GUID]uintptr{
		comid.IIDPSFactoryBuffer: 0x10000080,
		iidBar:                   0x7ff00000,
	})
	act := &testutil.FakeActivator{Factory: factory, Instance: instance}
	e := newEnumerator(t, act, candidates(iidFoo, iidBar, iidMissing))

	res := e.Enumerate(clsid, record.ContextInprocServer)

	require.NoError(t, res.Failure)
	assert.Equal(t, []ole.GUID{comid.IIDMarshal, iidFoo}, iids(res.Instance))
	assert.Equal(t, []ole.GUID{comid.IIDPSFactoryBuffer, iidBar}, iids(res.Factory))

	mod, ok := res.Instance[1].Module()
	require.True(t, ok)
	assert.Equal(t, `C:\Program Files\Foo\foo.dll`, mod)
	assert.Equal(t, int64(0x100), res.Instance[1].Offset())

	_, ok = res.Factory[1].Module()
	assert.False(t, ok, "proxy vtable has no module")

	assert.Equal(t, 1, factory.Released())
	assert.Equal(t, 1, instance.Released())
	assert.Equal(t, 5, instance.Queries())
	assert.Equal(t, 5, factory.Queries())
}

func TestEnumerate_NoRegisteredInterfaces(t *testing.T) {
	act := &testutil.FakeActivator{
		Factory:  testutil.NewFakeObject(nil),
		Instance: testutil.NewFakeObject(nil),
	}
	e := newEnumerator(t, act, candidates())

	res := e.Enumerate(clsid, record.ContextInprocServer)

	require.NoError(t, res.Failure)
	assert.Empty(t, res.Instance)
	assert.Empty(t, res.Factory)
}

func TestEnumerate_FactoryUnavailable(t *testing.T) {
	act := &testutil.FakeActivator{FactoryErr: comid.ClassNotReg}
	e := newEnumerator(t, act, candidates(iidFoo))

	res := e.Enumerate(clsid, record.ContextInprocServer)

	require.Error(t, res.Failure)
	assert.ErrorIs(t, res.Failure, record.ErrFactoryUnavailable)
	assert.Equal(t, comid.ClassNotReg, comid.StatusOf(res.Failure))
	assert.Empty(t, res.Instance)
	assert.Empty(t, res.Factory)
}

func TestEnumerate_InstanceUnavailableStillProbesFactory(t *testing.T) {
	factory := testutil.NewFakeObject(map[ole.GUID]uintptr{iidFoo: 0x10000000})
	act := &testutil.FakeActivator{Factory: factory, InstanceErr: comid.ClassENoAggreg}
	e := newEnumerator(t, act, candidates(iidFoo))

	res := e.Enumerate(clsid, record.ContextLocalServer)

	require.NoError(t, res.Failure)
	assert.Empty(t, res.Instance)
	assert.Equal(t, []ole.GUID{iidFoo}, iids(res.Factory))
	_, ok := res.Factory[0].Module()
	assert.False(t, ok, "local server records carry no module")
	assert.Equal(t, 1, factory.Released())
	assert.Equal(t, []record.ClassContext{record.ContextLocalServer, record.ContextLocalServer}, act.Contexts())
}

func TestEnumerate_InstanceUnavailableIsLogged(t *testing.T) {
	factory := testutil.NewFakeObject(map[ole.GUID]uintptr{iidFoo: 0x10000000})
	act := &testutil.FakeActivator{Factory: factory, InstanceErr: comid.ClassENoAggreg}
	logger, logs := testutil.NewCapturingLogger()
	e := newEnumeratorWithLogger(t, logger, act, candidates(iidFoo))

	res := e.Enumerate(clsid, record.ContextInprocServer)

	require.NoError(t, res.Failure, "a missing instance is recoverable")
	assert.Contains(t, logs.String(), record.ErrInstanceUnavailable.Error())
	assert.Contains(t, logs.String(), comid.ClassENoAggreg.Error())
}

type brokenSource struct{}

func (brokenSource) InterfaceIDs() ([]ole.GUID, error) { return nil, errors.New("registry unavailable") }

func TestEnumerate_CatalogErrorFallsBackToWellKnown(t *testing.T) {
	instance := testutil.NewFakeObject(map[ole.GUID]uintptr{comid.IIDMarshal: 1})
	act := &testutil.FakeActivator{Factory: testutil.NewFakeObject(nil), Instance: instance}
	e := newEnumerator(t, act, brokenSource{})

	res := e.Enumerate(clsid, record.ContextInprocServer)

	require.NoError(t, res.Failure)
	assert.Equal(t, []ole.GUID{comid.IIDMarshal}, iids(res.Instance))
}

func TestEnumerate_PartialCatalogIsProbed(t *testing.T) {
	instance := testutil.NewFakeObject(map[ole.GUID]uintptr{iidFoo: 0x20000100, iidBar: 0x20000200})
	act := &testutil.FakeActivator{Factory: testutil.NewFakeObject(nil), Instance: instance}
	logger, logs := testutil.NewCapturingLogger()
	src := catalog.Merge(candidates(iidFoo), brokenSource{}, candidates(iidBar))
	e := newEnumeratorWithLogger(t, logger, act, src)

	res := e.Enumerate(clsid, record.ContextInprocServer)

	require.NoError(t, res.Failure)
	assert.Equal(t, []ole.GUID{iidFoo, iidBar}, iids(res.Instance))
	assert.Contains(t, logs.String(), "registry unavailable")
}

func TestEnumerateInProcess_Completes(t *testing.T) {
	act := &testutil.FakeActivator{
		Factory:  testutil.NewFakeObject(map[ole.GUID]uintptr{iidFoo: 1}),
		Instance: testutil.NewFakeObject(map[ole.GUID]uintptr{iidBar: 1}),
	}
	e := newEnumerator(t, act, candidates(iidFoo, iidBar),
		enumerator.WithExitFunc(func(int) { t.Error("exit must not be called") }))

	for _, sta := range []bool{true, false} {
		res := e.EnumerateInProcess(clsid, record.ContextInprocServer, enumerator.Options{
			SingleThreaded: sta,
			Timeout:        5 * time.Second,
			ExitOnTimeout:  true,
		})
		require.NoError(t, res.Failure)
		assert.Equal(t, []ole.GUID{iidBar}, iids(res.Instance))
		assert.Equal(t, []ole.GUID{iidFoo}, iids(res.Factory))
	}
}

func TestEnumerateInProcess_TimeoutWithoutExit(t *testing.T) {
	hang := make(chan struct{})
	defer close(hang)

	factory := testutil.NewFakeObject(nil)
	factory.Hang = hang
	act := &testutil.FakeActivator{Factory: factory}
	e := newEnumerator(t, act, candidates(iidFoo))

	start := time.Now()
	res := e.EnumerateInProcess(clsid, record.ContextInprocServer, enumerator.Options{
		Timeout: 50 * time.Millisecond,
	})

	assert.ErrorIs(t, res.Failure, record.ErrEnumerationTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestEnumerateInProcess_TimeoutTerminates(t *testing.T) {
	hang := make(chan struct{})
	defer close(hang)

	factory := testutil.NewFakeObject(nil)
	factory.Hang = hang
	act := &testutil.FakeActivator{Factory: factory}

	exited := make(chan int, 1)
	e := newEnumerator(t, act, candidates(iidFoo),
		enumerator.WithExitFunc(func(code int) { exited <- code }))

	res := e.EnumerateInProcess(clsid, record.ContextInprocServer, enumerator.Options{
		SingleThreaded: true,
		Timeout:        50 * time.Millisecond,
		ExitOnTimeout:  true,
	})

	select {
	case code := <-exited:
		assert.Equal(t, constants.ExitCodeTimeout, code)
	case <-time.After(5 * time.Second):
		t.Fatal("watchdog did not terminate")
	}
	assert.ErrorIs(t, res.Failure, record.ErrEnumerationTimeout)
}
