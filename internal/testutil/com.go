package testutil

import (
	"sync"

	"github.com/go-ole/go-ole"

	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/probe"
	"github.com/coral-mesh/ifprobe/internal/record"
)

// FakeObject is an in-memory COM object. Interfaces maps each supported IID
// to the vtable address QueryVTable reports for it.
type FakeObject struct {
	mu         sync.Mutex
	Interfaces map[ole.GUID]uintptr
	// Hang, when non-nil, blocks every QueryVTable call until it is closed.
	Hang chan struct{}

	queries  int
	released int
}

// NewFakeObject returns an object answering for the given interfaces.
func NewFakeObject(ifaces map[ole.GUID]uintptr) *FakeObject {
	if ifaces == nil {
		ifaces = make(map[ole.GUID]uintptr)
	}
	return &FakeObject{Interfaces: ifaces}
}

// QueryVTable implements probe.Object.
func (o *FakeObject) QueryVTable(iid ole.GUID) (uintptr, error) {
	if o.Hang != nil {
		<-o.Hang
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queries++
	vt, ok := o.Interfaces[iid]
	if !ok {
		return 0, comid.ENoInterface
	}
	return vt, nil
}

// Release implements probe.Object.
func (o *FakeObject) Release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.released++
}

// Queries returns how many QueryVTable calls completed.
func (o *FakeObject) Queries() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queries
}

// Released returns how many times Release was called.
func (o *FakeObject) Released() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.released
}

// FakeActivator hands out fixed factory and instance objects.
type FakeActivator struct {
	Factory     *FakeObject
	Instance    *FakeObject
	FactoryErr  error
	InstanceErr error

	mu       sync.Mutex
	contexts []record.ClassContext
}

// GetClassObject implements probe.Activator.
func (a *FakeActivator) GetClassObject(_ ole.GUID, clsctx record.ClassContext) (probe.Object, error) {
	a.record(clsctx)
	if a.FactoryErr != nil {
		return nil, a.FactoryErr
	}
	if a.Factory == nil {
		return nil, comid.ClassNotReg
	}
	return a.Factory, nil
}

// CreateInstance implements probe.Activator.
func (a *FakeActivator) CreateInstance(_ ole.GUID, clsctx record.ClassContext) (probe.Object, error) {
	a.record(clsctx)
	if a.InstanceErr != nil {
		return nil, a.InstanceErr
	}
	if a.Instance == nil {
		return nil, comid.ClassNotReg
	}
	return a.Instance, nil
}

// Contexts returns the class contexts activation was requested with.
func (a *FakeActivator) Contexts() []record.ClassContext {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]record.ClassContext(nil), a.contexts...)
}

func (a *FakeActivator) record(clsctx record.ClassContext) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.contexts = append(a.contexts, clsctx)
}

// FakeModule describes a module loaded at [Base, Base+Size).
type FakeModule struct {
	Base uintptr
	Size uintptr
	Path string
}

// FakeLocator resolves addresses against a fixed module list and counts path
// lookups so tests can check memoization.
type FakeLocator struct {
	Modules []FakeModule

	mu          sync.Mutex
	pathLookups int
}

// ModuleBase implements probe.ModuleLocator.
func (l *FakeLocator) ModuleBase(addr uintptr) (uintptr, bool) {
	for _, m := range l.Modules {
		if addr >= m.Base && addr < m.Base+m.Size {
			return m.Base, true
		}
	}
	return 0, false
}

// ModulePath implements probe.ModuleLocator.
func (l *FakeLocator) ModulePath(base uintptr) (string, error) {
	l.mu.Lock()
	l.pathLookups++
	l.mu.Unlock()
	for _, m := range l.Modules {
		if m.Base == base {
			return m.Path, nil
		}
	}
	return "", comid.EFail
}

// PathLookups returns the number of ModulePath calls.
func (l *FakeLocator) PathLookups() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pathLookups
}
