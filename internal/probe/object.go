// Package probe asks live COM objects which interfaces they implement and
// attributes every hit to the module whose vtable answered.
//
// All raw pointer work lives in the platform files behind three narrow
// interfaces: Object, Activator and ModuleLocator. Everything else in this
// package, and every caller, only sees addresses as opaque uintptr values.
package probe

import (
	"errors"

	"github.com/go-ole/go-ole"

	"github.com/coral-mesh/ifprobe/internal/record"
)

// ErrUnsupported is returned by the native activator on platforms without COM.
var ErrUnsupported = errors.New("COM activation is not supported on this platform")

// Object is a live reference to a COM object.
type Object interface {
	// QueryVTable asks the object for iid. On success it returns the vtable
	// address of the returned interface pointer; the reference obtained by the
	// query is released before QueryVTable returns.
	QueryVTable(iid ole.GUID) (uintptr, error)

	// Release drops the reference held by the Object. Safe to call on a nil
	// native pointer.
	Release()
}

// Activator obtains class factories and instances.
type Activator interface {
	GetClassObject(clsid ole.GUID, clsctx record.ClassContext) (Object, error)
	CreateInstance(clsid ole.GUID, clsctx record.ClassContext) (Object, error)
}

// ModuleLocator maps code addresses to loaded modules.
type ModuleLocator interface {
	// ModuleBase returns the load base of the module containing addr, or
	// ok=false when addr is outside every loaded module.
	ModuleBase(addr uintptr) (base uintptr, ok bool)

	// ModulePath returns the on-disk path of the module loaded at base.
	ModulePath(base uintptr) (string, error)
}
