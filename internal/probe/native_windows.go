//go:build windows

package probe

import (
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"

	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/record"
)

var (
	modole32             = windows.NewLazySystemDLL("ole32.dll")
	procCoGetClassObject = modole32.NewProc("CoGetClassObject")
	procCoCreateInstance = modole32.NewProc("CoCreateInstance")
)

// nativeObject wraps a raw IUnknown pointer.
type nativeObject struct {
	unk *ole.IUnknown
}

func (o *nativeObject) QueryVTable(iid ole.GUID) (uintptr, error) {
	if o == nil || o.unk == nil {
		return 0, comid.EPointer
	}
	disp, err := o.unk.QueryInterface(&iid)
	if err != nil {
		return 0, err
	}
	if disp == nil {
		return 0, comid.ENoInterface
	}
	// The first pointer-sized word of an interface pointer is its vtable.
	vtable := uintptr(unsafe.Pointer(disp.RawVTable))
	disp.Release()
	return vtable, nil
}

func (o *nativeObject) Release() {
	if o == nil || o.unk == nil {
		return
	}
	o.unk.Release()
	o.unk = nil
}

// NativeActivator activates classes through ole32. The calling goroutine
// must be on a thread that has entered an apartment.
type NativeActivator struct{}

// NewNativeActivator returns the platform activator.
func NewNativeActivator() Activator {
	return NativeActivator{}
}

// GetClassObject calls CoGetClassObject asking for IUnknown.
func (NativeActivator) GetClassObject(clsid ole.GUID, clsctx record.ClassContext) (Object, error) {
	var unk *ole.IUnknown
	hr, _, _ := procCoGetClassObject.Call(
		uintptr(unsafe.Pointer(&clsid)),
		uintptr(clsctx),
		0,
		uintptr(unsafe.Pointer(ole.IID_IUnknown)),
		uintptr(unsafe.Pointer(&unk)))
	if comid.HResult(hr).Failed() {
		return nil, comid.HResult(hr)
	}
	return &nativeObject{unk: unk}, nil
}

// CreateInstance calls CoCreateInstance asking for IUnknown.
func (NativeActivator) CreateInstance(clsid ole.GUID, clsctx record.ClassContext) (Object, error) {
	var unk *ole.IUnknown
	hr, _, _ := procCoCreateInstance.Call(
		uintptr(unsafe.Pointer(&clsid)),
		0,
		uintptr(clsctx),
		uintptr(unsafe.Pointer(ole.IID_IUnknown)),
		uintptr(unsafe.Pointer(&unk)))
	if comid.HResult(hr).Failed() {
		return nil, comid.HResult(hr)
	}
	return &nativeObject{unk: unk}, nil
}

// NativeModuleLocator resolves addresses against modules loaded in the
// current process.
type NativeModuleLocator struct{}

// NewNativeModuleLocator returns the platform module locator.
func NewNativeModuleLocator() ModuleLocator {
	return NativeModuleLocator{}
}

// ModuleBase returns the HMODULE containing addr. The module reference taken
// by the lookup is dropped before returning.
func (NativeModuleLocator) ModuleBase(addr uintptr) (uintptr, bool) {
	var h windows.Handle
	err := windows.GetModuleHandleEx(
		windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS,
		(*uint16)(unsafe.Pointer(addr)), //nolint:govet // address lookup, not a string
		&h)
	if err != nil || h == 0 {
		return 0, false
	}
	defer func() { _ = windows.FreeLibrary(h) }()
	return uintptr(h), true
}

// ModulePath returns the full path of the module loaded at base.
func (NativeModuleLocator) ModulePath(base uintptr) (string, error) {
	buf := make([]uint16, windows.MAX_LONG_PATH)
	n, err := windows.GetModuleFileName(windows.Handle(base), &buf[0], uint32(len(buf)))
	if err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf[:n]), nil
}
