//go:build !windows

package probe

import (
	"github.com/go-ole/go-ole"

	"github.com/coral-mesh/ifprobe/internal/record"
)

type unsupportedActivator struct{}

// NewNativeActivator returns an activator that always fails with
// ErrUnsupported.
func NewNativeActivator() Activator {
	return unsupportedActivator{}
}

func (unsupportedActivator) GetClassObject(ole.GUID, record.ClassContext) (Object, error) {
	return nil, ErrUnsupported
}

func (unsupportedActivator) CreateInstance(ole.GUID, record.ClassContext) (Object, error) {
	return nil, ErrUnsupported
}

type unsupportedLocator struct{}

// NewNativeModuleLocator returns a locator that never finds a module.
func NewNativeModuleLocator() ModuleLocator {
	return unsupportedLocator{}
}

func (unsupportedLocator) ModuleBase(uintptr) (uintptr, bool) { return 0, false }

func (unsupportedLocator) ModulePath(uintptr) (string, error) { return "", ErrUnsupported }
