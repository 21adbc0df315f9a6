//go:build windows

package apartment

import (
	"github.com/go-ole/go-ole"
)

type oleInitializer struct{}

// NewPlatformInitializer returns an initializer backed by CoInitializeEx.
func NewPlatformInitializer() Initializer {
	return oleInitializer{}
}

func (oleInitializer) Enter(kind Kind) error {
	coinit := uint32(ole.COINIT_APARTMENTTHREADED)
	if kind == MTA {
		coinit = ole.COINIT_MULTITHREADED
	}
	if err := ole.CoInitializeEx(0, coinit); err != nil {
		// S_FALSE: the thread was already initialized with the same model.
		if oleErr, ok := err.(*ole.OleError); ok && oleErr.Code() == 0x00000001 {
			return nil
		}
		return err
	}
	return nil
}

func (oleInitializer) Leave() {
	ole.CoUninitialize()
}
