package comid

import (
	"errors"
	"fmt"

	"github.com/go-ole/go-ole"
)

// HResult is a native COM status code. It implements error so native
// failures can travel through ordinary Go error chains.
type HResult uint32

// Status codes the enumerator cares about.
const (
	SOK              HResult = 0x00000000
	ENotImpl         HResult = 0x80004001
	ENoInterface     HResult = 0x80004002
	EPointer         HResult = 0x80004003
	EFail            HResult = 0x80004005
	EUnexpected      HResult = 0x8000FFFF
	EAccessDenied    HResult = 0x80070005
	ClassNotReg      HResult = 0x80040154
	ClassENoAggreg   HResult = 0x80040110
	CoENotInitialize HResult = 0x800401F0
)

// Error implements error.
func (h HResult) Error() string {
	return fmt.Sprintf("HRESULT 0x%08X", uint32(h))
}

// Failed reports whether h is a failure code (severity bit set).
func (h HResult) Failed() bool {
	return h&0x80000000 != 0
}

// StatusOf extracts the native status from err. An *ole.OleError or
// HResult anywhere in the chain wins; any other non-nil error maps to
// EFail and nil maps to SOK.
func StatusOf(err error) HResult {
	if err == nil {
		return SOK
	}
	var hr HResult
	if errors.As(err, &hr) {
		return hr
	}
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		return HResult(uint32(oleErr.Code()))
	}
	return EFail
}

// IsNoInterface reports whether err is the expected negative answer to a
// QueryInterface call.
func IsNoInterface(err error) bool {
	return StatusOf(err) == ENoInterface
}
