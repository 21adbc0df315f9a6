package isolation

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/coral-mesh/ifprobe/internal/apartment"
	"github.com/coral-mesh/ifprobe/internal/catalog"
)

const processIs64Bit = strconv.IntSize == 64

// hostIs64Bit reports whether the operating system is 64-bit. It is resolved
// once per process. When the kernel architecture cannot be read the process
// word size is assumed.
var hostIs64Bit = sync.OnceValue(func() bool {
	arch, err := host.KernelArch()
	if err != nil || arch == "" {
		return processIs64Bit
	}
	return Is64BitArch(arch)
})

// Is64BitArch reports whether a kernel architecture name denotes a 64-bit
// machine.
func Is64BitArch(arch string) bool {
	switch strings.ToLower(arch) {
	case "x86_64", "amd64", "x64", "ia64", "arm64", "aarch64",
		"ppc64", "ppc64le", "s390x", "riscv64", "mips64", "mips64le", "loong64":
		return true
	default:
		return false
	}
}

// SelectHelper picks the helper executable for the host: the 64-bit helper
// when both the process and the operating system are 64-bit, otherwise the
// helper matching the process word size.
func SelectHelper(process64, os64 bool, helper32, helper64 string) string {
	if process64 && os64 {
		return helper64
	}
	if !process64 {
		return helper32
	}
	// A 64-bit process on a kernel reported as 32-bit; trust the process.
	return helper64
}

// ApartmentFor returns the apartment the helper should enter for a class
// registered with model.
func ApartmentFor(model catalog.ThreadingModel) apartment.Kind {
	if model.AllowsMTA() {
		return apartment.MTA
	}
	return apartment.STA
}

// OpenPipe opens the inherited pipe end named by a helper command-line
// handle argument.
func OpenPipe(handle string) (*os.File, error) {
	v, err := strconv.ParseUint(handle, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid pipe handle %q: %w", handle, err)
	}
	f := os.NewFile(uintptr(v), "ifprobe-pipe")
	if f == nil {
		return nil, fmt.Errorf("invalid pipe handle %q", handle)
	}
	return f, nil
}
