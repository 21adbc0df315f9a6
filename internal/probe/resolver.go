package probe

import (
	"github.com/rs/zerolog"
)

// Module is a resolved module for a vtable address.
type Module struct {
	Base uintptr
	Path string
}

// Resolver maps vtable addresses to modules, memoizing paths by module base.
// A Resolver belongs to a single enumeration run and is not safe for
// concurrent use.
type Resolver struct {
	locator ModuleLocator
	logger  zerolog.Logger
	names   map[uintptr]string
}

// NewResolver creates a resolver with an empty cache.
func NewResolver(locator ModuleLocator, logger zerolog.Logger) *Resolver {
	return &Resolver{
		locator: locator,
		logger:  logger,
		names:   make(map[uintptr]string),
	}
}

// Resolve returns the module that owns vtable. ok is false when the address
// is not inside any loaded module, or the module path could not be read.
func (r *Resolver) Resolve(vtable uintptr) (Module, bool) {
	if r.locator == nil || vtable == 0 {
		return Module{}, false
	}

	base, ok := r.locator.ModuleBase(vtable)
	if !ok {
		return Module{}, false
	}

	if path, cached := r.names[base]; cached {
		return Module{Base: base, Path: path}, path != ""
	}

	path, err := r.locator.ModulePath(base)
	if err != nil {
		r.logger.Debug().Err(err).Uint64("base", uint64(base)).Msg("Failed to read module path")
		path = ""
	}
	// Failures are cached too so a broken module is only asked once.
	r.names[base] = path

	return Module{Base: base, Path: path}, path != ""
}

// CacheSize returns the number of module bases resolved so far.
func (r *Resolver) CacheSize() int {
	return len(r.names)
}
