package record

import (
	"errors"
	"fmt"

	"github.com/coral-mesh/ifprobe/internal/comid"
)

// Enumeration failure classes.
var (
	// ErrFactoryUnavailable means no class factory could be obtained; the
	// enumeration is aborted.
	ErrFactoryUnavailable = errors.New("class factory unavailable")

	// ErrInstanceUnavailable means the factory works but no instance could be
	// created. Factory-only probing still runs.
	ErrInstanceUnavailable = errors.New("class instance unavailable")

	// ErrChildProcessFault is logged when the isolated helper crashed or was
	// killed. Its partial output is discarded and the result is a Fallback.
	ErrChildProcessFault = errors.New("isolated helper faulted")

	// ErrEnumerationTimeout means the in-process enumeration did not finish
	// within its budget and the caller chose not to terminate the process.
	ErrEnumerationTimeout = errors.New("enumeration timed out")
)

// Result is the outcome of one enumeration request.
type Result struct {
	Instance []Interface
	Factory  []Interface

	// Failure is set when the enumeration aborted. Partial collections may
	// still be present.
	Failure error

	// Faulted marks a fallback substituted for a helper that crashed or was
	// killed. Failure stays nil in that case.
	Faulted bool
}

// Fallback returns the result substituted for a crashed child: a single
// IUnknown record on each side.
func Fallback() *Result {
	return &Result{
		Instance: []Interface{New(comid.IIDUnknown)},
		Factory:  []Interface{New(comid.IIDUnknown)},
		Faulted:  true,
	}
}

// Rows flattens the result for tabular output, instance side first.
func (r *Result) Rows() []Row {
	rows := make([]Row, 0, len(r.Instance)+len(r.Factory))
	add := func(side string, recs []Interface) {
		for _, rec := range recs {
			row := Row{Side: side, IID: comid.Braced(rec.IID())}
			if mod, ok := rec.Module(); ok {
				row.Module = mod
				row.Offset = fmt.Sprintf("0x%X", rec.Offset())
			}
			rows = append(rows, row)
		}
	}
	add("instance", r.Instance)
	add("factory", r.Factory)
	return rows
}
