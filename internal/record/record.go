// Package record defines the values produced by an interface enumeration.
package record

import (
	"github.com/go-ole/go-ole"

	"github.com/coral-mesh/ifprobe/internal/comid"
)

// Interface identifies one interface discovered on a live object.
// The zero Module means the implementing module is unknown, e.g. the vtable
// belongs to a proxy or the class was activated out of process.
type Interface struct {
	iid    ole.GUID
	module string
	offset int64
}

// New returns a record with no module information.
func New(iid ole.GUID) Interface {
	return Interface{iid: iid}
}

// NewWithModule returns a record pointing at the vtable offset inside module.
// An empty module discards the offset.
func NewWithModule(iid ole.GUID, module string, offset int64) Interface {
	if module == "" {
		return Interface{iid: iid}
	}
	return Interface{iid: iid, module: module, offset: offset}
}

// IID returns the interface identifier.
func (r Interface) IID() ole.GUID { return r.iid }

// Module returns the absolute path of the implementing module, if known.
func (r Interface) Module() (string, bool) { return r.module, r.module != "" }

// Offset returns the vtable offset relative to the module base, or 0 when
// the module is unknown.
func (r Interface) Offset() int64 { return r.offset }

// String renders the record for logs.
func (r Interface) String() string {
	if r.module == "" {
		return comid.String(r.iid)
	}
	return comid.String(r.iid) + " " + r.module
}

// Row is the flattened form of an Interface used by the CLI formatters.
type Row struct {
	Side   string `header:"SIDE" json:"side"`
	IID    string `header:"IID" json:"iid"`
	Module string `header:"MODULE" json:"module,omitempty"`
	Offset string `header:"OFFSET" json:"offset,omitempty"`
}
