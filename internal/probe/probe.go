package probe

import (
	"github.com/go-ole/go-ole"
	"github.com/rs/zerolog"

	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/record"
	"github.com/coral-mesh/ifprobe/internal/safe"
)

// Prober runs QueryInterface probes for one enumeration run.
type Prober struct {
	clsctx   record.ClassContext
	resolver *Resolver
	logger   zerolog.Logger
}

// NewProber creates a prober for objects activated under clsctx.
func NewProber(clsctx record.ClassContext, resolver *Resolver, logger zerolog.Logger) *Prober {
	return &Prober{
		clsctx:   clsctx,
		resolver: resolver,
		logger:   logger,
	}
}

// Probe asks obj for iid. It returns ok=false when the object does not
// implement the interface, which is the expected answer for most candidates.
func (p *Prober) Probe(obj Object, iid ole.GUID) (record.Interface, bool) {
	if obj == nil {
		return record.Interface{}, false
	}

	vtable, err := obj.QueryVTable(iid)
	if err != nil {
		if !comid.IsNoInterface(err) {
			p.logger.Trace().Err(err).Str("iid", comid.String(iid)).Msg("QueryInterface failed")
		}
		return record.Interface{}, false
	}

	if !p.clsctx.InProcess() {
		return record.New(iid), true
	}

	mod, ok := p.resolver.Resolve(vtable)
	if !ok {
		return record.New(iid), true
	}

	offset, clamped := safe.UintptrOffset(vtable, mod.Base)
	if clamped {
		p.logger.Warn().Str("iid", comid.String(iid)).Str("module", mod.Path).Msg("vtable offset out of range")
	}
	return record.NewWithModule(iid, mod.Path, offset), true
}

// ProbeAll probes obj for every candidate, in order, appending hits to dst.
func (p *Prober) ProbeAll(dst []record.Interface, obj Object, candidates []ole.GUID) []record.Interface {
	if obj == nil {
		return dst
	}
	for _, iid := range candidates {
		if rec, ok := p.Probe(obj, iid); ok {
			dst = append(dst, rec)
		}
	}
	return dst
}
