// Package catalog supplies the candidate interface identifiers to probe and
// per-class activation defaults.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-ole/go-ole"

	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/record"
)

// ErrClassNotFound is returned when a class is not in the catalog.
var ErrClassNotFound = errors.New("class not found in catalog")

// ErrNoRegistry is returned on platforms without a COM registry.
var ErrNoRegistry = errors.New("COM registry is not available on this platform")

// ThreadingModel is the registered threading model of an in-process server.
type ThreadingModel string

const (
	ThreadingApartment ThreadingModel = "Apartment"
	ThreadingFree      ThreadingModel = "Free"
	ThreadingBoth      ThreadingModel = "Both"
	ThreadingNeutral   ThreadingModel = "Neutral"
	// ThreadingNone is a server registered without a ThreadingModel value,
	// which COM treats as main-STA only.
	ThreadingNone ThreadingModel = ""
)

// ParseThreadingModel normalizes the registry spelling of a model. Unknown
// values map to ThreadingNone.
func ParseThreadingModel(s string) ThreadingModel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "apartment":
		return ThreadingApartment
	case "free":
		return ThreadingFree
	case "both":
		return ThreadingBoth
	case "neutral":
		return ThreadingNeutral
	default:
		return ThreadingNone
	}
}

// AllowsMTA reports whether objects of this model may be created from a
// multi-threaded apartment without a cross-apartment proxy.
func (m ThreadingModel) AllowsMTA() bool {
	return m == ThreadingFree || m == ThreadingBoth
}

// Class describes one registered class.
type Class struct {
	CLSID          ole.GUID
	Name           string
	Context        record.ClassContext
	ThreadingModel ThreadingModel
}

// String renders the class for logs.
func (c Class) String() string {
	if c.Name == "" {
		return comid.Braced(c.CLSID)
	}
	return fmt.Sprintf("%s %s", c.Name, comid.Braced(c.CLSID))
}

// Interface describes one known interface.
type Interface struct {
	IID  ole.GUID
	Name string
}

// Source supplies candidate interface identifiers, in probe order.
type Source interface {
	InterfaceIDs() ([]ole.GUID, error)
}

// ClassLookup resolves activation defaults for a class.
type ClassLookup interface {
	Class(clsid ole.GUID) (Class, error)
}

// Catalog is an immutable in-memory catalog.
type Catalog struct {
	interfaces []Interface
	classes    []Class
	byCLSID    map[ole.GUID]int
}

// New builds a catalog. Order is preserved; duplicate interfaces are kept.
func New(interfaces []Interface, classes []Class) *Catalog {
	c := &Catalog{
		interfaces: append([]Interface(nil), interfaces...),
		classes:    append([]Class(nil), classes...),
		byCLSID:    make(map[ole.GUID]int, len(classes)),
	}
	for i, cls := range c.classes {
		if _, dup := c.byCLSID[cls.CLSID]; !dup {
			c.byCLSID[cls.CLSID] = i
		}
	}
	return c
}

// InterfaceIDs implements Source.
func (c *Catalog) InterfaceIDs() ([]ole.GUID, error) {
	ids := make([]ole.GUID, len(c.interfaces))
	for i, iface := range c.interfaces {
		ids[i] = iface.IID
	}
	return ids, nil
}

// Interfaces returns the known interfaces.
func (c *Catalog) Interfaces() []Interface {
	return append([]Interface(nil), c.interfaces...)
}

// Classes returns the known classes.
func (c *Catalog) Classes() []Class {
	return append([]Class(nil), c.classes...)
}

// Class implements ClassLookup.
func (c *Catalog) Class(clsid ole.GUID) (Class, error) {
	i, ok := c.byCLSID[clsid]
	if !ok {
		return Class{}, fmt.Errorf("%w: %s", ErrClassNotFound, comid.Braced(clsid))
	}
	return c.classes[i], nil
}

type merged []Source

// Merge concatenates sources in order. Identifiers present in more than one
// source are probed once per source. A failing source does not hide the
// others: InterfaceIDs returns what the healthy sources produced together
// with the joined errors.
func Merge(sources ...Source) Source {
	var m merged
	for _, s := range sources {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

func (m merged) InterfaceIDs() ([]ole.GUID, error) {
	var (
		ids  []ole.GUID
		errs []error
	)
	for _, s := range m {
		part, err := s.InterfaceIDs()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, part...)
	}
	return ids, errors.Join(errs...)
}

// Chain returns a ClassLookup that asks each lookup in turn and returns the
// first hit.
func Chain(lookups ...ClassLookup) ClassLookup {
	return chain(lookups)
}

type chain []ClassLookup

func (c chain) Class(clsid ole.GUID) (Class, error) {
	for _, l := range c {
		if l == nil {
			continue
		}
		cls, err := l.Class(clsid)
		if err == nil {
			return cls, nil
		}
		if !errors.Is(err, ErrClassNotFound) {
			return Class{}, err
		}
	}
	return Class{}, fmt.Errorf("%w: %s", ErrClassNotFound, comid.Braced(clsid))
}
