//go:build windows

package catalog

import (
	"errors"
	"fmt"

	"github.com/go-ole/go-ole"
	"github.com/rs/zerolog"
	"golang.org/x/sys/windows/registry"

	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/record"
)

// Registry reads interface and class registrations from HKEY_CLASSES_ROOT.
type Registry struct {
	root   registry.Key
	logger zerolog.Logger
}

// NewRegistry returns a registry-backed source.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		root:   registry.CLASSES_ROOT,
		logger: logger.With().Str("component", "registry").Logger(),
	}
}

// InterfaceIDs enumerates the subkeys of HKCR\Interface. Names that are not
// GUIDs are skipped.
func (r *Registry) InterfaceIDs() ([]ole.GUID, error) {
	k, err := registry.OpenKey(r.root, `Interface`, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, fmt.Errorf("open HKCR\\Interface: %w", err)
	}
	defer func() { _ = k.Close() }()

	names, err := k.ReadSubKeyNames(-1)
	if err != nil {
		return nil, fmt.Errorf("enumerate HKCR\\Interface: %w", err)
	}

	ids := make([]ole.GUID, 0, len(names))
	skipped := 0
	for _, name := range names {
		iid, err := comid.Parse(name)
		if err != nil {
			skipped++
			continue
		}
		ids = append(ids, iid)
	}
	r.logger.Debug().Int("interfaces", len(ids)).Int("skipped", skipped).Msg("Read registered interfaces")
	return ids, nil
}

// Class reads HKCR\CLSID\{clsid}. An InprocServer32 registration yields an
// in-process context with its ThreadingModel; a LocalServer32 registration
// yields a local-server context.
func (r *Registry) Class(clsid ole.GUID) (Class, error) {
	path := `CLSID\` + comid.Braced(clsid)
	k, err := registry.OpenKey(r.root, path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return Class{}, fmt.Errorf("%w: %s", ErrClassNotFound, comid.Braced(clsid))
		}
		return Class{}, fmt.Errorf("open HKCR\\%s: %w", path, err)
	}
	defer func() { _ = k.Close() }()

	cls := Class{CLSID: clsid}
	if name, _, err := k.GetStringValue(""); err == nil {
		cls.Name = name
	}

	if inproc, err := registry.OpenKey(r.root, path+`\InprocServer32`, registry.QUERY_VALUE); err == nil {
		cls.Context |= record.ContextInprocServer
		if model, _, err := inproc.GetStringValue("ThreadingModel"); err == nil {
			cls.ThreadingModel = ParseThreadingModel(model)
		}
		_ = inproc.Close()
	}
	if local, err := registry.OpenKey(r.root, path+`\LocalServer32`, registry.QUERY_VALUE); err == nil {
		cls.Context |= record.ContextLocalServer
		_ = local.Close()
	}
	if cls.Context == 0 {
		cls.Context = record.ContextServer
	}
	return cls, nil
}
