package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/record"
	"github.com/coral-mesh/ifprobe/internal/safe"
)

// fileDTO is the on-disk YAML layout of a catalog.
type fileDTO struct {
	Interfaces []interfaceDTO `yaml:"interfaces"`
	Classes    []classDTO     `yaml:"classes"`
}

type interfaceDTO struct {
	IID  string `yaml:"iid"`
	Name string `yaml:"name,omitempty"`
}

type classDTO struct {
	CLSID          string `yaml:"clsid"`
	Name           string `yaml:"name,omitempty"`
	Context        string `yaml:"context,omitempty"`
	ThreadingModel string `yaml:"threading_model,omitempty"`
}

// LoadFile reads a YAML catalog.
func LoadFile(path string) (*Catalog, error) {
	data, err := safe.ReadFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a YAML catalog. Interface entries with an unparsable IID
// are skipped; a class with an invalid CLSID or context is an error.
func Parse(data []byte) (*Catalog, error) {
	var dto fileDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, err
	}

	interfaces := make([]Interface, 0, len(dto.Interfaces))
	for _, i := range dto.Interfaces {
		iid, err := comid.Parse(i.IID)
		if err != nil {
			continue
		}
		interfaces = append(interfaces, Interface{IID: iid, Name: i.Name})
	}

	classes := make([]Class, 0, len(dto.Classes))
	for n, c := range dto.Classes {
		clsid, err := comid.Parse(c.CLSID)
		if err != nil {
			return nil, fmt.Errorf("classes[%d]: %w", n, err)
		}
		clsctx := record.ContextServer
		if c.Context != "" {
			clsctx, err = record.ParseClassContext(c.Context)
			if err != nil {
				return nil, fmt.Errorf("classes[%d]: %w", n, err)
			}
		}
		classes = append(classes, Class{
			CLSID:          clsid,
			Name:           c.Name,
			Context:        clsctx,
			ThreadingModel: ParseThreadingModel(c.ThreadingModel),
		})
	}

	return New(interfaces, classes), nil
}

// Marshal encodes the catalog in the LoadFile format.
func (c *Catalog) Marshal() ([]byte, error) {
	var dto fileDTO
	for _, i := range c.interfaces {
		dto.Interfaces = append(dto.Interfaces, interfaceDTO{IID: comid.Braced(i.IID), Name: i.Name})
	}
	for _, cls := range c.classes {
		dto.Classes = append(dto.Classes, classDTO{
			CLSID:          comid.Braced(cls.CLSID),
			Name:           cls.Name,
			Context:        cls.Context.String(),
			ThreadingModel: string(cls.ThreadingModel),
		})
	}
	return yaml.Marshal(&dto)
}
