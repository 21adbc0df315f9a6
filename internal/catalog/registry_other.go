//go:build !windows

package catalog

import (
	"github.com/go-ole/go-ole"
	"github.com/rs/zerolog"
)

// Registry is unavailable off Windows; every call fails with ErrNoRegistry.
type Registry struct{}

// NewRegistry returns a registry source that always fails.
func NewRegistry(zerolog.Logger) *Registry {
	return &Registry{}
}

// InterfaceIDs implements Source.
func (r *Registry) InterfaceIDs() ([]ole.GUID, error) {
	return nil, ErrNoRegistry
}

// Class implements ClassLookup.
func (r *Registry) Class(ole.GUID) (Class, error) {
	return Class{}, ErrNoRegistry
}
