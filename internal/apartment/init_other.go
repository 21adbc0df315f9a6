//go:build !windows

package apartment

type noopInitializer struct{}

// NewPlatformInitializer returns an initializer that does nothing; there are
// no apartments to enter without COM.
func NewPlatformInitializer() Initializer {
	return noopInitializer{}
}

func (noopInitializer) Enter(Kind) error { return nil }

func (noopInitializer) Leave() {}
