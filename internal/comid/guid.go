// Package comid provides COM identifier and status helpers shared by the
// in-process probe and the isolation protocol.
package comid

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/go-ole/go-ole"
	"github.com/google/uuid"
)

// Well-known interface identifiers probed on every class.
var (
	// IIDUnknown is the base interface every COM object implements. It doubles
	// as the fallback record when an isolated child crashes.
	IIDUnknown = MustParse("00000000-0000-0000-C000-000000000046")

	// IIDMarshal is the custom marshaling interface.
	IIDMarshal = MustParse("00000003-0000-0000-C000-000000000046")

	// IIDPSFactoryBuffer is the proxy/stub factory interface.
	IIDPSFactoryBuffer = MustParse("D5F569D0-593B-101A-B569-08002B2DBF7A")
)

// Parse parses a GUID in any of the textual forms accepted by uuid.Parse,
// including the braced registry form.
func Parse(s string) (ole.GUID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return ole.GUID{}, fmt.Errorf("invalid GUID %q: %w", s, err)
	}
	return FromUUID(u), nil
}

// MustParse is like Parse but panics on error. Use only for constants.
func MustParse(s string) ole.GUID {
	g, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return g
}

// FromUUID converts an RFC 4122 byte-ordered UUID into the COM GUID layout.
func FromUUID(u uuid.UUID) ole.GUID {
	var g ole.GUID
	g.Data1 = binary.BigEndian.Uint32(u[0:4])
	g.Data2 = binary.BigEndian.Uint16(u[4:6])
	g.Data3 = binary.BigEndian.Uint16(u[6:8])
	copy(g.Data4[:], u[8:16])
	return g
}

// String formats g as an uppercase hyphenated GUID without braces.
func String(g ole.GUID) string {
	return fmt.Sprintf("%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3],
		g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// Braced formats g in the registry form, e.g. {00000000-0000-0000-C000-000000000046}.
func Braced(g ole.GUID) string {
	return "{" + String(g) + "}"
}
