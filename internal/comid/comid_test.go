package comid

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-ole/go-ole"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	want := ole.GUID{
		Data1: 0xD5F569D0,
		Data2: 0x593B,
		Data3: 0x101A,
		Data4: [8]byte{0xB5, 0x69, 0x08, 0x00, 0x2B, 0x2D, 0xBF, 0x7A},
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"braced", "{D5F569D0-593B-101A-B569-08002B2DBF7A}", false},
		{"plain", "D5F569D0-593B-101A-B569-08002B2DBF7A", false},
		{"lowercase", "d5f569d0-593b-101a-b569-08002b2dbf7a", false},
		{"whitespace", "  {D5F569D0-593B-101A-B569-08002B2DBF7A}\n", false},
		{"urn", "urn:uuid:d5f569d0-593b-101a-b569-08002b2dbf7a", false},
		{"short", "D5F569D0-593B-101A", true},
		{"garbage", "not-a-guid", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("nope") })
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "00000000-0000-0000-C000-000000000046", String(IIDUnknown))
	assert.Equal(t, "{00000003-0000-0000-C000-000000000046}", Braced(IIDMarshal))

	g := MustParse(Braced(IIDPSFactoryBuffer))
	assert.Equal(t, IIDPSFactoryBuffer, g)
	assert.NotEqual(t, IIDUnknown, IIDMarshal)
}

func TestFromUUID_MatchesOLE(t *testing.T) {
	u := uuid.MustParse("00000003-0000-0000-c000-000000000046")
	assert.Equal(t, *ole.NewGUID("{00000003-0000-0000-C000-000000000046}"), FromUUID(u))
}

func TestHResult(t *testing.T) {
	assert.Equal(t, "HRESULT 0x80040154", ClassNotReg.Error())
	assert.True(t, ENoInterface.Failed())
	assert.False(t, SOK.Failed())
	assert.False(t, HResult(1).Failed(), "S_FALSE is a success code")
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want HResult
	}{
		{"nil", nil, SOK},
		{"hresult", ClassNotReg, ClassNotReg},
		{"wrapped hresult", fmt.Errorf("create instance: %w", EAccessDenied), EAccessDenied},
		{"ole error", ole.NewError(uintptr(ENoInterface)), ENoInterface},
		{"wrapped ole error", fmt.Errorf("query: %w", ole.NewError(uintptr(ENotImpl))), ENotImpl},
		{"other", errors.New("boom"), EFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestIsNoInterface(t *testing.T) {
	assert.True(t, IsNoInterface(ENoInterface))
	assert.True(t, IsNoInterface(ole.NewError(uintptr(ENoInterface))))
	assert.False(t, IsNoInterface(ENotImpl))
	assert.False(t, IsNoInterface(nil))
}
