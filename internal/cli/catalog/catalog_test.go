package catalogcmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coral-mesh/ifprobe/internal/catalog"
	"github.com/coral-mesh/ifprobe/internal/cli/helpers"
	"github.com/coral-mesh/ifprobe/internal/comid"
	"github.com/coral-mesh/ifprobe/internal/record"
)

const catalogYAML = `
interfaces:
  - iid: "{00000003-0000-0000-C000-000000000046}"
    name: IMarshal
  - iid: 00000000-0000-0000-C000-000000000046
classes:
  - clsid: "{E436EBB3-524F-11CE-9F53-0020AF0BA770}"
    name: Filter Mapper
    context: inproc
    threading_model: both
  - clsid: 13709620-C279-11CE-A49E-444553540000
`

func loadCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(catalogYAML))
	require.NoError(t, err)
	return c
}

func TestInterfaceRows(t *testing.T) {
	rows, err := InterfaceRows(&helpers.Catalogs{File: loadCatalog(t)})
	require.NoError(t, err)

	assert.Equal(t, []InterfaceRow{
		{IID: comid.Braced(comid.IIDMarshal), Name: "IMarshal", Source: "file"},
		{IID: comid.Braced(comid.IIDUnknown), Source: "file"},
	}, rows)
}

func TestInterfaceRows_Empty(t *testing.T) {
	rows, err := InterfaceRows(&helpers.Catalogs{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
}

func TestClassRows(t *testing.T) {
	rows := ClassRows(loadCatalog(t))
	require.Len(t, rows, 2)

	assert.Equal(t, ClassRow{
		CLSID:     "{E436EBB3-524F-11CE-9F53-0020AF0BA770}",
		Name:      "Filter Mapper",
		Context:   record.ContextInprocServer.String(),
		Threading: "Both",
	}, rows[0])
	assert.Equal(t, record.ContextServer.String(), rows[1].Context)
	assert.Empty(t, rows[1].Threading)

	assert.Empty(t, ClassRows(nil))
}

func TestRender(t *testing.T) {
	rows := ClassRows(loadCatalog(t))

	var table bytes.Buffer
	require.NoError(t, render(&table, rows, len(rows), "classes", helpers.FormatTable))
	assert.Contains(t, table.String(), "2 classes")
	assert.Contains(t, table.String(), "THREADING")
	assert.Contains(t, table.String(), "Filter Mapper")

	var csv bytes.Buffer
	require.NoError(t, render(&csv, rows, len(rows), "classes", helpers.FormatCSV))
	assert.NotContains(t, csv.String(), "2 classes")
	assert.Contains(t, csv.String(), "CLSID,NAME,CONTEXT,THREADING")
}

func TestNewCatalogCmd(t *testing.T) {
	var level string
	cmd := NewCatalogCmd(&level)
	names := make([]string, 0, len(cmd.Commands()))
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"interfaces", "classes"}, names)
}
