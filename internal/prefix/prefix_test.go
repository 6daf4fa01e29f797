package prefix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		ani  string
		want string
	}{
		{"5491123456789", "11"},
		{"+54 9 11 2345-6789", "11"},
		{"54261123456", "2611"},
		{"549261123456", "2611"},
		{"1123456789", "11"},
		{"3511234567", "3511"},
		{"223", "223"},
		{"54", "54"},
		{"5491", "91"},
		{"541", "541"},
		{"9", "9"},
		{"", Unknown},
		{"abc", Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Extract(tt.ani), tt.ani)
	}
}

func TestExtract_MetroBeforeProbe(t *testing.T) {
	// Without the "11" special case the 4-digit probe would yield "1145".
	assert.Equal(t, "11", Extract("1145678901"))
	assert.Equal(t, "11", Extract("541145678901"))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "541112345678", Digits("+54 (11) 1234-5678"))
	assert.Equal(t, "", Digits("n/a"))
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Equal(t, 28, c.Len())

	area, ok := c.Lookup("11")
	require.True(t, ok)
	assert.Equal(t, "Buenos Aires / AMBA", area)

	area, ok = c.Lookup("2966")
	require.True(t, ok)
	assert.Equal(t, "Río Grande", area)

	_, ok = c.Lookup("999")
	assert.False(t, ok)

	entries := c.Entries()
	assert.Equal(t, "11", entries[0].Prefix)
	assert.Equal(t, "2966", entries[len(entries)-1].Prefix)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := "prefixes:\n  - prefix: \"0341\"\n    area: Legacy\n  - prefix: \"341\"\n    area: Rosario\n  - prefix: \"341\"\n    area: Ignored\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	area, ok := c.Lookup("341")
	require.True(t, ok)
	assert.Equal(t, "Rosario", area)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prefixes:\n  - prefix: \"x\"\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Len(), c.Len())
}

func TestNilCatalog(t *testing.T) {
	var c *Catalog
	_, ok := c.Lookup("11")
	assert.False(t, ok)
	assert.Nil(t, c.Entries())
}
