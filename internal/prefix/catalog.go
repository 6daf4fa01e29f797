package prefix

import (
	_ "embed"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Entry is one area code and the local area it serves.
type Entry struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	Area   string `yaml:"area" json:"area"`
}

// Catalog maps area codes to local area names.
type Catalog struct {
	entries []Entry
	byCode  map[string]string
}

type catalogFile struct {
	Prefixes []Entry `yaml:"prefixes"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := parse(defaultCatalogYAML)
	if err != nil {
		panic(eris.Wrap(err, "prefix: embedded catalog"))
	}
	return c
}

// Load reads a catalog from a YAML file. An empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "prefix: read catalog %s", path)
	}
	return parse(data)
}

func parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "prefix: parse catalog")
	}

	c := &Catalog{byCode: make(map[string]string, len(f.Prefixes))}
	for _, e := range f.Prefixes {
		code := Digits(e.Prefix)
		if code == "" {
			return nil, eris.Errorf("prefix: catalog entry %q has no digits", e.Prefix)
		}
		if _, dup := c.byCode[code]; dup {
			continue
		}
		c.byCode[code] = e.Area
		c.entries = append(c.entries, Entry{Prefix: code, Area: e.Area})
	}
	sort.SliceStable(c.entries, func(i, j int) bool {
		if len(c.entries[i].Prefix) != len(c.entries[j].Prefix) {
			return len(c.entries[i].Prefix) < len(c.entries[j].Prefix)
		}
		return c.entries[i].Prefix < c.entries[j].Prefix
	})
	return c, nil
}

// Lookup returns the area served by code.
func (c *Catalog) Lookup(code string) (string, bool) {
	if c == nil {
		return "", false
	}
	area, ok := c.byCode[code]
	return area, ok
}

// Entries returns a copy of the catalog ordered by code length, then code.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len reports the number of area codes in the catalog.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
