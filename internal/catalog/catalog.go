// Package catalog holds the fixed table of textbook editions that can be claimed.
package catalog

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one selectable edition and the shared link it grants.
type Entry struct {
	ID             string `yaml:"id" json:"id"`
	Name           string `yaml:"name" json:"name"`
	Linkage        string `yaml:"linkage" json:"-"`
	ExtractionCode string `yaml:"extraction_code" json:"-"`
}

// Catalog is a read-only lookup of entries keyed by ID.
type Catalog struct {
	entries map[string]Entry
	order   []string
}

// New builds a catalog, rejecting blank or duplicate IDs.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Entry, len(entries))}
	for _, e := range entries {
		id := strings.TrimSpace(e.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog entry %q has no id", e.Name)
		}
		if e.Linkage == "" {
			return nil, fmt.Errorf("catalog entry %q has no linkage", id)
		}
		if _, dup := c.entries[id]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", id)
		}
		e.ID = id
		c.entries[id] = e
		c.order = append(c.order, id)
	}
	return c, nil
}

// Lookup resolves an option ID. Surrounding whitespace is ignored.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	e, ok := c.entries[strings.TrimSpace(id)]
	return e, ok
}

// List returns entries in declaration order.
func (c *Catalog) List() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// IDs returns the sorted option IDs.
func (c *Catalog) IDs() []string {
	ids := append([]string(nil), c.order...)
	sort.Strings(ids)
	return ids
}

type fileFormat struct {
	Entries []Entry `yaml:"entries"`
}

// Load reads a YAML catalog file. An empty path yields the default editions.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return New(Defaults())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Entries) == 0 {
		return nil, fmt.Errorf("catalog %s has no entries", path)
	}
	return New(f.Entries)
}
