package devicedb

import (
	"fmt"
	"sort"
)

// Lookup resolves device names to parameter records. Implementations are
// read-only and safe for concurrent use.
type Lookup interface {
	Module(kind DatabaseKind, name string) (ModuleParams, error)
	Inverter(name string) (InverterParams, error)
}

// NotFoundError is returned when a device name has no record.
type NotFoundError struct {
	Device   string // "module" or "inverter"
	Database string
	Name     string
}

func (e *NotFoundError) Error() string {
	if e.Database != "" {
		return fmt.Sprintf("%s %q not found in %s library", e.Device, e.Name, e.Database)
	}
	return fmt.Sprintf("%s %q not found", e.Device, e.Name)
}

// Catalog is an in-memory device library. Records are indexed by their
// exact name and by NormalizeName of it.
type Catalog struct {
	modules   map[DatabaseKind]map[string]ModuleParams
	inverters map[string]InverterParams
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		modules:   make(map[DatabaseKind]map[string]ModuleParams),
		inverters: make(map[string]InverterParams),
	}
}

// AddModule registers a module record. It must not be called once the
// catalog is shared between goroutines.
func (c *Catalog) AddModule(m ModuleParams) {
	idx, ok := c.modules[m.Kind]
	if !ok {
		idx = make(map[string]ModuleParams)
		c.modules[m.Kind] = idx
	}
	idx[m.Name] = m
	if n := NormalizeName(m.Name); n != m.Name {
		if _, exists := idx[n]; !exists {
			idx[n] = m
		}
	}
}

// AddInverter registers an inverter record.
func (c *Catalog) AddInverter(inv InverterParams) {
	c.inverters[inv.Name] = inv
	if n := NormalizeName(inv.Name); n != inv.Name {
		if _, exists := c.inverters[n]; !exists {
			c.inverters[n] = inv
		}
	}
}

// Module implements Lookup.
func (c *Catalog) Module(kind DatabaseKind, name string) (ModuleParams, error) {
	idx := c.modules[kind]
	if m, ok := idx[name]; ok {
		return m, nil
	}
	if m, ok := idx[NormalizeName(name)]; ok {
		return m, nil
	}
	return ModuleParams{}, &NotFoundError{Device: "module", Database: kind.String(), Name: name}
}

// Inverter implements Lookup.
func (c *Catalog) Inverter(name string) (InverterParams, error) {
	if inv, ok := c.inverters[name]; ok {
		return inv, nil
	}
	if inv, ok := c.inverters[NormalizeName(name)]; ok {
		return inv, nil
	}
	return InverterParams{}, &NotFoundError{Device: "inverter", Database: "CEC", Name: name}
}

// Modules returns the distinct module records of a library sorted by name.
func (c *Catalog) Modules(kind DatabaseKind) []ModuleParams {
	seen := make(map[string]bool)
	var out []ModuleParams
	for _, m := range c.modules[kind] {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Inverters returns the distinct inverter records sorted by name.
func (c *Catalog) Inverters() []InverterParams {
	seen := make(map[string]bool)
	var out []InverterParams
	for _, inv := range c.inverters {
		if seen[inv.Name] {
			continue
		}
		seen[inv.Name] = true
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
