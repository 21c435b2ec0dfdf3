package projection

import (
	"sync"
)

// Definition is a resolved coordinate system definition.
type Definition struct {
	Code         string `json:"code"` // "EPSG:3857"
	Name         string `json:"name,omitempty"`
	Proj4        string `json:"proj4"`
	IsGeographic bool   `json:"is_geographic,omitempty"`
}

// Built-in codes every map surface already knows; these bypass the
// external registry entirely.
var builtins = map[string]Definition{
	"EPSG:4326": {Code: "EPSG:4326", Name: "WGS 84", Proj4: "+proj=longlat +datum=WGS84 +no_defs", IsGeographic: true},
	"EPSG:3857": {Code: "EPSG:3857", Name: "WGS 84 / Pseudo-Mercator", Proj4: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +nadgrids=@null +wktext +no_defs"},
}

// Table is the process-wide projection table. Repeated registration of a
// code is a no-op for consumers; lookups are keyed "EPSG:<code>".
type Table struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

func NewTable() *Table {
	defs := make(map[string]Definition, len(builtins))
	for code, def := range builtins {
		defs[code] = def
	}
	return &Table{defs: defs}
}

func (t *Table) Register(def Definition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.defs[def.Code] = def
}

func (t *Table) IsRegistered(code string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.defs[code]
	return ok
}

func (t *Table) Get(code string) (Definition, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	def, ok := t.defs[code]
	return def, ok
}

// Definitions returns a snapshot of all registered definitions.
func (t *Table) Definitions() []Definition {
	t.mu.RLock()
	defer t.mu.RUnlock()
	defs := make([]Definition, 0, len(t.defs))
	for _, def := range t.defs {
		defs = append(defs, def)
	}
	return defs
}

// IsBuiltin reports whether the surface already knows the code and no
// registry lookup is needed.
func IsBuiltin(code string) bool {
	_, ok := builtins[code]
	return ok
}
