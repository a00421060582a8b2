package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// UncategorizedLabel is assigned to items absent from the name reference.
const UncategorizedLabel = "Uncategorized"

// NameEntry maps a raw POS item identifier to its canonical identity.
type NameEntry struct {
	RawItem        string
	CanonicalName  string
	ParentCategory string
	SubCategory    string
}

// ComboRow is one component row of the combo reference sheet. Rows sharing
// ComboItem constitute one combo definition. Quantity <= 0 means the sheet
// carried no explicit per-unit quantity and the configured default applies.
type ComboRow struct {
	ComboItem     string
	ComponentItem string
	Quantity      int
}

// Component is a resolved combo constituent with its per-unit quantity.
type Component struct {
	Item     string
	Quantity int
}

// Resolution is the canonical identity of a raw item id. Missed marks a
// lookup that fell back to the raw identifier.
type Resolution struct {
	CanonicalName  string
	ParentCategory string
	SubCategory    string
	Missed         bool
}

// Catalog resolves raw item identifiers against the name and combo reference
// tables. Construction validates the combo graph; resolution itself is pure
// apart from miss counting.
type Catalog struct {
	byRaw       map[string]NameEntry
	byCanonical map[string]NameEntry
	combos      map[string][]Component
	comboNames  []string

	misses     map[string]int
	duplicates int
}

// New builds a Catalog from the two reference tables. defaultQty is the
// per-unit component quantity assumed for combo rows without an explicit one.
// A combo id appearing as a component of any combo (itself included) makes
// the graph cyclic or multi-level and is rejected as a configuration error.
func New(names []NameEntry, comboRows []ComboRow, defaultQty int) (*Catalog, error) {
	if defaultQty <= 0 {
		defaultQty = 1
	}

	c := &Catalog{
		byRaw:       make(map[string]NameEntry),
		byCanonical: make(map[string]NameEntry),
		combos:      make(map[string][]Component),
		misses:      make(map[string]int),
	}

	for _, e := range names {
		key := normalize(e.RawItem)
		if key == "" {
			continue
		}
		if _, exists := c.byRaw[key]; exists {
			c.duplicates++
			continue // first row wins
		}
		c.byRaw[key] = e
		ck := normalize(e.CanonicalName)
		if _, exists := c.byCanonical[ck]; !exists {
			c.byCanonical[ck] = e
		}
	}

	for _, row := range comboRows {
		key := normalize(row.ComboItem)
		if key == "" || normalize(row.ComponentItem) == "" {
			continue
		}
		qty := row.Quantity
		if qty <= 0 {
			qty = defaultQty
		}
		if _, exists := c.combos[key]; !exists {
			c.comboNames = append(c.comboNames, key)
		}
		c.combos[key] = append(c.combos[key], Component{Item: row.ComponentItem, Quantity: qty})
	}
	sort.Strings(c.comboNames)

	// Combo graph validation: components must be leaf items. A component that
	// is itself a combo key means either a self-reference or multi-level
	// nesting; both are rejected here so view building never recurses.
	for _, comboKey := range c.comboNames {
		for _, comp := range c.combos[comboKey] {
			if _, isCombo := c.combos[normalize(comp.Item)]; isCombo {
				return nil, fmt.Errorf("combo reference is not flat: %q lists combo %q as a component", comboKey, comp.Item)
			}
		}
	}

	if c.duplicates > 0 {
		log.Warn().Int("count", c.duplicates).Msg("Duplicate name reference rows ignored (first row wins)")
	}

	return c, nil
}

// Resolve maps a raw item id to its canonical identity. Unknown ids fall
// back to the raw id with Uncategorized categories and are counted as a
// resolution miss; the line itself is never dropped.
func (c *Catalog) Resolve(rawItem string) Resolution {
	if e, ok := c.byRaw[normalize(rawItem)]; ok {
		return Resolution{
			CanonicalName:  e.CanonicalName,
			ParentCategory: orUncategorized(e.ParentCategory),
			SubCategory:    orUncategorized(e.SubCategory),
		}
	}
	c.misses[rawItem]++
	return Resolution{
		CanonicalName:  rawItem,
		ParentCategory: UncategorizedLabel,
		SubCategory:    UncategorizedLabel,
		Missed:         true,
	}
}

// ResolveCanonical looks up categories for an already-canonical name. Combo
// components are recorded by canonical name in the reference sheet, so their
// categories come from this second index.
func (c *Catalog) ResolveCanonical(canonicalName string) Resolution {
	if e, ok := c.byCanonical[normalize(canonicalName)]; ok {
		return Resolution{
			CanonicalName:  e.CanonicalName,
			ParentCategory: orUncategorized(e.ParentCategory),
			SubCategory:    orUncategorized(e.SubCategory),
		}
	}
	c.misses[canonicalName]++
	return Resolution{
		CanonicalName:  canonicalName,
		ParentCategory: UncategorizedLabel,
		SubCategory:    UncategorizedLabel,
		Missed:         true,
	}
}

// IsCombo reports whether the raw item id is a combo key.
func (c *Catalog) IsCombo(rawItem string) bool {
	_, ok := c.combos[normalize(rawItem)]
	return ok
}

// Components returns the component list of a combo key, or nil for
// non-combo items.
func (c *Catalog) Components(rawItem string) []Component {
	return c.combos[normalize(rawItem)]
}

// ComboCount returns the number of distinct combo definitions.
func (c *Catalog) ComboCount() int {
	return len(c.comboNames)
}

// MissCount returns the total number of resolution misses recorded so far.
func (c *Catalog) MissCount() int {
	total := 0
	for _, n := range c.misses {
		total += n
	}
	return total
}

// MissedItems returns the distinct unresolved identifiers in sorted order.
func (c *Catalog) MissedItems() []string {
	items := make([]string, 0, len(c.misses))
	for item := range c.misses {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// DuplicateNameRows returns how many name reference rows were ignored as
// duplicates of an earlier raw item id.
func (c *Catalog) DuplicateNameRows() int {
	return c.duplicates
}

// normalize folds case and surrounding whitespace. The source sheets carry
// trailing spaces on some names ("Prawn Wonton ").
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func orUncategorized(s string) string {
	if strings.TrimSpace(s) == "" {
		return UncategorizedLabel
	}
	return s
}
