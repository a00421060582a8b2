package catalog

import (
	"testing"
)

func testNames() []NameEntry {
	return []NameEntry{
		{RawItem: "Chk Wonton (6pc)", CanonicalName: "Chicken Wonton", ParentCategory: "Wonton", SubCategory: "Chicken Wonton"},
		{RawItem: "Veg Momo Steam", CanonicalName: "Veg Momo", ParentCategory: "Momo", SubCategory: "Veg Momo"},
		{RawItem: "Thukpa Bowl", CanonicalName: "Chicken Thukpa", ParentCategory: "Noodles", SubCategory: "Thukpa"},
	}
}

func TestResolveKnownItem(t *testing.T) {
	c, err := New(testNames(), nil, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	r := c.Resolve("Chk Wonton (6pc)")
	if r.Missed {
		t.Fatal("expected resolution hit")
	}
	if r.CanonicalName != "Chicken Wonton" || r.ParentCategory != "Wonton" {
		t.Errorf("unexpected resolution: %+v", r)
	}
	if c.MissCount() != 0 {
		t.Errorf("MissCount = %d, want 0", c.MissCount())
	}
}

func TestResolveTrimsAndFoldsCase(t *testing.T) {
	c, _ := New(testNames(), nil, 1)

	// The source sheets carry trailing spaces and uneven casing.
	r := c.Resolve("  chk wonton (6pc) ")
	if r.Missed || r.CanonicalName != "Chicken Wonton" {
		t.Errorf("normalized lookup failed: %+v", r)
	}
}

func TestResolveMissFallsBack(t *testing.T) {
	c, _ := New(testNames(), nil, 1)

	r := c.Resolve("Mystery Special")
	if !r.Missed {
		t.Fatal("expected a resolution miss")
	}
	if r.CanonicalName != "Mystery Special" {
		t.Errorf("miss must fall back to the raw id, got %q", r.CanonicalName)
	}
	if r.ParentCategory != UncategorizedLabel || r.SubCategory != UncategorizedLabel {
		t.Errorf("miss categories = %q/%q, want %q", r.ParentCategory, r.SubCategory, UncategorizedLabel)
	}

	// Resolution is idempotent: same answer, miss counted per call.
	r2 := c.Resolve("Mystery Special")
	if r2 != r {
		t.Errorf("Resolve is not idempotent: %+v vs %+v", r, r2)
	}
	if c.MissCount() != 2 {
		t.Errorf("MissCount = %d, want 2", c.MissCount())
	}
	if items := c.MissedItems(); len(items) != 1 || items[0] != "Mystery Special" {
		t.Errorf("MissedItems = %v", items)
	}
}

func TestDuplicateNameRowsFirstWins(t *testing.T) {
	names := append(testNames(), NameEntry{
		RawItem: "Chk Wonton (6pc)", CanonicalName: "Wrong Name",
	})
	c, err := New(names, nil, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if c.DuplicateNameRows() != 1 {
		t.Errorf("DuplicateNameRows = %d, want 1", c.DuplicateNameRows())
	}
	if r := c.Resolve("Chk Wonton (6pc)"); r.CanonicalName != "Chicken Wonton" {
		t.Errorf("first row must win, got %q", r.CanonicalName)
	}
}

func TestComboComponentsDefaultQuantity(t *testing.T) {
	combos := []ComboRow{
		{ComboItem: "Wonton Combo", ComponentItem: "Chicken Wonton"},
		{ComboItem: "Wonton Combo", ComponentItem: "Veg Momo", Quantity: 2},
	}
	c, err := New(testNames(), combos, 1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if !c.IsCombo("wonton combo") {
		t.Fatal("expected combo key to resolve case-insensitively")
	}
	comps := c.Components("Wonton Combo")
	if len(comps) != 2 {
		t.Fatalf("Components = %v", comps)
	}
	if comps[0].Quantity != 1 {
		t.Errorf("missing quantity must default to 1, got %d", comps[0].Quantity)
	}
	if comps[1].Quantity != 2 {
		t.Errorf("explicit quantity must be kept, got %d", comps[1].Quantity)
	}
	if c.ComboCount() != 1 {
		t.Errorf("ComboCount = %d, want 1", c.ComboCount())
	}
}

func TestNestedComboRejected(t *testing.T) {
	combos := []ComboRow{
		{ComboItem: "Mega Combo", ComponentItem: "Wonton Combo"},
		{ComboItem: "Wonton Combo", ComponentItem: "Chicken Wonton"},
	}
	if _, err := New(testNames(), combos, 1); err == nil {
		t.Fatal("expected a configuration error for a nested combo graph")
	}
}

func TestSelfReferencingComboRejected(t *testing.T) {
	combos := []ComboRow{
		{ComboItem: "Wonton Combo", ComponentItem: "Wonton Combo"},
	}
	if _, err := New(testNames(), combos, 1); err == nil {
		t.Fatal("expected a configuration error for a self-referencing combo")
	}
}
