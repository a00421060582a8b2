package sales

import (
	"math"
	"testing"
	"time"

	"salespulse/internal/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	names := []catalog.NameEntry{
		{RawItem: "Chk Wonton (6pc)", CanonicalName: "Chicken Wonton", ParentCategory: "Wonton", SubCategory: "Chicken Wonton"},
		{RawItem: "Veg Momo Steam", CanonicalName: "Veg Momo", ParentCategory: "Momo", SubCategory: "Veg Momo"},
		{RawItem: "Masala Lemonade", CanonicalName: "Masala Lemonade", ParentCategory: "Beverage", SubCategory: "Lemonade"},
	}
	combos := []catalog.ComboRow{
		{ComboItem: "Momo Combo", ComponentItem: "Veg Momo"},
		{ComboItem: "Momo Combo", ComponentItem: "Masala Lemonade"},
	}
	c, err := catalog.New(names, combos, 1)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}
	return c
}

func line(order, item string, qty int, net float64) TransactionLine {
	return TransactionLine{
		OrderID:   order,
		Timestamp: time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC),
		RawItem:   item,
		Quantity:  qty,
		NetTotal:  net,
		Status:    StatusSuccess,
		Outlet:    "KV",
		Channel:   ChannelInShop,
	}
}

func TestAsSoldViewPreservesRowsAndRevenue(t *testing.T) {
	cat := testCatalog(t)
	lines := []TransactionLine{
		line("O1", "Chk Wonton (6pc)", 2, 240),
		line("O1", "Momo Combo", 1, 180),
		line("O2", "Nobody Knows This", 1, 50),
	}

	view, report := BuildAsSoldView(lines, cat)
	if len(view.Rows) != len(lines) {
		t.Fatalf("row count changed: %d -> %d", len(lines), len(view.Rows))
	}
	if got := view.TotalRevenue(); math.Abs(got-470) > 1e-9 {
		t.Errorf("TotalRevenue = %v, want 470", got)
	}
	if report.ResolutionMisses != 2 {
		// the unknown item and the combo id, which has no name entry
		t.Errorf("ResolutionMisses = %d, want 2", report.ResolutionMisses)
	}

	// Combos stay intact in this view.
	if view.Rows[1].Item != "Momo Combo" || view.Rows[1].FromCombo {
		t.Errorf("combo line must pass through unexploded: %+v", view.Rows[1])
	}
	if view.Rows[0].Item != "Chicken Wonton" {
		t.Errorf("canonical name not applied: %q", view.Rows[0].Item)
	}
}

func TestComponentViewExplodesCombos(t *testing.T) {
	cat := testCatalog(t)
	lines := []TransactionLine{
		line("O1", "Veg Momo Steam", 706, 0),
		line("O2", "Momo Combo", 200, 1800),
	}

	view, report := BuildComponentView(lines, cat)
	if report.ExplodedLines != 1 {
		t.Errorf("ExplodedLines = %d, want 1", report.ExplodedLines)
	}

	byItem := view.QuantityByItem()
	if byItem["Veg Momo"] != 906 {
		t.Errorf("Veg Momo units = %d, want 706 standalone + 200 from combos = 906", byItem["Veg Momo"])
	}
	if byItem["Masala Lemonade"] != 200 {
		t.Errorf("Masala Lemonade units = %d, want 200", byItem["Masala Lemonade"])
	}

	// Component rows carry units, never money.
	for _, r := range view.Rows {
		if r.FromCombo && r.Revenue != 0 {
			t.Errorf("component row carries revenue: %+v", r)
		}
	}
}

func TestComponentViewScalesComponentQuantity(t *testing.T) {
	combos := []catalog.ComboRow{
		{ComboItem: "Party Pack", ComponentItem: "Veg Momo", Quantity: 3},
	}
	names := []catalog.NameEntry{
		{RawItem: "Veg Momo Steam", CanonicalName: "Veg Momo", ParentCategory: "Momo", SubCategory: "Veg Momo"},
	}
	cat, err := catalog.New(names, combos, 1)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}

	view, _ := BuildComponentView([]TransactionLine{line("O1", "Party Pack", 2, 500)}, cat)
	if len(view.Rows) != 1 || view.Rows[0].Quantity != 6 {
		t.Fatalf("want 2 combos x 3 momos = 6 units, got %+v", view.Rows)
	}
}

func TestComponentViewUnresolvedComboPassesThrough(t *testing.T) {
	cat := testCatalog(t)

	view, report := BuildComponentView([]TransactionLine{line("O1", "Weekend Combo Special", 1, 300)}, cat)
	if report.UnresolvedCombos != 1 {
		t.Errorf("UnresolvedCombos = %d, want 1", report.UnresolvedCombos)
	}
	if len(view.Rows) != 1 || view.Rows[0].FromCombo {
		t.Fatalf("unresolved combo must pass through as standalone: %+v", view.Rows)
	}
	if view.Rows[0].Revenue != 300 {
		t.Errorf("pass-through line must keep its revenue, got %v", view.Rows[0].Revenue)
	}
}

func TestFilterSuccessful(t *testing.T) {
	cancelled := line("O3", "Veg Momo Steam", 1, 120)
	cancelled.Status = "Cancelled"
	zeroQty := line("O4", "Veg Momo Steam", 0, 0)
	negative := line("O5", "Veg Momo Steam", 1, -10)
	mixedCase := line("O6", "Veg Momo Steam", 1, 120)
	mixedCase.Status = " Success "

	kept, report := FilterSuccessful([]TransactionLine{
		line("O1", "Veg Momo Steam", 2, 240),
		cancelled,
		zeroQty,
		negative,
		mixedCase,
	})

	if len(kept) != 2 {
		t.Fatalf("kept %d lines, want 2", len(kept))
	}
	if report.DroppedStatus != 1 || report.DroppedQuantity != 1 || report.DroppedNegTotal != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if report.Rejected() != 3 || report.Kept != 2 {
		t.Errorf("report totals off: %+v", report)
	}
}

// Three small orders exercised end to end through both views.
func TestViewsThreeOrderScenario(t *testing.T) {
	names := []catalog.NameEntry{
		{RawItem: "A", CanonicalName: "A", ParentCategory: "Snacks", SubCategory: "A"},
		{RawItem: "B", CanonicalName: "B", ParentCategory: "Snacks", SubCategory: "B"},
		{RawItem: "C", CanonicalName: "C", ParentCategory: "Drinks", SubCategory: "C"},
	}
	cat, err := catalog.New(names, nil, 1)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}

	lines := []TransactionLine{
		line("O1", "A", 1, 30),
		line("O1", "B", 1, 40),
		line("O2", "A", 1, 30),
		line("O2", "C", 1, 20),
		line("O3", "A", 1, 30),
		line("O3", "B", 1, 40),
		line("O3", "C", 1, 20),
	}

	asSold, _ := BuildAsSoldView(lines, cat)
	if got := asSold.TotalRevenue(); math.Abs(got-210) > 1e-9 {
		t.Errorf("TotalRevenue = %v, want 210", got)
	}

	comp, _ := BuildComponentView(lines, cat)
	byItem := comp.QuantityByItem()
	if byItem["A"] != 3 || byItem["B"] != 2 || byItem["C"] != 2 {
		t.Errorf("unit totals = %v", byItem)
	}
}
