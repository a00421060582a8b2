package sales

import (
	"time"
)

// Channel distinguishes where an order was placed.
type Channel string

const (
	ChannelInShop   Channel = "in-shop"
	ChannelDelivery Channel = "delivery"
)

// StatusSuccess is the only transaction status eligible for analysis.
const StatusSuccess = "success"

// TransactionLine is one billed line of a POS transaction, immutable once
// ingested. NetTotal is the line revenue after discount and tax.
type TransactionLine struct {
	OrderID   string
	Timestamp time.Time
	RawItem   string
	Quantity  int
	UnitPrice float64
	Subtotal  float64
	Discount  float64
	Tax       float64
	NetTotal  float64
	Status    string
	Outlet    string
	Channel   Channel
}

// Row is one record of a derived view with the canonical identity applied.
// Component rows produced by combo explosion carry quantity only; their
// Revenue is zero because billing happened on the combo line.
type Row struct {
	OrderID        string
	Timestamp      time.Time
	Item           string // canonical name
	ParentCategory string
	SubCategory    string
	Quantity       int
	Revenue        float64
	Discount       float64
	Subtotal       float64
	Outlet         string
	Channel        Channel
	FromCombo      bool // set on exploded component rows
	Missed         bool // canonical identity fell back to the raw id
}

// AsSoldView holds transaction rows exactly as billed, combos intact.
type AsSoldView struct {
	Rows []Row
}

// ComponentView holds transaction rows with combo lines expanded into their
// constituent items, for unit and inventory counting.
type ComponentView struct {
	Rows []Row
}

// TotalRevenue sums line revenue over the view.
func (v AsSoldView) TotalRevenue() float64 {
	var total float64
	for _, r := range v.Rows {
		total += r.Revenue
	}
	return total
}

// TotalQuantity sums component-level units over the view.
func (v ComponentView) TotalQuantity() int {
	total := 0
	for _, r := range v.Rows {
		total += r.Quantity
	}
	return total
}

// QuantityByItem aggregates component-level units per canonical item.
func (v ComponentView) QuantityByItem() map[string]int {
	totals := make(map[string]int)
	for _, r := range v.Rows {
		totals[r.Item] += r.Quantity
	}
	return totals
}
