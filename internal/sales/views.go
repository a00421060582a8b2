package sales

import (
	"strings"

	"github.com/rs/zerolog/log"

	"salespulse/internal/catalog"
)

// comboMarker is the naming convention the POS uses for bundled items. A
// line whose raw name carries the marker but matches no combo definition is
// flagged as an unresolved combo and passed through as a standalone item.
const comboMarker = "combo"

// ViewReport counts data-quality findings recorded while building a view.
type ViewReport struct {
	Rows             int `json:"rows"`
	ResolutionMisses int `json:"resolution_misses"`
	UnresolvedCombos int `json:"unresolved_combos"`
	ExplodedLines    int `json:"exploded_lines"`
}

// BuildAsSoldView applies the canonical identity to every filtered line.
// Row count and line revenue are preserved exactly; combos stay intact.
func BuildAsSoldView(lines []TransactionLine, cat *catalog.Catalog) (AsSoldView, ViewReport) {
	report := ViewReport{}
	rows := make([]Row, 0, len(lines))

	for _, line := range lines {
		res := cat.Resolve(line.RawItem)
		if res.Missed {
			report.ResolutionMisses++
		}
		rows = append(rows, Row{
			OrderID:        line.OrderID,
			Timestamp:      line.Timestamp,
			Item:           res.CanonicalName,
			ParentCategory: res.ParentCategory,
			SubCategory:    res.SubCategory,
			Quantity:       line.Quantity,
			Revenue:        line.NetTotal,
			Discount:       line.Discount,
			Subtotal:       line.Subtotal,
			Outlet:         line.Outlet,
			Channel:        line.Channel,
			Missed:         res.Missed,
		})
	}

	report.Rows = len(rows)
	return AsSoldView{Rows: rows}, report
}

// BuildComponentView replaces every combo line by one row per component with
// quantity = line quantity x per-unit component quantity. Component rows
// carry no revenue; this view counts units, not money. Standalone lines pass
// through unchanged. Nested combo definitions cannot reach this point: the
// catalog rejects non-flat combo graphs at load time.
func BuildComponentView(lines []TransactionLine, cat *catalog.Catalog) (ComponentView, ViewReport) {
	report := ViewReport{}
	rows := make([]Row, 0, len(lines))

	for _, line := range lines {
		if cat.IsCombo(line.RawItem) {
			for _, comp := range cat.Components(line.RawItem) {
				res := cat.ResolveCanonical(comp.Item)
				if res.Missed {
					report.ResolutionMisses++
				}
				rows = append(rows, Row{
					OrderID:        line.OrderID,
					Timestamp:      line.Timestamp,
					Item:           res.CanonicalName,
					ParentCategory: res.ParentCategory,
					SubCategory:    res.SubCategory,
					Quantity:       line.Quantity * comp.Quantity,
					Outlet:         line.Outlet,
					Channel:        line.Channel,
					FromCombo:      true,
					Missed:         res.Missed,
				})
			}
			report.ExplodedLines++
			continue
		}

		if looksLikeCombo(line.RawItem) {
			report.UnresolvedCombos++
			log.Warn().Str("item", line.RawItem).Msg("Item looks like a combo but has no definition, treating as standalone")
		}

		res := cat.Resolve(line.RawItem)
		if res.Missed {
			report.ResolutionMisses++
		}
		rows = append(rows, Row{
			OrderID:        line.OrderID,
			Timestamp:      line.Timestamp,
			Item:           res.CanonicalName,
			ParentCategory: res.ParentCategory,
			SubCategory:    res.SubCategory,
			Quantity:       line.Quantity,
			Revenue:        line.NetTotal,
			Discount:       line.Discount,
			Subtotal:       line.Subtotal,
			Outlet:         line.Outlet,
			Channel:        line.Channel,
			Missed:         res.Missed,
		})
	}

	report.Rows = len(rows)
	return ComponentView{Rows: rows}, report
}

func looksLikeCombo(rawItem string) bool {
	return strings.Contains(strings.ToLower(rawItem), comboMarker)
}
