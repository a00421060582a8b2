package sales

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// FilterReport counts lines dropped during eligibility filtering, by reason.
// Rejections are data-quality findings, not errors; the build never aborts
// on a single bad row.
type FilterReport struct {
	Input              int `json:"input"`
	Kept               int `json:"kept"`
	DroppedStatus      int `json:"dropped_status"`
	DroppedQuantity    int `json:"dropped_quantity"`
	DroppedNegTotal    int `json:"dropped_negative_total"`
}

// Rejected returns the total number of dropped lines.
func (r FilterReport) Rejected() int {
	return r.DroppedStatus + r.DroppedQuantity + r.DroppedNegTotal
}

// FilterSuccessful keeps only lines eligible for analysis: status "success",
// positive quantity, non-negative net total.
func FilterSuccessful(lines []TransactionLine) ([]TransactionLine, FilterReport) {
	report := FilterReport{Input: len(lines)}
	kept := make([]TransactionLine, 0, len(lines))

	for _, line := range lines {
		switch {
		case !strings.EqualFold(strings.TrimSpace(line.Status), StatusSuccess):
			report.DroppedStatus++
		case line.Quantity <= 0:
			report.DroppedQuantity++
		case line.NetTotal < 0:
			report.DroppedNegTotal++
		default:
			kept = append(kept, line)
		}
	}

	report.Kept = len(kept)
	if report.Rejected() > 0 {
		log.Warn().
			Int("status", report.DroppedStatus).
			Int("quantity", report.DroppedQuantity).
			Int("negative_total", report.DroppedNegTotal).
			Msg("Dropped ineligible transaction lines")
	}
	return kept, report
}
