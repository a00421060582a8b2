// Package dataset materializes the three input tables from CSV files and
// hands them to the analysis core as typed records. Reading is the only I/O
// in the module; everything downstream is pure computation.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"salespulse/internal/catalog"
	"salespulse/internal/sales"
)

// File names expected inside the data directory.
const (
	TransactionsFile = "transactions.csv"
	NameRefFile      = "name_ref.csv"
	ComboRefFile     = "combo_ref.csv"
)

// LoadReport counts rows skipped during ingestion, by reason. Skipped rows
// are data-quality findings; a missing column is a configuration error and
// aborts the load instead.
type LoadReport struct {
	TransactionRows int `json:"transaction_rows"`
	BadTimestamp    int `json:"bad_timestamp"`
	BadNumber       int `json:"bad_number"`
	ShortRow        int `json:"short_row"`
}

// Dataset is one materialized snapshot of the three input tables.
type Dataset struct {
	Lines  []sales.TransactionLine
	Names  []catalog.NameEntry
	Combos []catalog.ComboRow
	Report LoadReport
}

// Load reads the three CSVs from dir. The name and combo references are
// optional files: analysis degrades to raw identifiers without them.
func Load(dir string) (*Dataset, error) {
	ds := &Dataset{}

	lines, report, err := LoadTransactions(filepath.Join(dir, TransactionsFile))
	if err != nil {
		return nil, err
	}
	ds.Lines = lines
	ds.Report = report

	ds.Names, err = LoadNameRef(filepath.Join(dir, NameRefFile))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		log.Warn().Str("file", NameRefFile).Msg("Name reference missing, using raw item names")
	}

	ds.Combos, err = LoadComboRef(filepath.Join(dir, ComboRefFile))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		log.Warn().Str("file", ComboRefFile).Msg("Combo reference missing, no combo explosion")
	}

	log.Info().
		Int("transactions", len(ds.Lines)).
		Int("name_entries", len(ds.Names)).
		Int("combo_rows", len(ds.Combos)).
		Msg("Dataset loaded")
	return ds, nil
}

// LoadTransactions reads the transaction table.
func LoadTransactions(path string) ([]sales.TransactionLine, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, err
	}
	defer f.Close()
	return ReadTransactions(f)
}

// ReadTransactions parses transaction lines from CSV. Header matching is
// case-insensitive and ignores surrounding whitespace. The required columns
// must all be present or the table is rejected outright.
func ReadTransactions(r io.Reader) ([]sales.TransactionLine, LoadReport, error) {
	var report LoadReport

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, report, fmt.Errorf("reading transactions header: %w", err)
	}
	cols, err := indexColumns(header, []string{
		"timestamp", "order_id", "item_name", "quantity", "final_total", "status",
	}, []string{
		"date", "unit_price", "subtotal", "discount", "tax", "outlet", "channel",
	})
	if err != nil {
		return nil, report, fmt.Errorf("transactions table: %w", err)
	}

	var lines []sales.TransactionLine
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.ShortRow++
			continue
		}
		line, ok := parseTransaction(rec, cols, &report)
		if !ok {
			continue
		}
		lines = append(lines, line)
	}

	report.TransactionRows = len(lines)
	if skipped := report.BadTimestamp + report.BadNumber + report.ShortRow; skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("Skipped malformed transaction rows")
	}
	return lines, report, nil
}

func parseTransaction(rec []string, cols map[string]int, report *LoadReport) (sales.TransactionLine, bool) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	if longest(cols) >= len(rec) {
		report.ShortRow++
		return sales.TransactionLine{}, false
	}

	ts, err := parseTimestamp(field("date"), field("timestamp"))
	if err != nil {
		report.BadTimestamp++
		return sales.TransactionLine{}, false
	}

	qty, err := strconv.Atoi(field("quantity"))
	if err != nil {
		report.BadNumber++
		return sales.TransactionLine{}, false
	}
	total, err := strconv.ParseFloat(field("final_total"), 64)
	if err != nil {
		report.BadNumber++
		return sales.TransactionLine{}, false
	}

	return sales.TransactionLine{
		OrderID:   field("order_id"),
		Timestamp: ts,
		RawItem:   field("item_name"),
		Quantity:  qty,
		UnitPrice: optFloat(field("unit_price")),
		Subtotal:  optFloat(field("subtotal")),
		Discount:  optFloat(field("discount")),
		Tax:       optFloat(field("tax")),
		NetTotal:  total,
		Status:    field("status"),
		Outlet:    field("outlet"),
		Channel:   NormalizeChannel(field("channel")),
	}, true
}

// optFloat parses an optional numeric field; blank or malformed means 0.
func optFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// LoadNameRef reads the raw-name to canonical-identity table.
func LoadNameRef(path string) ([]catalog.NameEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadNameRef(f)
}

// ReadNameRef parses the name reference CSV.
func ReadNameRef(r io.Reader) ([]catalog.NameEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading name reference header: %w", err)
	}
	cols, err := indexColumns(header, []string{"item", "canonical_name"},
		[]string{"parent_category", "sub_category"})
	if err != nil {
		return nil, fmt.Errorf("name reference table: %w", err)
	}

	var entries []catalog.NameEntry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil || longest(cols) >= len(rec) {
			continue
		}
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		entries = append(entries, catalog.NameEntry{
			RawItem:        get("item"),
			CanonicalName:  get("canonical_name"),
			ParentCategory: get("parent_category"),
			SubCategory:    get("sub_category"),
		})
	}
	return entries, nil
}

// LoadComboRef reads the combo composition table.
func LoadComboRef(path string) ([]catalog.ComboRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadComboRef(f)
}

// ReadComboRef parses the combo reference CSV. The per-unit quantity column
// is optional; absent or blank means the configured default applies.
func ReadComboRef(r io.Reader) ([]catalog.ComboRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading combo reference header: %w", err)
	}
	cols, err := indexColumns(header, []string{"combo_item_name", "component_item_name"},
		[]string{"quantity"})
	if err != nil {
		return nil, fmt.Errorf("combo reference table: %w", err)
	}

	var rows []catalog.ComboRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil || longest(cols) >= len(rec) {
			continue
		}
		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		qty := 0
		if q, err := strconv.Atoi(get("quantity")); err == nil {
			qty = q
		}
		rows = append(rows, catalog.ComboRow{
			ComboItem:     get("combo_item_name"),
			ComponentItem: get("component_item_name"),
			Quantity:      qty,
		})
	}
	return rows, nil
}

// NormalizeChannel folds the free-text channel column into the two channel
// values. Delivery platforms show up under their brand names in exports.
func NormalizeChannel(raw string) sales.Channel {
	v := strings.ToLower(strings.TrimSpace(raw))
	for _, marker := range []string{"deliver", "swiggy", "zomato", "online"} {
		if strings.Contains(v, marker) {
			return sales.ChannelDelivery
		}
	}
	return sales.ChannelInShop
}

// timestampLayouts are tried in order against "date time" or the lone
// timestamp column.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"02-01-2006 15:04:05",
	"02/01/2006 15:04",
	"2006-01-02",
}

func parseTimestamp(date, ts string) (time.Time, error) {
	candidate := ts
	if date != "" && ts != "" && !strings.Contains(ts, "-") && !strings.Contains(ts, "/") {
		// Separate date and clock-time columns.
		candidate = date + " " + ts
	} else if ts == "" {
		candidate = date
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", candidate)
}

// indexColumns maps required and optional column names to their positions.
// Matching folds case and whitespace. A missing required column rejects the
// whole table; a missing optional column just stays unmapped.
func indexColumns(header, required, optional []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make(map[string]int, len(required)+len(optional))
	var missing []string
	for _, name := range required {
		i, ok := positions[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[name] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	for _, name := range optional {
		if i, ok := positions[name]; ok {
			cols[name] = i
		}
	}
	return cols, nil
}

// longest returns the highest mapped column index, for short-row detection
// against required columns.
func longest(cols map[string]int) int {
	max := -1
	for _, i := range cols {
		if i > max {
			max = i
		}
	}
	return max
}
