// Package engine generates a synthetic POS dataset with weekly seasonality,
// two outlets, both sales channels and a configurable combo share, for demos
// and local experiments against realistic data shapes.
package engine

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

type GeneratorConfig struct {
	Days         int
	OrdersPerDay int
	ComboShare   float64
	Seed         int64
	End          time.Time
}

type menuItem struct {
	raw       string
	canonical string
	parent    string
	sub       string
	price     float64
	weight    int // relative popularity
}

var menu = []menuItem{
	{"Veg Momo Steam", "Veg Momo", "Momo", "Veg Momo", 90, 10},
	{"Chk Momo Steam", "Chicken Momo", "Momo", "Chicken Momo", 110, 9},
	{"Chk Wonton (6pc)", "Chicken Wonton", "Wonton", "Chicken Wonton", 120, 8},
	{"Prawn Wonton ", "Prawn Wonton", "Wonton", "Prawn Wonton", 160, 4},
	{"Thukpa Bowl", "Chicken Thukpa", "Noodles", "Thukpa", 140, 5},
	{"Veg Chowmein", "Veg Chowmein", "Noodles", "Chowmein", 100, 6},
	{"Masala Lemonade", "Masala Lemonade", "Beverage", "Lemonade", 60, 7},
	{"Iced Tea", "Iced Tea", "Beverage", "Tea", 70, 5},
}

type comboDef struct {
	name       string
	components []string // canonical names, qty 1 each
	price      float64
}

var combos = []comboDef{
	{"Momo Combo", []string{"Veg Momo", "Masala Lemonade"}, 130},
	{"Wonton Combo", []string{"Chicken Wonton", "Iced Tea"}, 170},
}

var outlets = []string{"KV", "Patia"}

// weekdayFactor shapes order volume over the week, Monday first. Weekends
// run hot, Tuesdays slump.
var weekdayFactor = []float64{1.0, 0.8, 0.9, 0.95, 1.1, 1.4, 1.5}

// Dataset holds the generated rows ready to be written out.
type Dataset struct {
	transactions [][]string
	names        [][]string
	comboRows    [][]string
}

// Generate builds the synthetic dataset. The same seed always yields the
// same files.
func Generate(cfg GeneratorConfig) *Dataset {
	if cfg.End.IsZero() {
		cfg.End = time.Now()
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	end := time.Date(cfg.End.Year(), cfg.End.Month(), cfg.End.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, 0, -(cfg.Days - 1))

	ds := &Dataset{}
	ds.transactions = append(ds.transactions, []string{
		"date", "timestamp", "order_id", "item_name", "quantity", "unit_price",
		"subtotal", "discount", "tax", "final_total", "status", "outlet", "channel",
	})

	totalWeight := 0
	for _, it := range menu {
		totalWeight += it.weight
	}

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		factor := weekdayFactor[(int(day.Weekday())+6)%7]
		orders := int(float64(cfg.OrdersPerDay)*factor + rng.Float64()*5)

		for o := 0; o < orders; o++ {
			orderID := fmt.Sprintf("ORD-%s-%03d", day.Format("20060102"), o+1)
			ts := day.Add(time.Duration(11+rng.Intn(11)) * time.Hour).
				Add(time.Duration(rng.Intn(60)) * time.Minute)
			outlet := outlets[rng.Intn(len(outlets))]
			channel := "In-Shop"
			if rng.Float64() < 0.35 {
				channel = "Swiggy"
			}
			status := "Success"
			if rng.Float64() < 0.03 {
				status = "Cancelled"
			}

			lines := 1 + rng.Intn(3)
			for l := 0; l < lines; l++ {
				if rng.Float64() < cfg.ComboShare {
					c := combos[rng.Intn(len(combos))]
					ds.appendLine(day, ts, orderID, c.name, 1, c.price, rng, status, outlet, channel)
					continue
				}
				it := pickItem(rng, totalWeight)
				qty := 1 + rng.Intn(3)
				ds.appendLine(day, ts, orderID, it.raw, qty, it.price, rng, status, outlet, channel)
			}
		}
	}

	ds.names = append(ds.names, []string{"item", "canonical_name", "parent_category", "sub_category"})
	for _, it := range menu {
		ds.names = append(ds.names, []string{it.raw, it.canonical, it.parent, it.sub})
	}

	ds.comboRows = append(ds.comboRows, []string{"combo_item_name", "component_item_name", "quantity"})
	for _, c := range combos {
		for _, comp := range c.components {
			ds.comboRows = append(ds.comboRows, []string{c.name, comp, "1"})
		}
	}
	return ds
}

func (ds *Dataset) appendLine(day, ts time.Time, orderID, item string, qty int, price float64,
	rng *rand.Rand, status, outlet, channel string) {
	subtotal := price * float64(qty)
	discount := 0.0
	if channel == "Swiggy" && rng.Float64() < 0.4 {
		discount = subtotal * 0.1
	}
	tax := (subtotal - discount) * 0.05
	total := subtotal - discount + tax

	ds.transactions = append(ds.transactions, []string{
		day.Format("2006-01-02"),
		ts.Format("15:04:05"),
		orderID,
		item,
		fmt.Sprintf("%d", qty),
		fmt.Sprintf("%.2f", price),
		fmt.Sprintf("%.2f", subtotal),
		fmt.Sprintf("%.2f", discount),
		fmt.Sprintf("%.2f", tax),
		fmt.Sprintf("%.2f", total),
		status,
		outlet,
		channel,
	})
}

func pickItem(rng *rand.Rand, totalWeight int) menuItem {
	n := rng.Intn(totalWeight)
	for _, it := range menu {
		if n < it.weight {
			return it
		}
		n -= it.weight
	}
	return menu[len(menu)-1]
}

// Save writes the three CSVs into dir, creating it if needed.
func (ds *Dataset) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	files := map[string][][]string{
		"transactions.csv": ds.transactions,
		"name_ref.csv":     ds.names,
		"combo_ref.csv":    ds.comboRows,
	}
	for name, rows := range files {
		if err := writeCSV(filepath.Join(dir, name), rows); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
