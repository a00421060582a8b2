package forecast

import (
	"math"
	"testing"
	"time"

	"salespulse/internal/sales"
)

func unitRow(item string, day time.Time, qty int) sales.Row {
	return sales.Row{
		OrderID:   "O-" + day.Format("20060102") + "-" + item,
		Timestamp: day.Add(13 * time.Hour),
		Item:      item,
		Quantity:  qty,
	}
}

// fourWeeks generates 28 consecutive days of sales for one item where every
// Monday sells high and every other day sells low.
func fourWeeks(item string, start time.Time, monday, other int) []sales.Row {
	var rows []sales.Row
	for d := 0; d < 28; d++ {
		day := start.AddDate(0, 0, d)
		qty := other
		if day.Weekday() == time.Monday {
			qty = monday
		}
		rows = append(rows, unitRow(item, day, qty))
	}
	return rows
}

func TestForecastUnitsDayOfWeekProfile(t *testing.T) {
	start := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC) // a Monday
	view := sales.ComponentView{Rows: fourWeeks("Veg Momo", start, 40, 10)}

	fcs := ForecastUnits(view, UnitOptions{})
	if len(fcs) != 1 {
		t.Fatalf("got %d forecasts, want 1", len(fcs))
	}
	fc := fcs[0]
	if fc.Status != UnitOK {
		t.Fatalf("status = %q", fc.Status)
	}
	if len(fc.Points) != DefaultUnitHorizonDays {
		t.Fatalf("got %d points, want %d", len(fc.Points), DefaultUnitHorizonDays)
	}

	// Last observed day is Sunday 2025-06-01; the horizon starts the next
	// Monday and covers two whole weeks.
	if fc.Points[0].Date.Weekday() != time.Monday {
		t.Errorf("horizon must start on Monday, got %v", fc.Points[0].Date.Weekday())
	}
	if want := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC); !fc.Points[0].Date.Equal(want) {
		t.Errorf("horizon start = %v, want %v", fc.Points[0].Date, want)
	}

	for _, p := range fc.Points {
		want := 10.0
		if p.Date.Weekday() == time.Monday {
			want = 40.0
		}
		if math.Abs(p.Units-want) > 1e-9 {
			t.Errorf("%v (%v): units = %v, want %v", p.Date, p.Date.Weekday(), p.Units, want)
		}
	}
	if want := 40.0 + 6*10.0; math.Abs(fc.WeeklyTotal-want) > 1e-9 {
		t.Errorf("WeeklyTotal = %v, want %v", fc.WeeklyTotal, want)
	}
}

func TestForecastUnitsLaunchDateExclusion(t *testing.T) {
	start := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	rows := fourWeeks("Old Item", start, 20, 20)
	// The new item launches two weeks in and sells a steady 6 a day.
	launch := start.AddDate(0, 0, 14)
	for d := 0; d < 14; d++ {
		rows = append(rows, unitRow("New Item", launch.AddDate(0, 0, d), 6))
	}

	fcs := ForecastUnits(sales.ComponentView{Rows: rows}, UnitOptions{})
	var newItem ItemForecast
	for _, fc := range fcs {
		if fc.Item == "New Item" {
			newItem = fc
		}
	}
	if newItem.Status != UnitOK {
		t.Fatalf("new item status = %q (observed %d days)", newItem.Status, newItem.ObservedDays)
	}
	if !newItem.LaunchDate.Equal(launch) {
		t.Errorf("launch date = %v, want %v", newItem.LaunchDate, launch)
	}
	if newItem.ObservedDays != 14 {
		t.Errorf("observed days = %d, want 14 (pre-launch days excluded)", newItem.ObservedDays)
	}
	// Pre-launch zeros excluded, every day averages to 6.
	for _, p := range newItem.Points {
		if math.Abs(p.Units-6) > 1e-9 {
			t.Errorf("%v: units = %v, want 6", p.Date, p.Units)
		}
	}
	if !newItem.NewItem {
		t.Error("item launched 14 days before the data end must be flagged new")
	}
}

func TestForecastUnitsNotEnoughHistory(t *testing.T) {
	start := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	var rows []sales.Row
	for d := 0; d < 5; d++ {
		rows = append(rows, unitRow("Sparse", start.AddDate(0, 0, d), 3))
	}

	fcs := ForecastUnits(sales.ComponentView{Rows: rows}, UnitOptions{})
	if len(fcs) != 1 {
		t.Fatalf("got %d forecasts", len(fcs))
	}
	if fcs[0].Status != UnitNotEnoughHistory {
		t.Errorf("status = %q, want not_enough_history", fcs[0].Status)
	}
	if len(fcs[0].Points) != 0 {
		t.Errorf("a no-forecast item must carry no points: %+v", fcs[0].Points)
	}
}

func TestForecastUnitsAdjustmentFactor(t *testing.T) {
	start := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	view := sales.ComponentView{Rows: fourWeeks("Veg Momo", start, 10, 10)}

	base := ForecastUnits(view, UnitOptions{})
	boosted := ForecastUnits(view, UnitOptions{Adjustment: 1.15})

	for i := range base[0].Points {
		want := base[0].Points[i].Units * 1.15
		if math.Abs(boosted[0].Points[i].Units-want) > 1e-9 {
			t.Errorf("point %d: adjusted units = %v, want %v", i, boosted[0].Points[i].Units, want)
		}
	}
	// History is untouched by adjustment: observed days identical.
	if base[0].ObservedDays != boosted[0].ObservedDays {
		t.Error("adjustment must not touch the training window")
	}
}

func TestForecastUnitsOrderedByWeeklyTotal(t *testing.T) {
	start := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	rows := append(fourWeeks("Low", start, 2, 2), fourWeeks("High", start, 50, 50)...)

	fcs := ForecastUnits(sales.ComponentView{Rows: rows}, UnitOptions{})
	if len(fcs) != 2 || fcs[0].Item != "High" || fcs[1].Item != "Low" {
		t.Errorf("forecasts must sort by weekly total desc: %v, %v", fcs[0].Item, fcs[1].Item)
	}
}
