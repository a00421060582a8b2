package forecast

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"salespulse/internal/aggregate"
	"salespulse/internal/sales"
)

// DefaultUnitHorizonDays is the length of the day-of-week unit forecast.
const DefaultUnitHorizonDays = 14

// DefaultMinUnitDays is the shortest post-launch observation window an item
// needs before its day-of-week profile is considered fitted.
const DefaultMinUnitDays = 14

// newItemWindowDays classifies items first observed within the trailing 90
// days as newly launched.
const newItemWindowDays = 90

// UnitStatus reports per-item forecast outcomes. A zero forecast and an
// unavailable forecast are different things.
type UnitStatus string

const (
	UnitOK               UnitStatus = "ok"
	UnitNotEnoughHistory UnitStatus = "not_enough_history"
)

// UnitOptions controls the unit forecaster. Zero values take defaults;
// Adjustment <= 0 means no adjustment (factor 1.0).
type UnitOptions struct {
	HorizonDays int
	MinDays     int
	Adjustment  float64 // multiplicative, applied to point estimates only
}

func (o UnitOptions) withDefaults() UnitOptions {
	if o.HorizonDays <= 0 {
		o.HorizonDays = DefaultUnitHorizonDays
	}
	if o.MinDays <= 0 {
		o.MinDays = DefaultMinUnitDays
	}
	if o.Adjustment <= 0 {
		o.Adjustment = 1.0
	}
	return o
}

// UnitPoint is one forecast day of an item's demand profile.
type UnitPoint struct {
	Date  time.Time `json:"date"`
	Units float64   `json:"units"`
}

// ItemForecast is the demand outlook of one canonical item.
type ItemForecast struct {
	Item         string      `json:"item"`
	Status       UnitStatus  `json:"status"`
	LaunchDate   time.Time   `json:"launch_date"`
	ObservedDays int         `json:"observed_days"`
	NewItem      bool        `json:"new_item"` // launched within the last 90 days of data
	Points       []UnitPoint `json:"points,omitempty"`
	WeeklyTotal  float64     `json:"weekly_total"` // sum of one 7-day cycle, adjusted
}

// ForecastUnits builds a day-of-week demand profile per canonical item over
// the component view and projects it across a horizon starting on the Monday
// after the last observed day. Items fan out across workers; each item's
// series is independent.
func ForecastUnits(view sales.ComponentView, opts UnitOptions) []ItemForecast {
	opts = opts.withDefaults()
	if len(view.Rows) == 0 {
		return nil
	}

	daily := aggregate.DailyQuantityByItem(view.Rows)
	var lastDay time.Time
	for _, days := range daily {
		for day := range days {
			if day.After(lastDay) {
				lastDay = day
			}
		}
	}

	items := make([]string, 0, len(daily))
	for item := range daily {
		items = append(items, item)
	}
	sort.Strings(items)

	forecasts := make([]ItemForecast, len(items))
	workers := runtime.GOMAXPROCS(0)
	if workers > len(items) {
		workers = len(items)
	}

	var g errgroup.Group
	var next int
	var mu sync.Mutex
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				mu.Lock()
				i := next
				next++
				mu.Unlock()
				if i >= len(items) {
					return nil
				}
				forecasts[i] = forecastItem(items[i], daily[items[i]], lastDay, opts)
			}
		})
	}
	g.Wait() //nolint:errcheck // per-item failures are statuses, not errors

	sort.Slice(forecasts, func(i, j int) bool {
		if forecasts[i].WeeklyTotal != forecasts[j].WeeklyTotal {
			return forecasts[i].WeeklyTotal > forecasts[j].WeeklyTotal
		}
		return forecasts[i].Item < forecasts[j].Item
	})
	return forecasts
}

func forecastItem(item string, days map[time.Time]int, lastDay time.Time, opts UnitOptions) ItemForecast {
	// Launch date: earliest day with positive units. Days before it carry no
	// signal about demand and never enter the training window.
	var launch time.Time
	for day, qty := range days {
		if qty <= 0 {
			continue
		}
		if launch.IsZero() || day.Before(launch) {
			launch = day
		}
	}

	fc := ItemForecast{Item: item, LaunchDate: launch}
	if launch.IsZero() {
		fc.Status = UnitNotEnoughHistory
		return fc
	}
	fc.NewItem = lastDay.Sub(launch) < newItemWindowDays*24*time.Hour

	// Dense post-launch window: a day after launch with no rows is a real
	// zero-demand observation.
	var sums [7]float64
	var counts [7]int
	observed := 0
	for day := launch; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		wd := mondayFirst(day.Weekday())
		sums[wd] += float64(days[day])
		counts[wd]++
		observed++
	}
	fc.ObservedDays = observed
	if observed < opts.MinDays {
		fc.Status = UnitNotEnoughHistory
		return fc
	}

	var profile [7]float64
	for wd := 0; wd < 7; wd++ {
		if counts[wd] > 0 {
			profile[wd] = sums[wd] / float64(counts[wd])
		}
	}

	start := nextMonday(lastDay)
	fc.Status = UnitOK
	fc.Points = make([]UnitPoint, opts.HorizonDays)
	for h := 0; h < opts.HorizonDays; h++ {
		day := start.AddDate(0, 0, h)
		units := profile[mondayFirst(day.Weekday())] * opts.Adjustment
		fc.Points[h] = UnitPoint{Date: day, Units: units}
		if h < 7 {
			fc.WeeklyTotal += units
		}
	}
	return fc
}

// nextMonday returns the first Monday strictly after the given day, so the
// forecast always covers whole retail weeks.
func nextMonday(day time.Time) time.Time {
	d := day.AddDate(0, 0, 1)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// mondayFirst maps time.Weekday (Sunday = 0) onto Monday-first indices.
func mondayFirst(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}
