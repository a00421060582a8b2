package aggregate

import (
	"sort"
	"time"

	"salespulse/internal/sales"
)

// DailyPoint is one calendar day of a dense series.
type DailyPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// DailyRevenueSeries folds view rows into a dense day-indexed revenue series
// spanning the first through the last observed calendar day. Days without
// transactions carry an explicit zero, so downstream time-series consumers
// never see calendar gaps.
func DailyRevenueSeries(rows []sales.Row) []DailyPoint {
	if len(rows) == 0 {
		return nil
	}

	byDay := make(map[time.Time]float64)
	var first, last time.Time
	for _, r := range rows {
		day := midnight(r.Timestamp)
		byDay[day] += r.Revenue
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}

	series := make([]DailyPoint, 0, int(last.Sub(first).Hours()/24)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		series = append(series, DailyPoint{Date: day, Value: byDay[day]})
	}
	return series
}

// DailyQuantityByItem builds a per-item map of day totals over the component
// view. Unlike DailyRevenueSeries the inner maps are sparse; the unit
// forecaster densifies each item over its own post-launch range.
func DailyQuantityByItem(rows []sales.Row) map[string]map[time.Time]int {
	byItem := make(map[string]map[time.Time]int)
	for _, r := range rows {
		day := midnight(r.Timestamp)
		m := byItem[r.Item]
		if m == nil {
			m = make(map[time.Time]int)
			byItem[r.Item] = m
		}
		m[day] += r.Quantity
	}
	return byItem
}

// Overview holds the headline KPIs of a dataset.
type Overview struct {
	TotalRevenue      float64   `json:"total_revenue"`
	DistinctOrders    int       `json:"distinct_orders"`
	AvgOrderValue     float64   `json:"avg_order_value"`
	TotalUnits        int       `json:"total_units"`
	FirstDay          time.Time `json:"first_day"`
	LastDay           time.Time `json:"last_day"`
	ObservedDays      int       `json:"observed_days"`
	DistinctItems     int       `json:"distinct_items"`
	DistinctOutlets   int       `json:"distinct_outlets"`
	RevenuePerDayMean float64   `json:"revenue_per_day_mean"`
}

// BuildOverview computes the headline KPIs from both views. AOV is revenue
// over distinct orders, not over rows.
func BuildOverview(asSold sales.AsSoldView, components sales.ComponentView) Overview {
	ov := Overview{TotalRevenue: asSold.TotalRevenue(), TotalUnits: components.TotalQuantity()}

	orders := make(map[string]bool)
	items := make(map[string]bool)
	outlets := make(map[string]bool)
	days := make(map[time.Time]bool)
	for _, r := range asSold.Rows {
		orders[r.OrderID] = true
		outlets[r.Outlet] = true
		day := midnight(r.Timestamp)
		days[day] = true
		if ov.FirstDay.IsZero() || day.Before(ov.FirstDay) {
			ov.FirstDay = day
		}
		if day.After(ov.LastDay) {
			ov.LastDay = day
		}
	}
	for _, r := range components.Rows {
		items[r.Item] = true
	}

	ov.DistinctOrders = len(orders)
	ov.DistinctItems = len(items)
	ov.DistinctOutlets = len(outlets)
	ov.ObservedDays = len(days)
	if ov.DistinctOrders > 0 {
		ov.AvgOrderValue = ov.TotalRevenue / float64(ov.DistinctOrders)
	}
	if ov.ObservedDays > 0 {
		ov.RevenuePerDayMean = ov.TotalRevenue / float64(ov.ObservedDays)
	}
	return ov
}

// ChannelStats summarizes billing per sales channel, including how much of
// the gross was given away as discount.
type ChannelStats struct {
	Channel       sales.Channel `json:"channel"`
	Orders        int           `json:"orders"`
	Revenue       float64       `json:"revenue"`
	GrossSubtotal float64       `json:"gross_subtotal"`
	Discount      float64       `json:"discount"`
	DiscountShare float64       `json:"discount_share"` // discount / gross subtotal
	AvgOrderValue float64       `json:"avg_order_value"`
}

// ByChannel computes per-channel billing stats over the as-sold view,
// ordered by revenue descending with the channel name breaking ties.
func ByChannel(asSold sales.AsSoldView) []ChannelStats {
	type acc struct {
		stats  ChannelStats
		orders map[string]bool
	}
	byChannel := make(map[sales.Channel]*acc)
	for _, r := range asSold.Rows {
		a := byChannel[r.Channel]
		if a == nil {
			a = &acc{stats: ChannelStats{Channel: r.Channel}, orders: make(map[string]bool)}
			byChannel[r.Channel] = a
		}
		a.orders[r.OrderID] = true
		a.stats.Revenue += r.Revenue
		a.stats.GrossSubtotal += r.Subtotal
		a.stats.Discount += r.Discount
	}

	out := make([]ChannelStats, 0, len(byChannel))
	for _, a := range byChannel {
		a.stats.Orders = len(a.orders)
		if a.stats.Orders > 0 {
			a.stats.AvgOrderValue = a.stats.Revenue / float64(a.stats.Orders)
		}
		if a.stats.GrossSubtotal > 0 {
			a.stats.DiscountShare = a.stats.Discount / a.stats.GrossSubtotal
		}
		out = append(out, a.stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Channel < out[j].Channel
	})
	return out
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
