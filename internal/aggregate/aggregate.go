package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"salespulse/internal/sales"
)

// Dimension is a grouping attribute of a view row.
type Dimension string

const (
	DimItem           Dimension = "item"
	DimParentCategory Dimension = "parent_category"
	DimSubCategory    Dimension = "sub_category"
	DimOutlet         Dimension = "outlet"
	DimChannel        Dimension = "channel"
)

// Measure selects what is summed (or counted) per group.
type Measure string

const (
	SumRevenue  Measure = "sum_revenue"
	SumQuantity Measure = "sum_quantity"
	CountOrders Measure = "count_orders" // distinct order ids
)

// Bucket optionally folds the timestamp into the group key.
type Bucket string

const (
	BucketNone    Bucket = ""
	BucketDay     Bucket = "day"
	BucketWeek    Bucket = "week" // ISO week, Monday-anchored
	BucketMonth   Bucket = "month"
	BucketHour    Bucket = "hour"
	BucketWeekday Bucket = "weekday"
)

// Request describes one aggregation pass over a view.
type Request struct {
	GroupBy []Dimension
	Measure Measure
	Bucket  Bucket
	TopN    int // 0 means unlimited
}

// Row is one aggregated group. Keys holds the bucket label (when bucketing is
// requested) followed by the dimension values, in request order.
type Row struct {
	Keys  []string `json:"keys"`
	Value float64  `json:"value"`
}

// Aggregate groups view rows by the requested dimensions (and time bucket)
// and reduces each group with the requested measure. The result is sorted by
// value descending; ties break on the ascending lexicographic key tuple, so
// identical inputs always produce identical output.
func Aggregate(rows []sales.Row, req Request) ([]Row, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	sums := make(map[string]float64)
	orders := make(map[string]map[string]bool)
	keyTuples := make(map[string][]string)

	for _, r := range rows {
		keys := groupKeys(r, req)
		mk := strings.Join(keys, "\x1f")
		if _, seen := keyTuples[mk]; !seen {
			keyTuples[mk] = keys
		}

		switch req.Measure {
		case SumRevenue:
			sums[mk] += r.Revenue
		case SumQuantity:
			sums[mk] += float64(r.Quantity)
		case CountOrders:
			set := orders[mk]
			if set == nil {
				set = make(map[string]bool)
				orders[mk] = set
			}
			set[r.OrderID] = true
		}
	}

	out := make([]Row, 0, len(keyTuples))
	for mk, keys := range keyTuples {
		value := sums[mk]
		if req.Measure == CountOrders {
			value = float64(len(orders[mk]))
		}
		out = append(out, Row{Keys: keys, Value: value})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return lessKeys(out[i].Keys, out[j].Keys)
	})

	if req.TopN > 0 && len(out) > req.TopN {
		out = out[:req.TopN]
	}
	return out, nil
}

func validate(req Request) error {
	switch req.Measure {
	case SumRevenue, SumQuantity, CountOrders:
	default:
		return fmt.Errorf("unknown measure %q", req.Measure)
	}
	switch req.Bucket {
	case BucketNone, BucketDay, BucketWeek, BucketMonth, BucketHour, BucketWeekday:
	default:
		return fmt.Errorf("unknown bucket %q", req.Bucket)
	}
	if len(req.GroupBy) == 0 && req.Bucket == BucketNone {
		return fmt.Errorf("aggregation needs at least one dimension or a time bucket")
	}
	for _, d := range req.GroupBy {
		switch d {
		case DimItem, DimParentCategory, DimSubCategory, DimOutlet, DimChannel:
		default:
			return fmt.Errorf("unknown dimension %q", d)
		}
	}
	return nil
}

func groupKeys(r sales.Row, req Request) []string {
	keys := make([]string, 0, len(req.GroupBy)+1)
	if req.Bucket != BucketNone {
		keys = append(keys, bucketLabel(r, req.Bucket))
	}
	for _, d := range req.GroupBy {
		keys = append(keys, dimensionValue(r, d))
	}
	return keys
}

func dimensionValue(r sales.Row, d Dimension) string {
	switch d {
	case DimItem:
		return r.Item
	case DimParentCategory:
		return r.ParentCategory
	case DimSubCategory:
		return r.SubCategory
	case DimOutlet:
		return r.Outlet
	case DimChannel:
		return string(r.Channel)
	}
	return ""
}

func bucketLabel(r sales.Row, b Bucket) string {
	ts := r.Timestamp
	switch b {
	case BucketDay:
		return ts.Format("2006-01-02")
	case BucketWeek:
		year, week := ts.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case BucketMonth:
		return ts.Format("2006-01")
	case BucketHour:
		return fmt.Sprintf("%02d", ts.Hour())
	case BucketWeekday:
		// Zero-prefixed ordinal keeps weekday labels sortable Monday-first.
		wd := int(ts.Weekday()+6) % 7
		return fmt.Sprintf("%d-%s", wd, ts.Weekday().String())
	}
	return ""
}

func lessKeys(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
