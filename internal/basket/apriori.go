package basket

import (
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"salespulse/internal/sales"
)

// Options controls mining thresholds. Zero values fall back to the defaults
// used by the reporting pipeline.
type Options struct {
	MinSupport float64 // fraction of orders, default 0.01
	MinLift    float64 // default 1.0
	MinOrders  int     // below this the sample is degenerate, default 10
}

func (o Options) withDefaults() Options {
	if o.MinSupport <= 0 {
		o.MinSupport = 0.01
	}
	if o.MinLift <= 0 {
		o.MinLift = 1.0
	}
	if o.MinOrders <= 0 {
		o.MinOrders = 10
	}
	return o
}

// Itemset is a frequent itemset with its support over all orders.
type Itemset struct {
	Items   []string `json:"items"` // sorted
	Support float64  `json:"support"`
	Count   int      `json:"count"`
}

// Status reports whether mining ran or why it was skipped.
type Status string

const (
	StatusOK           Status = "ok"
	StatusTooFewOrders Status = "too_few_orders"
	StatusNoFrequent   Status = "no_frequent_itemsets"
)

// Result is the outcome of one mining pass.
type Result struct {
	Status   Status    `json:"status"`
	Orders   int       `json:"orders"`
	Itemsets []Itemset `json:"itemsets"`
	Rules    []Rule    `json:"rules"`
}

// Baskets folds as-sold rows into one distinct-item set per order. Quantity
// does not matter for co-occurrence; an order holds an item or it does not.
func Baskets(rows []sales.Row) map[string][]string {
	sets := make(map[string]map[string]bool)
	for _, r := range rows {
		set := sets[r.OrderID]
		if set == nil {
			set = make(map[string]bool)
			sets[r.OrderID] = set
		}
		set[r.Item] = true
	}

	baskets := make(map[string][]string, len(sets))
	for order, set := range sets {
		items := make([]string, 0, len(set))
		for item := range set {
			items = append(items, item)
		}
		sort.Strings(items)
		baskets[order] = items
	}
	return baskets
}

// Mine runs level-wise apriori over the order baskets and derives association
// rules from the frequent itemsets. With fewer than MinOrders orders the
// sample cannot support meaningful frequencies and the result is empty with
// an explanatory status.
func Mine(rows []sales.Row, opts Options) Result {
	opts = opts.withDefaults()
	baskets := Baskets(rows)

	res := Result{Status: StatusOK, Orders: len(baskets)}
	if len(baskets) < opts.MinOrders {
		log.Warn().Int("orders", len(baskets)).Int("min", opts.MinOrders).
			Msg("Too few orders for basket analysis")
		res.Status = StatusTooFewOrders
		return res
	}

	// Transaction list with a fast membership index per order.
	transactions := make([]map[string]bool, 0, len(baskets))
	for _, items := range baskets {
		set := make(map[string]bool, len(items))
		for _, it := range items {
			set[it] = true
		}
		transactions = append(transactions, set)
	}

	minCount := int(opts.MinSupport * float64(len(baskets)))
	if float64(minCount) < opts.MinSupport*float64(len(baskets)) {
		minCount++
	}
	if minCount < 1 {
		minCount = 1
	}

	// Level 1: singleton frequencies.
	singles := make(map[string]int)
	for _, tx := range transactions {
		for item := range tx {
			singles[item]++
		}
	}
	var frequent []Itemset
	level := make([][]string, 0, len(singles))
	for item, count := range singles {
		if count >= minCount {
			frequent = append(frequent, Itemset{Items: []string{item}, Count: count,
				Support: float64(count) / float64(len(baskets))})
			level = append(level, []string{item})
		}
	}
	sortItemsets(level)

	supportIndex := make(map[string]Itemset)
	for _, is := range frequent {
		supportIndex[key(is.Items)] = is
	}

	for len(level) > 1 {
		candidates := join(level)
		if len(candidates) == 0 {
			break
		}
		counts := countSupport(transactions, candidates)

		next := make([][]string, 0, len(candidates))
		for i, cand := range candidates {
			if counts[i] < minCount {
				continue
			}
			is := Itemset{Items: cand, Count: counts[i],
				Support: float64(counts[i]) / float64(len(baskets))}
			frequent = append(frequent, is)
			supportIndex[key(cand)] = is
			next = append(next, cand)
		}
		level = next
	}

	if len(frequent) == 0 {
		res.Status = StatusNoFrequent
		return res
	}

	sort.Slice(frequent, func(i, j int) bool {
		if frequent[i].Support != frequent[j].Support {
			return frequent[i].Support > frequent[j].Support
		}
		return key(frequent[i].Items) < key(frequent[j].Items)
	})
	res.Itemsets = frequent
	res.Rules = deriveRules(frequent, supportIndex, opts)
	return res
}

// join builds (k+1)-candidates from sorted k-itemsets sharing a (k-1) prefix,
// then prunes any candidate with an infrequent k-subset.
func join(level [][]string) [][]string {
	k := len(level[0])
	index := make(map[string]bool, len(level))
	for _, is := range level {
		index[key(is)] = true
	}

	var candidates [][]string
	for i := 0; i < len(level); i++ {
		for j := i + 1; j < len(level); j++ {
			a, b := level[i], level[j]
			if !samePrefix(a, b, k-1) {
				break // level is sorted, later sets share even less
			}
			cand := make([]string, k+1)
			copy(cand, a)
			cand[k] = b[k-1]
			if allSubsetsFrequent(cand, index) {
				candidates = append(candidates, cand)
			}
		}
	}
	sortItemsets(candidates)
	return candidates
}

// countSupport counts each candidate over the transactions, sharding
// candidates across workers. Counting dominates mining time on wide levels.
func countSupport(transactions []map[string]bool, candidates [][]string) []int {
	counts := make([]int, len(candidates))
	workers := runtime.GOMAXPROCS(0)
	if workers > len(candidates) {
		workers = len(candidates)
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
				if i >= len(candidates) {
					return nil
				}
				for _, tx := range transactions {
					if containsAll(tx, candidates[i]) {
						counts[i]++
					}
				}
			}
		})
	}
	g.Wait() //nolint:errcheck // workers never fail
	return counts
}

func containsAll(tx map[string]bool, items []string) bool {
	if len(tx) < len(items) {
		return false
	}
	for _, it := range items {
		if !tx[it] {
			return false
		}
	}
	return true
}

func samePrefix(a, b []string, n int) bool {
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allSubsetsFrequent(cand []string, index map[string]bool) bool {
	sub := make([]string, len(cand)-1)
	for skip := range cand {
		copy(sub, cand[:skip])
		copy(sub[skip:], cand[skip+1:])
		if !index[key(sub)] {
			return false
		}
	}
	return true
}

func sortItemsets(sets [][]string) {
	sort.Slice(sets, func(i, j int) bool { return key(sets[i]) < key(sets[j]) })
}

func key(items []string) string {
	return strings.Join(items, "\x1f")
}
