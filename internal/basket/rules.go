package basket

import (
	"sort"
	"strings"
)

// Rule is an association rule antecedent => consequent with the standard
// co-occurrence metrics. Lift > 1 means the pairing happens more often than
// the two sides' popularity alone would explain.
type Rule struct {
	Antecedent []string `json:"antecedent"` // sorted
	Consequent []string `json:"consequent"` // sorted
	Support    float64  `json:"support"`    // support of the union
	Confidence float64  `json:"confidence"`
	Lift       float64  `json:"lift"`
}

// deriveRules enumerates every non-trivial split of each frequent itemset of
// size >= 2 and keeps the splits whose lift clears the threshold. Both
// directions of a pairing are emitted; their confidences differ even though
// lift is symmetric.
func deriveRules(frequent []Itemset, supportIndex map[string]Itemset, opts Options) []Rule {
	var rules []Rule
	for _, is := range frequent {
		if len(is.Items) < 2 {
			continue
		}
		for mask := 1; mask < (1<<len(is.Items))-1; mask++ {
			ante := make([]string, 0, len(is.Items)-1)
			cons := make([]string, 0, len(is.Items)-1)
			for i, item := range is.Items {
				if mask&(1<<i) != 0 {
					ante = append(ante, item)
				} else {
					cons = append(cons, item)
				}
			}

			anteSet, ok := supportIndex[key(ante)]
			if !ok {
				continue // cannot happen for a frequent superset, guard anyway
			}
			consSet, ok := supportIndex[key(cons)]
			if !ok {
				continue
			}

			confidence := is.Support / anteSet.Support
			lift := confidence / consSet.Support
			if lift < opts.MinLift {
				continue
			}
			rules = append(rules, Rule{
				Antecedent: ante,
				Consequent: cons,
				Support:    is.Support,
				Confidence: confidence,
				Lift:       lift,
			})
		}
	}

	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Lift != rules[j].Lift {
			return rules[i].Lift > rules[j].Lift
		}
		if rules[i].Support != rules[j].Support {
			return rules[i].Support > rules[j].Support
		}
		return rules[i].ruleKey() < rules[j].ruleKey()
	})
	return rules
}

func (r Rule) ruleKey() string {
	return key(r.Antecedent) + "=>" + key(r.Consequent)
}

// String renders a rule the way the report prints it.
func (r Rule) String() string {
	return strings.Join(r.Antecedent, " + ") + " => " + strings.Join(r.Consequent, " + ")
}
