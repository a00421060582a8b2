package mcp

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/rs/zerolog/log"
)

// Argument structs double as the source of the advertised input schemas.

type loadDatasetArgs struct {
	Path string `json:"path" jsonschema:"directory holding transactions.csv plus the optional name_ref.csv and combo_ref.csv"`
}

type rankingArgs struct {
	View    string   `json:"view,omitempty" jsonschema:"'as_sold' (default, money) or 'component' (units)"`
	GroupBy []string `json:"group_by,omitempty" jsonschema:"dimensions: item, parent_category, sub_category, outlet, channel"`
	Measure string   `json:"measure" jsonschema:"sum_revenue, sum_quantity or count_orders"`
	Bucket  string   `json:"bucket,omitempty" jsonschema:"time bucket: day, week, month, hour or weekday"`
	TopN    int      `json:"top_n,omitempty" jsonschema:"truncate to the top N groups"`
}

type basketArgs struct {
	MinSupport float64 `json:"min_support,omitempty" jsonschema:"minimum itemset support as a fraction of orders (default 0.01)"`
	MinLift    float64 `json:"min_lift,omitempty" jsonschema:"minimum rule lift (default 1.0)"`
}

type revenueForecastArgs struct {
	HorizonDays int     `json:"horizon_days,omitempty" jsonschema:"forecast length in days (default 30)"`
	Confidence  float64 `json:"confidence,omitempty" jsonschema:"two-sided interval confidence in (0,1), default 0.95"`
}

type unitForecastArgs struct {
	Adjustment float64  `json:"adjustment,omitempty" jsonschema:"multiplicative factor on point estimates, e.g. 1.15 for a 15% promo uplift"`
	Items      []string `json:"items,omitempty" jsonschema:"restrict to these canonical item names"`
}

type emptyArgs struct{}

func (s *Server) listTools() interface{} {
	type toolDef struct {
		name, description string
		schema            func() (*jsonschema.Schema, error)
	}
	defs := []toolDef{
		{
			"load_dataset",
			"Load a POS dataset (transactions + reference sheets) from a directory and run the full analysis batch. Must be called before any other tool.",
			func() (*jsonschema.Schema, error) { return jsonschema.For[loadDatasetArgs](nil) },
		},
		{
			"get_overview",
			"Headline KPIs of the loaded dataset: total revenue, distinct orders, average order value, units sold, date range, plus per-channel revenue and discount stats.",
			func() (*jsonschema.Schema, error) { return jsonschema.For[emptyArgs](nil) },
		},
		{
			"get_ranking",
			"Rank groups of the loaded dataset by a measure, optionally bucketed by time. Results are sorted descending with deterministic tie-breaks.",
			func() (*jsonschema.Schema, error) { return jsonschema.For[rankingArgs](nil) },
		},
		{
			"get_basket_rules",
			"Frequent itemsets and association rules over order baskets (combo purchases count as their component items).",
			func() (*jsonschema.Schema, error) { return jsonschema.For[basketArgs](nil) },
		},
		{
			"forecast_revenue",
			"Daily revenue forecast with confidence intervals from a weekly-seasonal model, including an informational stationarity verdict.",
			func() (*jsonschema.Schema, error) { return jsonschema.For[revenueForecastArgs](nil) },
		},
		{
			"forecast_units",
			"Per-item day-of-week unit demand forecast for the next two whole weeks, launch-date aware.",
			func() (*jsonschema.Schema, error) { return jsonschema.For[unitForecastArgs](nil) },
		},
		{
			"get_data_quality",
			"Data-quality counters of the last load: skipped rows, filtered lines, unresolved item names, unresolved combos.",
			func() (*jsonschema.Schema, error) { return jsonschema.For[emptyArgs](nil) },
		},
	}

	tools := make([]interface{}, 0, len(defs))
	for _, d := range defs {
		schema, err := d.schema()
		if err != nil {
			log.Error().Err(err).Str("tool", d.name).Msg("Failed to derive input schema")
			continue
		}
		raw, err := json.Marshal(schema)
		if err != nil {
			log.Error().Err(err).Str("tool", d.name).Msg("Failed to marshal input schema")
			continue
		}
		tools = append(tools, map[string]interface{}{
			"name":        d.name,
			"description": d.description,
			"inputSchema": json.RawMessage(raw),
		})
	}
	return map[string]interface{}{"tools": tools}
}
