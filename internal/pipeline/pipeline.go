// Package pipeline runs the whole analysis batch: reference resolution, view
// building, rankings, basket mining and both forecasters, folded into one
// immutable report. Every invocation recomputes from the dataset snapshot;
// nothing is cached between runs.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"salespulse/internal/aggregate"
	"salespulse/internal/basket"
	"salespulse/internal/catalog"
	"salespulse/internal/config"
	"salespulse/internal/dataset"
	"salespulse/internal/forecast"
	"salespulse/internal/sales"
)

// Rankings are the standard report tables, all sorted descending with
// deterministic tie-breaks.
type Rankings struct {
	CategoryRevenue []aggregate.Row `json:"category_revenue"`
	ItemRevenue     []aggregate.Row `json:"item_revenue"`
	ItemQuantity    []aggregate.Row `json:"item_quantity"`
	OutletRevenue   []aggregate.Row `json:"outlet_revenue"`
	HourRevenue     []aggregate.Row `json:"hour_revenue"`
	WeekdayRevenue  []aggregate.Row `json:"weekday_revenue"`
}

// RevenueOutlook is the revenue forecasting section. Status distinguishes a
// fitted forecast from the statistical failures that leave Points empty.
type RevenueOutlook struct {
	Status     string              `json:"status"` // "ok", "insufficient_history", "not_converged"
	Detail     string              `json:"detail,omitempty"`
	Stationary *forecast.ADFResult `json:"stationarity,omitempty"`
	Points     []forecast.Point    `json:"points,omitempty"`
}

// Quality aggregates every data-quality counter collected across the run.
type Quality struct {
	Load              dataset.LoadReport `json:"load"`
	Filter            sales.FilterReport `json:"filter"`
	AsSold            sales.ViewReport   `json:"as_sold_view"`
	Component         sales.ViewReport   `json:"component_view"`
	MissedItems       []string           `json:"missed_items,omitempty"`
	DuplicateNameRows int                `json:"duplicate_name_rows"`
}

// Report is the immutable outcome of one analysis run.
type Report struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Overview    aggregate.Overview       `json:"overview"`
	Rankings    Rankings                 `json:"rankings"`
	Channels    []aggregate.ChannelStats `json:"channels"`
	Basket      basket.Result            `json:"basket"`
	Revenue     RevenueOutlook           `json:"revenue_forecast"`
	Units       []forecast.ItemForecast  `json:"unit_forecasts"`
	Quality     Quality                  `json:"quality"`
}

// Run executes the full batch over a dataset snapshot. Configuration
// problems (a cyclic combo graph) abort before any view is built;
// statistical failures are recorded in their section and never abort.
func Run(ds *dataset.Dataset, cfg config.Analytics) (*Report, error) {
	started := time.Now()

	cat, err := catalog.New(ds.Names, ds.Combos, cfg.ComboUnitQty)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}

	kept, filterReport := sales.FilterSuccessful(ds.Lines)
	asSold, asSoldReport := sales.BuildAsSoldView(kept, cat)
	components, componentReport := sales.BuildComponentView(kept, cat)

	report := &Report{
		GeneratedAt: started,
		Overview:    aggregate.BuildOverview(asSold, components),
		Channels:    aggregate.ByChannel(asSold),
	}

	report.Rankings, err = buildRankings(asSold, components)
	if err != nil {
		return nil, err
	}

	// Baskets come from the component view: a combo purchase means the
	// customer bought its constituents, and that co-occurrence is exactly
	// what the rules are after.
	report.Basket = basket.Mine(components.Rows, basket.Options{
		MinSupport: cfg.MinSupport,
		MinLift:    cfg.MinLift,
		MinOrders:  cfg.MinBasketOrders,
	})

	report.Revenue = forecastRevenue(asSold, cfg)
	report.Units = forecast.ForecastUnits(components, forecast.UnitOptions{
		HorizonDays: cfg.UnitHorizonDays,
		MinDays:     cfg.MinUnitDays,
		Adjustment:  cfg.AdjustmentFactor,
	})

	report.Quality = Quality{
		Load:              ds.Report,
		Filter:            filterReport,
		AsSold:            asSoldReport,
		Component:         componentReport,
		MissedItems:       cat.MissedItems(),
		DuplicateNameRows: cat.DuplicateNameRows(),
	}

	log.Info().
		Dur("elapsed", time.Since(started)).
		Int("orders", report.Overview.DistinctOrders).
		Str("basket_status", string(report.Basket.Status)).
		Str("revenue_status", report.Revenue.Status).
		Msg("Analysis run complete")
	return report, nil
}

func buildRankings(asSold sales.AsSoldView, components sales.ComponentView) (Rankings, error) {
	var r Rankings
	var err error

	if r.CategoryRevenue, err = aggregate.Aggregate(asSold.Rows, aggregate.Request{
		GroupBy: []aggregate.Dimension{aggregate.DimParentCategory}, Measure: aggregate.SumRevenue,
	}); err != nil {
		return r, err
	}
	if r.ItemRevenue, err = aggregate.Aggregate(asSold.Rows, aggregate.Request{
		GroupBy: []aggregate.Dimension{aggregate.DimItem}, Measure: aggregate.SumRevenue,
	}); err != nil {
		return r, err
	}
	if r.ItemQuantity, err = aggregate.Aggregate(components.Rows, aggregate.Request{
		GroupBy: []aggregate.Dimension{aggregate.DimItem}, Measure: aggregate.SumQuantity,
	}); err != nil {
		return r, err
	}
	if r.OutletRevenue, err = aggregate.Aggregate(asSold.Rows, aggregate.Request{
		GroupBy: []aggregate.Dimension{aggregate.DimOutlet}, Measure: aggregate.SumRevenue,
	}); err != nil {
		return r, err
	}
	if r.HourRevenue, err = aggregate.Aggregate(asSold.Rows, aggregate.Request{
		Measure: aggregate.SumRevenue, Bucket: aggregate.BucketHour,
	}); err != nil {
		return r, err
	}
	if r.WeekdayRevenue, err = aggregate.Aggregate(asSold.Rows, aggregate.Request{
		Measure: aggregate.SumRevenue, Bucket: aggregate.BucketWeekday,
	}); err != nil {
		return r, err
	}
	return r, nil
}

func forecastRevenue(asSold sales.AsSoldView, cfg config.Analytics) RevenueOutlook {
	series := aggregate.DailyRevenueSeries(asSold.Rows)
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}

	outlook := RevenueOutlook{Status: "ok"}
	if adf, err := forecast.ADF(values); err == nil {
		outlook.Stationary = &adf
	}

	model := forecast.NewRevenueModel()
	if err := model.Fit(values, cfg.MinRevenueDays); err != nil {
		outlook.Status = statisticalStatus(err)
		outlook.Detail = err.Error()
		log.Warn().Err(err).Msg("Revenue forecast unavailable")
		return outlook
	}

	var start time.Time
	if len(series) > 0 {
		start = series[len(series)-1].Date.AddDate(0, 0, 1)
	}
	points, err := model.Forecast(start, cfg.ForecastHorizon, cfg.Confidence)
	if err != nil {
		outlook.Status = statisticalStatus(err)
		outlook.Detail = err.Error()
		return outlook
	}
	outlook.Points = points
	return outlook
}

func statisticalStatus(err error) string {
	switch {
	case errors.Is(err, forecast.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, forecast.ErrNotConverged):
		return "not_converged"
	default:
		return "failed"
	}
}
