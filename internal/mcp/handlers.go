package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salespulse/internal/aggregate"
	"salespulse/internal/basket"
	"salespulse/internal/catalog"
	"salespulse/internal/dataset"
	"salespulse/internal/forecast"
	"salespulse/internal/pipeline"
	"salespulse/internal/sales"
)

var errNoDataset = errors.New("no dataset loaded, call load_dataset first")

type toolHandler func(args json.RawMessage) (interface{}, error)

func (s *Server) handlers() map[string]toolHandler {
	return map[string]toolHandler{
		"load_dataset":     s.handleLoadDataset,
		"get_overview":     s.handleGetOverview,
		"get_ranking":      s.handleGetRanking,
		"get_basket_rules": s.handleGetBasketRules,
		"forecast_revenue": s.handleForecastRevenue,
		"forecast_units":   s.handleForecastUnits,
		"get_data_quality": s.handleGetDataQuality,
	}
}

func (s *Server) handleLoadDataset(args json.RawMessage) (interface{}, error) {
	var a loadDatasetArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	path := a.Path
	if path == "" {
		path = s.cfg.DataPath
	}
	if path == "" {
		return nil, fmt.Errorf("no dataset path given and none configured")
	}

	ds, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}

	// The pipeline rebuilds these internally; the server keeps its own copy
	// of the views so ranking calls can re-aggregate without a full rerun.
	cat, err := catalog.New(ds.Names, ds.Combos, s.cfg.Analytics.ComboUnitQty)
	if err != nil {
		return nil, err
	}
	kept, _ := sales.FilterSuccessful(ds.Lines)
	asSold, _ := sales.BuildAsSoldView(kept, cat)
	components, _ := sales.BuildComponentView(kept, cat)

	report, err := pipeline.Run(ds, s.cfg.Analytics)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.report = report
	s.asSold = asSold
	s.components = components
	s.mu.Unlock()

	return map[string]interface{}{
		"loaded":          true,
		"transactions":    len(ds.Lines),
		"orders":          report.Overview.DistinctOrders,
		"first_day":       report.Overview.FirstDay,
		"last_day":        report.Overview.LastDay,
		"basket_status":   report.Basket.Status,
		"forecast_status": report.Revenue.Status,
	}, nil
}

func (s *Server) handleGetOverview(json.RawMessage) (interface{}, error) {
	report, err := s.currentReport()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"overview": report.Overview,
		"channels": report.Channels,
	}, nil
}

func (s *Server) handleGetRanking(args json.RawMessage) (interface{}, error) {
	var a rankingArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if _, err := s.currentReport(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	rows := s.asSold.Rows
	if a.View == "component" {
		rows = s.components.Rows
	}
	s.mu.Unlock()

	req := aggregate.Request{
		Measure: aggregate.Measure(a.Measure),
		Bucket:  aggregate.Bucket(a.Bucket),
		TopN:    a.TopN,
	}
	for _, d := range a.GroupBy {
		req.GroupBy = append(req.GroupBy, aggregate.Dimension(d))
	}
	return aggregate.Aggregate(rows, req)
}

func (s *Server) handleGetBasketRules(args json.RawMessage) (interface{}, error) {
	var a basketArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	report, err := s.currentReport()
	if err != nil {
		return nil, err
	}

	// Default thresholds come straight from the cached run.
	if a.MinSupport == 0 && a.MinLift == 0 {
		return report.Basket, nil
	}

	s.mu.Lock()
	rows := s.components.Rows
	s.mu.Unlock()
	return basket.Mine(rows, basket.Options{
		MinSupport: a.MinSupport,
		MinLift:    a.MinLift,
		MinOrders:  s.cfg.Analytics.MinBasketOrders,
	}), nil
}

func (s *Server) handleForecastRevenue(args json.RawMessage) (interface{}, error) {
	var a revenueForecastArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	report, err := s.currentReport()
	if err != nil {
		return nil, err
	}

	if a.HorizonDays == 0 && a.Confidence == 0 {
		return report.Revenue, nil
	}

	s.mu.Lock()
	rows := s.asSold.Rows
	s.mu.Unlock()
	series := aggregate.DailyRevenueSeries(rows)
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}

	horizon := a.HorizonDays
	if horizon <= 0 {
		horizon = s.cfg.Analytics.ForecastHorizon
	}
	confidence := a.Confidence
	if confidence <= 0 {
		confidence = s.cfg.Analytics.Confidence
	}

	model := forecast.NewRevenueModel()
	if err := model.Fit(values, s.cfg.Analytics.MinRevenueDays); err != nil {
		return nil, err
	}
	var start time.Time
	if len(series) > 0 {
		start = series[len(series)-1].Date.AddDate(0, 0, 1)
	}
	return model.Forecast(start, horizon, confidence)
}

func (s *Server) handleForecastUnits(args json.RawMessage) (interface{}, error) {
	var a unitForecastArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	report, err := s.currentReport()
	if err != nil {
		return nil, err
	}

	forecasts := report.Units
	if a.Adjustment > 0 && a.Adjustment != s.cfg.Analytics.AdjustmentFactor {
		s.mu.Lock()
		components := s.components
		s.mu.Unlock()
		forecasts = forecast.ForecastUnits(components, forecast.UnitOptions{
			HorizonDays: s.cfg.Analytics.UnitHorizonDays,
			MinDays:     s.cfg.Analytics.MinUnitDays,
			Adjustment:  a.Adjustment,
		})
	}

	if len(a.Items) == 0 {
		return forecasts, nil
	}
	wanted := make(map[string]bool, len(a.Items))
	for _, item := range a.Items {
		wanted[item] = true
	}
	var filtered []forecast.ItemForecast
	for _, fc := range forecasts {
		if wanted[fc.Item] {
			filtered = append(filtered, fc)
		}
	}
	return filtered, nil
}

func (s *Server) handleGetDataQuality(json.RawMessage) (interface{}, error) {
	report, err := s.currentReport()
	if err != nil {
		return nil, err
	}
	return report.Quality, nil
}

func (s *Server) currentReport() (*pipeline.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.report == nil {
		return nil, errNoDataset
	}
	return s.report, nil
}

func unmarshalArgs(raw json.RawMessage, into interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
