package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAnalyticsDefaults(t *testing.T) {
	for _, key := range []string{
		"BASKET_MIN_SUPPORT", "BASKET_MIN_LIFT", "BASKET_MIN_ORDERS",
		"FORECAST_HORIZON_DAYS", "FORECAST_CONFIDENCE", "FORECAST_MIN_HISTORY_DAYS",
		"UNIT_FORECAST_HORIZON_DAYS", "UNIT_FORECAST_MIN_DAYS", "UNIT_FORECAST_ADJUSTMENT",
		"COMBO_COMPONENT_QTY",
	} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	a := cfg.Analytics
	if a.MinSupport != 0.01 {
		t.Errorf("MinSupport default = %v, want 0.01", a.MinSupport)
	}
	if a.MinLift != 1.0 {
		t.Errorf("MinLift default = %v, want 1.0", a.MinLift)
	}
	if a.ForecastHorizon != 30 {
		t.Errorf("ForecastHorizon default = %d, want 30", a.ForecastHorizon)
	}
	if a.MinRevenueDays != 28 {
		t.Errorf("MinRevenueDays default = %d, want 28", a.MinRevenueDays)
	}
	if a.ComboUnitQty != 1 {
		t.Errorf("ComboUnitQty default = %d, want 1", a.ComboUnitQty)
	}
}

func TestAnalyticsOverrides(t *testing.T) {
	t.Setenv("BASKET_MIN_SUPPORT", "0.05")
	t.Setenv("FORECAST_HORIZON_DAYS", "7")
	t.Setenv("UNIT_FORECAST_ADJUSTMENT", "1.15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Analytics.MinSupport != 0.05 {
		t.Errorf("MinSupport = %v, want 0.05", cfg.Analytics.MinSupport)
	}
	if cfg.Analytics.ForecastHorizon != 7 {
		t.Errorf("ForecastHorizon = %d, want 7", cfg.Analytics.ForecastHorizon)
	}
	if cfg.Analytics.AdjustmentFactor != 1.15 {
		t.Errorf("AdjustmentFactor = %v, want 1.15", cfg.Analytics.AdjustmentFactor)
	}
}

func TestLoadReadsWorkingDirEnv(t *testing.T) {
	dir := t.TempDir()
	content := "DATA_PATH=" + filepath.Join(dir, "data") + "\nBASKET_MIN_ORDERS=5\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	os.Unsetenv("DATA_PATH")
	os.Unsetenv("BASKET_MIN_ORDERS")
	t.Cleanup(func() {
		// godotenv.Load writes into the process environment.
		os.Unsetenv("DATA_PATH")
		os.Unsetenv("BASKET_MIN_ORDERS")
	})
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if want := filepath.Join(dir, "data"); cfg.DataPath != want {
		t.Errorf("DataPath = %q, want %q from the working-directory .env", cfg.DataPath, want)
	}
	if cfg.Analytics.MinBasketOrders != 5 {
		t.Errorf("MinBasketOrders = %d, want 5 from the working-directory .env", cfg.Analytics.MinBasketOrders)
	}
}

func TestLoadPrefersRealEnvOverDotenv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("BASKET_MIN_ORDERS=5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("BASKET_MIN_ORDERS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analytics.MinBasketOrders != 7 {
		t.Errorf("MinBasketOrders = %d, want the process environment (7) to win over .env", cfg.Analytics.MinBasketOrders)
	}
}
