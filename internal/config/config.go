package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Analytics holds the tunable thresholds of the analysis engines. Zero values
// are never used directly; Load fills in the documented defaults.
type Analytics struct {
	MinSupport      float64 // basket mining support floor (fraction of orders)
	MinLift         float64 // association rule emission floor
	MinBasketOrders int     // below this, basket mining returns empty results

	ForecastHorizon int     // revenue forecast length in days
	Confidence      float64 // two-sided interval coverage, e.g. 0.95
	MinRevenueDays  int     // minimum daily revenue history (4 weekly cycles)

	UnitHorizonDays  int     // unit forecast length in days (two DOW weeks)
	MinUnitDays      int     // minimum post-launch observation days per item
	AdjustmentFactor float64 // multiplicative uplift applied to unit forecasts

	// ComboUnitQty is the per-unit component quantity assumed when the combo
	// reference carries no explicit quantity column. The observed reference
	// sheets omit it, so 1 is the documented default.
	ComboUnitQty int
}

// DefaultAnalytics returns the documented threshold defaults.
func DefaultAnalytics() Analytics {
	return Analytics{
		MinSupport:       0.01,
		MinLift:          1.0,
		MinBasketOrders:  10,
		ForecastHorizon:  30,
		Confidence:       0.95,
		MinRevenueDays:   28,
		UnitHorizonDays:  14,
		MinUnitDays:      14,
		AdjustmentFactor: 1.0,
		ComboUnitQty:     1,
	}
}

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath  string
	LogDir    string
	Analytics Analytics
}

// Load resolves configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// Highest priority: .env next to the binary (stdio servers are usually
	// launched with an arbitrary working directory).
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// Fallback: working directory (development / go run).
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	cfg := &AppConfig{
		DataPath:  dataPath,
		LogDir:    logDir,
		Analytics: analyticsFromEnv(DefaultAnalytics()),
	}

	return cfg, nil
}

func analyticsFromEnv(def Analytics) Analytics {
	return Analytics{
		MinSupport:       getEnvFloat("BASKET_MIN_SUPPORT", def.MinSupport),
		MinLift:          getEnvFloat("BASKET_MIN_LIFT", def.MinLift),
		MinBasketOrders:  getEnvInt("BASKET_MIN_ORDERS", def.MinBasketOrders),
		ForecastHorizon:  getEnvInt("FORECAST_HORIZON_DAYS", def.ForecastHorizon),
		Confidence:       getEnvFloat("FORECAST_CONFIDENCE", def.Confidence),
		MinRevenueDays:   getEnvInt("FORECAST_MIN_HISTORY_DAYS", def.MinRevenueDays),
		UnitHorizonDays:  getEnvInt("UNIT_FORECAST_HORIZON_DAYS", def.UnitHorizonDays),
		MinUnitDays:      getEnvInt("UNIT_FORECAST_MIN_DAYS", def.MinUnitDays),
		AdjustmentFactor: getEnvFloat("UNIT_FORECAST_ADJUSTMENT", def.AdjustmentFactor),
		ComboUnitQty:     getEnvInt("COMBO_COMPONENT_QTY", def.ComboUnitQty),
	}
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}
