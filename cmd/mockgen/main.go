package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"salespulse/cmd/mockgen/engine"
)

func main() {
	outDir := flag.String("out", "./.cache", "Output directory for the generated CSVs")
	days := flag.Int("days", 90, "Number of calendar days to generate")
	ordersPerDay := flag.Int("orders", 40, "Average orders per day")
	comboShare := flag.Float64("combo-share", 0.25, "Fraction of order lines that are combos")
	seed := flag.Int64("seed", 1, "Random seed (fixed for reproducible fixtures)")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Days:         *days,
		OrdersPerDay: *ordersPerDay,
		ComboShare:   *comboShare,
		Seed:         *seed,
		End:          time.Now(),
	}

	fmt.Printf("Generating %d days (~%d orders/day, combo share %.2f) to %s...\n",
		cfg.Days, cfg.OrdersPerDay, cfg.ComboShare, *outDir)

	if err := engine.Generate(cfg).Save(*outDir); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
