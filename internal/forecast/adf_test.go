package forecast

import (
	"math"
	"math/rand"
	"testing"
)

func TestADFStationarySeries(t *testing.T) {
	// Strongly mean-reverting AR(1); the unit-root null should be rejected
	// decisively.
	rng := rand.New(rand.NewSource(7))
	series := make([]float64, 300)
	for t1 := 1; t1 < len(series); t1++ {
		series[t1] = 0.1*series[t1-1] + rng.NormFloat64()
	}

	res, err := ADF(series)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}
	if !res.Stationary {
		t.Errorf("mean-reverting series not flagged stationary: %+v", res)
	}
	if res.Statistic >= 0 {
		t.Errorf("statistic = %v, want negative", res.Statistic)
	}
	if want := int(math.Cbrt(300)); res.Lags != want {
		t.Errorf("lags = %d, want %d", res.Lags, want)
	}
}

func TestADFRandomWalkBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	series := make([]float64, 300)
	for t1 := 1; t1 < len(series); t1++ {
		series[t1] = series[t1-1] + rng.NormFloat64()
	}

	res, err := ADF(series)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}
	if res.PValue < 0.01 || res.PValue > 0.90 {
		t.Errorf("p-value %v outside the interpolation range", res.PValue)
	}
}

func TestADFSeriesTooShort(t *testing.T) {
	if _, err := ADF(make([]float64, 6)); err == nil {
		t.Fatal("expected an error for a too-short series")
	}
}

func TestInterpolatePValue(t *testing.T) {
	cases := []struct {
		tau  float64
		want float64
	}{
		{-5.0, 0.01},  // clamped below
		{-3.43, 0.01}, // exact critical value
		{-2.86, 0.05},
		{-2.57, 0.10},
		{3.0, 0.90}, // clamped above
	}
	for _, c := range cases {
		if got := interpolatePValue(c.tau); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("interpolatePValue(%v) = %v, want %v", c.tau, got, c.want)
		}
	}
	// Monotone in tau.
	prev := interpolatePValue(-4)
	for tau := -4.0; tau <= 1.0; tau += 0.05 {
		p := interpolatePValue(tau)
		if p < prev-1e-12 {
			t.Fatalf("p-value not monotone at tau=%v", tau)
		}
		prev = p
	}
}
