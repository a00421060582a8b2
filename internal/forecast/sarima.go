package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// seasonalPeriod is the weekly cycle of retail revenue.
const seasonalPeriod = 7

// DefaultMinHistoryDays is the shortest daily series the revenue model
// accepts: four full weekly cycles.
const DefaultMinHistoryDays = 28

var (
	ErrInsufficientHistory = errors.New("not enough history to fit the revenue model")
	ErrNotConverged        = errors.New("revenue model fit did not converge")
	ErrNotFitted           = errors.New("revenue model has not been fitted")
)

// State tracks the revenue model through its lifecycle. Failed is terminal
// for a given Fit attempt; a new Fit call restarts from Fitting.
type State string

const (
	StateUntrained   State = "untrained"
	StateFitting     State = "fitting"
	StateFitted      State = "fitted"
	StateForecasting State = "forecasting"
	StateFailed      State = "failed"
)

// Point is one forecast day with its two-sided interval.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// RevenueModel is a seasonal ARIMA(1,1,1)(1,1,1) weekly model over a dense
// daily revenue series, fitted by conditional sum of squares.
type RevenueModel struct {
	state State

	phi, theta   float64 // non-seasonal AR / MA
	sphi, stheta float64 // seasonal AR / MA
	sigma2       float64

	y     []float64 // training series
	w     []float64 // after regular + seasonal differencing
	resid []float64 // one-step residuals over w
}

// NewRevenueModel returns an untrained model.
func NewRevenueModel() *RevenueModel {
	return &RevenueModel{state: StateUntrained}
}

// State returns the model's lifecycle state.
func (m *RevenueModel) State() State { return m.state }

// Params returns the fitted coefficients (phi, theta, Phi, Theta).
func (m *RevenueModel) Params() (float64, float64, float64, float64) {
	return m.phi, m.theta, m.sphi, m.stheta
}

// Fit estimates the model over a dense daily series. minHistory <= 0 applies
// the default. On failure the state is Failed and the previous fit, if any,
// is discarded.
func (m *RevenueModel) Fit(series []float64, minHistory int) error {
	if minHistory <= 0 {
		minHistory = DefaultMinHistoryDays
	}
	// Double differencing consumes seasonalPeriod+1 observations, so a
	// configured minimum below that would admit series the recursion cannot
	// even difference.
	if minHistory < seasonalPeriod+2 {
		minHistory = seasonalPeriod + 2
	}
	if len(series) < minHistory {
		return fmt.Errorf("%w: %d days, need %d", ErrInsufficientHistory, len(series), minHistory)
	}

	m.state = StateFitting
	m.y = append([]float64(nil), series...)
	m.w = doubleDifference(series)

	problem := optimize.Problem{
		Func: func(u []float64) float64 {
			phi, theta, sphi, stheta := constrain(u)
			resid := cssResiduals(m.w, phi, theta, sphi, stheta)
			var ss float64
			for _, e := range resid {
				ss += e * e
			}
			return ss
		},
	}

	result, err := optimize.Minimize(problem, []float64{0, 0, 0, 0}, nil, &optimize.NelderMead{})
	if err != nil || result == nil || math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		m.state = StateFailed
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotConverged, err)
		}
		return ErrNotConverged
	}

	m.phi, m.theta, m.sphi, m.stheta = constrain(result.X)
	m.resid = cssResiduals(m.w, m.phi, m.theta, m.sphi, m.stheta)
	var ss float64
	for _, e := range m.resid {
		ss += e * e
	}
	if len(m.resid) == 0 {
		m.state = StateFailed
		return ErrNotConverged
	}
	m.sigma2 = ss / float64(len(m.resid))
	m.state = StateFitted

	log.Debug().
		Float64("phi", m.phi).Float64("theta", m.theta).
		Float64("seasonal_phi", m.sphi).Float64("seasonal_theta", m.stheta).
		Float64("sigma2", m.sigma2).
		Msg("Revenue model fitted")
	return nil
}

// Forecast projects horizon days past the end of the training series.
// start is the calendar date of the first forecast day. confidence in (0,1)
// sizes the two-sided interval; lower <= value <= upper holds on every point.
func (m *RevenueModel) Forecast(start time.Time, horizon int, confidence float64) ([]Point, error) {
	if m.state != StateFitted {
		return nil, ErrNotFitted
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("forecast horizon must be positive, got %d", horizon)
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("confidence must be in (0,1), got %v", confidence)
	}
	m.state = StateForecasting
	defer func() { m.state = StateFitted }()

	wHat := m.forecastDifferenced(horizon)
	yHat := undifference(m.y, wHat)

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.5 + confidence/2)
	psi := m.psiWeights(horizon)

	points := make([]Point, horizon)
	var psiSq float64
	for h := 0; h < horizon; h++ {
		psiSq += psi[h] * psi[h]
		half := z * math.Sqrt(m.sigma2*psiSq)
		points[h] = Point{
			Date:  start.AddDate(0, 0, h),
			Value: yHat[h],
			Lower: yHat[h] - half,
			Upper: yHat[h] + half,
		}
	}
	return points, nil
}

// constrain maps the unconstrained optimizer coordinates into (-0.98, 0.98),
// keeping every coefficient inside the stationarity/invertibility region.
func constrain(u []float64) (phi, theta, sphi, stheta float64) {
	return 0.98 * math.Tanh(u[0]), 0.98 * math.Tanh(u[1]),
		0.98 * math.Tanh(u[2]), 0.98 * math.Tanh(u[3])
}

// doubleDifference applies one regular and one seasonal difference.
func doubleDifference(y []float64) []float64 {
	z := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		z[i-1] = y[i] - y[i-1]
	}
	w := make([]float64, len(z)-seasonalPeriod)
	for i := seasonalPeriod; i < len(z); i++ {
		w[i-seasonalPeriod] = z[i] - z[i-seasonalPeriod]
	}
	return w
}

// cssResiduals runs the one-step residual recursion with zero
// initialization for pre-sample values (the "conditional" in conditional sum
// of squares).
func cssResiduals(w []float64, phi, theta, sphi, stheta float64) []float64 {
	at := func(s []float64, i int) float64 {
		if i < 0 {
			return 0
		}
		return s[i]
	}

	resid := make([]float64, len(w))
	for t := range w {
		e := w[t] -
			phi*at(w, t-1) -
			sphi*at(w, t-seasonalPeriod) +
			phi*sphi*at(w, t-seasonalPeriod-1) -
			theta*at(resid, t-1) -
			stheta*at(resid, t-seasonalPeriod) -
			theta*stheta*at(resid, t-seasonalPeriod-1)
		resid[t] = e
	}
	return resid
}

// forecastDifferenced projects the differenced series: future shocks are
// zero, future w values are their own forecasts.
func (m *RevenueModel) forecastDifferenced(horizon int) []float64 {
	n := len(m.w)
	wAt := func(i int) float64 {
		if i < 0 {
			return 0
		}
		return m.w[i]
	}
	eAt := func(i int) float64 {
		if i < 0 || i >= n {
			return 0
		}
		return m.resid[i]
	}

	wHat := make([]float64, horizon)
	wFull := func(i int) float64 {
		if i < n {
			return wAt(i)
		}
		return wHat[i-n]
	}

	for h := 0; h < horizon; h++ {
		t := n + h
		wHat[h] = m.phi*wFull(t-1) +
			m.sphi*wFull(t-seasonalPeriod) -
			m.phi*m.sphi*wFull(t-seasonalPeriod-1) +
			m.theta*eAt(t-1) +
			m.stheta*eAt(t-seasonalPeriod) +
			m.theta*m.stheta*eAt(t-seasonalPeriod-1)
	}
	return wHat
}

// undifference integrates forecasts of the doubly differenced series back to
// the original level using the training tail.
func undifference(y, wHat []float64) []float64 {
	// Reconstruct the regular differences z over the training range.
	z := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		z[i-1] = y[i] - y[i-1]
	}

	zAll := append([]float64(nil), z...)
	yLast := y[len(y)-1]
	out := make([]float64, len(wHat))
	for h, w := range wHat {
		zNext := w + zAll[len(zAll)-seasonalPeriod]
		zAll = append(zAll, zNext)
		yLast += zNext
		out[h] = yLast
	}
	return out
}

// psiWeights expands the model into its MA(infinity) representation over the
// full generalized AR polynomial, differencing included. The cumulative sum
// of squared weights scales the forecast error variance by lead time.
func (m *RevenueModel) psiWeights(horizon int) []float64 {
	// a(B) = (1 - phi B)(1 - Phi B^7)(1 - B)(1 - B^7), degree 16
	a := polyMul(
		polyMul(lagPoly(1, -m.phi), lagPoly(seasonalPeriod, -m.sphi)),
		polyMul(lagPoly(1, -1), lagPoly(seasonalPeriod, -1)),
	)
	// m(B) = (1 + theta B)(1 + Theta B^7), degree 8
	ma := polyMul(lagPoly(1, m.theta), lagPoly(seasonalPeriod, m.stheta))

	psi := make([]float64, horizon)
	for j := 0; j < horizon; j++ {
		v := 0.0
		if j < len(ma) {
			v = ma[j]
		}
		for i := 1; i < len(a) && i <= j; i++ {
			v -= a[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

// lagPoly builds 1 + c*B^lag as a coefficient slice.
func lagPoly(lag int, c float64) []float64 {
	p := make([]float64, lag+1)
	p[0] = 1
	p[lag] = c
	return p
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, ca := range a {
		for j, cb := range b {
			out[i+j] += ca * cb
		}
	}
	return out
}
