package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ADFResult is the outcome of an augmented Dickey-Fuller unit-root test.
// The verdict is informational: the revenue model always differences the
// series regardless of what the test says.
type ADFResult struct {
	Statistic  float64 `json:"statistic"`
	PValue     float64 `json:"p_value"`
	Lags       int     `json:"lags"`
	Stationary bool    `json:"stationary"` // at the 5% level
}

// adfCriticalValues are the constant-only MacKinnon critical values for
// large samples; the p-value is interpolated between them.
var adfCriticalValues = []struct {
	tau float64
	p   float64
}{
	{-3.43, 0.01},
	{-2.86, 0.05},
	{-2.57, 0.10},
	{-1.94, 0.30},
	{-0.80, 0.60},
	{0.00, 0.90},
}

// ADF runs the augmented Dickey-Fuller test with a constant term. The lag
// order follows the common cube-root rule. Requires enough observations to
// leave the regression with positive degrees of freedom.
func ADF(series []float64) (ADFResult, error) {
	n := len(series)
	lags := int(math.Cbrt(float64(n)))

	// Regression of dy_t on [1, y_{t-1}, dy_{t-1} ... dy_{t-lags}].
	rows := n - 1 - lags
	cols := 2 + lags
	if rows <= cols {
		return ADFResult{}, fmt.Errorf("series too short for ADF with %d lags: %d observations", lags, n)
	}

	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = series[i] - series[i-1]
	}

	X := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := r + lags + 1 // index into series of the dependent observation
		y.SetVec(r, diff[t-1])
		X.Set(r, 0, 1)
		X.Set(r, 1, series[t-1])
		for i := 1; i <= lags; i++ {
			X.Set(r, 1+i, diff[t-1-i])
		}
	}

	var qr mat.QR
	qr.Factorize(X)
	beta := mat.NewVecDense(cols, nil)
	if err := qr.SolveVecTo(beta, false, y); err != nil {
		return ADFResult{}, fmt.Errorf("ADF regression is singular: %w", err)
	}

	// Residual variance and the standard error of the y_{t-1} coefficient.
	fitted := mat.NewVecDense(rows, nil)
	fitted.MulVec(X, beta)
	var rss float64
	for r := 0; r < rows; r++ {
		e := y.AtVec(r) - fitted.AtVec(r)
		rss += e * e
	}
	sigma2 := rss / float64(rows-cols)

	var xtx mat.SymDense
	xtx.SymOuterK(1, X.T())
	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return ADFResult{}, fmt.Errorf("ADF design matrix is singular")
	}
	var xtxInv mat.SymDense
	if err := chol.InverseTo(&xtxInv); err != nil {
		return ADFResult{}, fmt.Errorf("ADF design matrix is singular: %w", err)
	}
	se := math.Sqrt(sigma2 * xtxInv.At(1, 1))
	if se == 0 {
		return ADFResult{}, fmt.Errorf("ADF coefficient has zero standard error")
	}

	tau := beta.AtVec(1) / se
	p := interpolatePValue(tau)
	return ADFResult{Statistic: tau, PValue: p, Lags: lags, Stationary: p < 0.05}, nil
}

func interpolatePValue(tau float64) float64 {
	cv := adfCriticalValues
	if tau <= cv[0].tau {
		return cv[0].p
	}
	if tau >= cv[len(cv)-1].tau {
		return cv[len(cv)-1].p
	}
	for i := 1; i < len(cv); i++ {
		if tau <= cv[i].tau {
			frac := (tau - cv[i-1].tau) / (cv[i].tau - cv[i-1].tau)
			return cv[i-1].p + frac*(cv[i].p-cv[i-1].p)
		}
	}
	return cv[len(cv)-1].p
}
