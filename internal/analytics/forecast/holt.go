package forecast

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/soltixdb/txcast/internal/analytics"
)

// Starting smoothing coefficients for the parameter search
const (
	initialAlpha = 0.5
	initialBeta  = 0.1
)

// smoothingParams maps unconstrained optimizer coordinates to (alpha, beta)
// with 0 < beta <= alpha < 1. Beta is searched as a fraction of alpha.
func smoothingParams(x0, x1 float64) (alpha, beta float64) {
	alpha = sigmoid(x0)
	return alpha, alpha * sigmoid(x1)
}

// holtRecursion runs the additive-trend smoothing recursion over y from the
// initial state (level, trend). It returns the in-sample sum of squared
// one-step-ahead errors and the final state. When fitted is non-nil it
// receives the one-step-ahead predictions.
func holtRecursion(y []float64, alpha, beta, level, trend float64, fitted []float64) (sse, lastLevel, lastTrend float64) {
	for t, obs := range y {
		predicted := level + trend
		if fitted != nil {
			fitted[t] = predicted
		}
		residual := obs - predicted
		sse += residual * residual

		prevLevel := level
		level = alpha*obs + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}
	return sse, level, trend
}

// trendSmoothing fits Holt's linear method. Initial level and trend are
// estimated from the first two observations and then optimized jointly
// with alpha and beta by minimizing in-sample SSE with Nelder-Mead.
// The trend coefficient never exceeds the level coefficient.
func trendSmoothing(values []float64, horizon int, cfg Config) (*Fit, error) {
	n := len(values)
	if n < 2 {
		return nil, &analytics.InsufficientDataError{Op: string(TrendSmoothing), Need: 2, Have: n}
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &analytics.DataError{Index: i, Reason: "non-finite value"}
		}
	}

	// Work on a unit-scaled copy so the optimizer tolerances are
	// independent of the magnitude of the volumes.
	scale := floats.Norm(values, math.Inf(1))
	if scale == 0 {
		scale = 1
	}
	y := floats.ScaleTo(make([]float64, n), 1/scale, values)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			alpha, beta := smoothingParams(x[0], x[1])
			sse, _, _ := holtRecursion(y, alpha, beta, x[2], x[3], nil)
			return sse
		},
	}
	initX := []float64{logit(initialAlpha), logit(initialBeta / initialAlpha), y[0], y[1] - y[0]}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	settings := &optimize.Settings{MajorIterations: maxIterations}

	result, err := optimize.Minimize(problem, initX, settings, &optimize.NelderMead{})
	if reason, failed := convergenceFailure(result, err); failed {
		if !cfg.FallbackToNaive {
			return nil, &analytics.ConvergenceError{Status: reason, Err: err}
		}
		fit, naiveErr := naive(values, horizon)
		if naiveErr != nil {
			return nil, naiveErr
		}
		fit.ModelInfo.Requested = string(TrendSmoothing)
		fit.ModelInfo.Fallback = true
		fit.ModelInfo.FallbackReason = "trend smoothing did not converge: " + reason
		return fit, nil
	}

	x := result.X
	alpha, beta := smoothingParams(x[0], x[1])
	fitted := make([]float64, n)
	sse, level, trend := holtRecursion(y, alpha, beta, x[2], x[3], fitted)

	predictions := make([]float64, horizon)
	for h := range predictions {
		predictions[h] = (level + float64(h+1)*trend) * scale
	}
	floats.Scale(scale, fitted)

	return &Fit{
		Values: predictions,
		Fitted: fitted,
		ModelInfo: ModelInfo{
			Algorithm: string(TrendSmoothing),
			Requested: string(TrendSmoothing),
			Parameters: map[string]interface{}{
				"alpha":         alpha,
				"beta":          beta,
				"initial_level": x[2] * scale,
				"initial_trend": x[3] * scale,
				"iterations":    result.Stats.MajorIterations,
				"status":        result.Status.String(),
			},
			DataPoints: n,
			SSE:        sse * scale * scale,
		},
	}, nil
}

// convergenceFailure reports whether the optimizer result is unusable
// and, if so, a short reason.
func convergenceFailure(result *optimize.Result, err error) (string, bool) {
	if result == nil {
		if err != nil {
			return err.Error(), true
		}
		return "no optimizer result", true
	}
	if err != nil || result.Status.Early() {
		return result.Status.String(), true
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return "non-finite objective", true
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "non-finite parameters", true
		}
	}
	return "", false
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}
