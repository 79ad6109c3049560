package reconstruct

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/openfoodfacts/recipe-estimator-go/internal/model"
	"github.com/openfoodfacts/recipe-estimator-go/pkg/models"
)

// NNLSConfig controls the projected-gradient non-negative least squares solve.
type NNLSConfig struct {
	MaxIterations int
	Tolerance     float64
}

// DefaultNNLSConfig mirrors the optimizer's iteration budget at a smaller
// scale, since NNLS converges far faster than the penalty-based search.
func DefaultNNLSConfig() NNLSConfig {
	return NNLSConfig{MaxIterations: 2000, Tolerance: 1e-9}
}

// SolveNNLS fits leaf quantities that best reproduce the declared nutrient
// values under the cumulative nominal-fraction matrix in m (column i sums the
// fractions of leaves 0..i), using projected gradient descent (a
// non-negative least squares solve is equivalent to gradient descent on the
// squared residual with a clamp-to-zero projection after every step, which
// is what makes it "non-negative"). The solve yields non-negative steps s;
// leaf i's quantity is s[i] + s[i+1] + ..., so quantities never increase
// along the leaf order.
func SolveNNLS(m *model.Model, declared map[models.NutrientKey]float64, keys []models.NutrientKey, cfg NNLSConfig) []float64 {
	dims := len(m.Leaves)
	if dims == 0 || len(keys) == 0 {
		return make([]float64, dims)
	}

	a := mat.NewDense(len(keys), dims, nil)
	y := mat.NewVecDense(len(keys), nil)
	for r, key := range keys {
		coeffs := m.NutrientNominal[key]
		cumulative := 0.0
		for c := 0; c < dims; c++ {
			if c < len(coeffs) {
				cumulative += coeffs[c]
			}
			a.Set(r, c, cumulative)
		}
		y.SetVec(r, declared[key])
	}

	step := 1.0 / lipschitzUpperBound(a)

	x := mat.NewVecDense(dims, nil)
	for i := 0; i < dims; i++ {
		x.SetVec(i, 1) // uniform, strictly positive start
	}

	residual := mat.NewVecDense(len(keys), nil)
	gradient := mat.NewVecDense(dims, nil)

	prevObjective := math.Inf(1)
	for iter := 0; iter < cfg.MaxIterations; iter++ {
		residual.MulVec(a, x)
		residual.SubVec(residual, y)

		gradient.MulVec(a.T(), residual)

		for i := 0; i < dims; i++ {
			v := x.AtVec(i) - step*gradient.AtVec(i)
			if v < 0 {
				v = 0
			}
			x.SetVec(i, v)
		}

		objective := mat.Dot(residual, residual)
		if math.Abs(prevObjective-objective) < cfg.Tolerance {
			break
		}
		prevObjective = objective
	}

	out := make([]float64, dims)
	running := 0.0
	for i := dims - 1; i >= 0; i-- {
		running += x.AtVec(i)
		out[i] = running
	}
	return out
}

// lipschitzUpperBound estimates an upper bound on the largest eigenvalue of
// A^T A via power iteration, used as the projected-gradient step-size bound.
func lipschitzUpperBound(a *mat.Dense) float64 {
	_, cols := a.Dims()
	if cols == 0 {
		return 1
	}
	v := mat.NewVecDense(cols, nil)
	for i := 0; i < cols; i++ {
		v.SetVec(i, 1)
	}
	tmp := mat.NewVecDense(a.RawMatrix().Rows, nil)
	result := mat.NewVecDense(cols, nil)

	lambda := 1.0
	for iter := 0; iter < 50; iter++ {
		tmp.MulVec(a, v)
		result.MulVec(a.T(), tmp)
		norm := mat.Norm(result, 2)
		if norm == 0 {
			return 1
		}
		lambda = norm
		for i := 0; i < cols; i++ {
			v.SetVec(i, result.AtVec(i)/norm)
		}
	}
	if lambda <= 0 {
		return 1
	}
	return lambda
}
