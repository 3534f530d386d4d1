package results

import (
	"github.com/KyungWonPark/mvpa/internal/calc"
	"github.com/gonum/matrix/mat64"
)

// forwardModel turns the weights W (features x outputs) of a linear model trained on X
// (samples x features) into activation patterns (Haufe et al., 2014, NeuroImage 87).
//
//	A = cov(X) W                     binary classification and regression
//	A = cov(X) W pinv(cov(W'X'))     three or more classes
func forwardModel(pl *calc.PipeLine, X, W *mat64.Dense, nClass int) (*mat64.Dense, error) {
	xCov, err := pl.Covariance(X, 1)
	if err != nil {
		return nil, err
	}

	var A mat64.Dense
	A.Mul(xCov, W)

	if nClass < 3 {
		return &A, nil
	}

	// rows of s' = X W are the projected samples
	var s mat64.Dense
	s.Mul(X, W)

	sCov, err := pl.Covariance(&s, 1)
	if err != nil {
		return nil, err
	}

	sInv, err := calc.Pinv(sCov)
	if err != nil {
		return nil, err
	}

	var out mat64.Dense
	out.Mul(&A, sInv)

	return &out, nil
}

// collapse averages every row of m into one value per feature
func collapse(m *mat64.Dense) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, rows)

	for i := 0; i < rows; i++ {
		var sum float64
		for _, v := range m.RawRowView(i) {
			sum += v
		}
		out[i] = sum / float64(cols)
	}

	return out
}
