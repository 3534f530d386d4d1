package calc

import (
	"errors"

	"github.com/gonum/floats"
	"github.com/gonum/matrix"
	"github.com/gonum/matrix/mat64"
)

// ErrSVD is returned when the singular value decomposition does not converge
var ErrSVD = errors.New("calc: SVD factorization failed")

// rcond is the relative cutoff below which singular values are treated as zero
const rcond = 1e-15

// Pinv returns the Moore-Penrose pseudo-inverse of inputMat
func Pinv(inputMat mat64.Matrix) (*mat64.Dense, error) {
	inputRows, inputCols := inputMat.Dims()

	var svd mat64.SVD
	if ok := svd.Factorize(inputMat, matrix.SVDThin); !ok {
		return nil, ErrSVD
	}

	s := svd.Values(nil)
	var u, v mat64.Dense
	u.UFromSVD(&svd)
	v.VFromSVD(&svd)

	cutoff := rcond * floats.Max(s)
	for i := range s {
		if s[i] > cutoff {
			s[i] = 1 / s[i]
		} else {
			s[i] = 0
		}
	}

	// V * diag(1/s)
	_, k := v.Dims()
	vs := mat64.NewDense(inputCols, k, nil)
	vs.Apply(func(i, j int, val float64) float64 {
		return val * s[j]
	}, &v)

	pinv := mat64.NewDense(inputCols, inputRows, nil)
	pinv.Mul(vs, u.T())

	return pinv, nil
}
