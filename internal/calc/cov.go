package calc

import (
	"fmt"
	"sync"

	"github.com/gonum/matrix/mat64"
)

func covariance(centered *mat64.Dense, covMat *mat64.Dense, ddof int, order <-chan int, wg *sync.WaitGroup) {
	inputRows, inputCols := centered.Dims()
	denom := float64(inputRows - ddof)

	for {
		from, ok := <-order
		if ok {
			for to := from; to < inputCols; to++ {
				var accProd float64
				for t := 0; t < inputRows; t++ {
					accProd += centered.At(t, from) * centered.At(t, to)
				}

				cov := accProd / denom

				covMat.Set(from, to, cov)
				covMat.Set(to, from, cov)
			}

			wg.Done()
		} else {
			break
		}
	}

	return
}

// Covariance returns the covariance matrix between the columns of inputMat
// (observations in rows), normalised by n - ddof. ddof = 1 matches numpy.cov.
func (p *PipeLine) Covariance(inputMat *mat64.Dense, ddof int) (*mat64.Dense, error) {
	inputRows, inputCols := inputMat.Dims()

	if inputRows-ddof < 1 {
		return nil, fmt.Errorf("Covariance: %d observations with ddof %d: %w", inputRows, ddof, ErrShape)
	}

	avg := p.Avg(inputMat)

	centered := mat64.NewDense(inputRows, inputCols, nil)
	centered.Apply(func(i, j int, v float64) float64 {
		return v - avg[j]
	}, inputMat)

	covMat := mat64.NewDense(inputCols, inputCols, nil)

	p.run(inputCols, func(order <-chan int, wg *sync.WaitGroup) {
		covariance(centered, covMat, ddof, order, wg)
	})

	return covMat, nil
}
