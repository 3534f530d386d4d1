package calc

import (
	"fmt"
	"sync"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

func acc(inputMat *mat64.Dense, outputMat *mat64.Dense, order <-chan int, wg *sync.WaitGroup) {
	for {
		index, ok := <-order
		if ok {
			floats.Add(outputMat.RawRowView(index), inputMat.RawRowView(index))

			wg.Done()
		} else {
			break
		}
	}

	return
}

// Acc does accumulation: outputMat += inputMat
func (p *PipeLine) Acc(inputMat *mat64.Dense, outputMat *mat64.Dense) error {
	inputRows, inputCols := inputMat.Dims()
	outputRows, outputCols := outputMat.Dims()

	if inputRows != outputRows || inputCols != outputCols {
		return fmt.Errorf("Acc: input dims: %d by %d when output dims: %d by %d: %w", inputRows, inputCols, outputRows, outputCols, ErrShape)
	}

	p.run(inputRows, func(order <-chan int, wg *sync.WaitGroup) {
		acc(inputMat, outputMat, order, wg)
	})

	return nil
}
