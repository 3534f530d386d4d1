package calc

import (
	"math"
	"sync"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

func getColStat(inputMat *mat64.Dense, stats []statistic, ddof int, order <-chan int, wg *sync.WaitGroup) {
	rows, _ := inputMat.Dims()
	col := make([]float64, rows)

	for {
		index, ok := <-order
		if ok {
			mat64.Col(col, index, inputMat)

			avgVal := floats.Sum(col) / float64(rows)

			var accSqrDev float64
			for _, value := range col {
				accSqrDev += (value - avgVal) * (value - avgVal)
			}

			stats[index].avg = avgVal
			stats[index].std = math.Sqrt(accSqrDev / float64(rows-ddof))

			wg.Done()
		} else {
			break
		}
	}

	return
}

func (p *PipeLine) colStats(inputMat *mat64.Dense, ddof int) []statistic {
	_, inputCols := inputMat.Dims()
	stats := make([]statistic, inputCols)

	p.run(inputCols, func(order <-chan int, wg *sync.WaitGroup) {
		getColStat(inputMat, stats, ddof, order, wg)
	})

	return stats
}

// Avg returns the mean of every column
func (p *PipeLine) Avg(inputMat *mat64.Dense) []float64 {
	stats := p.colStats(inputMat, 0)

	avg := make([]float64, len(stats))
	for i, s := range stats {
		avg[i] = s.avg
	}

	return avg
}

// Std returns the standard deviation of every column with ddof delta degrees of freedom
func (p *PipeLine) Std(inputMat *mat64.Dense, ddof int) []float64 {
	stats := p.colStats(inputMat, ddof)

	std := make([]float64, len(stats))
	for i, s := range stats {
		std[i] = s.std
	}

	return std
}

// TStat returns mean / (std / sqrt(n)) for every column, std being the population one.
// Columns with zero spread give the IEEE result (NaN or ±Inf).
func (p *PipeLine) TStat(inputMat *mat64.Dense) []float64 {
	inputRows, _ := inputMat.Dims()
	stats := p.colStats(inputMat, 0)
	sqrtN := math.Sqrt(float64(inputRows))

	tstat := make([]float64, len(stats))
	for i, s := range stats {
		tstat[i] = s.avg / (s.std / sqrtN)
	}

	return tstat
}
