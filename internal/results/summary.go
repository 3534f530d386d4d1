package results

import (
	"fmt"

	"github.com/KyungWonPark/mvpa/internal/io"
	"github.com/gonum/matrix/mat64"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
)

// Summary is the outcome of ComputeScores
type Summary struct {
	// Folds has one row per recorded fold
	Folds *io.Table
	// Stats has a "mean" and a "std" row over the folds
	Stats *io.Table
	// Confusion is the confusion matrix summed over folds; nil for regression
	Confusion *mat64.Dense
}

// Mean returns the mean of a column over folds
func (s *Summary) Mean(column string) (float64, bool) {
	return s.stat(column, 0)
}

// Std returns the sample standard deviation of a column over folds
func (s *Summary) Std(column string) (float64, bool) {
	return s.stat(column, 1)
}

func (s *Summary) stat(column string, row int) (float64, bool) {
	for i, c := range s.Stats.Header {
		if c == column {
			return s.Stats.Columns[i][row], true
		}
	}

	return 0, false
}

// summarize reduces the recorded folds to their mean and sample standard deviation
func (r *Results) summarize() (*Summary, error) {
	if r.iter == 0 {
		return nil, ErrNoFolds
	}

	folds := &io.Table{}
	for i, c := range r.columns {
		folds.Header = append(folds.Header, c)
		folds.Columns = append(folds.Columns, append([]float64(nil), r.metrics[i][:r.iter]...))
	}
	folds.Header = append(folds.Header, colNVoxels)
	folds.Columns = append(folds.Columns, append([]float64(nil), r.nVox[:r.iter]...))

	summary := &io.Table{
		Header: folds.Header,
		Index:  []string{"mean", "std"},
	}

	fields := make([]zap.Field, 0, 2*len(folds.Header))
	for i, col := range folds.Columns {
		mean, err := stats.Mean(col)
		if err != nil {
			return nil, fmt.Errorf("mean of %s: %w", folds.Header[i], err)
		}
		// one fold has no spread to estimate; stats reports NaN like pandas does
		std, err := stats.StandardDeviationSample(col)
		if err != nil {
			return nil, fmt.Errorf("std of %s: %w", folds.Header[i], err)
		}

		summary.Columns = append(summary.Columns, []float64{mean, std})
		fields = append(fields,
			zap.Float64(folds.Header[i]+"_mean", mean),
			zap.Float64(folds.Header[i]+"_std", std),
		)
	}

	r.logger.Info("scores across folds", append(fields, zap.Int("folds", r.iter))...)

	return &Summary{Folds: folds, Stats: summary}, nil
}

func fmtMatrix(m *mat64.Dense) string {
	return fmt.Sprintf("%v", mat64.Formatted(m, mat64.Squeeze()))
}
