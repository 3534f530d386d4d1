package results

import (
	"github.com/KyungWonPark/mvpa/internal/model"
	"github.com/KyungWonPark/mvpa/internal/mvp"
	"go.uber.org/zap"
)

// Regression metric columns
const (
	ColMSE = "MSE"
	ColR2  = "R2"
)

// Regression tracks R² and mean squared error per fold
type Regression struct {
	*Results
}

// NewRegression returns an aggregator for a regression analysis
func NewRegression(m *mvp.Mvp, opts Options) (*Regression, error) {
	r, err := newResults(m, opts, "regression", ColMSE, ColR2)
	if err != nil {
		return nil, err
	}

	return &Regression{Results: r}, nil
}

// Update records a fold; see Classification.Update
func (g *Regression) Update(testIdx []int, yPred []float64, fitted *model.Fitted, featureIdx []int) error {
	yTrue, err := g.labels(testIdx, yPred)
	if err != nil {
		return err
	}

	score := r2(yTrue, yPred)
	g.set(ColR2, score)
	g.set(ColMSE, meanSquaredError(yTrue, yPred))

	if g.verbose {
		g.logger.Info("fold", zap.Int("fold", g.iter+1), zap.Float64("r2", score))
	} else {
		g.logger.Debug("fold", zap.Int("fold", g.iter+1), zap.Float64("r2", score))
	}

	return g.finish(fitted, featureIdx)
}

// ComputeScores summarizes the recorded folds
func (g *Regression) ComputeScores() (*Summary, error) {
	return g.summarize()
}

// Write computes the scores and writes every output file
func (g *Regression) Write(toTStat bool) error {
	s, err := g.ComputeScores()
	if err != nil {
		return err
	}

	return g.write(s, toTStat)
}
