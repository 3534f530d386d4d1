package results

import (
	"github.com/KyungWonPark/mvpa/internal/model"
	"github.com/KyungWonPark/mvpa/internal/mvp"
	"github.com/gonum/matrix/mat64"
	"go.uber.org/zap"
)

// Classification metric columns
const (
	ColAccuracy  = "Accuracy"
	ColPrecision = "Precision"
	ColRecall    = "Recall"
)

// Classification tracks accuracy, macro precision and recall, and confusion
// matrices over the classes of the full label vector
type Classification struct {
	*Results

	classes []float64
	confmat []*mat64.Dense
}

// NewClassification returns an aggregator for a classification analysis
func NewClassification(m *mvp.Mvp, opts Options) (*Classification, error) {
	r, err := newResults(m, opts, "classification", ColAccuracy, ColPrecision, ColRecall)
	if err != nil {
		return nil, err
	}

	classes := m.Classes()
	r.nClass = len(classes)

	c := &Classification{
		Results: r,
		classes: classes,
		confmat: make([]*mat64.Dense, opts.NIter),
	}

	return c, nil
}

// NClass returns the number of distinct labels in the pattern
func (c *Classification) NClass() int {
	return c.nClass
}

// Classes returns the labels, in confusion matrix order
func (c *Classification) Classes() []float64 {
	return c.classes
}

// Update records a fold: the model predicted yPred for the samples at testIdx.
// fitted, when given, provides the fold's voxel scores; featureIdx maps them to
// the pattern's features when the model does not tell.
func (c *Classification) Update(testIdx []int, yPred []float64, fitted *model.Fitted, featureIdx []int) error {
	yTrue, err := c.labels(testIdx, yPred)
	if err != nil {
		return err
	}

	cm, err := confusion(yTrue, yPred, c.classes)
	if err != nil {
		return err
	}

	acc := accuracy(yTrue, yPred)
	precision, recall := precisionRecall(yTrue, yPred)

	c.set(ColAccuracy, acc)
	c.set(ColPrecision, precision)
	c.set(ColRecall, recall)
	c.confmat[c.iter] = cm

	if c.verbose {
		c.logger.Info("fold", zap.Int("fold", c.iter+1), zap.Float64("accuracy", acc))
	} else {
		c.logger.Debug("fold", zap.Int("fold", c.iter+1), zap.Float64("accuracy", acc))
	}

	return c.finish(fitted, featureIdx)
}

// Confusion returns the confusion matrices of the recorded folds
func (c *Classification) Confusion() []*mat64.Dense {
	return c.confmat[:c.iter]
}

// ComputeScores summarizes the recorded folds and sums their confusion matrices
func (c *Classification) ComputeScores() (*Summary, error) {
	s, err := c.summarize()
	if err != nil {
		return nil, err
	}

	total := mat64.NewDense(len(c.classes), len(c.classes), nil)
	for _, cm := range c.Confusion() {
		if err := c.pl.Acc(cm, total); err != nil {
			return nil, err
		}
	}
	s.Confusion = total

	c.logger.Info("confusion matrix", zap.Float64s("classes", c.classes),
		zap.String("counts", fmtMatrix(total)))

	return s, nil
}

// Write computes the scores and writes every output file.
// toTStat turns the mean voxel scores into t-statistics over folds.
func (c *Classification) Write(toTStat bool) error {
	s, err := c.ComputeScores()
	if err != nil {
		return err
	}

	return c.write(s, toTStat)
}
