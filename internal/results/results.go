// Package results keeps track of cross-validation metrics and voxel scores
// fold by fold and writes them out as volumes and tables.
package results

import (
	"errors"
	"fmt"
	"os"

	"github.com/KyungWonPark/mvpa/internal/calc"
	"github.com/KyungWonPark/mvpa/internal/model"
	"github.com/KyungWonPark/mvpa/internal/mvp"
	"github.com/goccy/go-json"
	"github.com/gonum/matrix/mat64"
	"go.uber.org/zap"
)

var (
	// ErrShape is returned when fold inputs do not fit the pattern
	ErrShape = errors.New("results: shape mismatch")
	// ErrTooManyUpdates is returned by Update once every declared fold is in
	ErrTooManyUpdates = errors.New("results: more updates than folds")
	// ErrNoFolds is returned when scores are requested before any Update
	ErrNoFolds = errors.New("results: no folds recorded")
)

// Column name shared by both analysis types
const colNVoxels = "n_voxels"

// Aggregator is what a cross-validation loop talks to
type Aggregator interface {
	Update(testIdx []int, yPred []float64, fitted *model.Fitted, featureIdx []int) error
	ComputeScores() (*Summary, error)
	Write(toTStat bool) error
	SaveModel(f model.Fitted) ([]string, error)
	Iter() int
}

var (
	_ Aggregator = (*Classification)(nil)
	_ Aggregator = (*Regression)(nil)
)

// Options configure an aggregator
type Options struct {
	// NIter is the number of folds that will be recorded
	NIter int
	// OutPath receives every output file; the working directory when empty
	OutPath        string
	FeatureScoring model.ScoringMode
	Verbose        bool
	Logger         *zap.Logger
	// Workers for the voxel-wise kernels; < 1 means one per CPU
	Workers int
}

// Results is the state both analysis types share
type Results struct {
	mvp     *mvp.Mvp
	nIter   int
	outPath string
	scoring model.ScoringMode
	verbose bool
	logger  *zap.Logger
	pl      *calc.PipeLine

	analysis string
	// nClass drives the forward-model formula; 0 for regression
	nClass int

	iter        int
	columns     []string
	metrics     [][]float64
	nVox        []float64
	voxelValues *mat64.Dense
}

func newResults(m *mvp.Mvp, opts Options, analysis string, columns ...string) (*Results, error) {
	if m == nil || m.X == nil {
		return nil, fmt.Errorf("no pattern given: %w", ErrShape)
	}
	if opts.NIter < 1 {
		return nil, fmt.Errorf("need at least one fold, got %d: %w", opts.NIter, ErrShape)
	}
	if _, err := model.ParseScoring(string(opts.FeatureScoring)); err != nil {
		return nil, err
	}

	outPath := opts.OutPath
	if outPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		outPath = wd
	}
	if err := os.MkdirAll(outPath, 0755); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Results{
		mvp:         m,
		nIter:       opts.NIter,
		outPath:     outPath,
		scoring:     opts.FeatureScoring,
		verbose:     opts.Verbose,
		logger:      logger.With(zap.String("analysis", analysis)),
		pl:          calc.Init(opts.Workers),
		analysis:    analysis,
		columns:     columns,
		metrics:     make([][]float64, len(columns)),
		nVox:        make([]float64, opts.NIter),
		voxelValues: mat64.NewDense(opts.NIter, m.NFeatures(), nil),
	}

	for i := range r.metrics {
		r.metrics[i] = make([]float64, opts.NIter)
	}

	return r, nil
}

// Iter returns the number of folds recorded so far
func (r *Results) Iter() int {
	return r.iter
}

// NIter returns the number of folds declared
func (r *Results) NIter() int {
	return r.nIter
}

// OutPath returns the output directory
func (r *Results) OutPath() string {
	return r.outPath
}

// Metric returns the values of a per-fold column for the recorded folds
func (r *Results) Metric(name string) ([]float64, bool) {
	if name == colNVoxels {
		return append([]float64(nil), r.nVox[:r.iter]...), true
	}

	for i, c := range r.columns {
		if c == name {
			return append([]float64(nil), r.metrics[i][:r.iter]...), true
		}
	}

	return nil, false
}

// VoxelValues returns the voxel scores of the recorded folds, folds x features
func (r *Results) VoxelValues() *mat64.Dense {
	_, cols := r.voxelValues.Dims()
	done := mat64.NewDense(r.iter, cols, nil)

	for i := 0; i < r.iter; i++ {
		done.SetRow(i, r.voxelValues.RawRowView(i))
	}

	return done
}

// labels validates a fold and returns the true labels of its test samples
func (r *Results) labels(testIdx []int, yPred []float64) ([]float64, error) {
	if r.iter >= r.nIter {
		return nil, fmt.Errorf("fold %d of %d: %w", r.iter+1, r.nIter, ErrTooManyUpdates)
	}
	if len(testIdx) == 0 || len(testIdx) != len(yPred) {
		return nil, fmt.Errorf("%d test indices, %d predictions: %w", len(testIdx), len(yPred), ErrShape)
	}

	yTrue := make([]float64, len(testIdx))
	for i, idx := range testIdx {
		if idx < 0 || idx >= len(r.mvp.Y) {
			return nil, fmt.Errorf("test index %d outside %d samples: %w", idx, len(r.mvp.Y), ErrShape)
		}
		yTrue[i] = r.mvp.Y[idx]
	}

	return yTrue, nil
}

func (r *Results) set(column string, value float64) {
	for i, c := range r.columns {
		if c == column {
			r.metrics[i][r.iter] = value
			return
		}
	}
}

// finish stores the voxel scores of the current fold, if any, and advances to the next fold
func (r *Results) finish(fitted *model.Fitted, featureIdx []int) error {
	if fitted != nil && r.scoring != model.ScoringNone {
		if err := r.updateVoxelValues(*fitted, featureIdx); err != nil {
			return fmt.Errorf("fold %d: %w", r.iter+1, err)
		}
	}

	r.iter++
	return nil
}

func (r *Results) updateVoxelValues(fitted model.Fitted, featureIdx []int) error {
	W, idx, err := model.Extract(fitted, r.scoring, r.mvp.NFeatures(), featureIdx)
	if err != nil {
		return err
	}

	r.nVox[r.iter] = float64(len(idx))
	if len(idx) == 0 {
		return nil
	}

	values := W
	if r.scoring.Forward() {
		rows, _ := r.mvp.X.Dims()
		X := mat64.NewDense(rows, len(idx), nil)
		col := make([]float64, rows)
		for j, i := range idx {
			X.SetCol(j, mat64.Col(col, i, r.mvp.X))
		}

		if values, err = forwardModel(r.pl, X, W, r.nClass); err != nil {
			return err
		}
	}

	row := r.voxelValues.RawRowView(r.iter)
	for j, v := range collapse(values) {
		row[idx[j]] = v
	}

	return nil
}

// SaveModel writes every step of f to the output directory
func (r *Results) SaveModel(f model.Fitted) ([]string, error) {
	return model.Save(r.outPath, f)
}

// LoadModel decodes a saved step into v
func (r *Results) LoadModel(path string, v interface{}) error {
	return model.Load(path, v)
}

// LoadParams returns selected fields of a saved step
func (r *Results) LoadParams(path string, params ...string) (map[string]json.RawMessage, error) {
	return model.LoadParams(path, params...)
}
