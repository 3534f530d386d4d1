// Package roi restricts whole-brain patterns to the voxels of a region of interest.
package roi

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KyungWonPark/mvpa/internal/calc"
	"github.com/KyungWonPark/mvpa/internal/mvp"
	"github.com/gonum/matrix/mat64"
	"go.uber.org/zap"
)

// ErrShape is returned when X or the mask does not match the pattern's whole-brain mask
var ErrShape = errors.New("roi: shape mismatch")

// Indexer selects the features of a whole-brain pattern that fall inside a mask
type Indexer struct {
	mask      string
	threshold float64
	origMask  []bool
	shape     [3]int

	cacheDir  string
	converter Converter
	loader    MaskLoader
	logger    *zap.Logger

	support []bool
}

// Option configures an Indexer
type Option func(*Indexer)

// WithCacheDir sets where masks converted to functional space are kept
func WithCacheDir(dir string) Option {
	return func(i *Indexer) {
		i.cacheDir = dir
	}
}

// WithConverter replaces the FSL based converter
func WithConverter(c Converter) Option {
	return func(i *Indexer) {
		i.converter = c
	}
}

// WithLoader replaces the NIfTI mask loader
func WithLoader(l MaskLoader) Option {
	return func(i *Indexer) {
		i.loader = l
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(i *Indexer) {
		i.logger = l
	}
}

// DefaultCacheDir is <parent of the pattern directory>/epi_masks/<name of the mask's directory>
func DefaultCacheDir(m *mvp.Mvp, mask string) string {
	laterality := filepath.Base(filepath.Dir(mask))
	return filepath.Join(filepath.Dir(m.Directory), "epi_masks", laterality)
}

// New returns an Indexer for mask with voxels above threshold.
// Patterns in functional (epi) space get the mask converted first, reusing a cached copy if present.
func New(m *mvp.Mvp, mask string, threshold float64, opts ...Option) (*Indexer, error) {
	if m.MaskIndex == nil || len(m.DataShape) == 0 {
		return nil, fmt.Errorf("pattern has no whole-brain mask: %w", ErrShape)
	}

	shape := m.DataShape[0]
	if shape[0]*shape[1]*shape[2] != len(m.MaskIndex) {
		return nil, fmt.Errorf("mask index has %d voxels, shape %v: %w", len(m.MaskIndex), shape, ErrShape)
	}

	idx := &Indexer{
		mask:      mask,
		threshold: threshold,
		origMask:  m.MaskIndex,
		shape:     shape,
		converter: FlirtConverter{},
		loader:    NiftiLoader{},
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(idx)
	}

	if m.RefSpace == mvp.SpaceEPI {
		if err := idx.toEPI(m); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

func (i *Indexer) toEPI(m *mvp.Mvp) error {
	if i.cacheDir == "" {
		i.cacheDir = DefaultCacheDir(m, i.mask)
	}

	if err := os.MkdirAll(i.cacheDir, 0755); err != nil {
		return err
	}

	cached := filepath.Join(i.cacheDir, filepath.Base(i.mask))
	if _, err := os.Stat(cached); err == nil {
		i.logger.Debug("using cached epi mask", zap.String("mask", cached))
		i.mask = cached
		return nil
	}

	converted, err := i.converter.Convert(i.mask, filepath.Join(m.Directory, "reg"), i.cacheDir)
	if err != nil {
		return err
	}
	if len(converted) == 0 {
		return fmt.Errorf("converting %s produced no mask", i.mask)
	}

	i.logger.Info("converted mask to epi space", zap.String("from", i.mask), zap.String("to", converted[0]))
	i.mask = converted[0]

	return nil
}

// Mask returns the path of the mask in use
func (i *Indexer) Mask() string {
	return i.mask
}

// Fit does nothing; it lets the Indexer sit in a pipeline
func (i *Indexer) Fit(X *mat64.Dense, y []float64) *Indexer {
	return i
}

// Index loads the mask and returns, for every voxel of the whole-brain mask,
// whether it also lies in the region
func (i *Indexer) Index() ([]bool, error) {
	vol, err := i.loader.Load(i.mask, i.shape)
	if err != nil {
		return nil, err
	}
	if len(vol) != len(i.origMask) {
		return nil, fmt.Errorf("mask %s has %d voxels, want %d: %w", i.mask, len(vol), len(i.origMask), ErrShape)
	}

	roiIdx := calc.Threshold(vol, i.threshold)
	overlap := calc.Overlap(roiIdx, i.origMask)

	index := make([]bool, 0, len(overlap))
	for v, in := range i.origMask {
		if in {
			index = append(index, overlap[v])
		}
	}

	return index, nil
}

// Transform returns the columns of X inside the region, in their original order.
// An empty overlap gives a matrix with zero columns.
func (i *Indexer) Transform(X *mat64.Dense) (*mat64.Dense, error) {
	index, err := i.Index()
	if err != nil {
		return nil, err
	}

	rows, cols := X.Dims()
	if cols != len(index) {
		return nil, fmt.Errorf("X has %d features, whole-brain mask has %d: %w", cols, len(index), ErrShape)
	}

	kept := calc.Count(index)
	out := mat64.NewDense(rows, kept, nil)

	col := make([]float64, rows)
	j := 0
	for c, in := range index {
		if in {
			out.SetCol(j, mat64.Col(col, c, X))
			j++
		}
	}

	i.support = index
	i.logger.Debug("roi transform", zap.String("mask", i.mask), zap.Int("features", cols), zap.Int("kept", kept))

	return out, nil
}

// Support returns the feature support of the last Transform
func (i *Indexer) Support() []bool {
	return i.support
}
