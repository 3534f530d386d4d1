// Package mvp holds the multivoxel pattern container: the samples x voxels
// feature matrix with the spatial metadata needed to map voxels back to volumes.
package mvp

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gonum/matrix/mat64"
)

// Reference coordinate spaces
const (
	SpaceMNI = "mni"
	SpaceEPI = "epi"
)

// ErrShape is returned when the container's pieces disagree in size
var ErrShape = errors.New("mvp: shape mismatch")

// Mvp is a multivoxel pattern with its metadata. It is read-only once built.
type Mvp struct {
	X *mat64.Dense
	Y []float64

	// Per feature set
	DataShape [][3]int
	DataName  []string
	Affine    []*mat64.Dense

	// Per voxel (column of X)
	VoxelIdx     []int
	FeaturesetID []int

	// MaskIndex is the whole-brain mask the columns of X were taken from
	MaskIndex []bool
	RefSpace  string
	Directory string
}

// NSamples returns the number of rows of X
func (m *Mvp) NSamples() int {
	rows, _ := m.X.Dims()
	return rows
}

// NFeatures returns the number of columns of X
func (m *Mvp) NFeatures() int {
	_, cols := m.X.Dims()
	return cols
}

// Classes returns the sorted distinct labels of Y
func (m *Mvp) Classes() []float64 {
	seen := make(map[float64]bool)
	var classes []float64

	for _, y := range m.Y {
		if !seen[y] {
			seen[y] = true
			classes = append(classes, y)
		}
	}

	sort.Float64s(classes)
	return classes
}

// FeatureSets returns the sorted distinct feature-set ids
func (m *Mvp) FeatureSets() []int {
	seen := make(map[int]bool)
	var ids []int

	for _, id := range m.FeaturesetID {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	sort.Ints(ids)
	return ids
}

// Validate checks that every piece of the container lines up
func (m *Mvp) Validate() error {
	if m.X == nil {
		return fmt.Errorf("X is missing: %w", ErrShape)
	}

	rows, cols := m.X.Dims()
	if len(m.Y) != rows {
		return fmt.Errorf("X has %d samples but y has %d labels: %w", rows, len(m.Y), ErrShape)
	}

	if len(m.VoxelIdx) != cols || len(m.FeaturesetID) != cols {
		return fmt.Errorf("X has %d features, voxel_idx %d, featureset_id %d: %w", cols, len(m.VoxelIdx), len(m.FeaturesetID), ErrShape)
	}

	if len(m.DataName) != len(m.DataShape) || len(m.Affine) != len(m.DataShape) {
		return fmt.Errorf("%d data shapes, %d names, %d affines: %w", len(m.DataShape), len(m.DataName), len(m.Affine), ErrShape)
	}

	for i, id := range m.FeaturesetID {
		if id < 0 || id >= len(m.DataShape) {
			return fmt.Errorf("voxel %d belongs to unknown feature set %d: %w", i, id, ErrShape)
		}

		s := m.DataShape[id]
		if m.VoxelIdx[i] < 0 || m.VoxelIdx[i] >= s[0]*s[1]*s[2] {
			return fmt.Errorf("voxel %d index %d outside volume %v: %w", i, m.VoxelIdx[i], s, ErrShape)
		}
	}

	for i, a := range m.Affine {
		if r, c := a.Dims(); r != 4 || c != 4 {
			return fmt.Errorf("affine %d is %d by %d: %w", i, r, c, ErrShape)
		}
	}

	if m.MaskIndex != nil {
		cnt := 0
		for _, in := range m.MaskIndex {
			if in {
				cnt++
			}
		}
		if cnt != cols {
			return fmt.Errorf("mask_index selects %d voxels but X has %d features: %w", cnt, cols, ErrShape)
		}
	}

	return nil
}

// Subset returns a container restricted to the features whose keep flag is set.
// The mask index is narrowed accordingly so that it still selects exactly the kept columns.
func (m *Mvp) Subset(keep []bool) (*Mvp, error) {
	rows, cols := m.X.Dims()
	if len(keep) != cols {
		return nil, fmt.Errorf("keep has %d entries for %d features: %w", len(keep), cols, ErrShape)
	}

	var kept []int
	for j, k := range keep {
		if k {
			kept = append(kept, j)
		}
	}

	x := mat64.NewDense(rows, len(kept), nil)
	col := make([]float64, rows)
	for newJ, j := range kept {
		x.SetCol(newJ, mat64.Col(col, j, m.X))
	}

	sub := &Mvp{
		X:         x,
		Y:         append([]float64(nil), m.Y...),
		DataShape: m.DataShape,
		DataName:  m.DataName,
		Affine:    m.Affine,
		RefSpace:  m.RefSpace,
		Directory: m.Directory,
	}

	for _, j := range kept {
		sub.VoxelIdx = append(sub.VoxelIdx, m.VoxelIdx[j])
		sub.FeaturesetID = append(sub.FeaturesetID, m.FeaturesetID[j])
	}

	if m.MaskIndex != nil {
		sub.MaskIndex = make([]bool, len(m.MaskIndex))
		j := 0
		for i, in := range m.MaskIndex {
			if in {
				sub.MaskIndex[i] = keep[j]
				j++
			}
		}
	}

	return sub, nil
}
