package model

import (
	"fmt"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// Extract pulls per-feature values for mode out of f.
//
// The returned matrix W is features x outputs. idx maps its rows to columns of the
// full feature space: when idx is nil and W does not cover all nFeatures, the
// single step exposing a feature support is used to build it.
func Extract(f Fitted, mode ScoringMode, nFeatures int, idx []int) (*mat64.Dense, []int, error) {
	var coef *mat64.Dense

	switch f.kind {
	case KindValues:
		if f.values == nil {
			return nil, nil, fmt.Errorf("no values given: %w", ErrShape)
		}
		coef = f.values
	case KindEstimator, KindPipeline:
		var err error
		if coef, err = probeValues(f.steps, mode); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("cannot extract values from %s", f.Kind())
	}

	// coef layout is outputs x features
	_, k := coef.Dims()

	if idx == nil {
		if k == nFeatures {
			idx = make([]int, nFeatures)
			for i := range idx {
				idx[i] = i
			}
		} else {
			support, err := probeSupport(f.steps)
			if err != nil {
				return nil, nil, err
			}
			idx = SupportToIndex(support)
		}
	}

	if len(idx) != k {
		return nil, nil, fmt.Errorf("%d values but index maps %d features: %w", k, len(idx), ErrShape)
	}
	for _, i := range idx {
		if i < 0 || i >= nFeatures {
			return nil, nil, fmt.Errorf("index %d outside %d features: %w", i, nFeatures, ErrShape)
		}
	}

	w := mat64.DenseCopyOf(coef.T())
	return w, idx, nil
}

// SupportToIndex converts a boolean feature support into the positions it keeps
func SupportToIndex(support []bool) []int {
	idx := make([]int, 0, len(support))
	for i, s := range support {
		if s {
			idx = append(idx, i)
		}
	}

	return idx
}

func probeValues(steps []Step, mode ScoringMode) (*mat64.Dense, error) {
	attr := mode.attribute()

	var found []*mat64.Dense
	var ensembles []EnsembleProvider

	for _, step := range steps {
		switch attr {
		case "coef_":
			if cp, ok := step.Estimator.(CoefProvider); ok {
				found = append(found, cp.Coef())
			}
			if ep, ok := step.Estimator.(EnsembleProvider); ok {
				ensembles = append(ensembles, ep)
			}
		default:
			if sp, ok := step.Estimator.(ScoreProvider); ok {
				scores := sp.Scores()
				found = append(found, mat64.NewDense(1, len(scores), append([]float64(nil), scores...)))
			}
		}
	}

	switch {
	case len(found) == 1:
		return found[0], nil
	case len(found) == 0 && len(ensembles) == 1:
		return averageMembers(ensembles[0])
	case len(found) == 0:
		return nil, fmt.Errorf("found no %s attribute anywhere in the pipeline: %w", attr, ErrNoAttribute)
	}

	return nil, fmt.Errorf("found more than one %s attribute in the pipeline: %w", attr, ErrAmbiguousAttribute)
}

func averageMembers(ensemble EnsembleProvider) (*mat64.Dense, error) {
	members := ensemble.Members()
	if len(members) == 0 {
		return nil, fmt.Errorf("ensemble has no members: %w", ErrNoAttribute)
	}

	rows, cols := members[0].Coef().Dims()
	sum := mat64.NewDense(rows, cols, nil)

	for _, member := range members {
		coef := member.Coef()
		if r, c := coef.Dims(); r != rows || c != cols {
			return nil, fmt.Errorf("ensemble members are %d by %d and %d by %d: %w", rows, cols, r, c, ErrShape)
		}
		for i := 0; i < rows; i++ {
			floats.Add(sum.RawRowView(i), coef.RawRowView(i))
		}
	}

	for i := 0; i < rows; i++ {
		floats.Scale(1/float64(len(members)), sum.RawRowView(i))
	}

	return sum, nil
}

func probeSupport(steps []Step) ([]bool, error) {
	var found [][]bool

	for _, step := range steps {
		if sp, ok := step.Estimator.(SupportProvider); ok {
			found = append(found, sp.Support())
		}
	}

	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return nil, fmt.Errorf("found no get_support method in the pipeline: %w", ErrNoAttribute)
	}

	return nil, fmt.Errorf("found more than one get_support method in the pipeline: %w", ErrAmbiguousAttribute)
}
