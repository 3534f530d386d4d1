package model

import (
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type linear struct {
	W [][]float64 `json:"coef"`
	C float64     `json:"C"`
}

func (l *linear) Coef() *mat64.Dense {
	rows, cols := len(l.W), len(l.W[0])
	m := mat64.NewDense(rows, cols, nil)
	for i := range l.W {
		m.SetRow(i, l.W[i])
	}
	return m
}

type selector struct {
	Mask []bool    `json:"mask"`
	S    []float64 `json:"scores"`
}

func (s *selector) Support() []bool   { return s.Mask }
func (s *selector) Scores() []float64 { return s.S }

type bagging struct {
	Est []*linear
}

func (b *bagging) Members() []CoefProvider {
	members := make([]CoefProvider, len(b.Est))
	for i, e := range b.Est {
		members[i] = e
	}
	return members
}

type scaler struct{}

func TestParseScoring(t *testing.T) {
	for _, s := range []string{"", "coef", "coef_abs", "ufs", "forward"} {
		_, err := ParseScoring(s)
		assert.NoError(t, err, s)
	}

	_, err := ParseScoring("weights")
	assert.ErrorIs(t, err, ErrScoring)

	assert.True(t, ScoringMode("coef_abs").Direct())
	assert.True(t, ScoringUFS.Direct())
	assert.False(t, ScoringForward.Direct())
	assert.True(t, ScoringForward.Forward())
}

func TestExtractValues(t *testing.T) {
	w, idx, err := Extract(FromVector([]float64{1, 2, 3}), ScoringCoef, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, idx)
	r, c := w.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, 2.0, w.At(1, 0))

	w, idx, err = Extract(FromVector([]float64{5, 6}), ScoringCoef, 4, []int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, idx)
	assert.Equal(t, 6.0, w.At(1, 0))

	_, _, err = Extract(FromVector([]float64{5, 6}), ScoringCoef, 4, []int{3})
	assert.ErrorIs(t, err, ErrShape)

	_, _, err = Extract(FromVector([]float64{5, 6}), ScoringCoef, 4, []int{3, 4})
	assert.ErrorIs(t, err, ErrShape)
}

func TestExtractPipeline(t *testing.T) {
	pipe := FromPipeline(
		Step{Name: "scaler", Estimator: &scaler{}},
		Step{Name: "anova", Estimator: &selector{Mask: []bool{true, false, true, false}, S: []float64{9, 1, 8, 2}}},
		Step{Name: "svm", Estimator: &linear{W: [][]float64{{0.5, -0.5}}}},
	)
	assert.Equal(t, KindPipeline, pipe.Kind())

	w, idx, err := Extract(pipe, ScoringForward, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, idx)
	assert.Equal(t, -0.5, w.At(1, 0))

	scores, idx, err := Extract(pipe, ScoringUFS, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, idx)
	assert.Equal(t, 8.0, scores.At(2, 0))

	// explicit index wins over the support
	_, idx, err = Extract(pipe, ScoringCoef, 4, []int{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, idx)
}

func TestExtractAmbiguity(t *testing.T) {
	two := FromPipeline(
		Step{Name: "a", Estimator: &linear{W: [][]float64{{1, 2}}}},
		Step{Name: "b", Estimator: &linear{W: [][]float64{{3, 4}}}},
	)
	_, _, err := Extract(two, ScoringCoef, 2, nil)
	assert.ErrorIs(t, err, ErrAmbiguousAttribute)

	none := FromPipeline(Step{Name: "scaler", Estimator: &scaler{}})
	_, _, err = Extract(none, ScoringCoef, 2, nil)
	assert.ErrorIs(t, err, ErrNoAttribute)

	// values need an index and two steps could provide it
	twoSupports := FromPipeline(
		Step{Name: "s1", Estimator: &selector{Mask: []bool{true, true, false}}},
		Step{Name: "s2", Estimator: &selector{Mask: []bool{true, false, true}}},
		Step{Name: "svm", Estimator: &linear{W: [][]float64{{1, 2}}}},
	)
	_, _, err = Extract(twoSupports, ScoringCoef, 3, nil)
	assert.ErrorIs(t, err, ErrAmbiguousAttribute)

	noSupport := FromPipeline(Step{Name: "svm", Estimator: &linear{W: [][]float64{{1, 2}}}})
	_, _, err = Extract(noSupport, ScoringCoef, 3, nil)
	assert.ErrorIs(t, err, ErrNoAttribute)
}

func TestExtractEnsembleAndGridSearch(t *testing.T) {
	ens := FromPipeline(Step{Name: "bag", Estimator: &bagging{Est: []*linear{
		{W: [][]float64{{1, 3}}},
		{W: [][]float64{{3, 5}}},
	}}})

	w, _, err := Extract(ens, ScoringCoef, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2.0, w.At(0, 0))
	assert.Equal(t, 4.0, w.At(1, 0))

	gs := FromGridSearch(FromEstimator("svm", &linear{W: [][]float64{{7, 8}}}))
	assert.Equal(t, KindGridSearch, gs.Kind())
	w, _, err = Extract(gs, ScoringCoef, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 8.0, w.At(1, 0))
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()

	pipe := FromPipeline(
		Step{Name: "anova", Estimator: &selector{Mask: []bool{true, false}, S: []float64{1, 2}}},
		Step{Name: "svm", Estimator: &linear{W: [][]float64{{0.25, 0.75}}, C: 10}},
	)

	paths, err := Save(dir, pipe)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "anova.json.gz"),
		filepath.Join(dir, "svm.json.gz"),
	}, paths)

	var svm linear
	require.NoError(t, Load(paths[1], &svm))
	assert.Equal(t, [][]float64{{0.25, 0.75}}, svm.W)
	assert.Equal(t, 10.0, svm.C)

	params, err := LoadParams(paths[1], "C")
	require.NoError(t, err)
	var c float64
	require.NoError(t, json.Unmarshal(params["C"], &c))
	assert.Equal(t, 10.0, c)

	_, err = LoadParams(paths[1], "gamma")
	assert.ErrorIs(t, err, ErrNoAttribute)

	paths, err = Save(dir, FromVector([]float64{1, 2}))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "values.json.gz")}, paths)
}
