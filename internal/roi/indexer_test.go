package roi

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/KyungWonPark/mvpa/internal/io"
	"github.com/KyungWonPark/mvpa/internal/model"
	"github.com/KyungWonPark/mvpa/internal/mvp"
	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticLoader(vol []float64) MaskLoader {
	return MaskLoaderFunc(func(path string, shape [3]int) ([]float64, error) {
		return vol, nil
	})
}

// newPattern builds a pattern over a 2x2x2 volume whose mask keeps voxels 1, 2, 5, 6
func newPattern() *mvp.Mvp {
	return &mvp.Mvp{
		X: mat64.NewDense(2, 4, []float64{
			1, 2, 3, 4,
			5, 6, 7, 8,
		}),
		Y:            []float64{0, 1},
		DataShape:    [][3]int{{2, 2, 2}},
		DataName:     []string{"cope"},
		VoxelIdx:     []int{1, 2, 5, 6},
		FeaturesetID: []int{0, 0, 0, 0},
		MaskIndex:    []bool{false, true, true, false, false, true, true, false},
		RefSpace:     mvp.SpaceMNI,
		Directory:    "/data/sub-01/run1.feat",
	}
}

func TestTransform(t *testing.T) {
	m := newPattern()

	// probabilistic mask; voxel 2 sits at the threshold and is excluded
	vol := []float64{0.9, 0.8, 0.5, 0.9, 0, 0, 0.7, 0}
	idx, err := New(m, "/atlas/bilateral/roi.nii.gz", 0.5, WithLoader(staticLoader(vol)))
	require.NoError(t, err)

	out, err := idx.Transform(m.X)
	require.NoError(t, err)
	assert.True(t, mat64.Equal(out, mat64.NewDense(2, 2, []float64{1, 4, 5, 8})))
	assert.Equal(t, []bool{true, false, false, true}, idx.Support())

	var _ model.SupportProvider = idx
	assert.Same(t, idx, idx.Fit(m.X, m.Y))
}

func TestTransformEmptyOverlap(t *testing.T) {
	m := newPattern()

	vol := []float64{1, 0, 0, 1, 1, 0, 0, 1}
	idx, err := New(m, "roi.nii", 0, WithLoader(staticLoader(vol)))
	require.NoError(t, err)

	out, err := idx.Transform(m.X)
	require.NoError(t, err)
	rows, cols := out.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 0, cols)
}

func TestTransformMatchesIntersection(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	shape := [3]int{3, 4, 5}
	n := shape[0] * shape[1] * shape[2]

	for trial := 0; trial < 20; trial++ {
		orig := make([]bool, n)
		vol := make([]float64, n)
		var cols int
		for v := 0; v < n; v++ {
			orig[v] = rng.Intn(2) == 1
			vol[v] = rng.Float64()
			if orig[v] {
				cols++
			}
		}

		// column j holds the flat voxel position it came from
		x := mat64.NewDense(1, cols, nil)
		j := 0
		for v := 0; v < n; v++ {
			if orig[v] {
				x.Set(0, j, float64(v))
				j++
			}
		}

		m := &mvp.Mvp{X: x, DataShape: [][3]int{shape}, MaskIndex: orig, RefSpace: mvp.SpaceMNI}
		idx, err := New(m, "roi.nii", 0.5, WithLoader(staticLoader(vol)))
		require.NoError(t, err)

		out, err := idx.Transform(x)
		require.NoError(t, err)

		var want []float64
		for v := 0; v < n; v++ {
			if orig[v] && vol[v] > 0.5 {
				want = append(want, float64(v))
			}
		}

		_, outCols := out.Dims()
		require.Equal(t, len(want), outCols)
		for c := range want {
			assert.Equal(t, want[c], out.At(0, c))
		}
	}
}

func TestTransformShapeErrors(t *testing.T) {
	m := newPattern()

	idx, err := New(m, "roi.nii", 0, WithLoader(staticLoader(make([]float64, 8))))
	require.NoError(t, err)
	_, err = idx.Transform(mat64.NewDense(2, 3, nil))
	assert.ErrorIs(t, err, ErrShape)

	idx, err = New(m, "roi.nii", 0, WithLoader(staticLoader(make([]float64, 5))))
	require.NoError(t, err)
	_, err = idx.Transform(m.X)
	assert.ErrorIs(t, err, ErrShape)

	m.MaskIndex = nil
	_, err = New(m, "roi.nii", 0)
	assert.ErrorIs(t, err, ErrShape)
}

func TestEPIConversion(t *testing.T) {
	root := t.TempDir()
	m := newPattern()
	m.RefSpace = mvp.SpaceEPI
	m.Directory = filepath.Join(root, "sub-01", "run1.feat")
	mask := filepath.Join(root, "atlas", "left", "amygdala.nii.gz")

	calls := 0
	conv := ConverterFunc(func(src, regDir, destDir string) ([]string, error) {
		calls++
		assert.Equal(t, mask, src)
		assert.Equal(t, filepath.Join(m.Directory, "reg"), regDir)
		out := filepath.Join(destDir, filepath.Base(src))
		return []string{out}, os.WriteFile(out, []byte("mask"), 0644)
	})

	idx, err := New(m, mask, 0, WithConverter(conv))
	require.NoError(t, err)

	cacheDir := filepath.Join(root, "sub-01", "epi_masks", "left")
	assert.Equal(t, filepath.Join(cacheDir, "amygdala.nii.gz"), idx.Mask())
	assert.Equal(t, cacheDir, DefaultCacheDir(m, mask))

	// second construction reuses the cached copy
	idx, err = New(m, mask, 0, WithConverter(conv))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, filepath.Join(cacheDir, "amygdala.nii.gz"), idx.Mask())
}

func TestEPIConversionErrorPropagates(t *testing.T) {
	m := newPattern()
	m.RefSpace = mvp.SpaceEPI

	boom := errors.New("flirt: registration failed")
	conv := ConverterFunc(func(src, regDir, destDir string) ([]string, error) {
		return nil, boom
	})

	_, err := New(m, "roi.nii", 0, WithConverter(conv), WithCacheDir(t.TempDir()))
	assert.ErrorIs(t, err, boom)
}

func TestNiftiLoaderMissingFile(t *testing.T) {
	_, err := NiftiLoader{}.Load(filepath.Join(t.TempDir(), "missing.nii"), [3]int{2, 2, 2})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func writeMask(t *testing.T, path string, vol []float64, shape [3]int) {
	t.Helper()
	affine := mat64.NewDense(4, 4, []float64{
		2, 0, 0, -90,
		0, 2, 0, -126,
		0, 0, 2, -72,
		0, 0, 0, 1,
	})
	require.NoError(t, io.VolumeToNifti(path, vol, shape, affine))
}

func TestNiftiLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roi.nii.gz")

	shape := [3]int{2, 3, 4}
	vol := make([]float64, 24)
	for i := range vol {
		vol[i] = float64(i) / 4
	}
	writeMask(t, path, vol, shape)

	got, err := NiftiLoader{}.Load(path, shape)
	require.NoError(t, err)
	assert.Equal(t, vol, got)

	_, err = NiftiLoader{}.Load(path, [3]int{4, 3, 2})
	assert.ErrorIs(t, err, ErrShape)
}

func TestTransformNiftiMask(t *testing.T) {
	dir := t.TempDir()
	m := newPattern()

	// keeps voxels 2 and 6, i.e. the second and fourth feature
	path := filepath.Join(dir, "roi.nii.gz")
	writeMask(t, path, []float64{0, 0, 1, 0, 1, 0, 0.6, 0}, [3]int{2, 2, 2})

	idx, err := New(m, path, 0.5)
	require.NoError(t, err)
	out, err := idx.Transform(m.X)
	require.NoError(t, err)
	assert.True(t, mat64.Equal(out, mat64.NewDense(2, 2, []float64{2, 4, 6, 8})))
	assert.Equal(t, []bool{false, true, false, true}, idx.Support())

	// a mask on another grid must not be sampled
	wrong := filepath.Join(dir, "wrong.nii.gz")
	ones := make([]float64, 64)
	for i := range ones {
		ones[i] = 1
	}
	writeMask(t, wrong, ones, [3]int{4, 4, 4})

	idx, err = New(m, wrong, 0)
	require.NoError(t, err)
	_, err = idx.Transform(m.X)
	assert.ErrorIs(t, err, ErrShape)
	assert.Nil(t, idx.Support())
}
