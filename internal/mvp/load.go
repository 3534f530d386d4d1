package mvp

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KyungWonPark/mvpa/internal/io"
	"github.com/gonum/matrix/mat64"
)

// File names inside a container directory
const (
	HeaderFile       = "mvp.yaml"
	XFile            = "X.npy"
	YFile            = "y.npy"
	VoxelIdxFile     = "voxel_idx.npy"
	FeaturesetIDFile = "featureset_id.npy"
	MaskIndexFile    = "mask_index.npy"
)

type header struct {
	DataShape [][3]int        `yaml:"data_shape"`
	DataName  []string        `yaml:"data_name"`
	Affine    [][4][4]float64 `yaml:"affine"`
	RefSpace  string          `yaml:"ref_space"`
	Directory string          `yaml:"directory"`
}

// Load reads a container directory: npy arrays plus the mvp.yaml header
func Load(dir string) (*Mvp, error) {
	var hdr header
	if err := io.YamltoStruct(filepath.Join(dir, HeaderFile), &hdr); err != nil {
		return nil, err
	}

	m := &Mvp{
		DataShape: hdr.DataShape,
		DataName:  hdr.DataName,
		RefSpace:  hdr.RefSpace,
		Directory: hdr.Directory,
	}
	if m.RefSpace == "" {
		m.RefSpace = SpaceMNI
	}

	for _, a := range hdr.Affine {
		affine := mat64.NewDense(4, 4, nil)
		for i := 0; i < 4; i++ {
			affine.SetRow(i, a[i][:])
		}
		m.Affine = append(m.Affine, affine)
	}

	var err error
	if m.X, err = io.NpytoMat64(filepath.Join(dir, XFile)); err != nil {
		return nil, err
	}
	if m.Y, err = io.NpytoF64Slice(filepath.Join(dir, YFile)); err != nil {
		return nil, err
	}
	if m.VoxelIdx, err = io.NpytoIntSlice(filepath.Join(dir, VoxelIdxFile)); err != nil {
		return nil, err
	}
	if m.FeaturesetID, err = io.NpytoIntSlice(filepath.Join(dir, FeaturesetIDFile)); err != nil {
		return nil, err
	}

	maskPath := filepath.Join(dir, MaskIndexFile)
	if _, statErr := os.Stat(maskPath); statErr == nil {
		if m.MaskIndex, err = io.NpytoBoolSlice(maskPath); err != nil {
			return nil, err
		}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}

	return m, nil
}

// Save writes the container in the layout Load reads
func (m *Mvp) Save(dir string) error {
	if err := m.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	hdr := header{
		DataShape: m.DataShape,
		DataName:  m.DataName,
		RefSpace:  m.RefSpace,
		Directory: m.Directory,
	}
	for _, a := range m.Affine {
		var rows [4][4]float64
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				rows[i][j] = a.At(i, j)
			}
		}
		hdr.Affine = append(hdr.Affine, rows)
	}

	if err := io.StructToYaml(filepath.Join(dir, HeaderFile), &hdr); err != nil {
		return err
	}
	if err := io.Mat64toNpy(filepath.Join(dir, XFile), m.X); err != nil {
		return err
	}
	if err := io.F64SliceToNpy(filepath.Join(dir, YFile), m.Y); err != nil {
		return err
	}
	if err := io.IntSliceToNpy(filepath.Join(dir, VoxelIdxFile), m.VoxelIdx); err != nil {
		return err
	}
	if err := io.IntSliceToNpy(filepath.Join(dir, FeaturesetIDFile), m.FeaturesetID); err != nil {
		return err
	}
	if m.MaskIndex != nil {
		if err := io.BoolSliceToNpy(filepath.Join(dir, MaskIndexFile), m.MaskIndex); err != nil {
			return err
		}
	}

	return nil
}
