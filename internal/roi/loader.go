package roi

import (
	"fmt"
	"os"

	"github.com/KyungWonPark/nifti"
)

// MaskLoader reads a volume as a flat C-ordered slice (x*Y*Z + y*Z + z)
type MaskLoader interface {
	Load(path string, shape [3]int) ([]float64, error)
}

// MaskLoaderFunc adapts a function to a MaskLoader
type MaskLoaderFunc func(path string, shape [3]int) ([]float64, error)

// Load calls f
func (f MaskLoaderFunc) Load(path string, shape [3]int) ([]float64, error) {
	return f(path, shape)
}

// NiftiLoader reads masks with the nifti package. For 4-D probabilistic
// volumes the first volume is used.
type NiftiLoader struct{}

// Load reads the volume at path, which must have the grid shape
func (NiftiLoader) Load(path string, shape [3]int) (vol []float64, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	// the nifti package panics on unreadable files
	defer func() {
		if r := recover(); r != nil {
			vol = nil
			err = fmt.Errorf("mask %s: cannot sample shape %v: %v", path, shape, r)
		}
	}()

	var img nifti.Nifti1Image
	img.LoadImage(path, true)

	dims := img.GetDims()
	if dims[0] != shape[0] || dims[1] != shape[1] || dims[2] != shape[2] {
		return nil, fmt.Errorf("mask %s is %dx%dx%d, pattern is %v: %w", path, dims[0], dims[1], dims[2], shape, ErrShape)
	}

	vol = make([]float64, shape[0]*shape[1]*shape[2])
	for x := 0; x < shape[0]; x++ {
		for y := 0; y < shape[1]; y++ {
			for z := 0; z < shape[2]; z++ {
				vol[x*shape[1]*shape[2]+y*shape[2]+z] = float64(img.GetAt(uint32(x), uint32(y), uint32(z), 0))
			}
		}
	}

	return vol, nil
}
