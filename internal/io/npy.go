package io

import (
	"fmt"

	"github.com/gonum/matrix/mat64"
	"github.com/kshedden/gonpy"
)

// Mat64toNpy writes mat64 matrix to Python numpy npy binary file
func Mat64toNpy(path string, matrix *mat64.Dense) error {
	rows, cols := matrix.Dims()

	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		data = append(data, matrix.RawRowView(i)[:cols]...)
	}

	return writeNpy(path, []int{rows, cols}, data)
}

// NpytoMat64 reads Python numpy npy binary file as mat64 matrix
func NpytoMat64(path string) (*mat64.Dense, error) {
	shape, data, err := readNpy(path)
	if err != nil {
		return nil, err
	}

	if len(shape) != 2 {
		return nil, fmt.Errorf("[NpytoMat64] %s: expected 2-D array, got shape %v", path, shape)
	}

	return mat64.NewDense(shape[0], shape[1], data), nil
}

// F64SliceToNpy writes a float64 slice as a 1-D npy array
func F64SliceToNpy(path string, slice []float64) error {
	return writeNpy(path, []int{len(slice)}, slice)
}

// NpytoF64Slice reads a 1-D npy array (or any shape, flattened in C order)
func NpytoF64Slice(path string) ([]float64, error) {
	_, data, err := readNpy(path)
	return data, err
}

// NpytoIntSlice reads an npy array holding integral values, stored as
// integers (numpy's default for index arrays) or as floats
func NpytoIntSlice(path string) ([]int, error) {
	data, err := NpytoF64Slice(path)
	if err != nil {
		return nil, err
	}

	ints := make([]int, len(data))
	for i, v := range data {
		if v != float64(int(v)) {
			return nil, fmt.Errorf("[NpytoIntSlice] %s: element %d is not integral: %g", path, i, v)
		}
		ints[i] = int(v)
	}

	return ints, nil
}

// IntSliceToNpy writes an int slice as a 1-D float64 npy array
func IntSliceToNpy(path string, slice []int) error {
	data := make([]float64, len(slice))
	for i, v := range slice {
		data[i] = float64(v)
	}

	return F64SliceToNpy(path, data)
}

// NpytoBoolSlice reads a numpy bool array, or an array of 0/1 values, as a mask
func NpytoBoolSlice(path string) ([]bool, error) {
	data, err := NpytoF64Slice(path)
	if err != nil {
		return nil, err
	}

	mask := make([]bool, len(data))
	for i, v := range data {
		mask[i] = v != 0
	}

	return mask, nil
}

// BoolSliceToNpy writes a mask as a 1-D array of 0/1
func BoolSliceToNpy(path string, mask []bool) error {
	data := make([]float64, len(mask))
	for i, m := range mask {
		if m {
			data[i] = 1
		}
	}

	return F64SliceToNpy(path, data)
}

func writeNpy(path string, shape []int, data []float64) error {
	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return fmt.Errorf("[writeNpy] Failed to open file: %w", err)
	}
	w.Shape = shape
	w.Version = 2

	if err := w.WriteFloat64(data); err != nil {
		return fmt.Errorf("[writeNpy] Failed to write file: %w", err)
	}

	return nil
}

func readNpy(path string) ([]int, []float64, error) {
	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("[readNpy] Failed to open file: %w", err)
	}

	var data []float64
	switch r.Dtype {
	case "f8":
		data, err = r.GetFloat64()
	case "f4":
		var v []float32
		if v, err = r.GetFloat32(); err == nil {
			data = make([]float64, len(v))
			for i := range v {
				data[i] = float64(v[i])
			}
		}
	case "i8":
		var v []int64
		if v, err = r.GetInt64(); err == nil {
			data = make([]float64, len(v))
			for i := range v {
				data[i] = float64(v[i])
			}
		}
	case "i4":
		var v []int32
		if v, err = r.GetInt32(); err == nil {
			data = make([]float64, len(v))
			for i := range v {
				data[i] = float64(v[i])
			}
		}
	case "b1", "u1":
		// numpy bools are stored one byte each
		r.Dtype = "u1"
		var v []uint8
		if v, err = r.GetUint8(); err == nil {
			data = make([]float64, len(v))
			for i := range v {
				data[i] = float64(v[i])
			}
		}
	default:
		return nil, nil, fmt.Errorf("[readNpy] %s: unsupported dtype %q", path, r.Dtype)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("[readNpy] Failed to read file %s: %w", path, err)
	}

	return r.Shape, data, nil
}
