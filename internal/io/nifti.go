package io

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/KyungWonPark/nifti"
	"github.com/gonum/matrix/mat64"
)

const (
	niftiHeaderSize = 348
	niftiVoxOffset  = 352
	niftiFloat32    = 16
	niftiAligned    = 2
	niftiUnitsMMSec = 2 | 8
)

// NewNiftiHeader returns a float32 single-file header for a 3-D volume with the given affine
func NewNiftiHeader(shape [3]int, affine *mat64.Dense) (nifti.Nifti1Header, error) {
	var hdr nifti.Nifti1Header

	if affine == nil {
		return hdr, fmt.Errorf("[NewNiftiHeader] missing affine")
	}
	if r, c := affine.Dims(); r != 4 || c != 4 {
		return hdr, fmt.Errorf("[NewNiftiHeader] affine must be 4 by 4, got %d by %d", r, c)
	}

	hdr.SizeofHdr = niftiHeaderSize
	hdr.Regular = 'r'
	hdr.Dim[0] = 3
	for i := 0; i < 3; i++ {
		if shape[i] < 1 || shape[i] > math.MaxInt16 {
			return hdr, fmt.Errorf("[NewNiftiHeader] invalid dimension %d: %d", i, shape[i])
		}
		hdr.Dim[i+1] = int16(shape[i])
	}
	for i := 4; i < 8; i++ {
		hdr.Dim[i] = 1
	}

	hdr.Datatype = niftiFloat32
	hdr.Bitpix = 32
	hdr.Pixdim = [8]float32{1, 1, 1, 1, 1, 1, 1, 1}
	for j := 0; j < 3; j++ {
		// voxel size is the norm of the affine column
		var sq float64
		for i := 0; i < 3; i++ {
			sq += affine.At(i, j) * affine.At(i, j)
		}
		hdr.Pixdim[j+1] = float32(math.Sqrt(sq))
	}
	hdr.VoxOffset = niftiVoxOffset
	hdr.SclSlope = 1
	hdr.XyztUnits = niftiUnitsMMSec
	hdr.SformCode = niftiAligned

	for j := 0; j < 4; j++ {
		hdr.SrowX[j] = float32(affine.At(0, j))
		hdr.SrowY[j] = float32(affine.At(1, j))
		hdr.SrowZ[j] = float32(affine.At(2, j))
	}

	copy(hdr.Magic[:], "n+1\x00")

	return hdr, nil
}

// VolumeToNifti writes a C-ordered (x*Y*Z + y*Z + z) volume as a gzip compressed
// NIfTI-1 file. path must end in .nii.gz.
func VolumeToNifti(path string, volume []float64, shape [3]int, affine *mat64.Dense) (err error) {
	if !strings.HasSuffix(path, ".gz") {
		return fmt.Errorf("[VolumeToNifti] %s: images are gzip compressed, path must end in .gz", path)
	}
	if len(volume) != shape[0]*shape[1]*shape[2] {
		return fmt.Errorf("[VolumeToNifti] volume has %d elements, shape %v needs %d", len(volume), shape, shape[0]*shape[1]*shape[2])
	}

	hdr, err := NewNiftiHeader(shape, affine)
	if err != nil {
		return err
	}

	// the nifti package panics when it cannot create the file
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("[VolumeToNifti] Failed to write file: %s: %v", path, r)
		}
	}()

	img := nifti.NewImg(shape[0], shape[1], shape[2], 1)
	img.SetNewHeader(hdr)

	for x := 0; x < shape[0]; x++ {
		for y := 0; y < shape[1]; y++ {
			for z := 0; z < shape[2]; z++ {
				img.SetAt(uint32(x), uint32(y), uint32(z), 0, float32(volume[x*shape[1]*shape[2]+y*shape[2]+z]))
			}
		}
	}

	// Save appends .gz
	img.Save(strings.TrimSuffix(path, ".gz"))

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("[VolumeToNifti] Failed to write file: %w", err)
	}

	return nil
}
