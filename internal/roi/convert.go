package roi

import (
	"fmt"
	"os/exec"
	"path/filepath"
)

// Converter maps a mask into another coordinate space, writing the result into destDir
type Converter interface {
	Convert(src, regDir, destDir string) ([]string, error)
}

// ConverterFunc adapts a function to a Converter
type ConverterFunc func(src, regDir, destDir string) ([]string, error)

// Convert calls f
func (f ConverterFunc) Convert(src, regDir, destDir string) ([]string, error) {
	return f(src, regDir, destDir)
}

// FlirtConverter resamples standard-space masks into functional space with FSL flirt,
// using the registration of a first-level FEAT directory.
type FlirtConverter struct {
	// Binary defaults to "flirt" on PATH
	Binary string
	// Interp defaults to trilinear
	Interp string
}

// Convert runs flirt -applyxfm with reg/standard2example_func.mat
func (c FlirtConverter) Convert(src, regDir, destDir string) ([]string, error) {
	bin := c.Binary
	if bin == "" {
		bin = "flirt"
	}
	interp := c.Interp
	if interp == "" {
		interp = "trilinear"
	}

	out := filepath.Join(destDir, filepath.Base(src))

	cmd := exec.Command(bin,
		"-in", src,
		"-ref", filepath.Join(regDir, "example_func.nii.gz"),
		"-applyxfm",
		"-init", filepath.Join(regDir, "standard2example_func.mat"),
		"-interp", interp,
		"-out", out,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("flirt %s: %w: %s", src, err, output)
	}

	return []string{out}, nil
}
