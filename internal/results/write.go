package results

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/KyungWonPark/mvpa/internal/io"
	"github.com/gonum/matrix/mat64"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Output file names
const (
	TSVFile      = "results.tsv"
	XlsxFile     = "results.xlsx"
	ManifestFile = "manifest.yaml"
	ImageExt     = ".nii.gz"
)

// Manifest describes one written result set
type Manifest struct {
	RunID    string         `yaml:"run_id"`
	Created  time.Time      `yaml:"created"`
	Analysis string         `yaml:"analysis"`
	Folds    int            `yaml:"folds"`
	Scoring  string         `yaml:"feature_scoring"`
	TStat    bool           `yaml:"tstat"`
	Images   []string       `yaml:"images"`
	Positive map[string]int `yaml:"positive_voxels"`
}

// mapValues reduces the recorded voxel scores to one value per feature:
// their t-statistic over folds or their mean
func (r *Results) mapValues(toTStat bool) []float64 {
	values := r.VoxelValues()

	if toTStat {
		return r.pl.TStat(values)
	}
	return r.pl.Avg(values)
}

// volumes scatters values back into one zero-filled volume per feature set
func (r *Results) volumes(values []float64) (map[int][]float64, error) {
	m := r.mvp
	vols := make(map[int][]float64)

	for _, id := range m.FeatureSets() {
		if id >= len(m.DataShape) {
			return nil, fmt.Errorf("feature set %d has no data shape: %w", id, ErrShape)
		}
		s := m.DataShape[id]
		vols[id] = make([]float64, s[0]*s[1]*s[2])
	}

	for j, v := range values {
		vol := vols[m.FeaturesetID[j]]
		if m.VoxelIdx[j] < 0 || m.VoxelIdx[j] >= len(vol) {
			return nil, fmt.Errorf("voxel index %d outside volume: %w", m.VoxelIdx[j], ErrShape)
		}
		vol[m.VoxelIdx[j]] = v
	}

	return vols, nil
}

// write saves the voxel maps, the per-fold tables and a manifest
func (r *Results) write(summary *Summary, toTStat bool) error {
	m := r.mvp
	if len(m.VoxelIdx) != m.NFeatures() || len(m.FeaturesetID) != m.NFeatures() {
		return fmt.Errorf("pattern has %d features but %d voxel indices: %w", m.NFeatures(), len(m.VoxelIdx), ErrShape)
	}

	values := r.mapValues(toTStat)
	vols, err := r.volumes(values)
	if err != nil {
		return err
	}

	manifest := Manifest{
		RunID:    uuid.New().String(),
		Created:  time.Now().UTC(),
		Analysis: r.analysis,
		Folds:    r.iter,
		Scoring:  string(r.scoring),
		TStat:    toTStat,
		Positive: make(map[string]int),
	}

	for _, id := range m.FeatureSets() {
		if id >= len(m.DataName) || id >= len(m.Affine) {
			return fmt.Errorf("feature set %d has no name or affine: %w", id, ErrShape)
		}

		name := m.DataName[id] + ImageExt
		if err := io.VolumeToNifti(filepath.Join(r.outPath, name), vols[id], m.DataShape[id], m.Affine[id]); err != nil {
			return err
		}

		var positive int
		for j, v := range values {
			if m.FeaturesetID[j] == id && v > 0 {
				positive++
			}
		}

		r.logger.Info("non-zero voxels", zap.String("data", m.DataName[id]), zap.Int("count", positive))
		manifest.Images = append(manifest.Images, name)
		manifest.Positive[m.DataName[id]] = positive
	}

	if err := io.TableToTSV(filepath.Join(r.outPath, TSVFile), summary.Folds); err != nil {
		return err
	}

	wb := &io.Workbook{Folds: summary.Folds, Summary: summary.Stats}
	if summary.Confusion != nil {
		wb.Matrices = map[string]*mat64.Dense{"Confusion": summary.Confusion}
	}
	if err := io.WorkbookToXlsx(filepath.Join(r.outPath, XlsxFile), wb); err != nil {
		return err
	}

	return io.StructToYaml(filepath.Join(r.outPath, ManifestFile), &manifest)
}
