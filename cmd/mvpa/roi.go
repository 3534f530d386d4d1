package main

import (
	"fmt"

	"github.com/KyungWonPark/mvpa/internal/mvp"
	"github.com/KyungWonPark/mvpa/internal/roi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	roiMvp       string
	roiMask      string
	roiThreshold float64
	roiCacheDir  string
	roiOut       string
)

// roiCmd restricts a pattern to a region
var roiCmd = &cobra.Command{
	Use:   "roi",
	Short: "Restrict a pattern to the voxels of a region mask",
	Long: `Loads the pattern in --mvp, keeps the features inside --mask (voxels above
--threshold) and writes the reduced pattern to --out.

Patterns in functional space get the mask registered with FSL flirt first;
the converted mask is cached and reused.`,
	Example: `  mvpa roi --mvp sub-01/mvp --mask atlas/bilateral/amygdala.nii.gz --threshold 0.25 --out sub-01/amygdala`,
	RunE:    runROI,
}

func init() {
	roiCmd.Flags().StringVar(&roiMvp, "mvp", "", "Pattern directory (default: data_dir)")
	roiCmd.Flags().StringVar(&roiMask, "mask", "", "Region mask (NIfTI)")
	roiCmd.Flags().Float64Var(&roiThreshold, "threshold", 0, "Keep mask voxels above this value")
	roiCmd.Flags().StringVar(&roiCacheDir, "cache-dir", "", "Directory for masks converted to functional space")
	roiCmd.Flags().StringVar(&roiOut, "out", "", "Output pattern directory (default: result_dir)")
	roiCmd.MarkFlagRequired("mask")
}

func runROI(cmd *cobra.Command, args []string) error {
	dir := orDefault(roiMvp, cfg.DataDir)
	out := orDefault(roiOut, cfg.ResultDir)

	threshold := cfg.Threshold
	if cmd.Flags().Changed("threshold") {
		threshold = roiThreshold
	}

	m, err := mvp.Load(dir)
	if err != nil {
		return fmt.Errorf("load pattern: %w", err)
	}

	opts := []roi.Option{roi.WithLogger(logger)}
	if cacheDir := orDefault(roiCacheDir, cfg.CacheDir); cacheDir != "" {
		opts = append(opts, roi.WithCacheDir(cacheDir))
	}

	indexer, err := roi.New(m, roiMask, threshold, opts...)
	if err != nil {
		return err
	}

	X, err := indexer.Fit(m.X, m.Y).Transform(m.X)
	if err != nil {
		return err
	}

	reduced, err := m.Subset(indexer.Support())
	if err != nil {
		return err
	}
	reduced.X = X

	if err := reduced.Save(out); err != nil {
		return fmt.Errorf("save pattern: %w", err)
	}

	logger.Info("restricted pattern",
		zap.String("mask", indexer.Mask()),
		zap.Int("features", m.NFeatures()),
		zap.Int("kept", reduced.NFeatures()),
		zap.String("out", out))

	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
