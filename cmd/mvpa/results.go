package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KyungWonPark/mvpa/internal/io"
	"github.com/KyungWonPark/mvpa/internal/model"
	"github.com/KyungWonPark/mvpa/internal/mvp"
	"github.com/KyungWonPark/mvpa/internal/results"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	resMvp     string
	resFolds   string
	resType    string
	resScoring string
	resOut     string
	resTStat   bool
)

// resultsCmd aggregates per-fold predictions
var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Aggregate cross-validation folds into scores and voxel maps",
	Long: `Reads fold k from --folds, for k = 0, 1, ... until test_idx_<k>.npy is missing:

  test_idx_<k>.npy  indices of the test samples
  y_pred_<k>.npy    predictions for them
  coef_<k>.npy      optional model weights, outputs x features
  idx_<k>.npy       optional features the weights map to

and writes one image per feature set, results.tsv, results.xlsx and manifest.yaml to --out.`,
	Example: `  mvpa results --mvp sub-01/amygdala --folds sub-01/cv --type classification --scoring forward`,
	RunE:    runResults,
}

func init() {
	resultsCmd.Flags().StringVar(&resMvp, "mvp", "", "Pattern directory (default: data_dir)")
	resultsCmd.Flags().StringVar(&resFolds, "folds", "", "Directory with the per-fold arrays")
	resultsCmd.Flags().StringVar(&resType, "type", "classification", "Analysis type: classification or regression")
	resultsCmd.Flags().StringVar(&resScoring, "scoring", "", "Feature scoring: coef, coef_*, ufs or forward (default: feature_scoring)")
	resultsCmd.Flags().StringVar(&resOut, "out", "", "Output directory (default: result_dir)")
	resultsCmd.Flags().BoolVar(&resTStat, "tstat", true, "Write voxel t-statistics instead of means")
	resultsCmd.MarkFlagRequired("folds")
}

type fold struct {
	testIdx []int
	yPred   []float64
	fitted  *model.Fitted
	idx     []int
}

func foldPath(dir, name string, k int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d.npy", name, k))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readFolds(dir string) ([]fold, error) {
	var folds []fold

	for k := 0; exists(foldPath(dir, "test_idx", k)); k++ {
		var f fold
		var err error

		if f.testIdx, err = io.NpytoIntSlice(foldPath(dir, "test_idx", k)); err != nil {
			return nil, err
		}
		if f.yPred, err = io.NpytoF64Slice(foldPath(dir, "y_pred", k)); err != nil {
			return nil, err
		}

		if p := foldPath(dir, "coef", k); exists(p) {
			coef, err := io.NpytoMat64(p)
			if err != nil {
				return nil, err
			}
			fitted := model.FromValues(coef)
			f.fitted = &fitted
		}
		if p := foldPath(dir, "idx", k); exists(p) {
			if f.idx, err = io.NpytoIntSlice(p); err != nil {
				return nil, err
			}
		}

		folds = append(folds, f)
	}

	if len(folds) == 0 {
		return nil, fmt.Errorf("no folds in %s", dir)
	}

	return folds, nil
}

func runResults(cmd *cobra.Command, args []string) error {
	scoring, err := model.ParseScoring(orDefault(resScoring, cfg.Scoring))
	if err != nil {
		return err
	}

	tstat := cfg.TStat
	if cmd.Flags().Changed("tstat") {
		tstat = resTStat
	}

	m, err := mvp.Load(orDefault(resMvp, cfg.DataDir))
	if err != nil {
		return fmt.Errorf("load pattern: %w", err)
	}

	folds, err := readFolds(resFolds)
	if err != nil {
		return err
	}

	opts := results.Options{
		NIter:          len(folds),
		OutPath:        orDefault(resOut, cfg.ResultDir),
		FeatureScoring: scoring,
		Verbose:        cfg.Verbose,
		Logger:         logger,
		Workers:        cfg.Workers,
	}

	var agg results.Aggregator
	switch resType {
	case "classification":
		agg, err = results.NewClassification(m, opts)
	case "regression":
		agg, err = results.NewRegression(m, opts)
	default:
		return fmt.Errorf("unknown analysis type %q", resType)
	}
	if err != nil {
		return err
	}

	for k, f := range folds {
		if err := agg.Update(f.testIdx, f.yPred, f.fitted, f.idx); err != nil {
			return fmt.Errorf("fold %d: %w", k, err)
		}
	}

	if err := agg.Write(tstat); err != nil {
		return err
	}

	logger.Info("wrote results", zap.String("out", opts.OutPath), zap.Int("folds", agg.Iter()))
	return nil
}
