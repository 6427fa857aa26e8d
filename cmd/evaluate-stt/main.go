package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/Harsh-BH/intervue/internal/app"
	"github.com/Harsh-BH/intervue/internal/config"
	"github.com/Harsh-BH/intervue/internal/evaluation"
	"github.com/Harsh-BH/intervue/internal/media"
)

func main() {
	datasetDir := flag.StringP("dataset-dir", "d", "", "directory of <sample>.wav|.mp3|.m4a files with matching <sample>.txt transcripts")
	limit := flag.IntP("limit", "n", 0, "evaluate only the first N samples (0 = all)")
	model := flag.String("model", "", "override STT_MODEL")
	xlsxPath := flag.String("xlsx", "", "also write the report to this .xlsx file")
	threshold := flag.Float64("threshold", evaluation.DefaultThreshold, "minimum overall accuracy")
	flag.Parse()

	if *datasetDir == "" {
		fmt.Fprintln(os.Stderr, "--dataset-dir is required")
		flag.Usage()
		os.Exit(2)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if *model != "" {
		cfg.STT.Model = *model
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	samples, err := evaluation.LoadDataset(*datasetDir, *limit)
	if err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err))
	}
	logger.Info("Dataset loaded", zap.String("dir", *datasetDir), zap.Int("samples", len(samples)))

	workDir, err := os.MkdirTemp("", "stt_eval_*")
	if err != nil {
		logger.Fatal("Failed to create work dir", zap.Error(err))
	}
	defer os.RemoveAll(workDir)

	ev := evaluation.NewEvaluator(
		media.NewFFmpegExtractor(cfg.Media.FFmpegPath, workDir, cfg.Media.ExtractTimeout, logger),
		app.NewCleaner(cfg, logger),
		app.NewTranscriber(cfg, logger),
		logger,
	)
	report := ev.Run(ctx, *datasetDir, samples)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(report); err != nil {
		logger.Fatal("Failed to write report", zap.Error(err))
	}

	if *xlsxPath != "" {
		if err := evaluation.WriteXLSX(report, *xlsxPath); err != nil {
			logger.Fatal("Failed to export workbook", zap.Error(err))
		}
		logger.Info("Workbook written", zap.String("path", *xlsxPath))
	}

	if !report.Passed(*threshold) {
		fmt.Fprintf(os.Stderr,
			"Accuracy threshold of %.2f not met. Current accuracy: %.3f. Improve dataset quality or adjust the model configuration.\n",
			*threshold, report.OverallAccuracy)
		os.RemoveAll(workDir)
		logger.Sync()
		os.Exit(1)
	}
}
