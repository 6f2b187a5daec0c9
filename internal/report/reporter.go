// Package report renders the comparative outcome of a pipeline run:
// per-representation classifier scores next to both bagged ensembles.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"sigclass/internal/pipeline"
)

// Reporter writes run reports under a fixed output directory.
type Reporter struct {
	result     *pipeline.Result
	outputPath string
}

// NewReporter creates a reporter for one run result.
func NewReporter(result *pipeline.Result, outputPath string) *Reporter {
	return &Reporter{result: result, outputPath: outputPath}
}

// GenerateReport writes the summary and JSON report files.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}
	if err := r.generateJSONReport(); err != nil {
		return err
	}
	return nil
}

func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, fmt.Sprintf("run_%s_summary.txt", r.result.RunID))
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "CLASSIFICATION RUN SUMMARY\n")
	fmt.Fprintf(file, "==========================\n\n")

	fmt.Fprintf(file, "Run: %s\n", r.result.RunID)
	fmt.Fprintf(file, "Time Period: %s to %s\n",
		r.result.StartTime.Format("2006-01-02 15:04:05"),
		r.result.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Duration: %s\n\n", r.result.EndTime.Sub(r.result.StartTime))

	fmt.Fprintf(file, "DATASET\n")
	fmt.Fprintf(file, "-------\n")
	fmt.Fprintf(file, "Samples: %d (train %d / test %d)\n", r.result.Samples, r.result.TrainSize, r.result.TestSize)
	fmt.Fprintf(file, "Frame Length: %d\n", r.result.FrameLen)
	fmt.Fprintf(file, "Classes: %d\n\n", r.result.Classes)

	fmt.Fprintf(file, "SCORES\n")
	fmt.Fprintf(file, "------\n")
	fmt.Fprintf(file, "%-12s %10s %10s %10s\n", "prediction", "bounded", "logloss", "accuracy")
	for _, s := range r.result.Scores {
		fmt.Fprintf(file, "%-12s %10.3f %10.4f %9.1f%%\n", s.Name, s.Bounded, s.LogLoss, s.Accuracy*100)
	}

	if len(r.result.Histories) > 0 {
		fmt.Fprintf(file, "\nTRAINING\n")
		fmt.Fprintf(file, "--------\n")
		for _, h := range r.result.Histories {
			final := 0.0
			if len(h.Loss) > 0 {
				final = h.Loss[len(h.Loss)-1]
			}
			fmt.Fprintf(file, "%-12s epochs=%d final_loss=%.4f\n", h.Representation, len(h.Loss), final)
		}
	}

	log.Info().Str("path", summaryPath).Msg("summary report written")
	return nil
}

func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, fmt.Sprintf("run_%s.json", r.result.RunID))

	data, err := json.MarshalIndent(r.result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("path", jsonPath).Msg("JSON report written")
	return nil
}
