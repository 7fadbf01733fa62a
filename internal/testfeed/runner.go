package testfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/courtsight/courtsight/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete detection feed test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting courtsight detection feed test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("analyses", config.Analyses),
		logger.Float64("duration", config.Duration),
		logger.Float64("frameRate", config.FrameRate),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("top", config.Top),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate detection bundles
	subs, err := generateSubmissions(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("bundle generation failed: %w", err)
	}

	// Step 3: Submit analyses
	if err := submitAnalyses(ctx, config, subs, stats); err != nil {
		return fmt.Errorf("analysis submission failed: %w", err)
	}

	// Step 4: Wait for the pipeline to finish each analysis
	logger.Get().Info(ctx, "waiting for analyses to be processed")
	if err := awaitCompletion(ctx, config, subs, stats); err != nil {
		return fmt.Errorf("analysis completion wait failed: %w", err)
	}

	// Step 5: Fetch and verify timelines and highlights
	if err := verifyResults(ctx, config, subs, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Save bundles to file
	if err := saveBundlesToFile(ctx, config, subs); err != nil {
		logger.Get().Warn(ctx, "failed to save bundles to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveBundlesToFile saves the generated submissions to a JSON file.
func saveBundlesToFile(ctx context.Context, config *Config, subs []Submission) error {
	if len(subs) == 0 {
		return fmt.Errorf("no bundles to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_bundles_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(subs); err != nil {
		return fmt.Errorf("failed to encode bundles: %w", err)
	}

	logger.Get().Info(ctx, "bundles saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, analysesPerSecond float64

	if stats.AnalysesSubmitted > 0 {
		successRate = float64(stats.AnalysesCompleted) / float64(stats.AnalysesSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		analysesPerSecond = float64(stats.AnalysesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("bundlesGenerated", stats.BundlesGenerated),
		logger.Int("analysesSubmitted", stats.AnalysesSubmitted),
		logger.Int("analysesAccepted", stats.AnalysesAccepted),
		logger.Int("analysesDuplicate", stats.AnalysesDuplicate),
		logger.Int("analysesFailed", stats.AnalysesFailed),
		logger.Int("analysesCompleted", stats.AnalysesCompleted),
		logger.Int("eventsRetrieved", stats.EventsRetrieved),
		logger.Int("highlightsRetrieved", stats.HighlightsRetrieved),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("analysesPerSecond", analysesPerSecond))
}
