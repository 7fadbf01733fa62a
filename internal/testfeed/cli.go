package testfeed

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/courtsight/courtsight/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the detection feed tool.
func ShowHelp() {
	os.Stdout.WriteString(`CourtSight Detection Feed Tool
==============================

A tool for exercising the CourtSight analysis pipeline end to end with
synthetic detection bundles.

Usage:
  go run cmd/test-detections/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -analyses int
        Number of analyses to generate and submit (default 3)
  -duration float
        Video duration per analysis in seconds (default 120)
  -rate float
        Detection frame rate (default 2)
  -width float
        Frame width in pixels (default 1280)
  -top int
        Number of top highlights to fetch per analysis (default 10)
  -timeout duration
        HTTP request timeout (default 30s)
  -wait duration
        How long to wait for each analysis to finish (default 2m)
  -output string
        Output file for generated bundles (default: generated_bundles_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-detections/main.go

  # Test with a longer game and more analyses
  go run cmd/test-detections/main.go -analyses 10 -duration 600

  # Test against a different endpoint with verbose output
  go run cmd/test-detections/main.go -url http://localhost:9080 -verbose
`)
}
