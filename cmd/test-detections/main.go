package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/courtsight/courtsight/internal/testfeed"
)

// Default configuration constants.
const (
	defaultAnalyses    = 3
	defaultDuration    = 120.0
	defaultFrameRate   = 2.0
	defaultFrameWidth  = 1280.0
	defaultTop         = 10
	defaultTimeout     = 30 * time.Second
	defaultPollWait    = 2 * time.Minute
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8080", "Base URL of the service")
		analyses   = flag.Int("analyses", defaultAnalyses, "Number of analyses to generate and submit")
		duration   = flag.Float64("duration", defaultDuration, "Video duration per analysis in seconds")
		frameRate  = flag.Float64("rate", defaultFrameRate, "Detection frame rate")
		frameWidth = flag.Float64("width", defaultFrameWidth, "Frame width in pixels")
		top        = flag.Int("top", defaultTop, "Number of top highlights to fetch per analysis")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		pollWait   = flag.Duration("wait", defaultPollWait, "How long to wait for each analysis to finish")
		outputFile = flag.String("output", "", "Output file for generated bundles (default: generated_bundles_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testfeed.ShowHelp()
		return
	}

	// Setup logging
	if err := testfeed.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testfeed.Config{
		BaseURL:    *baseURL,
		Analyses:   *analyses,
		Duration:   *duration,
		FrameRate:  *frameRate,
		FrameWidth: *frameWidth,
		Top:        *top,
		Timeout:    *timeout,
		PollWait:   *pollWait,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Verbose:    *verbose,
	}

	// Run the test
	if err := testfeed.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
