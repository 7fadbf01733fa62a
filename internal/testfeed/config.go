package testfeed

import (
	"time"

	"github.com/courtsight/courtsight/internal/domain/model"
)

// Config holds configuration for the detection feed test
type Config struct {
	BaseURL    string        // Base URL of the service
	Analyses   int           // Number of analyses to generate and submit
	Duration   float64       // Video duration per analysis in seconds
	FrameRate  float64       // Sampled detection frame rate
	FrameWidth float64       // Frame width in pixels
	Top        int           // Number of top highlights to fetch
	Timeout    time.Duration // HTTP request timeout
	PollWait   time.Duration // How long to wait for an analysis to finish
	OutputFile string        // Output file for generated bundles
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// Submission pairs an analysis id with its generated bundle
type Submission struct {
	AnalysisID string                `json:"analysis_id"`
	Detections model.DetectionBundle `json:"detections"`
}

// AckResponse represents the response from analysis submission
type AckResponse struct {
	AnalysisID string `json:"analysis_id"`
	Status     string `json:"status"`
	Duplicate  bool   `json:"duplicate"`
}

// StatusResponse represents the analysis status payload
type StatusResponse struct {
	AnalysisID string `json:"analysis_id"`
	State      string `json:"state"`
	EventCount int    `json:"event_count"`
	Error      string `json:"error,omitempty"`
}

// Stats holds test statistics
type Stats struct {
	BundlesGenerated    int
	AnalysesSubmitted   int
	AnalysesAccepted    int
	AnalysesDuplicate   int
	AnalysesFailed      int
	AnalysesCompleted   int
	EventsRetrieved     int
	HighlightsRetrieved int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
