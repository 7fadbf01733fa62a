package testfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/courtsight/courtsight/internal/domain/model"
	"github.com/courtsight/courtsight/pkg/logger"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitAnalyses posts every generated bundle to the service.
func submitAnalyses(ctx context.Context, config *Config, subs []Submission, stats *Stats) error {
	logger.Get().Info(ctx, "submitting analyses", logger.Int("count", len(subs)))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/analyses"

	for _, sub := range subs {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during submission: %w", ctx.Err())
		default:
		}

		stats.AnalysesSubmitted++
		switch submitSingleAnalysis(ctx, client, url, sub) {
		case "accepted":
			stats.AnalysesAccepted++
		case "duplicate":
			stats.AnalysesDuplicate++
		default:
			stats.AnalysesFailed++
			logger.Get().Warn(ctx, "submission failed", logger.String("analysisID", sub.AnalysisID))
		}
	}

	logger.Get().Info(ctx, "analysis submission completed",
		logger.Int("accepted", stats.AnalysesAccepted),
		logger.Int("duplicate", stats.AnalysesDuplicate),
		logger.Int("failed", stats.AnalysesFailed))
	return nil
}

// submitSingleAnalysis submits one bundle and classifies the outcome.
func submitSingleAnalysis(ctx context.Context, client *HTTPClient, url string, sub Submission) string {
	resp, err := client.Post(ctx, url, sub)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		return "accepted"
	case StatusOK:
		var ack AckResponse
		if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
			return "duplicate"
		}
		return "duplicate"
	default:
		return "failed"
	}
}

// awaitCompletion polls each analysis until it reports a terminal state or
// the per-analysis wait limit runs out.
func awaitCompletion(ctx context.Context, config *Config, subs []Submission, stats *Stats) error {
	client := newHTTPClient(config.Timeout)

	for _, sub := range subs {
		deadline := time.Now().Add(config.PollWait)
		for {
			st, err := fetchStatus(ctx, client, config.BaseURL, sub.AnalysisID)
			if err == nil && (st.State == "done" || st.State == "failed") {
				if st.State == "done" {
					stats.AnalysesCompleted++
					if config.Verbose {
						logger.Get().Info(ctx, "analysis finished",
							logger.String("analysisID", sub.AnalysisID),
							logger.Int("eventCount", st.EventCount))
					}
				} else {
					logger.Get().Warn(ctx, "analysis failed",
						logger.String("analysisID", sub.AnalysisID),
						logger.String("error", st.Error))
				}
				break
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("analysis %s did not finish within %s", sub.AnalysisID, config.PollWait)
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while polling: %w", ctx.Err())
			case <-time.After(StatusPollInterval):
			}
		}
	}
	return nil
}

// fetchStatus retrieves the processing status of one analysis.
func fetchStatus(ctx context.Context, client *HTTPClient, baseURL, analysisID string) (StatusResponse, error) {
	resp, err := client.Get(ctx, baseURL+"/analyses/"+analysisID)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("failed to fetch status: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("failed to read status body: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return StatusResponse{}, fmt.Errorf("status request returned %d", resp.StatusCode)
	}
	var st StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		return StatusResponse{}, fmt.Errorf("failed to parse status: %w", err)
	}
	return st, nil
}

// fetchEvents retrieves the fused timeline of one analysis.
func fetchEvents(ctx context.Context, client *HTTPClient, baseURL, analysisID string) ([]model.GameEvent, error) {
	resp, err := client.Get(ctx, baseURL+"/analyses/"+analysisID+"/events")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read events body: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("events request returned %d", resp.StatusCode)
	}
	var events []model.GameEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}
	return events, nil
}

// fetchHighlights retrieves merged top highlights of one analysis.
func fetchHighlights(ctx context.Context, client *HTTPClient, config *Config, analysisID string) ([]model.HighlightClip, error) {
	url := fmt.Sprintf("%s/analyses/%s/highlights?merge=true&top=%d", config.BaseURL, analysisID, config.Top)
	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch highlights: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read highlights body: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("highlights request returned %d", resp.StatusCode)
	}
	var clips []model.HighlightClip
	if err := json.Unmarshal(body, &clips); err != nil {
		return nil, fmt.Errorf("failed to parse highlights: %w", err)
	}
	return clips, nil
}
