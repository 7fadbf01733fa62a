package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/courtsight/courtsight/internal/adapters/http/api"
	service "github.com/courtsight/courtsight/internal/app"
	"github.com/courtsight/courtsight/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// stubDeps is a canned-response implementation of api.Dependencies.
type stubDeps struct {
	submitErr error
	eventsErr error
	duplicate bool

	statuses map[string]service.Status
	events   map[string][]model.GameEvent
	clips    map[string][]model.HighlightClip

	lastQuery service.HighlightQuery
	lastFrom  float64
	lastTo    float64
}

func newStubDeps() *stubDeps {
	return &stubDeps{
		statuses: make(map[string]service.Status),
		events:   make(map[string][]model.GameEvent),
		clips:    make(map[string][]model.HighlightClip),
	}
}

func (s *stubDeps) Submit(_ context.Context, analysisID string, _ model.DetectionBundle) (string, bool, error) {
	if s.submitErr != nil {
		return "", false, s.submitErr
	}
	if analysisID == "" {
		analysisID = "generated-id"
	}
	return analysisID, s.duplicate, nil
}

func (s *stubDeps) Status(_ context.Context, analysisID string) (service.Status, error) {
	st, ok := s.statuses[analysisID]
	if !ok {
		return service.Status{}, service.ErrUnknownAnalysis
	}
	return st, nil
}

func (s *stubDeps) Events(_ context.Context, analysisID string) ([]model.GameEvent, error) {
	if s.eventsErr != nil {
		return nil, s.eventsErr
	}
	events, ok := s.events[analysisID]
	if !ok {
		return nil, service.ErrUnknownAnalysis
	}
	return events, nil
}

func (s *stubDeps) EventsInRange(ctx context.Context, analysisID string, from, to float64) ([]model.GameEvent, error) {
	s.lastFrom, s.lastTo = from, to
	return s.Events(ctx, analysisID)
}

func (s *stubDeps) Highlights(_ context.Context, analysisID string, q service.HighlightQuery) ([]model.HighlightClip, error) {
	s.lastQuery = q
	clips, ok := s.clips[analysisID]
	if !ok {
		return nil, service.ErrUnknownAnalysis
	}
	return clips, nil
}

func (s *stubDeps) Ready() bool { return true }

func (s *stubDeps) QueueDepth(_ context.Context) int { return 2 }

func newTestServer(deps api.Dependencies) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func getJSON(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func TestSubmitAnalysis(t *testing.T) {
	Convey("Given the analyses endpoint", t, func() {
		deps := newStubDeps()
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When a valid bundle is posted", func() {
			resp := postJSON(t, srv.URL+"/analyses",
				`{"analysis_id":"game-1","detections":{"duration":120,"frame_rate":2}}`)

			Convey("Then the submission is accepted", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				ack := decodeBody[map[string]any](t, resp)
				So(ack["analysis_id"], ShouldEqual, "game-1")
				So(ack["status"], ShouldEqual, "accepted")
			})
		})

		Convey("When the same analysis is posted again", func() {
			deps.duplicate = true
			resp := postJSON(t, srv.URL+"/analyses",
				`{"analysis_id":"game-1","detections":{"duration":120}}`)

			Convey("Then it is reported as a duplicate with 200", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				ack := decodeBody[map[string]any](t, resp)
				So(ack["duplicate"], ShouldEqual, true)
			})
		})

		Convey("When the body is not JSON", func() {
			resp := postJSON(t, srv.URL+"/analyses", `{not json`)

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				resp.Body.Close()
			})
		})

		Convey("When the duration is missing", func() {
			resp := postJSON(t, srv.URL+"/analyses", `{"analysis_id":"game-1","detections":{}}`)

			Convey("Then validation fails", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				resp.Body.Close()
			})
		})

		Convey("When the queue is full", func() {
			deps.submitErr = service.ErrQueueFull
			resp := postJSON(t, srv.URL+"/analyses", `{"detections":{"duration":60}}`)

			Convey("Then backpressure surfaces as 429", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
				resp.Body.Close()
			})
		})

		Convey("When the method is GET on the collection", func() {
			resp := getJSON(t, srv.URL+"/analyses")

			Convey("Then it is not found", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				resp.Body.Close()
			})
		})
	})
}

func TestAnalysisReads(t *testing.T) {
	Convey("Given a finished analysis", t, func() {
		deps := newStubDeps()
		deps.statuses["game-1"] = service.Status{AnalysisID: "game-1", State: service.StateDone, EventCount: 2}
		deps.events["game-1"] = []model.GameEvent{
			{ID: "e1", Type: model.EventScore, TeamID: model.TeamA, Timestamp: 10, Confidence: 0.95, Source: model.SourceScoreboard},
			{ID: "e2", Type: model.EventRebound, TeamID: model.TeamB, Timestamp: 12, Confidence: 0.55, Source: model.SourcePossession},
		}
		deps.clips["game-1"] = []model.HighlightClip{
			{ID: "clip-e1", EventID: "e1", EventType: string(model.EventScore), StartTime: 7, EndTime: 17, Duration: 10},
		}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When its status is fetched", func() {
			resp := getJSON(t, srv.URL+"/analyses/game-1")

			Convey("Then state and event count are returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				st := decodeBody[service.Status](t, resp)
				So(st.State, ShouldEqual, service.StateDone)
				So(st.EventCount, ShouldEqual, 2)
			})
		})

		Convey("When its events are fetched", func() {
			resp := getJSON(t, srv.URL+"/analyses/game-1/events")

			Convey("Then the timeline is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				events := decodeBody[[]model.GameEvent](t, resp)
				So(len(events), ShouldEqual, 2)
				So(events[0].ID, ShouldEqual, "e1")
			})
		})

		Convey("When events are fetched with a window", func() {
			resp := getJSON(t, srv.URL+"/analyses/game-1/events?from=5&to=11")
			resp.Body.Close()

			Convey("Then the window is forwarded", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.lastFrom, ShouldEqual, 5)
				So(deps.lastTo, ShouldEqual, 11)
			})
		})

		Convey("When the window is inverted", func() {
			resp := getJSON(t, srv.URL+"/analyses/game-1/events?from=20&to=10")

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				resp.Body.Close()
			})
		})

		Convey("When highlights are fetched with shaping parameters", func() {
			resp := getJSON(t, srv.URL+"/analyses/game-1/highlights?merge=true&top=3&team=teamA&type=score")
			resp.Body.Close()

			Convey("Then the query is forwarded", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(deps.lastQuery.Merge, ShouldBeTrue)
				So(deps.lastQuery.Top, ShouldEqual, 3)
				So(deps.lastQuery.TeamID, ShouldEqual, "teamA")
				So(deps.lastQuery.EventType, ShouldEqual, "score")
			})
		})

		Convey("When the top parameter is invalid", func() {
			resp := getJSON(t, srv.URL+"/analyses/game-1/highlights?top=zero")

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				resp.Body.Close()
			})
		})

		Convey("When an unknown analysis is fetched", func() {
			resp := getJSON(t, srv.URL+"/analyses/missing")

			Convey("Then it is not found", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				resp.Body.Close()
			})
		})

		Convey("When an unknown sub-resource is fetched", func() {
			resp := getJSON(t, srv.URL+"/analyses/game-1/unknown")

			Convey("Then it is not found", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				resp.Body.Close()
			})
		})
	})

	Convey("Given an analysis still in progress", t, func() {
		deps := newStubDeps()
		deps.statuses["game-2"] = service.Status{AnalysisID: "game-2", State: service.StateRunning}
		srv := newTestServer(deps)
		defer srv.Close()

		Convey("When its events are fetched", func() {
			deps.eventsErr = service.ErrResultPending
			resp := getJSON(t, srv.URL+"/analyses/game-2/events")

			Convey("Then the pending state surfaces as a conflict", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
				resp.Body.Close()
			})
		})
	})
}

func TestReadiness(t *testing.T) {
	Convey("Given the readiness endpoint", t, func() {
		srv := newTestServer(newStubDeps())
		defer srv.Close()

		Convey("When readiness is probed", func() {
			resp := getJSON(t, srv.URL+"/readyz")

			Convey("Then status and queue depth are reported", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				body := decodeBody[map[string]any](t, resp)
				So(body["status"], ShouldEqual, "ok")
				So(body["queue_depth"], ShouldEqual, 2)
			})
		})
	})
}
