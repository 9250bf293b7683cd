package httprouter_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/batch"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/entity"
	httprouter "github.com/DhananjayPorwal/youtube-playlist-downloader/internal/infrastructure/delivery/http"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/internal/observability"
	"github.com/DhananjayPorwal/youtube-playlist-downloader/pkg/logger"
)

type fakeRuns struct {
	status batch.Status
	report *entity.Report
}

func (f fakeRuns) Status() batch.Status { return f.status }

func (f fakeRuns) LastReport() (*entity.Report, bool) { return f.report, f.report != nil }

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var body struct {
		Message string `json:"message"`
		Data    T      `json:"data"`
	}

	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}

	return body.Data
}

func TestReadyz(t *testing.T) {
	r := httprouter.New(logger.Discard(), fakeRuns{}, nil)

	rec := serve(t, r, "/v1/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestGetStatus(t *testing.T) {
	want := batch.Status{Active: true, URL: "https://www.youtube.com/playlist?list=PL1", Index: 2, Total: 5, Downloaded: 1}
	r := httprouter.New(logger.Discard(), fakeRuns{status: want}, nil)

	rec := serve(t, r, "/v1/runs/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if got := decode[batch.Status](t, rec); got != want {
		t.Errorf("status = %+v, want %+v", got, want)
	}

	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("status route must not be cached")
	}
}

func TestGetLastReport(t *testing.T) {
	t.Run("none yet", func(t *testing.T) {
		r := httprouter.New(logger.Discard(), fakeRuns{}, nil)

		rec := serve(t, r, "/v1/runs/last")
		if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
			t.Fatalf("got %d %q, want empty 204", rec.Code, rec.Body.String())
		}
	})

	t.Run("finished run", func(t *testing.T) {
		report := &entity.Report{RunID: "run-1", Title: "Mix"}
		report.Add(entity.Outcome{Status: entity.OutcomeDownloaded})

		r := httprouter.New(logger.Discard(), fakeRuns{report: report}, nil)

		rec := serve(t, r, "/v1/runs/last")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		got := decode[entity.Report](t, rec)
		if got.RunID != "run-1" || got.Summary.Downloaded != 1 {
			t.Errorf("report = %+v", got)
		}
	})
}

func TestMetricsRoute(t *testing.T) {
	metrics := observability.New()
	metrics.RecordRunCompleted()

	r := httprouter.New(logger.Discard(), fakeRuns{}, metrics.Handler())

	rec := serve(t, r, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if !strings.Contains(rec.Body.String(), "pldl_runs_completed_total 1") {
		t.Errorf("metrics output missing completed runs:\n%s", rec.Body.String())
	}

	if rec := serve(t, httprouter.New(logger.Discard(), fakeRuns{}, nil), "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("metrics served without a handler: %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	r := httprouter.New(logger.Discard(), fakeRuns{}, nil)

	if rec := serve(t, r, "/v1/jobs/"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
