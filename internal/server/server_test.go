package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/backmassage/magickbatch/internal/check"
	"github.com/backmassage/magickbatch/internal/config"
	"github.com/backmassage/magickbatch/internal/history"
	"github.com/backmassage/magickbatch/internal/pipeline"
	"github.com/backmassage/magickbatch/internal/planner"
)

func init() { gin.SetMode(gin.TestMode) }

// copyEngine writes a placeholder output and remembers every job.
type copyEngine struct {
	mu   sync.Mutex
	jobs []planner.ConversionJob
	gate chan struct{}
}

func (e *copyEngine) Convert(_ context.Context, job planner.ConversionJob) (string, error) {
	e.mu.Lock()
	e.jobs = append(e.jobs, job)
	e.mu.Unlock()
	if e.gate != nil {
		<-e.gate
	}
	return "", os.WriteFile(job.Destination, []byte("out"), 0o644)
}

func (e *copyEngine) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}

func newTestServer(t *testing.T, e *copyEngine, withHistory bool) (*Server, string, string) {
	t.Helper()
	in, out := t.TempDir(), t.TempDir()
	cfg := config.DefaultConfig()
	cfg.InputDir, cfg.OutputDir = in, out

	s := &Server{
		Defaults: cfg,
		Runs:     &pipeline.Exclusive{},
		Backend: pipeline.Backend{
			Name:   "fake",
			Locate: func() (check.Handle, error) { return check.Handle{Name: "magick"}, nil },
			Engine: func(check.Handle) pipeline.Converter { return e },
		},
	}
	if withHistory {
		store, err := history.Open(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { store.Close() })
		s.History = store
		s.Runs.After = func(_ context.Context, log *pipeline.RunLog) {
			store.Save(history.FromLog(log))
		}
	}
	return s, in, out
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t, &copyEngine{}, false)
	resp := do(t, s.Router(), http.MethodGet, "/health", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", resp.Body.String())
	}
}

func TestListFiles(t *testing.T) {
	s, in, _ := newTestServer(t, &copyEngine{}, false)
	writeFile(t, in, "a.jpg")
	writeFile(t, in, "b.webp")
	writeFile(t, in, "c.txt")
	router := s.Router()

	resp := do(t, router, http.MethodGet, "/api/files?dir=input", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Files []pipeline.Item `json:"files"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Files) != 2 || body.Files[1].Name != "b.webp" {
		t.Errorf("files = %+v", body.Files)
	}

	if resp := do(t, router, http.MethodGet, "/api/files?dir=etc", ""); resp.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.Code)
	}
}

func TestStartRun(t *testing.T) {
	e := &copyEngine{}
	s, in, out := newTestServer(t, e, false)
	writeFile(t, in, "a.jpg")

	resp := do(t, s.Router(), http.MethodPost, "/api/runs",
		`{"format":"both","mode":"crop","crop_width":50,"crop_height":30000,"quality":500,"gravity":"north"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var body RunResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Completed || body.Errors != 0 || body.Report.Stats.Converted != 2 {
		t.Errorf("response = %+v", body)
	}
	if e.count() != 2 {
		t.Fatalf("jobs = %d", e.count())
	}
	g := e.jobs[0].Plan.Geometry
	if g.Width != planner.EdgeMin || g.Height != planner.EdgeMax || g.Gravity != planner.GravityNorth {
		t.Errorf("geometry not clamped: %+v", g)
	}
	if e.jobs[0].Plan.Quality != planner.QualityMax {
		t.Errorf("quality = %d", e.jobs[0].Plan.Quality)
	}
	if _, err := os.Stat(filepath.Join(out, "a.webp")); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestStartRun_Defaults(t *testing.T) {
	e := &copyEngine{}
	s, in, _ := newTestServer(t, e, false)
	writeFile(t, in, "a.png")

	resp := do(t, s.Router(), http.MethodPost, "/api/runs", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if e.count() != 1 || e.jobs[0].Format != planner.FormatWebP || e.jobs[0].Plan.Geometry.Edge != 1600 {
		t.Errorf("jobs = %+v", e.jobs)
	}
}

func TestStartRun_BadRequest(t *testing.T) {
	s, _, _ := newTestServer(t, &copyEngine{}, false)
	router := s.Router()
	for _, body := range []string{`{"format":"gif"}`, `{"gravity":"up"}`, `{"mode":"stretch"}`, `{not json`} {
		if resp := do(t, router, http.MethodPost, "/api/runs", body); resp.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, resp.Code)
		}
	}
}

func TestStartRun_ConflictWhileRunning(t *testing.T) {
	e := &copyEngine{gate: make(chan struct{})}
	s, in, _ := newTestServer(t, e, false)
	writeFile(t, in, "a.jpg")
	router := s.Router()

	first := make(chan *httptest.ResponseRecorder)
	go func() { first <- do(t, router, http.MethodPost, "/api/runs", "") }()
	for e.count() == 0 {
		runtime.Gosched()
	}

	if resp := do(t, router, http.MethodGet, "/api/runs/current", ""); resp.Code != http.StatusOK {
		t.Errorf("current: expected 200, got %d", resp.Code)
	}
	if resp := do(t, router, http.MethodPost, "/api/runs", ""); resp.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.Code)
	}

	close(e.gate)
	if resp := <-first; resp.Code != http.StatusOK {
		t.Errorf("first run: expected 200, got %d", resp.Code)
	}
	if resp := do(t, router, http.MethodGet, "/api/runs/current", ""); resp.Code != http.StatusNotFound {
		t.Errorf("idle current: expected 404, got %d", resp.Code)
	}
}

func TestRunHistory(t *testing.T) {
	s, in, _ := newTestServer(t, &copyEngine{}, true)
	writeFile(t, in, "a.jpg")
	router := s.Router()

	resp := do(t, router, http.MethodPost, "/api/runs", "")
	var run RunResponse
	json.Unmarshal(resp.Body.Bytes(), &run)

	resp = do(t, router, http.MethodGet, "/api/runs", "")
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), run.Report.ID) {
		t.Fatalf("list: %d %s", resp.Code, resp.Body.String())
	}

	resp = do(t, router, http.MethodGet, "/api/runs/"+run.Report.ID, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.Code)
	}
	var rec history.Record
	json.Unmarshal(resp.Body.Bytes(), &rec)
	if !rec.Completed || rec.Stats.Converted != 1 {
		t.Errorf("record = %+v", rec)
	}

	if resp := do(t, router, http.MethodGet, "/api/runs/nope", ""); resp.Code != http.StatusNotFound {
		t.Errorf("missing: expected 404, got %d", resp.Code)
	}
	if resp := do(t, router, http.MethodGet, "/api/runs?limit=x", ""); resp.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", resp.Code)
	}
}

func TestRunHistory_Disabled(t *testing.T) {
	s, _, _ := newTestServer(t, &copyEngine{}, false)
	if resp := do(t, s.Router(), http.MethodGet, "/api/runs", ""); resp.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.Code)
	}
}

func TestCORS(t *testing.T) {
	s, _, _ := newTestServer(t, &copyEngine{}, false)
	s.Defaults.CORSOrigins = []string{"http://localhost:5173"}
	req := httptest.NewRequest(http.MethodOptions, "/api/runs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp := httptest.NewRecorder()
	s.Router().ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q", got)
	}
}
