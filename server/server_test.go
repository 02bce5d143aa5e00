package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hiresong/pipeline"
	"hiresong/types"

	"github.com/gin-gonic/gin"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type stubRunner struct {
	manifest *types.Manifest
	err      error
	called   bool
	gotInput pipeline.Input
}

func (s *stubRunner) Run(_ context.Context, in pipeline.Input) (*types.Manifest, error) {
	s.called = true
	s.gotInput = in
	return s.manifest, s.err
}

// generateForm builds the multipart body for POST /generate.
func generateForm(t *testing.T, selfieType, cvType, companyURL, genre string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	addFile := func(field, filename, contentType string) {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte("file-bytes"))
	}

	addFile("selfie", "me.jpg", selfieType)
	addFile("cv", "cv.pdf", cvType)
	w.WriteField("company_url", companyURL)
	if genre != "" {
		w.WriteField("genre", genre)
	}
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHealth(t *testing.T) {
	srv := New(&stubRunner{}, t.TempDir())

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" || body["service"] != "HireSong API" {
		t.Errorf("body = %v", body)
	}
}

func TestGenerateSuccess(t *testing.T) {
	runner := &stubRunner{manifest: &types.Manifest{OutputDir: "results/x", FinalVideo: "results/x/08_final_video.mp4"}}
	srv := New(runner, t.TempDir())

	body, contentType := generateForm(t, "image/jpeg", "application/pdf", "https://example.com", "Rap")
	req := httptest.NewRequest("POST", "/generate", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !runner.called {
		t.Fatal("pipeline never invoked")
	}
	if runner.gotInput.CompanyURL != "https://example.com" {
		t.Errorf("company URL = %q", runner.gotInput.CompanyURL)
	}
	if runner.gotInput.Genre != "Rap" {
		t.Errorf("genre = %q", runner.gotInput.Genre)
	}
	if !strings.Contains(rec.Body.String(), "08_final_video.mp4") {
		t.Errorf("response missing manifest, got %s", rec.Body.String())
	}
}

type ctxCapturingRunner struct {
	ctx context.Context
}

func (r *ctxCapturingRunner) Run(ctx context.Context, _ pipeline.Input) (*types.Manifest, error) {
	r.ctx = ctx
	return &types.Manifest{}, nil
}

// A run must outlive its request: net/http cancels the request context when
// the client disconnects, and that cancellation must not reach the pipeline.
func TestGenerateSurvivesClientDisconnect(t *testing.T) {
	runner := &ctxCapturingRunner{}
	srv := New(runner, t.TempDir())

	body, contentType := generateForm(t, "image/jpeg", "application/pdf", "https://example.com", "")
	reqCtx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("POST", "/generate", body).WithContext(reqCtx)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if runner.ctx == nil {
		t.Fatal("pipeline never invoked")
	}
	cancel()
	if err := runner.ctx.Err(); err != nil {
		t.Fatalf("pipeline context canceled with the request: %v", err)
	}
}

func TestGenerateRejectsBadUploads(t *testing.T) {
	tests := []struct {
		name               string
		selfieType, cvType string
		companyURL         string
		wantErr            string
	}{
		{"non-image selfie", "text/plain", "application/pdf", "https://example.com", "selfie must be an image"},
		{"non-pdf cv", "image/jpeg", "text/html", "https://example.com", "cv must be a PDF"},
		{"missing company url", "image/jpeg", "application/pdf", "", "company_url is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{}
			srv := New(runner, t.TempDir())

			body, contentType := generateForm(t, tt.selfieType, tt.cvType, tt.companyURL, "")
			req := httptest.NewRequest("POST", "/generate", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			srv.Engine().ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.wantErr) {
				t.Errorf("body = %s, want %q", rec.Body.String(), tt.wantErr)
			}
			if runner.called {
				t.Error("pipeline invoked despite invalid request")
			}
		})
	}
}

func TestGeneratePipelineFailure(t *testing.T) {
	runner := &stubRunner{err: fmt.Errorf("generate lyrics: model unavailable")}
	srv := New(runner, t.TempDir())

	body, contentType := generateForm(t, "image/jpeg", "application/pdf", "https://example.com", "")
	req := httptest.NewRequest("POST", "/generate", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "model unavailable") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestResults(t *testing.T) {
	resultsDir := t.TempDir()
	runDir := filepath.Join(resultsDir, "20260115_093000")
	if err := os.MkdirAll(runDir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"output_dir":"` + runDir + `"}`
	if err := os.WriteFile(filepath.Join(runDir, "results_manifest.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	srv := New(&stubRunner{}, resultsDir)

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, httptest.NewRequest("GET", "/results/20260115_093000", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != manifest {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, httptest.NewRequest("GET", "/results/no_such_run", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing run status = %d, want 404", rec.Code)
	}
}

func TestResultFile(t *testing.T) {
	resultsDir := t.TempDir()
	runDir := filepath.Join(resultsDir, "run1")
	if err := os.MkdirAll(runDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(runDir, "06_music.mp3"), []byte("mp3"), 0644); err != nil {
		t.Fatal(err)
	}

	srv := New(&stubRunner{}, resultsDir)

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, httptest.NewRequest("GET", "/results/run1/file/06_music.mp3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %q, want audio/mpeg", ct)
	}

	rec = httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, httptest.NewRequest("GET", "/results/run1/file/missing.mp4", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing file status = %d, want 404", rec.Code)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct{ in, want string }{
		{"08_final_video.mp4", "video/mp4"},
		{"06_music.mp3", "audio/mpeg"},
		{"05_image_scene_1.jpg", "image/jpeg"},
		{"results_manifest.json", "application/json"},
		{"01_cv_text.txt", "text/plain"},
		{"00_input_cv.pdf", "application/pdf"},
		{"unknown.bin", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := contentTypeFor(tt.in); got != tt.want {
			t.Errorf("contentTypeFor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
