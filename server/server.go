// Package server exposes the HireSong pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"hiresong/pipeline"
	"hiresong/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Runner is the pipeline entry point the server drives. *pipeline.Pipeline
// satisfies it.
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (*types.Manifest, error)
}

// Server wires the HTTP routes to the pipeline.
type Server struct {
	runner     Runner
	resultsDir string
	engine     *gin.Engine
}

// New creates a Server serving runs stored under resultsDir.
func New(runner Runner, resultsDir string) *Server {
	s := &Server{runner: runner, resultsDir: resultsDir}
	s.engine = gin.Default()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.POST("/generate", s.handleGenerate)
	s.engine.GET("/results/:run_id", s.handleResults)
	s.engine.GET("/results/:run_id/file/:filename", s.handleResultFile)
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	log.Printf("[server] HireSong API listening on %s", addr)
	return s.engine.Run(addr)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "HireSong API",
	})
}

// handleGenerate accepts the multipart form (selfie image, CV PDF, company
// URL, optional genre), validates it up front and runs the whole pipeline
// synchronously. A request stays open for the full generation.
func (s *Server) handleGenerate(c *gin.Context) {
	selfie, err := c.FormFile("selfie")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "selfie file is required"})
		return
	}
	cv, err := c.FormFile("cv")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cv file is required"})
		return
	}
	companyURL := strings.TrimSpace(c.PostForm("company_url"))
	if companyURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_url is required"})
		return
	}
	genre := strings.TrimSpace(c.PostForm("genre"))

	// Reject obviously wrong uploads before burning pipeline time.
	if ct := selfie.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("selfie must be an image, got %q", ct)})
		return
	}
	if ct := cv.Header.Get("Content-Type"); ct != "application/pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cv must be a PDF, got %q", ct)})
		return
	}

	selfiePath, err := s.saveUpload(selfie, filepath.Ext(selfie.Filename))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store selfie: " + err.Error()})
		return
	}
	defer os.Remove(selfiePath)

	cvPath, err := s.saveUpload(cv, ".pdf")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store cv: " + err.Error()})
		return
	}
	defer os.Remove(cvPath)

	// A run keeps going even if the client disconnects; the generated
	// artifacts stay retrievable through /results. Detach from the request
	// context so net/http's disconnect cancellation can't abort it.
	manifest, err := s.runner.Run(context.WithoutCancel(c.Request.Context()), pipeline.Input{
		SelfiePath: selfiePath,
		CVPath:     cvPath,
		CompanyURL: companyURL,
		Genre:      genre,
	})
	if err != nil {
		log.Printf("[server] ⚠️  Pipeline failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Video generated successfully",
		"results": manifest,
	})
}

// handleResults serves a run's manifest.
func (s *Server) handleResults(c *gin.Context) {
	runID := filepath.Base(c.Param("run_id"))
	path := filepath.Join(s.resultsDir, runID, "results_manifest.json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("run %s not found", runID)})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// handleResultFile serves an individual artifact from a run directory.
func (s *Server) handleResultFile(c *gin.Context) {
	// filepath.Base strips any path traversal from both segments.
	runID := filepath.Base(c.Param("run_id"))
	filename := filepath.Base(c.Param("filename"))

	path := filepath.Join(s.resultsDir, runID, filename)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("file %s not found in run %s", filename, runID)})
		return
	}

	c.Header("Content-Type", contentTypeFor(filename))
	c.File(path)
}

// saveUpload stores a multipart file as a uniquely-named temp file and
// returns its path. Callers own cleanup.
func (s *Server) saveUpload(fh *multipart.FileHeader, ext string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	path := filepath.Join(os.TempDir(), "hiresong_"+uuid.NewString()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
