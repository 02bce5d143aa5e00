package images

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	falRunBase      = "https://fal.run/"
	falUploadInit   = "https://rest.alpha.fal.ai/storage/upload/initiate"
	defaultMimeType = "image/jpeg"
)

// Generator edits the candidate's selfie into per-scene images via Fal.ai.
type Generator struct {
	model      string
	httpClient *http.Client
}

// New creates a new Generator. model is the Fal.ai model path, e.g.
// "fal-ai/nano-banana/edit".
func New(model string) *Generator {
	return &Generator{
		model: model,
		// Hosted image editing takes 10-60s per call.
		httpClient: &http.Client{Timeout: 3 * time.Minute},
	}
}

type editRequest struct {
	Prompt       string   `json:"prompt"`
	ImageURLs    []string `json:"image_urls"`
	NumImages    int      `json:"num_images"`
	OutputFormat string   `json:"output_format"`
}

type editResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
	Description string `json:"description"`
}

// Edit uploads the selfie to Fal storage and runs the image-editing model
// with the given prompt. Returns the URL of the edited image.
func (g *Generator) Edit(ctx context.Context, selfiePath, prompt string) (string, error) {
	apiKey := os.Getenv("FAL_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("FAL_KEY not set")
	}

	imageURL, err := g.uploadFile(ctx, apiKey, selfiePath)
	if err != nil {
		return "", fmt.Errorf("upload selfie: %w", err)
	}

	log.Printf("[images] Editing image with prompt: %q", truncate(prompt, 60))

	reqBody, err := json.Marshal(editRequest{
		Prompt:       prompt,
		ImageURLs:    []string{imageURL},
		NumImages:    1,
		OutputFormat: "jpeg",
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var result editResponse
	if err := g.invoke(ctx, apiKey, g.model, reqBody, &result); err != nil {
		return "", err
	}
	if len(result.Images) == 0 {
		return "", fmt.Errorf("fal returned no images")
	}

	log.Printf("[images] ✅ Edited image ready")
	return result.Images[0].URL, nil
}

// invoke performs a synchronous Fal.ai model call.
func (g *Generator) invoke(ctx context.Context, apiKey, model string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "POST", falRunBase+model, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Key "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fal request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fal %s: HTTP %d: %s", model, resp.StatusCode, truncate(string(respBytes), 300))
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return fmt.Errorf("parse fal response: %w", err)
	}
	return nil
}

type uploadInitiateRequest struct {
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
}

type uploadInitiateResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
}

// uploadFile pushes a local file to Fal storage and returns its public URL.
func (g *Generator) uploadFile(ctx context.Context, apiKey, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	initBody, err := json.Marshal(uploadInitiateRequest{
		ContentType: mimeTypeFor(path),
		FileName:    filepath.Base(path),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", falUploadInit, bytes.NewReader(initBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Key "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("initiate upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("initiate upload: HTTP %d: %s", resp.StatusCode, truncate(string(b), 300))
	}

	var initResp uploadInitiateResponse
	if err := json.NewDecoder(resp.Body).Decode(&initResp); err != nil {
		return "", fmt.Errorf("parse initiate response: %w", err)
	}

	putReq, err := http.NewRequestWithContext(ctx, "PUT", initResp.UploadURL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	putReq.Header.Set("Content-Type", mimeTypeFor(path))

	putResp, err := g.httpClient.Do(putReq)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	defer putResp.Body.Close()

	if putResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload file: HTTP %d", putResp.StatusCode)
	}

	return initResp.FileURL, nil
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return defaultMimeType
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
