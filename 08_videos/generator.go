package videos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

const falRunBase = "https://fal.run/"

// Generator animates edited scene images into short clips via Fal.ai
// image-to-video.
type Generator struct {
	model       string
	aspectRatio string
	httpClient  *http.Client
}

// New creates a new Generator. model is the Fal.ai model path, e.g.
// "fal-ai/kling-video/v2.5-turbo/pro/image-to-video".
func New(model, aspectRatio string) *Generator {
	return &Generator{
		model:       model,
		aspectRatio: aspectRatio,
		// Image-to-video calls routinely take close to a minute.
		httpClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

type videoRequest struct {
	Prompt         string  `json:"prompt"`
	ImageURL       string  `json:"image_url"`
	Duration       string  `json:"duration"`
	AspectRatio    string  `json:"aspect_ratio"`
	NegativePrompt string  `json:"negative_prompt"`
	CFGScale       float64 `json:"cfg_scale"`
}

type videoResponse struct {
	Video struct {
		URL string `json:"url"`
	} `json:"video"`
}

// Animate runs the image-to-video model on an edited image URL with a motion
// prompt and returns the URL of the generated clip.
func (g *Generator) Animate(ctx context.Context, imageURL, prompt string) (string, error) {
	apiKey := os.Getenv("FAL_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("FAL_KEY not set")
	}

	log.Printf("[videos] Generating video: %q (this may take 30-60 seconds)", truncate(prompt, 60))

	reqBody, err := json.Marshal(videoRequest{
		Prompt:         prompt,
		ImageURL:       imageURL,
		Duration:       "5",
		AspectRatio:    g.aspectRatio,
		NegativePrompt: "blur, distort, and low quality",
		CFGScale:       0.5,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", falRunBase+g.model, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Key "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fal request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fal %s: HTTP %d: %s", g.model, resp.StatusCode, truncate(string(respBytes), 300))
	}

	var result videoResponse
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return "", fmt.Errorf("parse fal response: %w", err)
	}
	if result.Video.URL == "" {
		return "", fmt.Errorf("fal returned no video URL")
	}

	log.Printf("[videos] ✅ Video ready")
	return result.Video.URL, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
