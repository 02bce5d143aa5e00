package music

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"hiresong/types"
)

const composeURL = "https://api.elevenlabs.io/v1/music"

// Generator composes the 30-second track from the song structure via the
// ElevenLabs Music API.
type Generator struct {
	lengthMs   int
	httpClient *http.Client
}

// New creates a new Generator. lengthMs is the track length in milliseconds.
func New(lengthMs int) *Generator {
	return &Generator{
		lengthMs: lengthMs,
		// Music generation takes 30-60s per call.
		httpClient: &http.Client{Timeout: 3 * time.Minute},
	}
}

type composeRequest struct {
	Prompt        string `json:"prompt"`
	MusicLengthMs int    `json:"music_length_ms"`
}

// Compose generates the full track and returns the raw MP3 bytes.
func (g *Generator) Compose(ctx context.Context, song *types.SongStructure) ([]byte, error) {
	apiKey := os.Getenv("ELEVENLABS_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ELEVENLABS_API_KEY not set")
	}

	prompt := BuildPrompt(song)

	log.Printf("[music] Generating music: %q (%s, %d BPM)", song.SongTitle, song.Genre, song.BPM)
	log.Println("[music] This may take 30-60 seconds...")

	reqBody, err := json.Marshal(composeRequest{
		Prompt:        prompt,
		MusicLengthMs: g.lengthMs,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", composeURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs: HTTP %d: %s", resp.StatusCode, truncate(string(audio), 300))
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("elevenlabs returned empty audio")
	}

	log.Printf("[music] ✅ Music generation complete (%.2f KB)", float64(len(audio))/1024)
	return audio, nil
}

// BuildPrompt flattens the song structure into a single descriptive prompt
// with per-scene timing markers.
func BuildPrompt(song *types.SongStructure) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Genre: %s\n", song.Genre))
	sb.WriteString(fmt.Sprintf("Tempo: %d BPM\n", song.BPM))
	sb.WriteString(fmt.Sprintf("Mood: %s\n", song.Mood))
	sb.WriteString(fmt.Sprintf("Vocal Style: %s\n", song.VocalStyle))
	sb.WriteString(fmt.Sprintf("Instrumentation: %s\n", song.Instrumentation))
	sb.WriteString(fmt.Sprintf("Total Duration: %d seconds (%d scenes × ~%d seconds each)\n\n",
		types.TotalSeconds, types.NumScenes, types.SceneSeconds))

	for _, sc := range song.Scenes {
		sb.WriteString(fmt.Sprintf("[Scene %d: %s - %s]\n", sc.SceneNum, sc.TimeRange, sc.Description))
		sb.WriteString(fmt.Sprintf("Lyrics: %s\n", sc.Lyrics))
		sb.WriteString(fmt.Sprintf("Music: %s\n\n", sc.MusicalMood))
	}

	sb.WriteString("IMPORTANT: Maintain consistent tempo and genre throughout all 6 scenes. " +
		"Each scene should be approximately 5 seconds. Ensure smooth transitions between scenes. " +
		"The music should flow seamlessly as one complete 30-second track.")
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
