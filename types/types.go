package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Run statuses as recorded in the run log.
const (
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
	StatusFailed     = "Failed"
)

// The song shape is fixed: six 5-second scenes covering a 30-second track.
const (
	NumScenes    = 6
	SceneSeconds = 5
	TotalSeconds = 30
)

// Run is one end-to-end pipeline execution for one candidate/company pair.
type Run struct {
	ID         string `json:"run_id"`
	OutputDir  string `json:"output_dir"`
	CompanyURL string `json:"company_url"`
	Genre      string `json:"genre,omitempty"`
	Status     string `json:"status"`

	// URL slots filled as the image/video fan-outs complete. An empty slot
	// means that step was never reached; the failure path reads these
	// directly instead of guessing from the error.
	ImageURLs []string `json:"image_urls,omitempty"`
	VideoURLs []string `json:"video_urls,omitempty"`
}

// Scene is one 5-second lyric segment of the song.
type Scene struct {
	SceneNum    int    `json:"scene_num" jsonschema_description:"Scene number, 1 through 6"`
	TimeRange   string `json:"time_range" jsonschema_description:"Time window of this scene, e.g. 0-5s"`
	Description string `json:"description" jsonschema_description:"What is happening in this part of the song"`
	Lyrics      string `json:"lyrics" jsonschema_description:"The lyric line sung during this scene"`
	MusicalMood string `json:"musical_mood" jsonschema_description:"Musical mood tag for this scene"`
}

// SongStructure is the complete song produced by the lyrics generator.
// Immutable after generation; consumed by the scene planner and the music
// generator.
type SongStructure struct {
	SongTitle       string  `json:"song_title" jsonschema_description:"Catchy song title"`
	Genre           string  `json:"genre" jsonschema_description:"Musical genre"`
	BPM             int     `json:"bpm" jsonschema_description:"Tempo in beats per minute"`
	Mood            string  `json:"mood" jsonschema_description:"Overall mood of the song"`
	VocalStyle      string  `json:"vocal_style" jsonschema_description:"Description of the vocals"`
	Instrumentation string  `json:"instrumentation" jsonschema_description:"Instruments used"`
	Scenes          []Scene `json:"scenes" jsonschema_description:"Exactly 6 scenes of 5 seconds each covering 0-30s"`
}

// SceneVisual is the visual plan for one scene: how to transform the selfie
// and how to animate the result.
type SceneVisual struct {
	SceneNum         int    `json:"scene_num" jsonschema_description:"Scene number matching the song scene, 1 through 6"`
	TimeRange        string `json:"time_range" jsonschema_description:"Time window of this scene, e.g. 0-5s"`
	SceneDescription string `json:"scene_description" jsonschema_description:"What happens visually in this scene"`
	ImagePrompt      string `json:"image_prompt" jsonschema_description:"Image editing instruction that transforms the selfie"`
	VideoPrompt      string `json:"video_prompt" jsonschema_description:"Motion prompt that animates the edited image"`
}

// ScenePlan holds the six visual scenes.
type ScenePlan struct {
	Scenes []SceneVisual `json:"scenes" jsonschema_description:"Exactly 6 visual scenes matching the song scenes"`
}

// Manifest maps logical artifact names to file paths for one run. Written
// once at the end of a successful run.
type Manifest struct {
	OutputDir       string   `json:"output_dir"`
	Timestamp       string   `json:"timestamp"`
	InputSelfie     string   `json:"input_selfie"`
	InputCV         string   `json:"input_cv"`
	InputCompanyURL string   `json:"input_company_url"`
	CVText          string   `json:"cv_text"`
	WebsiteText     string   `json:"website_text"`
	CVSummary       string   `json:"cv_summary"`
	CompanySummary  string   `json:"company_summary"`
	Lyrics          string   `json:"lyrics"`
	Scenes          string   `json:"scenes"`
	Music           string   `json:"music"`
	Images          []string `json:"images"`
	Videos          []string `json:"videos"`
	FinalVideo      string   `json:"final_video"`
}

// Validate checks the song invariants: exactly 6 scenes, numbers 1-6 unique
// and contiguous, time ranges partitioning 0-30s into 5-second windows.
func (s *SongStructure) Validate() error {
	if len(s.Scenes) != NumScenes {
		return fmt.Errorf("expected %d scenes, got %d", NumScenes, len(s.Scenes))
	}
	for i, sc := range s.Scenes {
		want := i + 1
		if sc.SceneNum != want {
			return fmt.Errorf("scene %d has scene_num %d", want, sc.SceneNum)
		}
		start, end, err := parseTimeRange(sc.TimeRange)
		if err != nil {
			return fmt.Errorf("scene %d: %w", want, err)
		}
		if start != (want-1)*SceneSeconds || end != want*SceneSeconds {
			return fmt.Errorf("scene %d covers %d-%ds, want %d-%ds",
				want, start, end, (want-1)*SceneSeconds, want*SceneSeconds)
		}
		if strings.TrimSpace(sc.Lyrics) == "" {
			return fmt.Errorf("scene %d has empty lyrics", want)
		}
	}
	return nil
}

// Validate checks that the plan's scene numbers are a 1:1 match with the
// song's scene numbers and that every scene carries both prompts.
func (p *ScenePlan) Validate(song *SongStructure) error {
	if len(p.Scenes) != NumScenes {
		return fmt.Errorf("expected %d visual scenes, got %d", NumScenes, len(p.Scenes))
	}
	for i, sv := range p.Scenes {
		want := i + 1
		if sv.SceneNum != want {
			return fmt.Errorf("visual scene %d has scene_num %d", want, sv.SceneNum)
		}
		if sv.SceneNum != song.Scenes[i].SceneNum {
			return fmt.Errorf("visual scene %d does not match song scene %d", sv.SceneNum, song.Scenes[i].SceneNum)
		}
		if strings.TrimSpace(sv.ImagePrompt) == "" {
			return fmt.Errorf("visual scene %d has empty image prompt", want)
		}
		if strings.TrimSpace(sv.VideoPrompt) == "" {
			return fmt.Errorf("visual scene %d has empty video prompt", want)
		}
	}
	return nil
}

// parseTimeRange reads the two integers out of strings like "0-5s", "5s-10s"
// or "25 - 30s". Models format the range inconsistently, so only the numbers
// are trusted.
func parseTimeRange(s string) (start, end int, err error) {
	var nums []int
	cur := -1
	for _, r := range s {
		if r >= '0' && r <= '9' {
			if cur < 0 {
				cur = 0
			}
			cur = cur*10 + int(r-'0')
		} else if cur >= 0 {
			nums = append(nums, cur)
			cur = -1
		}
	}
	if cur >= 0 {
		nums = append(nums, cur)
	}
	if len(nums) != 2 {
		return 0, 0, fmt.Errorf("unparseable time range %q", s)
	}
	return nums[0], nums[1], nil
}

// TimeRangeFor returns the canonical time range string for a scene number.
func TimeRangeFor(sceneNum int) string {
	return strconv.Itoa((sceneNum-1)*SceneSeconds) + "-" + strconv.Itoa(sceneNum*SceneSeconds) + "s"
}
