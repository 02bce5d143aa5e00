package music

import (
	"strings"
	"testing"

	"hiresong/types"
)

func testSong() *types.SongStructure {
	song := &types.SongStructure{
		SongTitle:       "Code All Night",
		Genre:           "Synthwave",
		BPM:             110,
		Mood:            "driven",
		VocalStyle:      "robotic male vocals",
		Instrumentation: "analog synths, drum machine",
	}
	for i := 1; i <= types.NumScenes; i++ {
		song.Scenes = append(song.Scenes, types.Scene{
			SceneNum:    i,
			TimeRange:   types.TimeRangeFor(i),
			Description: "verse",
			Lyrics:      "shipping features every night",
			MusicalMood: "pulsing",
		})
	}
	return song
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt(testSong())

	for _, want := range []string{
		"Genre: Synthwave",
		"Tempo: 110 BPM",
		"Mood: driven",
		"Vocal Style: robotic male vocals",
		"Instrumentation: analog synths, drum machine",
		"Total Duration: 30 seconds",
		"[Scene 1: 0-5s - verse]",
		"[Scene 6: 25-30s - verse]",
		"Lyrics: shipping features every night",
		"Music: pulsing",
		"consistent tempo and genre",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("BuildPrompt() missing %q", want)
		}
	}
}

func TestBuildPromptSceneOrder(t *testing.T) {
	got := BuildPrompt(testSong())

	last := -1
	for i := 1; i <= types.NumScenes; i++ {
		marker := "[Scene " + string(rune('0'+i)) + ":"
		idx := strings.Index(got, marker)
		if idx < 0 {
			t.Fatalf("BuildPrompt() missing marker %q", marker)
		}
		if idx < last {
			t.Fatalf("scene %d appears before scene %d", i, i-1)
		}
		last = idx
	}
}
