package runlog

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"hiresong/types"
)

func TestStartRow(t *testing.T) {
	run := &types.Run{
		ID:         "20260115_093000",
		OutputDir:  "results/20260115_093000",
		CompanyURL: "https://example.com",
		Genre:      "Rap",
		Status:     types.StatusInProgress,
	}
	now := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

	row := StartRow(run, now)
	if len(row) != len(Header) {
		t.Fatalf("StartRow() has %d cells, want %d", len(row), len(Header))
	}
	if row[0] != "2026-01-15 09:30:00" {
		t.Errorf("timestamp = %v", row[0])
	}
	if row[1] != run.ID {
		t.Errorf("run ID = %v", row[1])
	}
	if row[2] != run.CompanyURL {
		t.Errorf("company URL = %v", row[2])
	}
	if row[3] != "Rap" {
		t.Errorf("genre = %v", row[3])
	}
	if row[colStatus] != types.StatusInProgress {
		t.Errorf("status = %v", row[colStatus])
	}
	if row[colOutputDir] != run.OutputDir {
		t.Errorf("output dir = %v", row[colOutputDir])
	}
	if row[colNotes] != "Pipeline started" {
		t.Errorf("notes = %v", row[colNotes])
	}
}

func TestStartRowDefaultGenre(t *testing.T) {
	run := &types.Run{ID: "x", Status: types.StatusInProgress}
	row := StartRow(run, time.Now())
	if row[3] != "AI Selected" {
		t.Errorf("genre = %v, want AI Selected", row[3])
	}
}

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{4, "E"},
		{22, "W"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
	}
	for _, tt := range tests {
		if got := ColumnLetter(tt.col); got != tt.want {
			t.Errorf("ColumnLetter(%d) = %q, want %q", tt.col, got, tt.want)
		}
	}
}

func TestColumnConstantsMatchHeader(t *testing.T) {
	checks := map[int]string{
		colStatus:      "Status",
		colCVSummary:   "CV Summary",
		colSongTitle:   "Song Title",
		colSceneLyrics: "Scene 1 Lyrics",
		colOutputDir:   "Output Directory",
		colFinalVideo:  "Final Video Path",
		colImageURLs:   "Image URLs",
		colVideoURLs:   "Video URLs",
		colNotes:       "Notes",
	}
	for col, want := range checks {
		if Header[col] != want {
			t.Errorf("Header[%d] = %q, want %q", col, Header[col], want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate() = %q", got)
	}
	long := strings.Repeat("x", 600)
	if got := Truncate(long, maxSummaryChars); len(got) != maxSummaryChars {
		t.Errorf("Truncate() length = %d, want %d", len(got), maxSummaryChars)
	}
}

func TestTruncateNeverSplitsRunes(t *testing.T) {
	// "é" is 2 bytes; cutting at byte 3 lands mid-rune and must back up.
	s := "ééé"
	got := Truncate(s, 3)
	if got != "é" {
		t.Errorf("Truncate(%q, 3) = %q, want %q", s, got, "é")
	}
	if !utf8.ValidString(got) {
		t.Errorf("Truncate() produced invalid UTF-8: %q", got)
	}

	// Lyrics with emoji, cut inside the 4-byte rune.
	s = "rock on 🎸"
	for n := 9; n < len(s); n++ {
		if got := Truncate(s, n); !utf8.ValidString(got) {
			t.Errorf("Truncate(%q, %d) = %q, invalid UTF-8", s, n, got)
		}
	}
}
