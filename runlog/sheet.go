package runlog

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"hiresong/types"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Header is the sheet's first row; column order is part of the run-log
// contract.
var Header = []string{
	"Timestamp",
	"Run ID",
	"Company URL",
	"Genre",
	"Status",
	"CV Summary",
	"Company Summary",
	"Song Title",
	"Song Genre",
	"BPM",
	"Mood",
	"Scene 1 Lyrics",
	"Scene 2 Lyrics",
	"Scene 3 Lyrics",
	"Scene 4 Lyrics",
	"Scene 5 Lyrics",
	"Scene 6 Lyrics",
	"Output Directory",
	"Final Video Path",
	"Music URL",
	"Image URLs",
	"Video URLs",
	"Notes",
}

// Cell content limits so long model output still fits readably in one cell.
const (
	maxSummaryChars = 500
	maxTitleChars   = 200
	maxLyricsChars  = 200
	maxMoodChars    = 100
	maxErrorChars   = 300
)

// Column indexes (0-based) into Header.
const (
	colStatus         = 4
	colCVSummary      = 5
	colCompanySummary = 6
	colSongTitle      = 7
	colSongGenre      = 8
	colBPM            = 9
	colMood           = 10
	colSceneLyrics    = 11 // first of six
	colOutputDir      = 17
	colFinalVideo     = 18
	colMusicURL       = 19
	colImageURLs      = 20
	colVideoURLs      = 21
	colNotes          = 22
)

// SheetStore implements Store on top of a Google Sheet, one row per run.
type SheetStore struct {
	svc     *sheets.Service
	sheetID string
	// sheet is the tab name, e.g. "Sheet1".
	sheet string
}

// NewSheetStore builds a SheetStore from a service-account credentials file.
func NewSheetStore(ctx context.Context, credentialsFile, sheetID, sheet string) (*SheetStore, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &SheetStore{svc: svc, sheetID: sheetID, sheet: sheet}, nil
}

// InitializeHeader writes the header row if the sheet doesn't have one yet.
func (s *SheetStore) InitializeHeader(ctx context.Context) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.sheetID, s.rng("A1:A1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 && resp.Values[0][0] == Header[0] {
		return nil
	}

	row := make([]interface{}, len(Header))
	for i, h := range Header {
		row[i] = h
	}
	_, err = s.svc.Spreadsheets.Values.Update(s.sheetID, s.rng("A1"), &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	log.Println("[runlog] Initialized sheet header")
	return nil
}

// RecordStart appends the initial row for a run.
func (s *SheetStore) RecordStart(ctx context.Context, run *types.Run) error {
	row := StartRow(run, time.Now())
	_, err := s.svc.Spreadsheets.Values.Append(s.sheetID, s.rng("A:W"), &sheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append run %s: %w", run.ID, err)
	}
	return nil
}

// RecordSummaries fills in both summaries and the output directory.
func (s *SheetStore) RecordSummaries(ctx context.Context, runID, cvSummary, companySummary, outputDir string) error {
	return s.updateCells(ctx, runID, map[int]string{
		colCVSummary:      Truncate(cvSummary, maxSummaryChars),
		colCompanySummary: Truncate(companySummary, maxSummaryChars),
		colOutputDir:      outputDir,
	})
}

// RecordSong fills in the song metadata and the six scene lyrics.
func (s *SheetStore) RecordSong(ctx context.Context, runID string, song *types.SongStructure) error {
	cells := map[int]string{
		colSongTitle: Truncate(song.SongTitle, maxTitleChars),
		colSongGenre: song.Genre,
		colBPM:       fmt.Sprintf("%d", song.BPM),
		colMood:      Truncate(song.Mood, maxMoodChars),
	}
	for i, sc := range song.Scenes {
		if i >= types.NumScenes {
			break
		}
		cells[colSceneLyrics+i] = Truncate(sc.Lyrics, maxLyricsChars)
	}
	return s.updateCells(ctx, runID, cells)
}

// RecordCompletion marks the run completed with its artifacts.
func (s *SheetStore) RecordCompletion(ctx context.Context, runID, finalVideoPath string, imageURLs, videoURLs []string) error {
	return s.updateCells(ctx, runID, map[int]string{
		colStatus:     types.StatusCompleted,
		colFinalVideo: finalVideoPath,
		colImageURLs:  strings.Join(imageURLs, "\n"),
		colVideoURLs:  strings.Join(videoURLs, "\n"),
		colNotes:      "Completed at " + time.Now().Format("2006-01-02 15:04:05"),
	})
}

// RecordFailure marks the run failed, keeping whatever URLs were produced
// before the failure.
func (s *SheetStore) RecordFailure(ctx context.Context, runID, errMsg string, imageURLs, videoURLs []string) error {
	return s.updateCells(ctx, runID, map[int]string{
		colStatus:    types.StatusFailed,
		colImageURLs: strings.Join(imageURLs, "\n"),
		colVideoURLs: strings.Join(videoURLs, "\n"),
		colNotes: fmt.Sprintf("Failed at %s: %s",
			time.Now().Format("2006-01-02 15:04:05"), Truncate(errMsg, maxErrorChars)),
	})
}

// RunByID returns a run's row as a header-keyed map, or nil when the run ID
// is not present.
func (s *SheetStore) RunByID(ctx context.Context, runID string) (map[string]string, error) {
	rowNum, err := s.findRow(ctx, runID)
	if err != nil {
		return nil, err
	}
	if rowNum == 0 {
		return nil, nil
	}

	resp, err := s.svc.Spreadsheets.Values.Get(s.sheetID, s.rng(fmt.Sprintf("A%d:W%d", rowNum, rowNum))).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read row %d: %w", rowNum, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}

	out := make(map[string]string, len(Header))
	for i, h := range Header {
		if i < len(resp.Values[0]) {
			out[h] = fmt.Sprint(resp.Values[0][i])
		}
	}
	return out, nil
}

// updateCells writes the given column→value cells on the run's row in one
// batch.
func (s *SheetStore) updateCells(ctx context.Context, runID string, cells map[int]string) error {
	rowNum, err := s.findRow(ctx, runID)
	if err != nil {
		return err
	}
	if rowNum == 0 {
		return fmt.Errorf("run %s not found in sheet", runID)
	}

	var data []*sheets.ValueRange
	for col, val := range cells {
		data = append(data, &sheets.ValueRange{
			Range:  s.rng(fmt.Sprintf("%s%d", ColumnLetter(col), rowNum)),
			Values: [][]interface{}{{val}},
		})
	}

	_, err = s.svc.Spreadsheets.Values.BatchUpdate(s.sheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update run %s: %w", runID, err)
	}
	return nil
}

// findRow scans the Run ID column for the run. The store offers no index, so
// lookup is a linear scan; returns 0 when not found.
func (s *SheetStore) findRow(ctx context.Context, runID string) (int, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.sheetID, s.rng("B:B")).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("scan run IDs: %w", err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == runID {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (s *SheetStore) rng(cells string) string {
	return s.sheet + "!" + cells
}

// StartRow builds the initial row for a run, matching Header's column order.
func StartRow(run *types.Run, now time.Time) []interface{} {
	genre := run.Genre
	if genre == "" {
		genre = "AI Selected"
	}
	row := make([]interface{}, len(Header))
	for i := range row {
		row[i] = ""
	}
	row[0] = now.Format("2006-01-02 15:04:05")
	row[1] = run.ID
	row[2] = run.CompanyURL
	row[3] = genre
	row[colStatus] = types.StatusInProgress
	row[colOutputDir] = run.OutputDir
	row[colNotes] = "Pipeline started"
	return row
}

// ColumnLetter converts a 0-based column index to its A1-notation letter(s).
func ColumnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}

// Truncate bounds a string to fit in a sheet cell, never splitting a rune.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
