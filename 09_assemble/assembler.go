package assemble

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"hiresong/types"
)

// Clips shorter than 5s cannot be hard-trimmed to a full scene. A small
// tolerance absorbs encoder rounding on nominally 5-second clips.
const clipTolerance = 0.05

// Assembler builds the final 30-second video from 6 clips and a music track
// using ffmpeg/ffprobe.
type Assembler struct {
	fps           int
	overlayLyrics bool
	fontFile      string
	// probe reports a media file's duration; replaced in tests.
	probe func(ctx context.Context, path string) (float64, error)
}

// New creates a new Assembler.
func New(fps int, overlayLyrics bool, fontFile string) *Assembler {
	return &Assembler{fps: fps, overlayLyrics: overlayLyrics, fontFile: fontFile, probe: probeDuration}
}

// Assemble trims each of the 6 clips to exactly 5s, concatenates them in
// order, fits the music to exactly 30s (trim if longer, loop if shorter) and
// muxes it as the final audio track. lyricLines, when lyric overlay is
// enabled, holds the 6 lyric lines in scene order.
func (a *Assembler) Assemble(ctx context.Context, clipPaths []string, musicPath string, lyricLines []string, outputPath string) error {
	log.Println("[assemble] Assembling final video...")

	if len(clipPaths) != types.NumScenes {
		return fmt.Errorf("expected %d clips, got %d", types.NumScenes, len(clipPaths))
	}
	if _, err := os.Stat(musicPath); err != nil {
		return fmt.Errorf("music file: %w", err)
	}

	workDir := filepath.Dir(outputPath)

	// Step 1: every clip must cover a full scene. Checked up front so a bad
	// clip fails the run before any encoding work.
	for i, clip := range clipPaths {
		dur, err := a.probe(ctx, clip)
		if err != nil {
			return fmt.Errorf("probe clip %d: %w", i+1, err)
		}
		if dur+clipTolerance < types.SceneSeconds {
			return fmt.Errorf("clip %d (%s) is %.2fs, need at least %ds", i+1, clip, dur, types.SceneSeconds)
		}
	}

	// Step 2: trim every clip to exactly 5.0s with a uniform encode so the
	// concat demuxer can stream-copy them.
	trimmed := make([]string, len(clipPaths))
	for i, clip := range clipPaths {
		out := filepath.Join(workDir, fmt.Sprintf("trim_scene_%d.mp4", i+1))
		if err := runFFmpeg(ctx, "-y",
			"-i", clip,
			"-t", strconv.Itoa(types.SceneSeconds),
			"-r", strconv.Itoa(a.fps),
			"-c:v", "libx264",
			"-preset", "fast",
			"-pix_fmt", "yuv420p",
			"-an",
			out,
		); err != nil {
			return fmt.Errorf("trim clip %d: %w", i+1, err)
		}
		trimmed[i] = out
		log.Printf("[assemble] Clip %d/%d trimmed to %d.0s", i+1, len(clipPaths), types.SceneSeconds)
	}

	// Step 3: concatenate in scene order (6 × 5s = 30s).
	listFile := filepath.Join(workDir, "clips_concat.txt")
	if err := os.WriteFile(listFile, []byte(ConcatList(trimmed)), 0644); err != nil {
		return err
	}

	silentVideo := filepath.Join(workDir, "video_silent.mp4")
	if err := runFFmpeg(ctx, "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		silentVideo,
	); err != nil {
		return fmt.Errorf("concatenate clips: %w", err)
	}

	// Step 4: fit the music to exactly 30s and mux.
	musicDur, err := a.probe(ctx, musicPath)
	if err != nil {
		return fmt.Errorf("probe music: %w", err)
	}
	if musicDur <= 0 {
		return fmt.Errorf("music file %s has no duration", musicPath)
	}

	args := []string{"-y", "-i", silentVideo}
	if loops := AudioLoops(musicDur, types.TotalSeconds); loops > 0 {
		log.Printf("[assemble] Music is %.2fs — looping %d extra time(s) to reach %ds", musicDur, loops, types.TotalSeconds)
		args = append(args, "-stream_loop", strconv.Itoa(loops))
	} else {
		log.Printf("[assemble] Music is %.2fs — trimming to %ds", musicDur, types.TotalSeconds)
	}
	args = append(args, "-i", musicPath,
		"-map", "0:v", "-map", "1:a",
	)

	if a.overlayLyrics && len(lyricLines) == types.NumScenes {
		args = append(args,
			"-vf", DrawtextFilter(lyricLines, a.fontFile),
			"-c:v", "libx264",
			"-preset", "fast",
			"-pix_fmt", "yuv420p",
		)
	} else {
		args = append(args, "-c:v", "copy")
	}

	args = append(args,
		"-c:a", "aac",
		"-t", strconv.Itoa(types.TotalSeconds),
		outputPath,
	)
	if err := runFFmpeg(ctx, args...); err != nil {
		return fmt.Errorf("mux final video: %w", err)
	}

	fi, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("final video missing after mux: %w", err)
	}

	log.Printf("[assemble] ✅ Final video ready: %s (%.2f MB)", outputPath, float64(fi.Size())/1024/1024)
	return nil
}

// ConcatList renders the ffmpeg concat demuxer list for the given files,
// preserving input order.
func ConcatList(paths []string) string {
	var lines []string
	for _, p := range paths {
		lines = append(lines, fmt.Sprintf("file '%s'", p))
	}
	return strings.Join(lines, "\n")
}

// AudioLoops returns how many extra times a track of the given duration must
// be looped to cover targetSec. Zero means the track is long enough and only
// needs trimming.
func AudioLoops(durationSec float64, targetSec int) int {
	if durationSec >= float64(targetSec) {
		return 0
	}
	return int(math.Ceil(float64(targetSec)/durationSec)) - 1
}

// DrawtextFilter builds a drawtext chain that shows each scene's lyric line
// during its 5-second window.
func DrawtextFilter(lyricLines []string, fontFile string) string {
	var parts []string
	for i, line := range lyricLines {
		start := i * types.SceneSeconds
		end := (i + 1) * types.SceneSeconds
		dt := fmt.Sprintf(
			"drawtext=text='%s':fontsize=48:fontcolor=white:borderw=2:bordercolor=black:x=(w-text_w)/2:y=h-120:enable='between(t,%d,%d)'",
			EscapeDrawtext(line), start, end,
		)
		if fontFile != "" {
			dt += ":fontfile=" + fontFile
		}
		parts = append(parts, dt)
	}
	return strings.Join(parts, ",")
}

// EscapeDrawtext escapes the characters drawtext treats specially inside a
// single-quoted text value.
func EscapeDrawtext(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`%`, `\%`,
		`,`, `\,`,
	)
	return r.Replace(s)
}

// probeDuration returns a media file's duration in seconds via ffprobe.
func probeDuration(ctx context.Context, path string) (float64, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe output for %s: %w", path, err)
	}
	return dur, nil
}

// runFFmpeg executes ffmpeg, returning stderr in the error on failure.
func runFFmpeg(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if len(msg) > 500 {
			msg = msg[len(msg)-500:]
		}
		return fmt.Errorf("ffmpeg %s: %w: %s", args[len(args)-1], err, msg)
	}
	return nil
}
