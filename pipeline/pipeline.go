// Package pipeline owns the HireSong step sequence: nine dependent steps
// with fixed fan-out groups, per-run artifact persistence and best-effort
// run-log bookkeeping.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"hiresong/runlog"
	"hiresong/types"

	"golang.org/x/sync/errgroup"
)

// The hosted services the orchestrator drives. Each wrapper either fully
// succeeds or returns an error; there is no retry layer.

type TextExtractor interface {
	Extract(pdfPath string) (string, error)
}

type Scraper interface {
	Scrape(ctx context.Context, url string) (string, error)
}

type Summarizer interface {
	SummarizeCV(ctx context.Context, rawCVText string) (string, error)
	SummarizeCompany(ctx context.Context, websiteText string) (string, error)
}

type LyricsGenerator interface {
	Generate(ctx context.Context, cvSummary, companySummary, preferredGenre string) (*types.SongStructure, error)
}

type ScenePlanner interface {
	Plan(ctx context.Context, cvSummary, companySummary string, song *types.SongStructure) (*types.ScenePlan, error)
}

type ImageEditor interface {
	Edit(ctx context.Context, selfiePath, prompt string) (string, error)
}

type VideoAnimator interface {
	Animate(ctx context.Context, imageURL, prompt string) (string, error)
}

type MusicComposer interface {
	Compose(ctx context.Context, song *types.SongStructure) ([]byte, error)
}

type Assembler interface {
	Assemble(ctx context.Context, clipPaths []string, musicPath string, lyricLines []string, outputPath string) error
}

// Services bundles everything a Pipeline needs.
type Services struct {
	Extractor TextExtractor
	Scraper   Scraper
	Summarize Summarizer
	Lyrics    LyricsGenerator
	Scenes    ScenePlanner
	Images    ImageEditor
	Videos    VideoAnimator
	Music     MusicComposer
	Assemble  Assembler
	RunLog    runlog.Store
}

// Input is one generation request.
type Input struct {
	SelfiePath string
	CVPath     string
	CompanyURL string
	// Genre is an optional preferred music genre; empty lets the model pick.
	Genre string
	// OutputDir overrides the default timestamp-named run directory.
	OutputDir string
}

// Pipeline runs the full HireSong sequence for one request at a time; each
// HTTP request gets its own independent run.
type Pipeline struct {
	resultsDir string
	svc        Services
	httpClient *http.Client
}

// New creates a Pipeline that stores runs under resultsDir.
func New(resultsDir string, svc Services) *Pipeline {
	return &Pipeline{
		resultsDir: resultsDir,
		svc:        svc,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Run executes the whole pipeline and returns the manifest. On failure the
// run directory keeps every artifact produced so far, the run log gets a
// best-effort failure row including any generated URLs, and the original
// error is returned wrapped with its step name.
func (p *Pipeline) Run(ctx context.Context, in Input) (*types.Manifest, error) {
	// Step 1: run directory.
	runDir := in.OutputDir
	runID := time.Now().Format("20060102_150405")
	if runDir == "" {
		runDir = filepath.Join(p.resultsDir, runID)
	} else {
		runID = filepath.Base(runDir)
	}
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("create run dir: %w", err)
	}

	log.Printf("🎵 HireSong pipeline starting — Run ID: %s", runID)
	log.Printf("📁 Output dir: %s", runDir)

	run := &types.Run{
		ID:         runID,
		OutputDir:  runDir,
		CompanyURL: in.CompanyURL,
		Genre:      in.Genre,
		Status:     types.StatusInProgress,
	}

	manifest := &types.Manifest{
		OutputDir:       runDir,
		Timestamp:       time.Now().Format(time.RFC3339),
		InputCompanyURL: in.CompanyURL,
	}

	// Step 2: copy inputs into the run directory under fixed names.
	manifest.InputSelfie = filepath.Join(runDir, "00_input_selfie.jpg")
	manifest.InputCV = filepath.Join(runDir, "00_input_cv.pdf")
	if err := copyFile(in.SelfiePath, manifest.InputSelfie); err != nil {
		return nil, fmt.Errorf("copy selfie: %w", err)
	}
	if err := copyFile(in.CVPath, manifest.InputCV); err != nil {
		return nil, fmt.Errorf("copy cv: %w", err)
	}

	// Step 3: best-effort start record.
	p.tryLog("start", p.svc.RunLog.RecordStart(ctx, run))

	fail := func(step string, err error) (*types.Manifest, error) {
		wrapped := fmt.Errorf("%s: %w", step, err)
		run.Status = types.StatusFailed
		p.tryLog("failure", p.svc.RunLog.RecordFailure(ctx, run.ID, wrapped.Error(),
			compact(run.ImageURLs), compact(run.VideoURLs)))
		return nil, wrapped
	}

	// Step 4: extract CV text and scrape the company site concurrently.
	log.Println("━━━ STEP 1 & 2: Extracting CV and scraping website (parallel) ━━━")
	var cvText, websiteText string
	{
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			cvText, err = p.svc.Extractor.Extract(in.CVPath)
			return err
		})
		g.Go(func() error {
			var err error
			websiteText, err = p.svc.Scraper.Scrape(gctx, in.CompanyURL)
			return err
		})
		if err := g.Wait(); err != nil {
			return fail("extract inputs", err)
		}
	}
	manifest.CVText = filepath.Join(runDir, "01_cv_text.txt")
	manifest.WebsiteText = filepath.Join(runDir, "01_website_text.txt")
	if err := os.WriteFile(manifest.CVText, []byte(cvText), 0644); err != nil {
		return fail("save cv text", err)
	}
	if err := os.WriteFile(manifest.WebsiteText, []byte(websiteText), 0644); err != nil {
		return fail("save website text", err)
	}

	// Step 5: summarize both texts concurrently.
	log.Println("━━━ STEP 3: Summarizing CV and company (parallel) ━━━")
	var cvSummary, companySummary string
	{
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			cvSummary, err = p.svc.Summarize.SummarizeCV(gctx, cvText)
			return err
		})
		g.Go(func() error {
			var err error
			companySummary, err = p.svc.Summarize.SummarizeCompany(gctx, websiteText)
			return err
		})
		if err := g.Wait(); err != nil {
			return fail("summarize", err)
		}
	}
	manifest.CVSummary = filepath.Join(runDir, "02_cv_summary.txt")
	manifest.CompanySummary = filepath.Join(runDir, "02_company_summary.txt")
	if err := os.WriteFile(manifest.CVSummary, []byte(cvSummary), 0644); err != nil {
		return fail("save cv summary", err)
	}
	if err := os.WriteFile(manifest.CompanySummary, []byte(companySummary), 0644); err != nil {
		return fail("save company summary", err)
	}
	p.tryLog("summaries", p.svc.RunLog.RecordSummaries(ctx, run.ID, cvSummary, companySummary, runDir))

	// Step 6: song lyrics (single blocking call).
	log.Println("━━━ STEP 4: Generating song lyrics ━━━")
	song, err := p.svc.Lyrics.Generate(ctx, cvSummary, companySummary, in.Genre)
	if err != nil {
		return fail("generate lyrics", err)
	}
	manifest.Lyrics = filepath.Join(runDir, "03_lyrics.json")
	if err := saveJSON(manifest.Lyrics, song); err != nil {
		return fail("save lyrics", err)
	}
	p.tryLog("song", p.svc.RunLog.RecordSong(ctx, run.ID, song))

	// Step 7: scene plan (single blocking call, needs the song).
	log.Println("━━━ STEP 5: Planning visual scenes ━━━")
	plan, err := p.svc.Scenes.Plan(ctx, cvSummary, companySummary, song)
	if err != nil {
		return fail("plan scenes", err)
	}
	manifest.Scenes = filepath.Join(runDir, "04_scenes.json")
	if err := saveJSON(manifest.Scenes, plan); err != nil {
		return fail("save scene plan", err)
	}

	// Step 8: 6 image edits and the music track as one concurrency group.
	// Results land in per-scene slots so order is preserved no matter which
	// call finishes first.
	log.Println("━━━ STEP 6 & 8: Generating 6 images + music (parallel) ━━━")
	imagePaths := make([]string, types.NumScenes)
	run.ImageURLs = make([]string, types.NumScenes)
	var musicData []byte
	{
		g, gctx := errgroup.WithContext(ctx)
		for i, sv := range plan.Scenes {
			i, sv := i, sv
			g.Go(func() error {
				log.Printf("  Generating image %d/%d...", sv.SceneNum, types.NumScenes)
				url, err := p.svc.Images.Edit(gctx, manifest.InputSelfie, sv.ImagePrompt)
				if err != nil {
					return fmt.Errorf("image scene %d: %w", sv.SceneNum, err)
				}
				run.ImageURLs[i] = url

				path := filepath.Join(runDir, fmt.Sprintf("05_image_scene_%d.jpg", sv.SceneNum))
				if err := p.download(gctx, url, path); err != nil {
					return fmt.Errorf("download image scene %d: %w", sv.SceneNum, err)
				}
				imagePaths[i] = path
				return nil
			})
		}
		g.Go(func() error {
			var err error
			musicData, err = p.svc.Music.Compose(gctx, song)
			if err != nil {
				return fmt.Errorf("music: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return fail("generate images and music", err)
		}
	}
	manifest.Music = filepath.Join(runDir, "06_music.mp3")
	if err := os.WriteFile(manifest.Music, musicData, 0644); err != nil {
		return fail("save music", err)
	}
	manifest.Images = imagePaths

	// Step 9: a video per scene, 6-way concurrent, scene order preserved.
	log.Println("━━━ STEP 7: Generating 6 videos (parallel) ━━━")
	videoPaths := make([]string, types.NumScenes)
	run.VideoURLs = make([]string, types.NumScenes)
	{
		g, gctx := errgroup.WithContext(ctx)
		for i, sv := range plan.Scenes {
			i, sv := i, sv
			g.Go(func() error {
				log.Printf("  Generating video %d/%d...", sv.SceneNum, types.NumScenes)
				url, err := p.svc.Videos.Animate(gctx, run.ImageURLs[i], sv.VideoPrompt)
				if err != nil {
					return fmt.Errorf("video scene %d: %w", sv.SceneNum, err)
				}
				run.VideoURLs[i] = url

				path := filepath.Join(runDir, fmt.Sprintf("07_video_scene_%d.mp4", sv.SceneNum))
				if err := p.download(gctx, url, path); err != nil {
					return fmt.Errorf("download video scene %d: %w", sv.SceneNum, err)
				}
				videoPaths[i] = path
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return fail("generate videos", err)
		}
	}
	manifest.Videos = videoPaths

	// Step 10: final assembly.
	log.Println("━━━ STEP 9: Assembling final video ━━━")
	manifest.FinalVideo = filepath.Join(runDir, "08_final_video.mp4")
	lyricLines := make([]string, types.NumScenes)
	for i, sc := range song.Scenes {
		lyricLines[i] = sc.Lyrics
	}
	if err := p.svc.Assemble.Assemble(ctx, videoPaths, manifest.Music, lyricLines, manifest.FinalVideo); err != nil {
		return fail("assemble video", err)
	}

	// Step 11: manifest + best-effort completion record.
	manifestPath := filepath.Join(runDir, "results_manifest.json")
	if err := saveJSON(manifestPath, manifest); err != nil {
		return fail("save manifest", err)
	}
	run.Status = types.StatusCompleted
	p.tryLog("completion", p.svc.RunLog.RecordCompletion(ctx, run.ID, manifest.FinalVideo,
		run.ImageURLs, run.VideoURLs))

	log.Printf("🎉 HireSong pipeline completed! All files in %s", runDir)
	return manifest, nil
}

// tryLog logs best-effort run-log failures; observability must never abort a
// pipeline.
func (p *Pipeline) tryLog(what string, err error) {
	if err != nil {
		log.Printf("[pipeline] ⚠️  Run log %s update failed: %v", what, err)
	}
}

// download fetches a generated artifact URL into a local file.
func (p *Pipeline) download(ctx context.Context, url, outFile string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", outFile, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func saveJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// compact drops empty slots so partially-filled URL lists read cleanly in
// the run log.
func compact(urls []string) []string {
	var out []string
	for _, u := range urls {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}
