package main

import (
	"context"
	"log"
	"os"
	"time"

	extract "hiresong/01_extract"
	scrape "hiresong/02_scrape"
	summarize "hiresong/03_summarize"
	lyrics "hiresong/04_lyrics"
	scenes "hiresong/05_scenes"
	images "hiresong/06_images"
	music "hiresong/07_music"
	videos "hiresong/08_videos"
	assemble "hiresong/09_assemble"
	"hiresong/config"
	"hiresong/pipeline"
	"hiresong/runlog"
	"hiresong/server"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments export the keys directly.
	if err := godotenv.Load(); err == nil {
		log.Println("✅ Loaded environment from .env")
	}

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Printf("⚠️  No config.yaml (%v), using defaults", err)
		cfg = config.Default()
	}

	if err := os.MkdirAll(cfg.Paths.Results, 0755); err != nil {
		log.Fatalf("❌ Cannot create results dir %s: %v", cfg.Paths.Results, err)
	}

	store := newRunLog(cfg)

	svc := pipeline.Services{
		Extractor: extract.New(),
		Scraper:   scrape.New(cfg.Scraper.MaxChars, time.Duration(cfg.Scraper.TimeoutSeconds)*time.Second),
		Summarize: summarize.New(cfg.OpenAI.SummaryModel, *cfg.OpenAI.SummaryTemperature),
		Lyrics:    lyrics.New(cfg.OpenAI.LyricsModel),
		Scenes:    scenes.New(cfg.OpenAI.SceneModel, *cfg.OpenAI.SceneTemperature),
		Images:    images.New(cfg.Fal.ImageModel),
		Videos:    videos.New(cfg.Fal.VideoModel, cfg.Fal.AspectRatio),
		Music:     music.New(cfg.Music.LengthMs),
		Assemble:  assemble.New(cfg.Assembly.FPS, cfg.Assembly.OverlayLyrics, cfg.Assembly.FontFile),
		RunLog:    store,
	}

	p := pipeline.New(cfg.Paths.Results, svc)
	srv := server.New(p, cfg.Paths.Results)

	log.Println("🎵 HireSong API starting")
	if err := srv.Start(cfg.Server.Addr); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
}

// newRunLog builds the spreadsheet run log, falling back to a no-op store
// when credentials are missing or the service can't be reached.
func newRunLog(cfg *config.Config) runlog.Store {
	if cfg.RunLog.CredentialsFile == "" || cfg.RunLog.SheetID == "" {
		log.Println("⚠️  Run log not configured, continuing without it")
		return runlog.Noop{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := runlog.NewSheetStore(ctx, cfg.RunLog.CredentialsFile, cfg.RunLog.SheetID, cfg.RunLog.SheetRange)
	if err != nil {
		log.Printf("⚠️  Run log unavailable (%v), continuing without it", err)
		return runlog.Noop{}
	}
	if err := store.InitializeHeader(ctx); err != nil {
		log.Printf("⚠️  Run log header init failed: %v", err)
	}
	log.Println("✅ Run log connected")
	return store
}
