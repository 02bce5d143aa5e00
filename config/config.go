package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Fal      FalConfig      `yaml:"fal"`
	Music    MusicConfig    `yaml:"music"`
	Assembly AssemblyConfig `yaml:"assembly"`
	RunLog   RunLogConfig   `yaml:"run_log"`
	Paths    PathsConfig    `yaml:"paths"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Temperatures are pointers so an explicit 0.0 (deterministic output) is
// distinguishable from an unset field.
type OpenAIConfig struct {
	SummaryModel       string   `yaml:"summary_model"`
	SummaryTemperature *float64 `yaml:"summary_temperature"`
	LyricsModel        string   `yaml:"lyrics_model"`
	SceneModel         string   `yaml:"scene_model"`
	SceneTemperature   *float64 `yaml:"scene_temperature"`
}

type ScraperConfig struct {
	MaxChars       int `yaml:"max_chars"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type FalConfig struct {
	ImageModel  string `yaml:"image_model"`
	VideoModel  string `yaml:"video_model"`
	AspectRatio string `yaml:"aspect_ratio"`
}

type MusicConfig struct {
	LengthMs int `yaml:"length_ms"`
}

type AssemblyConfig struct {
	FPS           int  `yaml:"fps"`
	OverlayLyrics bool `yaml:"overlay_lyrics"`
	FontFile      string `yaml:"font_file"`
}

type RunLogConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SheetID         string `yaml:"sheet_id"`
	SheetRange      string `yaml:"sheet_range"`
}

type PathsConfig struct {
	Results string `yaml:"results"`
}

// Load reads config.yaml and returns a Config struct with defaults applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a usable config when no config.yaml exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.OpenAI.SummaryModel == "" {
		c.OpenAI.SummaryModel = "gpt-4o"
	}
	if c.OpenAI.SummaryTemperature == nil {
		c.OpenAI.SummaryTemperature = floatPtr(0.3)
	}
	if c.OpenAI.LyricsModel == "" {
		c.OpenAI.LyricsModel = "gpt-5"
	}
	if c.OpenAI.SceneModel == "" {
		c.OpenAI.SceneModel = "gpt-4o-2024-08-06"
	}
	if c.OpenAI.SceneTemperature == nil {
		c.OpenAI.SceneTemperature = floatPtr(0.4)
	}
	if c.Scraper.MaxChars == 0 {
		c.Scraper.MaxChars = 10000
	}
	if c.Scraper.TimeoutSeconds == 0 {
		c.Scraper.TimeoutSeconds = 10
	}
	if c.Fal.ImageModel == "" {
		c.Fal.ImageModel = "fal-ai/nano-banana/edit"
	}
	if c.Fal.VideoModel == "" {
		c.Fal.VideoModel = "fal-ai/kling-video/v2.5-turbo/pro/image-to-video"
	}
	if c.Fal.AspectRatio == "" {
		c.Fal.AspectRatio = "16:9"
	}
	if c.Music.LengthMs == 0 {
		c.Music.LengthMs = 30000
	}
	if c.Assembly.FPS == 0 {
		c.Assembly.FPS = 24
	}
	if c.RunLog.SheetRange == "" {
		c.RunLog.SheetRange = "Sheet1"
	}
	if c.Paths.Results == "" {
		c.Paths.Results = "results"
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
