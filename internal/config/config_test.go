package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"hardsub/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("HARDSUB_OCR_COMMAND", "")
	t.Setenv("HARDSUB_LOG_LEVEL", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "hardsub", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.HistoryPath() != filepath.Join(tempHome, ".local", "share", "hardsub", "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.Sampling.Cadence != 10 {
		t.Fatalf("expected default cadence 10, got %v", cfg.Sampling.Cadence)
	}
	if cfg.Recognition.ConfidenceThreshold != 0.8 {
		t.Fatalf("expected default threshold 0.8, got %v", cfg.Recognition.ConfidenceThreshold)
	}
	if cfg.Recognition.MinTextLength != 2 || cfg.Recognition.MaxTextLength != 50 {
		t.Fatalf("unexpected text length bounds: %d..%d", cfg.Recognition.MinTextLength, cfg.Recognition.MaxTextLength)
	}
	if cfg.Segmentation.MinDurationSeconds != 0.5 || cfg.Segmentation.MaxDurationSeconds != 3 {
		t.Fatalf("unexpected cue durations: %v..%v", cfg.Segmentation.MinDurationSeconds, cfg.Segmentation.MaxDurationSeconds)
	}
	if cfg.Segmentation.EmptyThreshold != 6 {
		t.Fatalf("unexpected empty threshold: %d", cfg.Segmentation.EmptyThreshold)
	}
	if cfg.Batch.GroupSize != 5 {
		t.Fatalf("unexpected group size: %d", cfg.Batch.GroupSize)
	}
	if cfg.Batch.OutputDirName != "output" {
		t.Fatalf("unexpected output dir name: %q", cfg.Batch.OutputDirName)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "hardsub.toml")

	type payload struct {
		Sampling struct {
			Cadence float64 `toml:"cadence"`
		} `toml:"sampling"`
		Recognition struct {
			Engine              string  `toml:"engine"`
			ConfidenceThreshold float64 `toml:"confidence_threshold"`
		} `toml:"recognition"`
		Batch struct {
			GroupSize int `toml:"group_size"`
		} `toml:"batch"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Sampling.Cadence = 4
	custom.Recognition.Engine = " Tesseract "
	custom.Recognition.ConfidenceThreshold = 0.9
	custom.Batch.GroupSize = 2
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}
	t.Setenv("HARDSUB_OCR_COMMAND", "")

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Sampling.Cadence != 4 {
		t.Fatalf("expected cadence 4, got %v", cfg.Sampling.Cadence)
	}
	if cfg.Recognition.Engine != config.EngineTesseract {
		t.Fatalf("expected engine normalized to tesseract, got %q", cfg.Recognition.Engine)
	}
	if cfg.Recognition.Command != "tesseract" {
		t.Fatalf("expected tesseract command default, got %q", cfg.Recognition.Command)
	}
	if cfg.Recognition.ConfidenceThreshold != 0.9 {
		t.Fatalf("expected threshold 0.9, got %v", cfg.Recognition.ConfidenceThreshold)
	}
	if cfg.Batch.GroupSize != 2 {
		t.Fatalf("expected group size 2, got %d", cfg.Batch.GroupSize)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestEnvVarOverridesConfigFile(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "hardsub.toml")
	if err := os.WriteFile(configPath, []byte("[recognition]\ncommand = \"file-ocr\"\n[logging]\nlevel = \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HARDSUB_OCR_COMMAND", "env-ocr")
	t.Setenv("HARDSUB_LOG_LEVEL", "DEBUG")
	t.Setenv("HARDSUB_NTFY_TOPIC", "https://ntfy.example/hardsub")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Recognition.Command != "env-ocr" {
		t.Errorf("expected OCR command from env, got %q", cfg.Recognition.Command)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level from env, got %q", cfg.Logging.Level)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/hardsub" {
		t.Errorf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "confidence_threshold") {
		t.Fatalf("sample config missing recognition settings: %s", contents)
	}

	cfg := config.Default()
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
	if !strings.Contains(cfg.Paths.LogDir, "hardsub") {
		t.Fatalf("expected log dir to contain hardsub, got %q", cfg.Paths.LogDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero cadence", func(c *config.Config) { c.Sampling.Cadence = 0 }},
		{"unknown engine", func(c *config.Config) { c.Recognition.Engine = "paddle" }},
		{"empty command", func(c *config.Config) { c.Recognition.Command = " " }},
		{"threshold above one", func(c *config.Config) { c.Recognition.ConfidenceThreshold = 1 }},
		{"negative threshold", func(c *config.Config) { c.Recognition.ConfidenceThreshold = -0.1 }},
		{"min above max length", func(c *config.Config) { c.Recognition.MinTextLength = 60 }},
		{"zero max length", func(c *config.Config) { c.Recognition.MaxTextLength = 0 }},
		{"min above max duration", func(c *config.Config) { c.Segmentation.MinDurationSeconds = 5 }},
		{"zero empty threshold", func(c *config.Config) { c.Segmentation.EmptyThreshold = 0 }},
		{"zero group size", func(c *config.Config) { c.Batch.GroupSize = 0 }},
		{"nested output dir", func(c *config.Config) { c.Batch.OutputDirName = "out/subs" }},
		{"ntfy topic without scheme", func(c *config.Config) { c.Notifications.NtfyTopic = "ntfy.sh/topic" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestCommandDefaultFollowsEngine(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HARDSUB_OCR_COMMAND", "")

	sample := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(sample); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	sampleData, err := os.ReadFile(sample)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	tesseractSample := strings.Replace(string(sampleData), `engine = "command"`, `engine = "tesseract"`, 1)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty file", "", "hardsub-ocr"},
		{"tesseract engine", "[recognition]\nengine = \"tesseract\"\n", "tesseract"},
		{"explicit command kept", "[recognition]\nengine = \"tesseract\"\ncommand = \"/opt/tess\"\n", "/opt/tess"},
		{"unmodified sample", string(sampleData), "hardsub-ocr"},
		{"sample switched to tesseract", tesseractSample, "tesseract"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "hardsub.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			cfg, _, _, err := config.Load(path)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if cfg.Recognition.Command != tt.want {
				t.Fatalf("command = %q, want %q", cfg.Recognition.Command, tt.want)
			}
		})
	}

	if got := config.Default().Recognition.Command; got != "hardsub-ocr" {
		t.Fatalf("default command = %q", got)
	}
}
