package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shaiso/Polyglot/internal/domain"
)

// --- Default Tests ---

func TestDefault_Valid(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if len(cfg.Stages) != 4 {
		t.Fatalf("expected 4 stages, got %d", len(cfg.Stages))
	}
	for i, name := range domain.StageNames() {
		if cfg.Stages[i].Name != name {
			t.Errorf("stage %d: expected %s, got %s", i, name, cfg.Stages[i].Name)
		}
	}

	s0 := cfg.Stages[0]
	if s0.Endpoint != "http://localhost:8080/ai/analyze" {
		t.Errorf("unexpected endpoint: %s", s0.Endpoint)
	}
	if !s0.IsCacheable() {
		t.Error("language-analysis should be cacheable")
	}
	if cfg.Stages[1].IsCacheable() {
		t.Error("statistics should not be cacheable")
	}
	if s0.Retries() != defaultMaxRetries {
		t.Errorf("expected %d retries, got %d", defaultMaxRetries, s0.Retries())
	}
	if cfg.Cache.TTL.Duration() != time.Hour {
		t.Errorf("expected 1h TTL, got %v", cfg.Cache.TTL.Duration())
	}
}

// --- Parse Tests ---

func TestParse_StageOverride(t *testing.T) {
	data := []byte(`
model_id: r-statistical
stages:
  - name: statistics
    endpoint: http://stats:9000/analyze
    timeout: 5s
    max_retries: 0
    backoff:
      initial: 100ms
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ModelID != "r-statistical" {
		t.Errorf("expected r-statistical, got %s", cfg.ModelID)
	}

	stats, ok := cfg.Stage(domain.StageStatistics)
	if !ok {
		t.Fatal("statistics stage should exist")
	}
	if stats.Endpoint != "http://stats:9000/analyze" {
		t.Errorf("unexpected endpoint: %s", stats.Endpoint)
	}
	if stats.Timeout.Duration() != 5*time.Second {
		t.Errorf("expected 5s, got %v", stats.Timeout.Duration())
	}
	if stats.Retries() != 0 {
		t.Errorf("expected 0 retries, got %d", stats.Retries())
	}
	if stats.Backoff.Initial.Duration() != 100*time.Millisecond {
		t.Errorf("expected 100ms, got %v", stats.Backoff.Initial.Duration())
	}
	// Незаданные поля берутся из значений по умолчанию
	if stats.Backoff.Max.Duration() != defaultBackoffMax {
		t.Errorf("expected default max backoff, got %v", stats.Backoff.Max.Duration())
	}

	// Остальные этапы не изменились
	lang, _ := cfg.Stage(domain.StageLanguageAnalysis)
	if lang.Endpoint != "http://localhost:8080/ai/analyze" {
		t.Errorf("language-analysis endpoint should keep default, got %s", lang.Endpoint)
	}
	if len(cfg.Stages) != 4 {
		t.Errorf("expected 4 stages, got %d", len(cfg.Stages))
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	data := []byte(`
stages:
  - name: statistics
    timeout: soon
`)
	if _, err := Parse(data); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestParse_NegativeRetries(t *testing.T) {
	data := []byte(`
stages:
  - name: optimization
    max_retries: -1
`)
	_, err := Parse(data)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestParse_Jitter(t *testing.T) {
	cfg, err := Parse([]byte(`
stages:
  - name: statistics
    backoff:
      jitter: 0
  - name: optimization
    backoff:
      jitter: 0.5
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Явный 0 отключает разброс и не заменяется значением по умолчанию
	stats, _ := cfg.Stage(domain.StageStatistics)
	if got := stats.Backoff.JitterFraction(); got != 0 {
		t.Errorf("expected jitter 0, got %v", got)
	}
	opt, _ := cfg.Stage(domain.StageOptimization)
	if got := opt.Backoff.JitterFraction(); got != 0.5 {
		t.Errorf("expected jitter 0.5, got %v", got)
	}
	lang, _ := cfg.Stage(domain.StageLanguageAnalysis)
	if got := lang.Backoff.JitterFraction(); got != defaultJitter {
		t.Errorf("expected default jitter, got %v", got)
	}

	_, err = Parse([]byte(`
stages:
  - name: statistics
    backoff:
      jitter: 1.5
`))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for jitter 1.5, got %v", err)
	}
}

func TestParse_InvalidPurgeCron(t *testing.T) {
	data := []byte(`
cache:
  enabled: true
  purge_cron: "every ten minutes"
`)
	_, err := Parse(data)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestParse_UnknownStageKept(t *testing.T) {
	data := []byte(`
stages:
  - name: translation
    endpoint: http://localhost:9999/translate
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cfg.Stage("translation"); !ok {
		t.Error("unknown stage should be kept for later validation")
	}
}

// --- Load Tests ---

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9100")
	t.Setenv("POLYGLOT_STATISTICS_URL", "http://env-stats/analyze")
	t.Setenv("POLYGLOT_STAGE_TIMEOUT", "7s")
	t.Setenv("POLYGLOT_STAGE_MAX_RETRIES", "4")
	t.Setenv("POLYGLOT_CACHE_TTL", "15m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9100" {
		t.Errorf("expected port 9100, got %s", cfg.Port)
	}
	stats, _ := cfg.Stage(domain.StageStatistics)
	if stats.Endpoint != "http://env-stats/analyze" {
		t.Errorf("unexpected endpoint: %s", stats.Endpoint)
	}
	for _, s := range cfg.Stages {
		if s.Timeout.Duration() != 7*time.Second {
			t.Errorf("stage %s: expected 7s, got %v", s.Name, s.Timeout.Duration())
		}
		if s.Retries() != 4 {
			t.Errorf("stage %s: expected 4 retries, got %d", s.Name, s.Retries())
		}
	}
	if cfg.Cache.TTL.Duration() != 15*time.Minute {
		t.Errorf("expected 15m, got %v", cfg.Cache.TTL.Duration())
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polyglot.yaml")
	if err := os.WriteFile(path, []byte("dimensions: 3\nbatch_size: 50\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dimensions != 3 || cfg.BatchSize != 50 {
		t.Errorf("expected 3/50, got %d/%d", cfg.Dimensions, cfg.BatchSize)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	t.Setenv("POLYGLOT_STAGE_MAX_RETRIES", "many")

	_, err := Load("")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
