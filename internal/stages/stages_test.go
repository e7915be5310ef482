package stages

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Polyglot/internal/config"
	"github.com/shaiso/Polyglot/internal/domain"
)

// --- Projection Tests ---

func TestLanguageAnalysisRequest(t *testing.T) {
	build := LanguageAnalysisRequest("python-bert")

	req, err := build("hello world", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req["text"] != "hello world" {
		t.Errorf("expected text 'hello world', got %v", req["text"])
	}
	if req["modelId"] != "python-bert" {
		t.Errorf("expected modelId python-bert, got %v", req["modelId"])
	}

	if _, err := build("   ", nil); !errors.Is(err, ErrProjection) {
		t.Errorf("expected ErrProjection for blank input, got %v", err)
	}
}

func TestStatisticsRequest_PassesFieldThrough(t *testing.T) {
	prev := json.RawMessage(`{"embeddings":[0.1],"numerical_features":[1.5, 2.25, 3]}`)

	req, err := StatisticsRequest("ignored", prev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, ok := req["data"].(json.RawMessage)
	if !ok {
		t.Fatalf("data should be json.RawMessage, got %T", req["data"])
	}
	// Байты передаются без изменений
	if string(data) != "[1.5, 2.25, 3]" {
		t.Errorf("unexpected data: %s", data)
	}

	body, _ := json.Marshal(req)
	if string(body) != `{"data":[1.5,2.25,3]}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestOptimizationRequest(t *testing.T) {
	prev := json.RawMessage(`{"basic_statistics":{"mean":2,"std":1}}`)

	req, err := OptimizationRequest("", prev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := json.Marshal(req)
	if string(body) != `{"data":{"mean":2,"std":1}}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNumericalOptimizationRequest(t *testing.T) {
	build := NumericalOptimizationRequest(1, 100)

	req, err := build("", json.RawMessage(`{"solution":[0.5,0.25]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := json.Marshal(req)
	if string(body) != `{"batch_size":100,"data":[0.5,0.25],"dimensions":1}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestExtractField_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload json.RawMessage
	}{
		{"nil payload", nil},
		{"not an object", json.RawMessage(`[1,2,3]`)},
		{"invalid json", json.RawMessage(`{broken`)},
		{"missing field", json.RawMessage(`{"other":1}`)},
		{"null field", json.RawMessage(`{"solution": null}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractField(tt.payload, FieldSolution)
			if !errors.Is(err, ErrProjection) {
				t.Errorf("expected ErrProjection, got %v", err)
			}
		})
	}
}

// --- Table Tests ---

func TestDefault(t *testing.T) {
	table := Default()

	if table.Len() != 4 {
		t.Fatalf("expected 4 stages, got %d", table.Len())
	}

	names := table.Names()
	for i, want := range domain.StageNames() {
		if names[i] != want {
			t.Errorf("stage %d: expected %s, got %s", i, want, names[i])
		}
	}

	lang := table.At(0)
	if lang.Endpoint != "http://localhost:8080/ai/analyze" {
		t.Errorf("unexpected endpoint: %s", lang.Endpoint)
	}
	if !lang.Cacheable {
		t.Error("language-analysis should be cacheable")
	}
	if len(lang.RequiredFields) != 1 || lang.RequiredFields[0] != FieldNumericalFeatures {
		t.Errorf("unexpected required fields: %v", lang.RequiredFields)
	}
	if lang.MaxAttempts() != 3 {
		t.Errorf("expected 3 attempts, got %d", lang.MaxAttempts())
	}

	last := table.At(3)
	if len(last.RequiredFields) != 0 {
		t.Errorf("numerical-optimization should not require fields, got %v", last.RequiredFields)
	}
}

func TestDefault_MatchesDefaultConfig(t *testing.T) {
	fromConfig, err := FromConfig(config.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	table := Default()
	for k := range table {
		got, want := table.At(k), fromConfig.At(k)
		if got.Name != want.Name || got.Endpoint != want.Endpoint || got.Timeout != want.Timeout ||
			got.MaxRetries != want.MaxRetries || got.Backoff != want.Backoff || got.Cacheable != want.Cacheable {
			t.Errorf("stage %d: Default() %+v differs from FromConfig(config.Default()) %+v", k, got, want)
		}
	}
}

func TestFromConfig_UsesStageSettings(t *testing.T) {
	cfg, err := config.Parse([]byte(`
model_id: julia-optimization
stages:
  - name: optimization
    endpoint: https://opt.internal/optimize
    timeout: 3s
    max_retries: 5
    backoff:
      jitter: 0
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	table, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opt, ok := table.Lookup(domain.StageOptimization)
	if !ok {
		t.Fatal("optimization should be in table")
	}
	if opt.Endpoint != "https://opt.internal/optimize" {
		t.Errorf("unexpected endpoint: %s", opt.Endpoint)
	}
	if opt.Timeout != 3*time.Second {
		t.Errorf("expected 3s, got %v", opt.Timeout)
	}
	if opt.MaxRetries != 5 {
		t.Errorf("expected 5 retries, got %d", opt.MaxRetries)
	}
	if opt.Backoff.Jitter != 0 {
		t.Errorf("expected jitter disabled, got %v", opt.Backoff.Jitter)
	}

	req, err := table.At(0).BuildRequest("text", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req["modelId"] != "julia-optimization" {
		t.Errorf("expected modelId from config, got %v", req["modelId"])
	}
}

func TestFromConfig_UnknownStage(t *testing.T) {
	cfg := config.Default()
	cfg.Stages = append(cfg.Stages, config.StageConfig{Name: "translation", Endpoint: "http://x/y"})

	_, err := FromConfig(cfg)
	if !errors.Is(err, ErrUnknownStage) {
		t.Errorf("expected ErrUnknownStage, got %v", err)
	}
}

func TestTable_Validate(t *testing.T) {
	valid := Descriptor{
		Name:         "a",
		Endpoint:     "http://localhost:1/a",
		BuildRequest: StatisticsRequest,
		Timeout:      time.Second,
	}

	tests := []struct {
		name  string
		table Table
		ok    bool
	}{
		{"valid", Table{valid}, true},
		{"empty", Table{}, false},
		{"duplicate", Table{valid, valid}, false},
		{"bad endpoint", Table{func() Descriptor { d := valid; d.Endpoint = "localhost:1"; return d }()}, false},
		{"no projection", Table{func() Descriptor { d := valid; d.BuildRequest = nil; return d }()}, false},
		{"zero timeout", Table{func() Descriptor { d := valid; d.Timeout = 0; return d }()}, false},
		{"negative retries", Table{func() Descriptor { d := valid; d.MaxRetries = -1; return d }()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidTable) {
				t.Errorf("expected ErrInvalidTable, got %v", err)
			}
		})
	}
}
