package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

// writeData отвечает в конверте {"data": ...}.
func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func testRun(id, status string, stageStatuses ...string) RunResponse {
	names := []string{"language-analysis", "statistics", "optimization", "numerical-optimization"}
	run := RunResponse{RunID: id, Status: status}
	for i, s := range stageStatuses {
		run.Stages = append(run.Stages, StageResponse{Index: i, Name: names[i], Status: s})
	}
	return run
}

// --- Client Tests ---

func TestClient_Analyze(t *testing.T) {
	var gotQuery string
	var gotBody AnalyzeRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/analyze" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeData(w, http.StatusOK, testRun("r1", "COMPLETED", "SUCCEEDED"))
	}))
	defer server.Close()

	run, err := NewClient(server.URL).Analyze("hello world", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery != "wait=true" {
		t.Errorf("expected wait=true, got %q", gotQuery)
	}
	if gotBody.Text != "hello world" {
		t.Errorf("expected text passed, got %q", gotBody.Text)
	}
	if run.RunID != "r1" || !run.IsFinished() {
		t.Errorf("unexpected run: %+v", run)
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"no run has been started"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).CurrentRun()
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if err.Error() != "NOT_FOUND: no run has been started" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestClient_APIError_NoEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).CancelCurrentRun()
	if err == nil || err.Error() != "API error: HTTP 502" {
		t.Errorf("expected HTTP 502 error, got %v", err)
	}
	if IsNotFound(err) {
		t.Error("502 is not a not-found error")
	}
}

func TestClient_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"python-bert","language":"Python"}],"total":1}`))
	}))
	defer server.Close()

	models, err := NewClient(server.URL).ListModels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(models) != 1 || models[0].ID != "python-bert" {
		t.Errorf("unexpected models: %+v", models)
	}
}

// --- Watch Tests ---

func TestWatchRun(t *testing.T) {
	// Последовательность снимков, которую отдаёт API
	snapshots := []RunResponse{
		testRun("r1", "RUNNING", "RUNNING", "NOT_STARTED"),
		testRun("r1", "RUNNING", "SUCCEEDED", "RUNNING"),
		testRun("r2", "RUNNING", "RUNNING", "NOT_STARTED"),
		testRun("r2", "PARTIALLY_FAILED", "SUCCEEDED", "FAILED"),
	}

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := int(calls.Add(1)) - 1
		if i >= len(snapshots) {
			i = len(snapshots) - 1
		}
		writeData(w, http.StatusOK, snapshots[i])
	}))
	defer server.Close()

	var stdout, stderr bytes.Buffer
	out := newOutput(false, &stdout, &stderr)

	run, err := watchRun(NewClient(server.URL), out, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.RunID != "r2" || run.Status != "PARTIALLY_FAILED" {
		t.Errorf("unexpected final run: %s %s", run.RunID, run.Status)
	}

	want := []string{
		"[0] language-analysis: RUNNING",
		"[0] language-analysis: SUCCEEDED",
		"[1] statistics: RUNNING",
		"Run r1 superseded by r2",
		"[1] statistics: FAILED",
	}
	log := stderr.String()
	for _, line := range want {
		if !strings.Contains(log, line) {
			t.Errorf("expected %q in output:\n%s", line, log)
		}
	}
	if strings.Contains(log, "NOT_STARTED") {
		t.Error("NOT_STARTED should not be reported as a transition")
	}
}

func TestWatchRun_NoRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"no run"}}`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	_, err := watchRun(NewClient(server.URL), newOutput(false, &buf, &buf), time.Millisecond)
	if !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestWatchRun_NonPositiveInterval(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeData(w, http.StatusOK, testRun("r1", "RUNNING", "RUNNING"))
	}))
	defer server.Close()

	var buf bytes.Buffer
	for _, interval := range []time.Duration{0, -time.Second} {
		_, err := watchRun(NewClient(server.URL), newOutput(false, &buf, &buf), interval)
		if !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("interval %s: expected ErrInvalidInterval, got %v", interval, err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("expected no API calls, got %d", calls.Load())
	}
}

func TestCommands_RejectNonPositiveInterval(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeData(w, http.StatusAccepted, testRun("r1", "RUNNING", "RUNNING"))
	}))
	defer server.Close()

	var buf bytes.Buffer
	clientFn := func() *Client { return NewClient(server.URL) }
	outputFn := func() *Output { return newOutput(false, &buf, &buf) }

	tests := []struct {
		name string
		cmd  func() *cobra.Command
		args []string
	}{
		{"analyze --watch", func() *cobra.Command { return NewAnalyzeCmd(clientFn, outputFn) }, []string{"--watch", "--interval", "0s", "hello"}},
		{"run watch", func() *cobra.Command { return NewRunCmd(clientFn, outputFn) }, []string{"watch", "--interval", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tt.cmd()
			cmd.SetArgs(tt.args)
			cmd.SetOut(&buf)
			cmd.SetErr(&buf)
			cmd.SilenceUsage = true

			if err := cmd.Execute(); !errors.Is(err, ErrInvalidInterval) {
				t.Errorf("expected ErrInvalidInterval, got %v", err)
			}
		})
	}

	// Run не должен запускаться
	if calls.Load() != 0 {
		t.Errorf("expected no API calls, got %d", calls.Load())
	}
}

// --- Output Tests ---

func TestOutput_Run_Table(t *testing.T) {
	run := testRun("r1", "PARTIALLY_FAILED", "SUCCEEDED", "FAILED", "SKIPPED", "SKIPPED")
	run.Stages[0].Cached = true
	run.Stages[1].Attempts = 3
	run.Stages[1].Error = &StageErrorResponse{Kind: "TRANSIENT_NETWORK", Message: "timeout"}

	var stdout, stderr bytes.Buffer
	newOutput(false, &stdout, &stderr).Run(&run)

	if !strings.Contains(stderr.String(), "Run r1: PARTIALLY_FAILED") {
		t.Errorf("unexpected summary: %s", stderr.String())
	}

	table := stdout.String()
	for _, s := range []string{"STAGE", "cached", "TRANSIENT_NETWORK: timeout", "numerical-optimization"} {
		if !strings.Contains(table, s) {
			t.Errorf("expected %q in table:\n%s", s, table)
		}
	}
}

func TestOutput_Run_JSON(t *testing.T) {
	run := testRun("r1", "COMPLETED", "SUCCEEDED")

	var stdout, stderr bytes.Buffer
	newOutput(true, &stdout, &stderr).Run(&run)

	var decoded RunResponse
	if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.RunID != "r1" {
		t.Errorf("expected r1, got %s", decoded.RunID)
	}
	if stderr.Len() != 0 {
		t.Error("JSON mode should not print a summary")
	}
}

func TestOutput_Transition(t *testing.T) {
	var stdout, stderr bytes.Buffer
	out := newOutput(true, &stdout, &stderr)

	out.Transition(StageResponse{Index: 2, Name: "optimization", Status: "FAILED",
		Error: &StageErrorResponse{Kind: "HTTP_STATUS", Message: "500"}})

	if got := stderr.String(); got != "[2] optimization: FAILED (HTTP_STATUS)\n" {
		t.Errorf("unexpected transition line: %q", got)
	}
	// Переходы не смешиваются с JSON в stdout
	if stdout.Len() != 0 {
		t.Errorf("expected empty stdout, got %q", stdout.String())
	}
}

func TestOutput_Models(t *testing.T) {
	models := []ModelResponse{{ID: "python-bert", Language: "Python", Type: "bert", Description: "Python model"}}

	var stdout, stderr bytes.Buffer
	newOutput(false, &stdout, &stderr).Models(models)
	if !strings.Contains(stdout.String(), "LANGUAGE") || !strings.Contains(stdout.String(), "python-bert") {
		t.Errorf("unexpected table:\n%s", stdout.String())
	}

	stdout.Reset()
	newOutput(true, &stdout, &stderr).Models(models)
	var decoded []ModelResponse
	if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil || len(decoded) != 1 {
		t.Errorf("expected JSON list, got %q (%v)", stdout.String(), err)
	}
}

// --- Analyze Tests ---

func TestReadText(t *testing.T) {
	text, err := readText([]string{"hello", "world"}, nil)
	if err != nil || text != "hello world" {
		t.Errorf("expected joined args, got %q, %v", text, err)
	}

	text, err = readText([]string{"-"}, strings.NewReader("  from stdin\n"))
	if err != nil || text != "from stdin" {
		t.Errorf("expected stdin text, got %q, %v", text, err)
	}

	if _, err := readText([]string{"-"}, strings.NewReader("   ")); err == nil {
		t.Error("expected error for empty text")
	}
}
