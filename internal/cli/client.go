package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// RunResponse — снимок run из API.
type RunResponse struct {
	RunID           string          `json:"run_id"`
	Input           string          `json:"input"`
	Status          string          `json:"status"`
	Stages          []StageResponse `json:"stages"`
	CreatedAt       string          `json:"created_at"`
	FinishedAt      string          `json:"finished_at,omitempty"`
	DurationMs      int64           `json:"duration_ms"`
	CancelRequested bool            `json:"cancel_requested,omitempty"`
}

// IsFinished возвращает true, если run в финальном статусе.
func (r *RunResponse) IsFinished() bool {
	switch r.Status {
	case "COMPLETED", "PARTIALLY_FAILED", "CANCELLED":
		return true
	default:
		return false
	}
}

// StageResponse — этап run из API.
type StageResponse struct {
	Index     int                 `json:"index"`
	Name      string              `json:"name"`
	Status    string              `json:"status"`
	Payload   json.RawMessage     `json:"payload"`
	Error     *StageErrorResponse `json:"error"`
	Attempts  int                 `json:"attempts"`
	Cached    bool                `json:"cached,omitempty"`
	LatencyMs int64               `json:"latency_ms"`
}

// StageErrorResponse — ошибка этапа из API.
type StageErrorResponse struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

// ModelResponse — модель из каталога API.
type ModelResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Type        string `json:"type"`
}

// --- Request types ---

// AnalyzeRequest — запуск pipeline.
type AnalyzeRequest struct {
	Text string `json:"text"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Errors ---

// APIError — ошибка, возвращённая API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsNotFound проверяет, что API ответил 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// --- Client ---

// waitTimeout — таймаут синхронного запуска (?wait=true).
// Run может включать повторы всех четырёх этапов.
const waitTimeout = 10 * time.Minute

// Client — HTTP-клиент для Polyglot API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	waitClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		waitClient: &http.Client{
			Timeout: waitTimeout,
		},
	}
}

// --- Runs ---

// Analyze запускает pipeline. При wait=true ждёт завершения run.
func (c *Client) Analyze(text string, wait bool) (*RunResponse, error) {
	path := "/api/v1/analyze"
	client := c.httpClient
	if wait {
		path += "?" + url.Values{"wait": {"true"}}.Encode()
		client = c.waitClient
	}

	var run RunResponse
	err := c.doData(client, http.MethodPost, path, AnalyzeRequest{Text: text}, &run)
	return &run, err
}

// CurrentRun возвращает текущий или последний run.
func (c *Client) CurrentRun() (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/runs/current", &run)
	return &run, err
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/runs/"+url.PathEscape(id), &run)
	return &run, err
}

// CancelCurrentRun отменяет выполняющийся run.
func (c *Client) CancelCurrentRun() (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/runs/current/cancel", nil, &run)
	return &run, err
}

// --- Models ---

// ListModels возвращает каталог моделей.
func (c *Client) ListModels() ([]ModelResponse, error) {
	var models []ModelResponse
	err := c.list("/api/v1/models", &models)
	return models, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(c.httpClient, http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(c.httpClient, http.MethodPost, path, body, result)
}

func (c *Client) list(path string, result any) error {
	resp, err := c.do(c.httpClient, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(client *http.Client, method, path string, body any, result any) error {
	resp, err := c.do(client, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(client *http.Client, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return client.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}

	return apiErr
}
