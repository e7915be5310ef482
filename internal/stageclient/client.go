package stageclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/shaiso/Polyglot/internal/domain"
	"github.com/shaiso/Polyglot/internal/stages"
	"github.com/shaiso/Polyglot/internal/telemetry"
)

// maxResponseBody — максимальный размер тела ответа (10 MB).
const maxResponseBody = 10 * 1024 * 1024

// Client выполняет вызов одного этапа.
//
// Client сериализует запрос, применяет таймаут к каждой попытке, повторяет
// временные ошибки с backoff и классифицирует результат. О порядке этапов
// Client ничего не знает и run не изменяет.
type Client struct {
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	maxBody    int64
	rnd        func() float64
	logger     *slog.Logger
}

// Config — конфигурация Client.
type Config struct {
	// HTTPClient — HTTP-клиент. Таймауты задаются через context каждой попытки.
	HTTPClient *http.Client

	// Cache — кэш ответов для этапов с Cacheable (опционально).
	Cache Cache

	// CacheTTL — время жизни записи кэша (default: 1h).
	CacheTTL time.Duration

	// MaxResponseBody — лимит тела ответа в байтах (default: 10 MB).
	MaxResponseBody int64

	// Rand — источник случайных чисел [0, 1) для jitter (default: math/rand/v2).
	Rand func() float64

	// Logger
	Logger *slog.Logger
}

// Response — успешный ответ этапа.
type Response struct {
	// Payload — тело ответа (JSON-объект, прошедший проверку схемы).
	Payload json.RawMessage

	// Attempts — количество сделанных попыток (0 для ответа из кэша).
	Attempts int

	// StatusCode — HTTP-код последней попытки.
	StatusCode int

	// Cached — ответ взят из кэша.
	Cached bool
}

// New создаёт новый Client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	maxBody := cfg.MaxResponseBody
	if maxBody <= 0 {
		maxBody = maxResponseBody
	}

	rnd := cfg.Rand
	if rnd == nil {
		rnd = rand.Float64
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: httpClient,
		cache:      cfg.Cache,
		cacheTTL:   cacheTTL,
		maxBody:    maxBody,
		rnd:        rnd,
		logger:     logger,
	}
}

// Call выполняет вызов этапа desc с телом request.
//
// ctx — токен отмены run: отмена во время запроса или ожидания backoff
// сразу возвращает ошибку класса CANCELLED. Все ошибки — *domain.StageError.
func (c *Client) Call(ctx context.Context, desc stages.Descriptor, request any) (*Response, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, &domain.StageError{
			Kind:    domain.KindConfiguration,
			Stage:   desc.Name,
			Message: "cannot encode request",
			Err:     fmt.Errorf("%w: %v", ErrEncodeRequest, err),
		}
	}

	if ctx.Err() != nil {
		return nil, cancelledError(desc, 0, ctx.Err())
	}

	logger := telemetry.FromContext(ctx)
	if logger == slog.Default() {
		logger = c.logger
	}

	// 1. Кэш
	var cacheKey string
	if desc.Cacheable && c.cache != nil {
		cacheKey = CacheKey(desc.Name, body)
		if payload, ok := c.lookup(ctx, desc, cacheKey); ok {
			logger.Debug("stage served from cache", "stage", desc.Name)
			return &Response{Payload: payload, Cached: true}, nil
		}
	}

	// 2. Попытки с повторами
	maxAttempts := desc.MaxAttempts()
	for attempt := 1; ; attempt++ {
		resp, stageErr := c.attempt(ctx, desc, body)
		if stageErr == nil {
			resp.Attempts = attempt
			telemetry.RecordStageAttempt(desc.Name, telemetry.OutcomeSuccess)
			if cacheKey != "" {
				c.store(ctx, desc, cacheKey, resp.Payload)
			}
			return resp, nil
		}

		stageErr.Attempts = attempt
		telemetry.RecordStageAttempt(desc.Name, outcomeOf(stageErr))

		// Повторяем только временные ошибки и только в пределах лимита
		if stageErr.Kind != domain.KindTransientNetwork || attempt >= maxAttempts {
			return nil, stageErr
		}

		delay := calculateBackoff(attempt, desc.Backoff, c.rnd)

		logger.Debug("retrying stage call",
			"stage", desc.Name,
			"attempt", attempt,
			"delay", delay,
			"error", stageErr,
		)

		// Ждём с учётом отмены
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, cancelledError(desc, attempt, ctx.Err())
		}
	}
}

// attempt выполняет одну HTTP-попытку.
func (c *Client) attempt(ctx context.Context, desc stages.Descriptor, body []byte) (*Response, *domain.StageError) {
	attemptCtx, cancel := context.WithTimeout(ctx, desc.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, desc.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.StageError{
			Kind:    domain.KindConfiguration,
			Stage:   desc.Name,
			Message: "cannot create request",
			Err:     err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, attemptCtx, desc, err)
	}
	defer resp.Body.Close()

	// Читаем на байт больше лимита, чтобы заметить превышение
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, transportError(ctx, attemptCtx, desc, err)
	}

	// 5xx — временная ошибка
	if resp.StatusCode >= 500 {
		return nil, &domain.StageError{
			Kind:       domain.KindTransientNetwork,
			Stage:      desc.Name,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(string(data), 200)),
			Err:        ErrServerError,
		}
	}

	// 4xx и прочие не-2xx — постоянная ошибка
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.StageError{
			Kind:       domain.KindPermanentApplication,
			Stage:      desc.Name,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncate(string(data), 200)),
			Err:        ErrRejected,
		}
	}

	if int64(len(data)) > c.maxBody {
		return nil, &domain.StageError{
			Kind:       domain.KindPermanentApplication,
			Stage:      desc.Name,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("response exceeds %d bytes", c.maxBody),
			Err:        fmt.Errorf("%w: %w", domain.ErrMalformedResponse, ErrResponseTooLarge),
		}
	}

	if err := validatePayload(data, desc.RequiredFields); err != nil {
		return nil, &domain.StageError{
			Kind:       domain.KindPermanentApplication,
			Stage:      desc.Name,
			StatusCode: resp.StatusCode,
			Message:    err.Error(),
			Err:        err,
		}
	}

	return &Response{
		Payload:    json.RawMessage(data),
		StatusCode: resp.StatusCode,
	}, nil
}

// validatePayload проверяет, что тело — JSON-объект с обязательными полями.
func validatePayload(data []byte, required []string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: body is not a JSON object", domain.ErrMalformedResponse)
	}
	if obj == nil {
		return fmt.Errorf("%w: body is null", domain.ErrMalformedResponse)
	}

	for _, field := range required {
		value, ok := obj[field]
		if !ok || string(bytes.TrimSpace(value)) == "null" {
			return fmt.Errorf("%w: missing field %q", domain.ErrMalformedResponse, field)
		}
	}
	return nil
}

// transportError классифицирует ошибку соединения или чтения.
// Если отменён родительский контекст — это отмена run, иначе временная ошибка.
func transportError(ctx, attemptCtx context.Context, desc stages.Descriptor, err error) *domain.StageError {
	if ctx.Err() != nil {
		return cancelledError(desc, 0, ctx.Err())
	}

	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &domain.StageError{
			Kind:    domain.KindTransientNetwork,
			Stage:   desc.Name,
			Message: fmt.Sprintf("timeout after %s", desc.Timeout),
			Err:     ErrTimeout,
		}
	}

	return &domain.StageError{
		Kind:    domain.KindTransientNetwork,
		Stage:   desc.Name,
		Message: err.Error(),
		Err:     fmt.Errorf("%w: %v", ErrConnection, err),
	}
}

// cancelledError строит ошибку отмены.
func cancelledError(desc stages.Descriptor, attempts int, cause error) *domain.StageError {
	return &domain.StageError{
		Kind:     domain.KindCancelled,
		Stage:    desc.Name,
		Attempts: attempts,
		Message:  "run cancelled",
		Err:      fmt.Errorf("%w: %v", domain.ErrCancelled, cause),
	}
}

// outcomeOf возвращает label метрики для ошибки попытки.
func outcomeOf(err *domain.StageError) string {
	switch err.Kind {
	case domain.KindTransientNetwork:
		return telemetry.OutcomeTransient
	case domain.KindCancelled:
		return telemetry.OutcomeCancelled
	}
	if errors.Is(err, domain.ErrMalformedResponse) {
		return telemetry.OutcomeMalformed
	}
	return telemetry.OutcomePermanent
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
