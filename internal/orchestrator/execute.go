package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Polyglot/internal/domain"
	"github.com/shaiso/Polyglot/internal/stages"
	"github.com/shaiso/Polyglot/internal/telemetry"
)

// execute выполняет этапы run по порядку и финализирует run.
//
// release освобождает контекст run после завершения. Это не отмена:
// флаг CancelRequested у run не выставляется.
func (o *Orchestrator) execute(ctx context.Context, run *domain.Run, release context.CancelFunc) {
	defer o.wg.Done()
	defer release()

	logger := telemetry.WithRunID(o.logger, run.ID.String())
	ctx = telemetry.WithLogger(ctx, logger)

	logger.Info("run started", "stages", o.table.Len())

	// Этап k+1 начинается только после того, как статус этапа k записан
	var previous json.RawMessage
	next := 0
	for next < o.table.Len() {
		payload, ok := o.executeStage(ctx, run, next, previous)
		next++
		if !ok {
			break
		}
		previous = payload
	}

	// Оставшиеся этапы не запускались
	run.SkipRemaining(next)

	o.finalize(logger, run)
}

// executeStage выполняет этап k. Возвращает ответ и true, если этап успешен.
func (o *Orchestrator) executeStage(ctx context.Context, run *domain.Run, k int, previous json.RawMessage) (json.RawMessage, bool) {
	desc := o.table.At(k)
	logger := telemetry.WithStage(telemetry.FromContext(ctx), desc.Name, k)

	// 1. Run уже отменён — этап не начинается
	if err := ctx.Err(); err != nil {
		o.markCancelled(logger, run, k, cancelledError(desc, 0, err))
		return nil, false
	}

	// 2. Проекция предыдущего ответа в запрос
	request, err := desc.BuildRequest(run.Input, previous)
	if err != nil {
		stageErr := &domain.StageError{
			Kind:    domain.KindConfiguration,
			Stage:   desc.Name,
			Message: err.Error(),
			Err:     err,
		}
		o.markFailed(logger, run, k, stageErr, 0)
		return nil, false
	}

	// 3. Вызов
	if err := run.MarkStageRunning(k); err != nil {
		o.abandonStage(logger, run, k, desc, fmt.Errorf("mark stage running: %w", err))
		return nil, false
	}
	o.present(logger, run)

	logger.Debug("calling stage", "endpoint", desc.Endpoint)

	start := time.Now()
	resp, err := o.client.Call(ctx, desc, request)
	elapsed := time.Since(start)

	// 4. Результат
	switch {
	case err == nil && ctx.Err() == nil:
		if err := run.MarkStageSucceeded(k, resp.Payload, resp.Attempts, resp.Cached); err != nil {
			o.abandonStage(logger, run, k, desc, fmt.Errorf("mark stage succeeded: %w", err))
			return nil, false
		}
		telemetry.RecordStageDuration(desc.Name, domain.StageStatusSucceeded.String(), elapsed)
		logger.Info("stage succeeded",
			"attempts", resp.Attempts,
			"cached", resp.Cached,
			"duration", elapsed,
		)
		o.present(logger, run)
		return resp.Payload, true

	case err == nil:
		// Ответ пришёл после отмены — отбрасываем
		o.markCancelled(logger, run, k, cancelledError(desc, resp.Attempts, ctx.Err()))
		telemetry.RecordStageDuration(desc.Name, domain.StageStatusCancelled.String(), elapsed)
		return nil, false

	case domain.IsCancelled(err) || ctx.Err() != nil:
		stageErr := toStageError(desc, err)
		if stageErr.Kind != domain.KindCancelled {
			stageErr = cancelledError(desc, stageErr.Attempts, ctx.Err())
		}
		o.markCancelled(logger, run, k, stageErr)
		telemetry.RecordStageDuration(desc.Name, domain.StageStatusCancelled.String(), elapsed)
		return nil, false

	default:
		o.markFailed(logger, run, k, toStageError(desc, err), elapsed)
		return nil, false
	}
}

// markFailed переводит этап в FAILED.
func (o *Orchestrator) markFailed(logger *slog.Logger, run *domain.Run, k int, stageErr *domain.StageError, elapsed time.Duration) {
	if err := run.MarkStageFailed(k, stageErr); err != nil {
		logger.Error("failed to mark stage failed", "error", err)
		return
	}
	telemetry.RecordStageDuration(stageErr.Stage, domain.StageStatusFailed.String(), elapsed)

	logger.Warn("stage failed",
		"kind", stageErr.Kind,
		"status_code", stageErr.StatusCode,
		"attempts", stageErr.Attempts,
		"error", stageErr,
	)
	o.present(logger, run)
}

// abandonStage завершает этап k ошибкой CONFIGURATION, если его статус
// не удалось записать. Этап не остаётся в NOT_STARTED или RUNNING.
func (o *Orchestrator) abandonStage(logger *slog.Logger, run *domain.Run, k int, desc stages.Descriptor, cause error) {
	logger.Error("stage state update failed", "error", cause)

	stageErr := &domain.StageError{
		Kind:    domain.KindConfiguration,
		Stage:   desc.Name,
		Message: cause.Error(),
		Err:     cause,
	}
	o.markFailed(logger, run, k, stageErr, 0)
}

// markCancelled переводит этап в CANCELLED.
func (o *Orchestrator) markCancelled(logger *slog.Logger, run *domain.Run, k int, stageErr *domain.StageError) {
	if err := run.MarkStageCancelled(k, stageErr); err != nil {
		logger.Error("failed to mark stage cancelled", "error", err)
		return
	}

	logger.Info("stage cancelled", "attempts", stageErr.Attempts)
	o.present(logger, run)
}

// finalize фиксирует метрики и передаёт финальный snapshot.
func (o *Orchestrator) finalize(logger *slog.Logger, run *domain.Run) {
	status := run.Status()
	telemetry.RecordRunFinished(status.String())

	logger.Info("run finished",
		"status", status,
		"duration", run.Duration(),
	)

	o.present(logger, run)
}

// present передаёт snapshot presenter'у. Ошибки presenter'а не влияют на run.
func (o *Orchestrator) present(logger *slog.Logger, run *domain.Run) {
	if o.presenter == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.presentTimeout)
	defer cancel()

	if err := o.presenter.Present(ctx, domain.TakeSnapshot(run)); err != nil {
		logger.Warn("failed to present snapshot", "error", err)
	}
}

// toStageError приводит ошибку вызова к *domain.StageError.
func toStageError(desc stages.Descriptor, err error) *domain.StageError {
	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		return stageErr
	}

	// Неклассифицированная ошибка Caller'а считается постоянной
	return &domain.StageError{
		Kind:    domain.KindPermanentApplication,
		Stage:   desc.Name,
		Message: err.Error(),
		Err:     err,
	}
}

// cancelledError строит ошибку отмены этапа.
func cancelledError(desc stages.Descriptor, attempts int, cause error) *domain.StageError {
	if cause == nil {
		cause = context.Canceled
	}
	return &domain.StageError{
		Kind:     domain.KindCancelled,
		Stage:    desc.Name,
		Attempts: attempts,
		Message:  "run cancelled",
		Err:      fmt.Errorf("%w: %v", domain.ErrCancelled, cause),
	}
}
