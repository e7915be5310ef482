package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Polyglot/internal/domain"
	"github.com/shaiso/Polyglot/internal/stageclient"
	"github.com/shaiso/Polyglot/internal/stages"
	"github.com/shaiso/Polyglot/internal/telemetry"
)

// defaultPresentTimeout — таймаут одного вызова presenter'а.
const defaultPresentTimeout = 5 * time.Second

// Caller выполняет вызов одного этапа.
// Реализация: *stageclient.Client.
type Caller interface {
	Call(ctx context.Context, desc stages.Descriptor, request any) (*stageclient.Response, error)
}

// Orchestrator управляет выполнением runs.
//
// Orchestrator — центральный компонент системы, который:
//   - Создаёт run для каждого ввода
//   - Вытесняет предыдущий run, если тот ещё выполняется
//   - Выполняет этапы строго последовательно
//   - Финализирует run и передаёт snapshot presenter'у
//
// Единственное разделяемое изменяемое состояние — ссылка на текущий run,
// она меняется только под mu.
type Orchestrator struct {
	client    Caller
	table     stages.Table
	presenter Presenter

	// current — последний запущенный run (активный или завершённый).
	current *domain.Run
	mu      sync.Mutex

	// Configuration
	presentTimeout time.Duration

	// Lifecycle
	logger  *slog.Logger
	wg      sync.WaitGroup
	stopped bool
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Client — вызов этапов.
	Client Caller

	// Table — упорядоченная таблица этапов.
	Table stages.Table

	// Presenter получает snapshots (опционально).
	Presenter Presenter

	// PresentTimeout — таймаут вызова presenter'а (default: 5s).
	PresentTimeout time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	presentTimeout := cfg.PresentTimeout
	if presentTimeout <= 0 {
		presentTimeout = defaultPresentTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		client:         cfg.Client,
		table:          cfg.Table,
		presenter:      cfg.Presenter,
		presentTimeout: presentTimeout,
		logger:         logger,
	}
}

// Run выполняет pipeline для input и возвращает run после завершения.
//
// Пустой ввод отклоняется с *domain.ValidationError до создания run.
// Отмена ctx отменяет run. Отказ этапа не является ошибкой Run:
// он отражается в статусах этапов и общем статусе run.
func (o *Orchestrator) Run(ctx context.Context, input string) (*domain.Run, error) {
	run, runCtx, release, err := o.begin(ctx, input)
	if err != nil {
		return nil, err
	}

	o.execute(runCtx, run, release)
	return run, nil
}

// Submit запускает pipeline в фоне и сразу возвращает run.
//
// Run не привязан к отмене ctx: его отменяет только вытеснение,
// CancelCurrent или Stop.
func (o *Orchestrator) Submit(ctx context.Context, input string) (*domain.Run, error) {
	run, runCtx, release, err := o.begin(context.WithoutCancel(ctx), input)
	if err != nil {
		return nil, err
	}

	go o.execute(runCtx, run, release)
	return run, nil
}

// Current возвращает последний запущенный run или nil.
func (o *Orchestrator) Current() *domain.Run {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}

// Lookup возвращает run по ID, если это текущий run.
// История runs не хранится.
func (o *Orchestrator) Lookup(id uuid.UUID) (*domain.Run, bool) {
	run := o.Current()
	if run == nil || run.ID != id {
		return nil, false
	}
	return run, true
}

// CancelCurrent отменяет текущий run.
//
// Возвращает ErrNoActiveRun, если run ещё не запускался, и ErrRunFinished,
// если текущий run уже завершён. Повторная отмена выполняющегося run
// ничего не делает и не считается ошибкой.
func (o *Orchestrator) CancelCurrent() (*domain.Run, error) {
	run := o.Current()
	if run == nil {
		return nil, ErrNoActiveRun
	}

	if run.Cancel() {
		o.logger.Info("run cancellation requested", "run_id", run.ID)
		return run, nil
	}

	if run.IsFinished() {
		return run, ErrRunFinished
	}
	return run, nil
}

// Stop отменяет текущий run и ждёт завершения всех runs.
// После Stop вызовы Run и Submit возвращают ErrOrchestratorStopped.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	run := o.current
	o.mu.Unlock()

	o.logger.Info("stopping orchestrator...")

	if run != nil {
		run.Cancel()
	}

	// Ждём завершения горутин
	o.wg.Wait()

	o.logger.Info("orchestrator stopped")
}

// IsStopped проверяет, остановлен ли Orchestrator.
func (o *Orchestrator) IsStopped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopped
}

// begin проверяет ввод, создаёт run и вытесняет предыдущий.
//
// Сигнал отмены предыдущему run отправляется до возврата,
// то есть до первого сетевого вызова нового run.
func (o *Orchestrator) begin(ctx context.Context, input string) (*domain.Run, context.Context, context.CancelFunc, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil, nil, &domain.ValidationError{
			Field:   "text",
			Message: "input must not be empty",
		}
	}

	run := domain.NewRun(input, o.table.Names())
	runCtx, release := context.WithCancel(ctx)
	run.AttachCancel(release)

	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		release()
		return nil, nil, nil, ErrOrchestratorStopped
	}
	prev := o.current
	o.current = run
	o.wg.Add(1)
	o.mu.Unlock()

	// Вытеснение: не ждём, пока предыдущий run завершится
	if prev != nil && prev.Cancel() {
		telemetry.RecordRunSuperseded()
		o.logger.Info("run superseded",
			"run_id", prev.ID,
			"superseded_by", run.ID,
		)
	}

	telemetry.RecordRunStarted()
	return run, runCtx, release, nil
}
