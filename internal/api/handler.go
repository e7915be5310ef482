package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Polyglot/internal/domain"
)

// Orchestrator — операции оркестратора, доступные через API.
// Реализация: orchestrator.Orchestrator.
type Orchestrator interface {
	Run(ctx context.Context, input string) (*domain.Run, error)
	Submit(ctx context.Context, input string) (*domain.Run, error)
	Current() *domain.Run
	Lookup(id uuid.UUID) (*domain.Run, bool)
	CancelCurrent() (*domain.Run, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	orch   Orchestrator
	models []domain.Model
	logger *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Orchestrator Orchestrator
	Models       []domain.Model // каталог моделей (default: domain.Models())
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	models := cfg.Models
	if models == nil {
		models = domain.Models()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		orch:   cfg.Orchestrator,
		models: models,
		logger: logger,
	}
}
