package orchestrator

import (
	"context"

	"github.com/shaiso/Polyglot/internal/domain"
)

// Presenter получает snapshot run после каждого перехода этапа
// и финальный snapshot после завершения run.
//
// Реализации: mq.Publisher (RabbitMQ), PresenterFunc (тесты, логирование).
type Presenter interface {
	Present(ctx context.Context, snapshot domain.Snapshot) error
}

// PresenterFunc — адаптер функции к Presenter.
type PresenterFunc func(ctx context.Context, snapshot domain.Snapshot) error

// Present вызывает f(ctx, snapshot).
func (f PresenterFunc) Present(ctx context.Context, snapshot domain.Snapshot) error {
	return f(ctx, snapshot)
}

// multiPresenter передаёт snapshot нескольким presenter'ам по очереди.
type multiPresenter []Presenter

// MultiPresenter объединяет presenter'ы. Ошибка одного не мешает остальным,
// возвращается первая ошибка.
func MultiPresenter(presenters ...Presenter) Presenter {
	return multiPresenter(presenters)
}

func (m multiPresenter) Present(ctx context.Context, snapshot domain.Snapshot) error {
	var firstErr error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Present(ctx, snapshot); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
