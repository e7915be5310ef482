package main

import (
	"testing"
	"time"

	"github.com/shaiso/Polyglot/internal/domain"
)

// --- Tracker Tests ---

func TestTransitionTracker(t *testing.T) {
	tracker := newTransitionTracker()
	run := domain.NewRun("text", domain.StageNames())

	// Начальный снимок: все этапы NOT_STARTED, переходов нет
	if got, _ := tracker.observe(domain.TakeSnapshot(run)); len(got) != 0 {
		t.Errorf("expected no transitions, got %d", len(got))
	}

	run.MarkStageRunning(0)
	got, stale := tracker.observe(domain.TakeSnapshot(run))
	if stale || len(got) != 1 || got[0].Status != domain.StageStatusRunning {
		t.Fatalf("expected stage 0 RUNNING, got %+v (stale=%v)", got, stale)
	}

	// Повторная доставка того же снимка ничего не печатает
	if got, _ := tracker.observe(domain.TakeSnapshot(run)); len(got) != 0 {
		t.Errorf("expected duplicate snapshot to be ignored, got %d", len(got))
	}

	// Новый run сбрасывает состояние
	next := domain.NewRun("other", domain.StageNames())
	next.MarkStageRunning(0)
	if got, stale := tracker.observe(domain.TakeSnapshot(next)); stale || len(got) != 1 {
		t.Errorf("expected transition for new run, got %d (stale=%v)", len(got), stale)
	}
}

func TestTransitionTracker_InterleavedSupersededRun(t *testing.T) {
	tracker := newTransitionTracker()
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	snapshot := func(run *domain.Run, at time.Time) domain.Snapshot {
		s := domain.TakeSnapshot(run)
		s.CreatedAt = at
		return s
	}

	old := domain.NewRun("old", domain.StageNames())
	old.MarkStageRunning(0)
	tracker.observe(snapshot(old, created))

	newer := domain.NewRun("new", domain.StageNames())
	newer.MarkStageRunning(0)
	newSnap := snapshot(newer, created.Add(time.Second))
	if got, stale := tracker.observe(newSnap); stale || len(got) != 1 {
		t.Fatalf("expected new run transition, got %d (stale=%v)", len(got), stale)
	}

	// Финальный снимок старого run приходит после снимков нового
	old.Cancel()
	old.MarkStageCancelled(0, nil)
	old.SkipRemaining(1)
	oldSnap := snapshot(old, created)
	if got, stale := tracker.observe(oldSnap); !stale || len(got) != 0 {
		t.Errorf("expected stale old run, got %d transitions (stale=%v)", len(got), stale)
	}
	if !oldSnap.IsFinished() {
		t.Errorf("old run should be finished, got %s", oldSnap.Status)
	}

	// Повтор снимка нового run не считается новым переходом
	if got, stale := tracker.observe(newSnap); stale || len(got) != 0 {
		t.Errorf("expected no re-logged transitions, got %d (stale=%v)", len(got), stale)
	}

	newer.MarkStageSucceeded(0, nil, 1, false)
	got, _ := tracker.observe(snapshot(newer, created.Add(time.Second)))
	if len(got) != 1 || got[0].Status != domain.StageStatusSucceeded {
		t.Errorf("expected stage 0 SUCCEEDED, got %+v", got)
	}
}
