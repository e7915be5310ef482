package stageclient

import (
	"math"
	"time"

	"github.com/shaiso/Polyglot/internal/stages"
)

const (
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 10 * time.Second
	defaultMultiplier     = 2.0
)

// calculateBackoff вычисляет задержку перед повтором.
//
// attempt — номер неудачной попытки (с 1).
// delay = Initial × Multiplier^(attempt-1) ± Jitter × delay, не больше Max.
// rnd возвращает число из [0, 1).
func calculateBackoff(attempt int, policy stages.BackoffPolicy, rnd func() float64) time.Duration {
	initial := policy.Initial
	if initial <= 0 {
		initial = defaultInitialBackoff
	}

	maxDelay := policy.Max
	if maxDelay <= 0 {
		maxDelay = defaultMaxBackoff
	}

	multiplier := policy.Multiplier
	if multiplier < 1 {
		multiplier = defaultMultiplier
	}

	attempt = max(attempt, 1)
	delay := float64(initial) * math.Pow(multiplier, float64(attempt-1))
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}

	if policy.Jitter > 0 && rnd != nil {
		spread := delay * policy.Jitter
		delay = delay - spread + rnd()*2*spread
	}

	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}
