package scheduler

import "errors"

// ErrInvalidCron — cron-выражение не разбирается.
var ErrInvalidCron = errors.New("invalid cron expression")
