package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// defaultWatchInterval — интервал опроса по умолчанию для --watch.
const defaultWatchInterval = 500 * time.Millisecond

// ErrInvalidInterval — интервал опроса не положительный.
var ErrInvalidInterval = errors.New("interval must be positive")

// NewRunCmd создаёт группу команд для управления runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Inspect and cancel runs",
	}

	cmd.AddCommand(
		newRunShowCmd(clientFn, outputFn),
		newRunCancelCmd(clientFn, outputFn),
		newRunWatchCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show [ID]",
		Short: "Show run details (current run if ID is omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var run *RunResponse
			var err error
			if len(args) == 1 {
				run, err = client.GetRun(args[0])
			} else {
				run, err = client.CurrentRun()
			}
			if err != nil {
				return err
			}

			out.Run(run)
			return nil
		},
	}
}

func newRunCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.CancelCurrentRun()
			if err != nil {
				return err
			}

			out.Notice(fmt.Sprintf("Run cancellation requested: %s", run.RunID))
			return nil
		},
	}
}

func newRunWatchCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the current run until it finishes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInterval(interval); err != nil {
				return err
			}
			out := outputFn()

			run, err := watchRun(clientFn(), out, interval)
			if err != nil {
				return err
			}
			out.Run(run)
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", defaultWatchInterval, "Polling interval")

	return cmd
}

// watchRun опрашивает текущий run и печатает переходы этапов,
// пока run не завершится. Если run вытеснен, следит за новым.
func watchRun(client *Client, out *Output, interval time.Duration) (*RunResponse, error) {
	if err := validateInterval(interval); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var runID string
	seen := make(map[int]string)

	for {
		run, err := client.CurrentRun()
		if err != nil {
			return nil, err
		}

		if run.RunID != runID {
			if runID != "" {
				out.Notice(fmt.Sprintf("Run %s superseded by %s", runID, run.RunID))
			}
			runID = run.RunID
			clear(seen)
		}

		for _, s := range run.Stages {
			if seen[s.Index] == s.Status {
				continue
			}
			seen[s.Index] = s.Status
			// NOT_STARTED не является переходом
			if s.Status == "NOT_STARTED" {
				continue
			}
			out.Transition(s)
		}

		if run.IsFinished() {
			return run, nil
		}

		<-ticker.C
	}
}

// validateInterval проверяет значение флага --interval.
func validateInterval(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	return nil
}
