package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewAnalyzeCmd создаёт команду запуска pipeline.
func NewAnalyzeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var wait bool
	var watch bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "analyze TEXT... | -",
		Short: "Run the analysis pipeline on a text",
		Long: "Run the analysis pipeline on a text.\n\n" +
			"The text is taken from the arguments, or from stdin when the only argument is \"-\".\n" +
			"A new run supersedes the one in progress.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				// Проверяется до запуска run
				if err := validateInterval(interval); err != nil {
					return err
				}
			}

			client := clientFn()
			out := outputFn()

			text, err := readText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			run, err := client.Analyze(text, wait)
			if err != nil {
				return err
			}

			if watch && !run.IsFinished() {
				out.Notice(fmt.Sprintf("Run started: %s", run.RunID))
				run, err = watchRun(client, out, interval)
				if err != nil {
					return err
				}
			}

			out.Run(run)
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the run finishes (synchronous request)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Follow stage transitions until the run finishes")
	cmd.Flags().DurationVar(&interval, "interval", defaultWatchInterval, "Polling interval for --watch")

	return cmd
}

// readText собирает текст из аргументов или stdin.
func readText(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		args = []string{string(data)}
	}

	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", errors.New("text must not be empty")
	}
	return text, nil
}
