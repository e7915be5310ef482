package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

// Output печатает результаты команд.
//
// Данные (run, модели) идут в stdout таблицей или JSON (--json).
// Уведомления и переходы этапов идут в stderr и в JSON не попадают.
type Output struct {
	jsonMode bool
	stdout   io.Writer
	stderr   io.Writer
}

// NewOutput создаёт Output поверх os.Stdout и os.Stderr.
func NewOutput(jsonMode bool) *Output {
	return newOutput(jsonMode, os.Stdout, os.Stderr)
}

func newOutput(jsonMode bool, stdout, stderr io.Writer) *Output {
	return &Output{jsonMode: jsonMode, stdout: stdout, stderr: stderr}
}

// Run печатает run: строку статуса и таблицу этапов.
func (o *Output) Run(run *RunResponse) {
	if o.jsonMode {
		o.encode(run)
		return
	}

	summary := fmt.Sprintf("Run %s: %s", run.RunID, run.Status)
	if run.DurationMs > 0 {
		summary += fmt.Sprintf(" in %s", formatMillis(run.DurationMs))
	}
	o.Notice(summary)

	rows := make([][]string, len(run.Stages))
	for i, s := range run.Stages {
		rows[i] = stageRow(s)
	}
	o.table([]string{"#", "STAGE", "STATUS", "ATTEMPTS", "LATENCY", "ERROR"}, rows)
}

// Models печатает каталог моделей.
func (o *Output) Models(models []ModelResponse) {
	if o.jsonMode {
		o.encode(models)
		return
	}

	rows := make([][]string, len(models))
	for i, m := range models {
		rows[i] = []string{m.ID, m.Language, m.Type, m.Description}
	}
	o.table([]string{"ID", "LANGUAGE", "TYPE", "DESCRIPTION"}, rows)
}

// Transition сообщает о новом статусе этапа.
func (o *Output) Transition(s StageResponse) {
	line := fmt.Sprintf("[%d] %s: %s", s.Index, s.Name, s.Status)
	if s.Error != nil {
		line += " (" + s.Error.Kind + ")"
	}
	o.Notice(line)
}

// Notice печатает сообщение в stderr.
func (o *Output) Notice(msg string) {
	fmt.Fprintln(o.stderr, msg)
}

// Error печатает ошибку команды в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.stderr, "Error: "+msg)
}

// stageRow форматирует этап для таблицы run.
func stageRow(s StageResponse) []string {
	attempts := strconv.Itoa(s.Attempts)
	if s.Cached {
		attempts = "cached"
	}

	var errMsg string
	if s.Error != nil {
		errMsg = s.Error.Kind + ": " + s.Error.Message
	}

	latency := "-"
	if s.LatencyMs > 0 || s.Status == "SUCCEEDED" {
		latency = formatMillis(s.LatencyMs)
	}

	return []string{strconv.Itoa(s.Index), s.Name, s.Status, attempts, latency, errMsg}
}

func formatMillis(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}

func (o *Output) table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func (o *Output) encode(v any) {
	enc := json.NewEncoder(o.stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
