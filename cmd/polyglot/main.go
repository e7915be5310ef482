// Polyglot CLI — инструмент командной строки для запуска анализа
// текста и наблюдения за runs через HTTP API.
//
// Использование:
//
//	polyglot [--api-url URL] [--json] <command> [subcommand] [flags]
//
// Команды:
//
//	analyze  Запуск pipeline
//	run      Просмотр и отмена текущего run
//	models   Каталог моделей
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Polyglot/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "polyglot",
		Short:         "Polyglot CLI — multi-language text analysis pipeline",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := "http://localhost:8090"
	if v := os.Getenv("POLYGLOT_API_URL"); v != "" {
		defaultURL = v
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewAnalyzeCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewModelsCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		outputFn().Error(err.Error())
		os.Exit(1)
	}
}
