package cli

import (
	"github.com/spf13/cobra"
)

// NewModelsCmd создаёт команду вывода каталога моделей.
func NewModelsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available analysis models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			models, err := client.ListModels()
			if err != nil {
				return err
			}

			out.Models(models)
			return nil
		},
	}
}
