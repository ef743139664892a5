package cmd

import (
	"github.com/spf13/cobra"

	"winequality/ml"
	"winequality/pipeline"
)

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print a known-good input and its expected prediction",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeJSON(cmd.OutOrStdout(), struct {
			ExampleInput   ml.WineSample           `json:"example_input"`
			ExpectedOutput pipeline.ExpectedOutput `json:"expected_output"`
		}{pipeline.ExampleSample, pipeline.ExampleOutput})
	},
}

func init() {
	rootCmd.AddCommand(exampleCmd)
}
