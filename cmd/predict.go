package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"winequality/pipeline"
)

var predictCmd = &cobra.Command{
	Use:   "predict [file]",
	Short: "Classify one JSON record read from a file or stdin",
	Long: `Reads a JSON object with the eleven wine measurements from the given file,
or from stdin when the file is omitted or "-", and prints the prediction.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFromContext(cmd.Context())
		if err != nil {
			return err
		}

		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()
			in = file
		}

		record, err := pipeline.DecodeRecord(in)
		if err != nil {
			return fmt.Errorf("invalid JSON input: %w", err)
		}

		p, err := loadPipeline(a.config, a.logger)
		if err != nil {
			return err
		}
		result, err := p.Predict(record)
		if err != nil {
			var validationErr *pipeline.ValidationError
			if errors.As(err, &validationErr) {
				return fmt.Errorf("missing fields: %v", validationErr.Missing)
			}
			return err
		}
		return writeJSON(cmd.OutOrStdout(), result)
	},
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	rootCmd.AddCommand(predictCmd)
}
