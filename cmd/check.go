package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"winequality/ml"
	"winequality/pipeline"
)

// expected probabilities are published to two places
const checkTolerance = 0.01

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the configured artifacts and verify them against the example",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := appFromContext(cmd.Context())
		if err != nil {
			return err
		}

		artifacts, err := ml.LoadArtifacts(a.config.Model.ScalerPath, a.config.Model.ModelPath)
		if err != nil {
			return err
		}
		p, err := pipeline.FromArtifacts(artifacts)
		if err != nil {
			return err
		}

		result, err := p.Predict(pipeline.ExampleRecord())
		if err != nil {
			return fmt.Errorf("example prediction failed: %w", err)
		}
		want := pipeline.ExampleOutput
		if result.Quality != want.Quality ||
			math.Abs(result.ProbabilityLow-want.ProbabilityLow) > checkTolerance ||
			math.Abs(result.ProbabilityHigh-want.ProbabilityHigh) > checkTolerance {
			return fmt.Errorf("example predicted %s (%.4f/%.4f), want %s (%.2f/%.2f)",
				result.Quality, result.ProbabilityLow, result.ProbabilityHigh,
				want.Quality, want.ProbabilityLow, want.ProbabilityHigh)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "ok: example predicted %s with confidence %.4f\n", result.Quality, result.Confidence)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
