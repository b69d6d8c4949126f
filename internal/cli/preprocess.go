package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"go-glow-ai/internal/imageprep"
)

func newPreprocessCommand() *cobra.Command {
	var (
		out     string
		maxDim  int
		quality int
	)
	cmd := &cobra.Command{
		Use:   "preprocess <image>",
		Short: "Resize and re-encode a photo the way the server does, and report its quality",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			prepared, err := imageprep.Preprocess(data, imageprep.Options{MaxDimension: maxDim, Quality: quality})
			if err != nil {
				return fmt.Errorf("preprocess %s: %w", args[0], err)
			}
			q := imageprep.Inspect(prepared.Image)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "format:  %s\n", prepared.SourceFormat)
			fmt.Fprintf(w, "size:    %dx%d\n", prepared.Width, prepared.Height)
			fmt.Fprintf(w, "jpeg:    %d bytes\n", len(prepared.JPEG))
			fmt.Fprintf(w, "blur:    %.1f (laplacian variance)\n", q.LaplacianVar)
			fmt.Fprintf(w, "light:   %.2f\n", q.AvgLuminance)
			if issues := q.Issues(); len(issues) > 0 {
				fmt.Fprintf(w, "issues:  %s\n", strings.Join(issues, ", "))
			} else {
				fmt.Fprintln(w, "issues:  none")
			}

			if out != "" {
				if err := os.WriteFile(out, prepared.JPEG, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(w, "wrote %s\n", out)
			}
			return nil
		},
	}
	defaults := imageprep.DefaultOptions()
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the preprocessed JPEG to this file")
	cmd.Flags().IntVar(&maxDim, "max", defaults.MaxDimension, "longest side in pixels")
	cmd.Flags().IntVar(&quality, "quality", defaults.Quality, "JPEG quality (1-100)")
	return cmd
}
