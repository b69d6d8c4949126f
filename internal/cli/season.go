package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go-glow-ai/pkg/validation"
)

func newSeasonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "season [label...]",
		Short: "Normalize season labels, or list the canonical ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, s := range validation.CanonicalSeasons {
					fmt.Fprintln(w, s)
				}
				return nil
			}
			label := strings.Join(args, " ")
			fmt.Fprintf(w, "%s\tplausible=%t\n", validation.NormalizeSeason(label), validation.PlausibleSeason(label))
			return nil
		},
	}
}
