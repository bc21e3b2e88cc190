package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"regcheck/internal/report"
	"regcheck/internal/resolve"
)

var reportPath string

var resolveCmd = &cobra.Command{
	Use:   "resolve <company name>",
	Short: "Resolve a company name against the regulatory registries",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&reportPath, "report", "", "write a .docx report of the run to this path")
}

func runResolve(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Resolver.Resolve(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		var ncErr *resolve.NoCandidatesError
		if errors.As(err, &ncErr) {
			fmt.Println("No candidates found. Variants tried:")
			for _, v := range ncErr.Variants {
				fmt.Printf("  - %s\n", v)
			}
			return err
		}
		var nrErr *resolve.NoRelevantMatchError
		if errors.As(err, &nrErr) {
			fmt.Printf("Found %d candidates, none relevant to the query.\n", len(nrErr.Candidates))
			return err
		}
		return err
	}

	if res.Truncated {
		fmt.Println("Warning: pagination stopped at the safety bound; results may be incomplete.")
	}

	if res.Resolved != nil {
		c := res.Resolved
		fmt.Printf("Resolved: %s\n", c.Name)
		fmt.Printf("  key: %s  titular: %s  source: %s  score: %.2f\n",
			c.NaturalKey, c.Owner, c.Source, c.Score)
	} else {
		fmt.Printf("Disambiguation required (%d candidates):\n", len(res.Ranked))
		for i, c := range res.Ranked {
			fmt.Printf("  %d. [%s] %s — %s (score %.2f, via %q)\n",
				i+1, c.NaturalKey, c.Name, c.Owner, c.Score, c.MatchedVariant)
		}
		fmt.Println("Settle with: regcheck select <query> <key>")
	}

	if reportPath != "" {
		if err := report.WriteResolution(reportPath, res); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", reportPath)
	}
	return nil
}
