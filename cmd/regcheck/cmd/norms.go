package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"regcheck/internal/norms"
)

var normsCmd = &cobra.Command{
	Use:   "norms <term>",
	Short: "Map a term to its normative category and references",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runNorms,
}

func runNorms(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	cat, err := a.Norms.Lookup(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		var ncErr *norms.NoCategoryMatchError
		if errors.As(err, &ncErr) {
			fmt.Printf("No normative category for %q. Known categories:\n", ncErr.Term)
			for _, s := range ncErr.Suggestions {
				fmt.Printf("  - %s\n", s)
			}
		}
		return err
	}

	fmt.Printf("Category: %s\n", cat.Name)
	for _, r := range cat.References {
		fmt.Printf("  %s %s — %s\n", r.Kind, r.Code, r.Title)
		if r.URI != "" {
			fmt.Printf("    %s\n", r.URI)
		}
	}
	return nil
}
