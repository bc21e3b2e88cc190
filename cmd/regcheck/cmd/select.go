package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var selectCmd = &cobra.Command{
	Use:   "select <company name> <natural-key>",
	Short: "Settle a disambiguation by picking one candidate",
	Args:  cobra.ExactArgs(2),
	RunE:  runSelect,
}

func runSelect(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	rec, err := a.Resolver.SelectCandidate(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("Selected: %s\n", rec.Name)
	fmt.Printf("  key: %s  titular: %s  source: %s\n", rec.NaturalKey, rec.Owner, rec.Source)
	if rec.Region != "" || rec.Status != "" {
		fmt.Printf("  region: %s  status: %s\n", rec.Region, rec.Status)
	}
	if rec.DetailLink != "" {
		fmt.Printf("  detail: %s\n", rec.DetailLink)
	}
	return nil
}
