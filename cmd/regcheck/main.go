// regcheck resolves free-text company names against Chilean regulatory
// registries and ingests what it finds.
package main

import (
	"os"

	"regcheck/cmd/regcheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
