package report

import (
	"fmt"

	"github.com/gingfrederik/docx"

	"regcheck/internal/resolve"
)

// WriteResolution exports a resolution run as a .docx document: the outcome,
// then every scored candidate with its provenance.
func WriteResolution(path string, res *resolve.Result) error {
	f := docx.NewFile()

	p := f.AddParagraph()
	run := p.AddText("Regulatory Record Resolution Report")
	run.Size(18)

	p = f.AddParagraph()
	p.AddText(fmt.Sprintf("Query: %s", res.Query.Raw))

	p = f.AddParagraph()
	p.AddText(fmt.Sprintf("Variants tried: %d", len(res.Query.Variants)))

	if res.Truncated {
		p = f.AddParagraph()
		run = p.AddText("Note: at least one source stopped at the pagination safety bound; the candidate pool may be incomplete.")
		run.Color("B00000")
	}

	f.AddParagraph() // Spacer
	if res.Resolved != nil {
		p = f.AddParagraph()
		run = p.AddText(fmt.Sprintf("Resolved: %s (%s)", res.Resolved.Name, res.Resolved.NaturalKey))
		run.Size(14)
		run.Color("008000")
	} else {
		p = f.AddParagraph()
		run = p.AddText(fmt.Sprintf("Disambiguation required: %d candidates above threshold", len(res.Ranked)))
		run.Size(14)
	}

	f.AddParagraph() // Spacer
	f.AddParagraph().AddText("--------------------------------------------------")
	f.AddParagraph() // Spacer

	for i, c := range res.Ranked {
		p = f.AddParagraph()
		p.AddText(fmt.Sprintf("%d. %s", i+1, c.Name))

		if c.Owner != "" {
			p = f.AddParagraph()
			run = p.AddText(fmt.Sprintf("Titular: %s", c.Owner))
			run.Size(10)
		}

		p = f.AddParagraph()
		run = p.AddText(fmt.Sprintf("Score: %.2f | Source: %s | Matched via: %s",
			c.Score, c.Source, c.MatchedVariant))
		run.Color("008000")

		if c.Status != "" || c.Region != "" {
			p = f.AddParagraph()
			run = p.AddText(fmt.Sprintf("Status: %s | Region: %s", c.Status, c.Region))
			run.Size(10)
		}

		if c.DetailLink != "" {
			p = f.AddParagraph()
			run = p.AddText(c.DetailLink)
			run.Size(10)
		}

		f.AddParagraph() // Spacer
	}

	return f.Save(path)
}
