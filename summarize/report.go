package summarize

import (
	"fmt"
	"strings"
)

// Report renders every pair as a numbered block: the prompt, then the summary.
func (r GenerationResult) Report() string {
	var b strings.Builder
	for i, p := range r {
		fmt.Fprintf(&b, "============\nSUMMARY COUNT: %d\n============\n", i)
		fmt.Fprintf(&b, "PROMPT: %s\n\n%s\n===========================\n\n", p.Prompt, p.Summary)
	}
	return b.String()
}
