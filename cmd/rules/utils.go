package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
	rulespanel "github.com/zhaoxiaowang1993/ai-doc-review/internal/rules"
)

// parseExamples splits repeated 'text::explanation' flag values. The
// explanation part is optional.
func parseExamples(raw []string) ([]api.RuleExample, error) {
	var out []api.RuleExample
	for _, entry := range raw {
		text, explanation, _ := strings.Cut(entry, "::")
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("example %q has no text part", entry)
		}
		out = append(out, api.RuleExample{Text: text, Explanation: explanation})
	}
	return out, nil
}

// printPanel renders the enablement table.
func printPanel(entries []rulespanel.Entry) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RULE\tNAME\tRISK\tENABLED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", e.Rule.ID, e.Rule.Name, e.Rule.RiskLevel, e.Enabled)
	}
	return w.Flush()
}

// printJSON writes the value to stdout as indented JSON.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("error marshaling the result data: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
