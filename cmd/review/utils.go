package review

import (
	"encoding/json"
	"fmt"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
	"github.com/zhaoxiaowang1993/ai-doc-review/internal/session"
)

// approveDecider prints the gated run's proposed action and approves it.
// The gate exists so a human sees what is about to execute before it does.
func approveDecider(action api.ProposedAction) api.HITLDecision {
	fmt.Printf("proposed action: %s\n", action.Name)
	if len(action.Args) > 0 {
		if data, err := json.MarshalIndent(action.Args, "", "    "); err == nil {
			fmt.Println(string(data))
		}
	}
	return api.HITLDecision{Type: "approve"}
}

// runSummary is the post-run report printed to stdout and, when configured,
// saved as a JSON report file.
type runSummary struct {
	DocID      string              `json:"doc_id"`
	Total      int                 `json:"total"`
	Processed  int                 `json:"processed"`
	High       int                 `json:"high"`
	Medium     int                 `json:"medium"`
	Low        int                 `json:"low"`
	Conclusion session.Conclusion  `json:"conclusion"`
	ByType     []session.TypeCount `json:"by_type"`
	Reappeared []string            `json:"reappeared,omitempty"`
	// RulesApplied lists the rules the backend applied for the document's
	// subtype, when the document has one.
	RulesApplied []string `json:"rules_applied,omitempty"`
}

// buildSummary derives the report from the session metrics. reappeared lists
// issues of a forced re-run that match previously dismissed ones.
func buildSummary(s *session.Session, reappeared []api.Issue) runSummary {
	m := s.Metrics()
	summary := runSummary{
		DocID:      s.DocID(),
		Total:      m.Total,
		Processed:  m.Processed,
		High:       m.High,
		Medium:     m.Medium,
		Low:        m.Low,
		Conclusion: m.Conclusion(),
		ByType:     s.TypeTally(),
	}
	for _, issue := range reappeared {
		summary.Reappeared = append(summary.Reappeared, issue.ID)
	}
	return summary
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
