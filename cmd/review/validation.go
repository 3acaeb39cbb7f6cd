package review

import (
	"fmt"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
	"github.com/zhaoxiaowang1993/ai-doc-review/internal/session"
)

func validateDocFlag(docID string) error {
	if docID == "" {
		return fmt.Errorf("the 'doc' flag must be specified")
	}
	return nil
}

func validateIssueFlags(docID, issueID string) error {
	if err := validateDocFlag(docID); err != nil {
		return err
	}
	if issueID == "" {
		return fmt.Errorf("the 'issue' flag must be specified")
	}
	return nil
}

func validateFeedbackFlags(docID, issueID, reason string) error {
	if err := validateIssueFlags(docID, issueID); err != nil {
		return err
	}
	if reason == "" {
		return fmt.Errorf("the 'reason' flag must be specified")
	}
	return nil
}

// validateIssuesArgs checks the filter flags and converts them to session
// filter options.
func validateIssuesArgs(docID *string, statuses, hideTypes []string, query string) (*session.FilterOptions, error) {
	if err := validateDocFlag(*docID); err != nil {
		return nil, err
	}

	opts := &session.FilterOptions{
		HideTypes: hideTypes,
		Query:     query,
	}
	for _, raw := range statuses {
		status := api.NormalizeIssueStatus(raw)
		switch status {
		case api.IssueStatusNotReviewed, api.IssueStatusAccepted, api.IssueStatusDismissed:
			opts.Statuses = append(opts.Statuses, status)
		default:
			return nil, fmt.Errorf("invalid status %q, expected one of %v", raw, api.AllIssueStatuses())
		}
	}
	return opts, nil
}
