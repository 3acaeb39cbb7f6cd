package api

import (
	"context"
	"fmt"
)

// AcceptIssue accepts an issue, optionally with edited explanation or
// suggested fix, and returns the canonical updated issue.
func (c *Client) AcceptIssue(ctx context.Context, docID, issueID string, modified *ModifiedFields) (*Issue, error) {
	req := c.httpc.R().SetContext(ctx)
	if !modified.Empty() {
		req.SetBody(modified)
	}

	var issue Issue
	resp, err := req.
		SetResult(&issue).
		Patch(fmt.Sprintf("/api/v1/review/%s/issues/%s/accept", docID, issueID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &issue, nil
}

// DismissIssue dismisses an issue and returns the canonical updated issue.
// Feedback is usually collected afterwards through IssueFeedback.
func (c *Client) DismissIssue(ctx context.Context, docID, issueID string, feedback *DismissalFeedback) (*Issue, error) {
	req := c.httpc.R().SetContext(ctx)
	if feedback != nil && feedback.Reason != "" {
		req.SetBody(feedback)
	}

	var issue Issue
	resp, err := req.
		SetResult(&issue).
		Patch(fmt.Sprintf("/api/v1/review/%s/issues/%s/dismiss", docID, issueID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &issue, nil
}

// IssueFeedback attaches a dismissal reason to an already dismissed issue.
func (c *Client) IssueFeedback(ctx context.Context, docID, issueID string, feedback DismissalFeedback) (*Issue, error) {
	var issue Issue
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetBody(feedback).
		SetResult(&issue).
		Patch(fmt.Sprintf("/api/v1/review/%s/issues/%s/feedback", docID, issueID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &issue, nil
}

// StartHITL opens a human-review gate for an issue update and returns the
// thread identifiers plus the proposed action for the confirmation step.
func (c *Client) StartHITL(ctx context.Context, docID, issueID string, req HITLStartRequest) (*HITLStartResponse, error) {
	var out HITLStartResponse
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post(fmt.Sprintf("/api/v1/review/%s/issues/%s/hitl/start", docID, issueID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResumeHITL resumes a gated run with an approve or edit decision and
// returns the issue as stored after the update executed.
func (c *Client) ResumeHITL(ctx context.Context, docID, issueID string, req HITLResumeRequest) (*Issue, error) {
	var issue Issue
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&issue).
		Post(fmt.Sprintf("/api/v1/review/%s/issues/%s/hitl/resume", docID, issueID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &issue, nil
}

// RulesState reports whether the applicable rule set changed since the
// document's last review. Callers use it to gate forced re-reviews behind a
// confirmation.
func (c *Client) RulesState(ctx context.Context, docID string) (*ReviewRulesState, error) {
	var state ReviewRulesState
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetResult(&state).
		Get(fmt.Sprintf("/api/v1/review/%s/rules-state", docID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &state, nil
}

// DocumentRules returns the legacy per-document rule enablement set.
func (c *Client) DocumentRules(ctx context.Context, docID string) ([]DocumentRuleAssociation, error) {
	var assocs []DocumentRuleAssociation
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetResult(&assocs).
		Get(fmt.Sprintf("/api/v1/review/%s/rules", docID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return assocs, nil
}

// SetDocumentRule persists the legacy per-document enablement of one rule.
func (c *Client) SetDocumentRule(ctx context.Context, docID, ruleID string, enabled bool) error {
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetBody(DocumentRuleAssociation{RuleID: ruleID, Enabled: enabled}).
		Put(fmt.Sprintf("/api/v1/review/%s/rules/%s", docID, ruleID))
	if err != nil {
		return err
	}
	return checkResponse(resp)
}
