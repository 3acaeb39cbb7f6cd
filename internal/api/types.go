package api

import "encoding/json"

// IssueStatus is the lifecycle state of a detected issue. Transitions are
// server-driven and only ever move from NotReviewed to Accepted or Dismissed.
type IssueStatus string

const (
	IssueStatusNotReviewed IssueStatus = "not_reviewed"
	IssueStatusAccepted    IssueStatus = "accepted"
	IssueStatusDismissed   IssueStatus = "dismissed"
)

// AllIssueStatuses lists every lifecycle state, in display order.
func AllIssueStatuses() []IssueStatus {
	return []IssueStatus{IssueStatusNotReviewed, IssueStatusAccepted, IssueStatusDismissed}
}

// NormalizeIssueStatus folds the status spellings the backend has produced
// over time ("not reviewed" vs "not_reviewed") into the canonical form.
// Empty means the issue was never reviewed.
func NormalizeIssueStatus(raw string) IssueStatus {
	switch raw {
	case "", "not reviewed", string(IssueStatusNotReviewed):
		return IssueStatusNotReviewed
	case string(IssueStatusAccepted):
		return IssueStatusAccepted
	case string(IssueStatusDismissed):
		return IssueStatusDismissed
	}
	return IssueStatus(raw)
}

// UnmarshalJSON normalizes the status at the ingestion boundary so that raw
// server spellings never reach business logic.
func (s *IssueStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = NormalizeIssueStatus(raw)
	return nil
}

// IssueLocation anchors an issue to a region of the source document.
// BoundingBox holds quad-point coordinates measured from the bottom left of
// the page: [x1 y1 (top left) x2 y2 (top right) x3 y3 (bottom left) x4 y4 (bottom right)].
type IssueLocation struct {
	SourceSentence string    `json:"source_sentence"`
	PageNum        int       `json:"page_num"`
	BoundingBox    []float64 `json:"bounding_box"`
}

// ModifiedFields carries reviewer overrides applied through the human-review
// edit flow. Once an issue is resolved these are the only writable fields.
type ModifiedFields struct {
	SuggestedFix string `json:"suggested_fix,omitempty"`
	Explanation  string `json:"explanation,omitempty"`
}

// Empty reports whether no override is set.
func (m *ModifiedFields) Empty() bool {
	return m == nil || (m.SuggestedFix == "" && m.Explanation == "")
}

// DismissalFeedback is an optional reason attached to a dismissed issue.
type DismissalFeedback struct {
	Reason string `json:"reason,omitempty"`
}

// Issue is a single detected compliance problem in a reviewed document.
type Issue struct {
	ID                string             `json:"id"`
	DocID             string             `json:"doc_id"`
	Type              string             `json:"type"`
	Text              string             `json:"text"`
	Status            IssueStatus        `json:"status"`
	Explanation       string             `json:"explanation"`
	SuggestedFix      string             `json:"suggested_fix"`
	RiskLevel         string             `json:"risk_level,omitempty"`
	Location          *IssueLocation     `json:"location,omitempty"`
	ReviewInitiatedBy string             `json:"review_initiated_by,omitempty"`
	ReviewInitiatedAt string             `json:"review_initiated_at_UTC,omitempty"`
	ResolvedBy        string             `json:"resolved_by,omitempty"`
	ResolvedAt        string             `json:"resolved_at_UTC,omitempty"`
	ModifiedFields    *ModifiedFields    `json:"modified_fields,omitempty"`
	DismissalFeedback *DismissalFeedback `json:"dismissal_feedback,omitempty"`
}

// Resolved reports whether the issue left the not-reviewed state.
func (i *Issue) Resolved() bool {
	return i.Status == IssueStatusAccepted || i.Status == IssueStatusDismissed
}

// HasBoundingBox reports whether the issue can be highlighted on a page.
func (i *Issue) HasBoundingBox() bool {
	return i.Location != nil && i.Location.PageNum > 0 && len(i.Location.BoundingBox) > 0
}

// RuleType separates rules that detect issues from rules that exclude them.
type RuleType string

const (
	RuleTypeApplicable RuleType = "applicable"
	RuleTypeExclusion  RuleType = "exclusion"
)

// RuleSource tells builtin library rules apart from user-defined ones.
type RuleSource string

const (
	RuleSourceBuiltin RuleSource = "builtin"
	RuleSourceCustom  RuleSource = "custom"
)

type RuleStatus string

const (
	RuleStatusActive   RuleStatus = "active"
	RuleStatusInactive RuleStatus = "inactive"
)

// RuleExample is a sample text illustrating what a rule matches.
type RuleExample struct {
	Text        string `json:"text"`
	Explanation string `json:"explanation"`
}

// Rule is a named review criterion. A rule is either universal or scoped to
// specific document types/subtypes through TypeIDs/SubtypeIDs.
type Rule struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	RiskLevel   string        `json:"risk_level"`
	Examples    []RuleExample `json:"examples"`
	RuleType    RuleType      `json:"rule_type"`
	Source      RuleSource    `json:"source"`
	Status      RuleStatus    `json:"status"`
	IsUniversal bool          `json:"is_universal"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at,omitempty"`
	TypeIDs     []string      `json:"type_ids"`
	SubtypeIDs  []string      `json:"subtype_ids"`
}

// CreateRuleRequest is the payload for creating a rule.
type CreateRuleRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	RiskLevel   string        `json:"risk_level"`
	Examples    []RuleExample `json:"examples,omitempty"`
	RuleType    RuleType      `json:"rule_type,omitempty"`
	Source      RuleSource    `json:"source,omitempty"`
	IsUniversal *bool         `json:"is_universal,omitempty"`
	TypeIDs     []string      `json:"type_ids,omitempty"`
	SubtypeIDs  []string      `json:"subtype_ids,omitempty"`
}

// UpdateRuleRequest is the partial payload for PATCHing a rule. Nil fields
// are left untouched by the backend.
type UpdateRuleRequest struct {
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
	RiskLevel   *string       `json:"risk_level,omitempty"`
	Examples    []RuleExample `json:"examples,omitempty"`
	RuleType    *RuleType     `json:"rule_type,omitempty"`
	Source      *RuleSource   `json:"source,omitempty"`
	Status      *RuleStatus   `json:"status,omitempty"`
	IsUniversal *bool         `json:"is_universal,omitempty"`
	TypeIDs     []string      `json:"type_ids,omitempty"`
	SubtypeIDs  []string      `json:"subtype_ids,omitempty"`
}

// Document is uploaded file metadata. Immutable after creation except for
// soft deletion on the backend.
type Document struct {
	ID               string `json:"id"`
	OwnerID          string `json:"owner_id"`
	OriginalFilename string `json:"original_filename"`
	DisplayName      string `json:"display_name"`
	SubtypeID        string `json:"subtype_id"`
	StorageProvider  string `json:"storage_provider"`
	StorageKey       string `json:"storage_key"`
	MimeType         string `json:"mime_type"`
	SizeBytes        int64  `json:"size_bytes"`
	SHA256           string `json:"sha256"`
	CreatedAtUTC     string `json:"created_at_utc"`
	CreatedBy        string `json:"created_by"`
	LastRunID        string `json:"last_run_id,omitempty"`
}

type DocumentSubtype struct {
	ID     string `json:"id"`
	TypeID string `json:"type_id"`
	Name   string `json:"name"`
}

// DocumentTypeWithSubtypes is one node of the hierarchical type catalog.
type DocumentTypeWithSubtypes struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Subtypes []DocumentSubtype `json:"subtypes"`
}

// RuleSnapshotItem is the trimmed-down rule shape stored with a review run.
type RuleSnapshotItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	RiskLevel   string `json:"risk_level"`
}

// ReviewRulesState compares the rule set used at the last review with the
// currently applicable one.
type ReviewRulesState struct {
	SnapshotRules           []RuleSnapshotItem `json:"snapshot_rules"`
	SnapshotReviewedAtUTC   string             `json:"snapshot_reviewed_at_UTC"`
	LatestRuleIDs           []string           `json:"latest_rule_ids"`
	RulesChangedSinceReview bool               `json:"rules_changed_since_review"`
}

// DocumentRuleAssociation is the legacy per-document rule enablement record.
type DocumentRuleAssociation struct {
	RuleID  string `json:"rule_id"`
	Enabled bool   `json:"enabled"`
}

// ProposedAction is the tool call a HITL run wants to execute.
type ProposedAction struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// HITLStartRequest opens a human-review gate for an accept or dismiss.
type HITLStartRequest struct {
	Action            string             `json:"action"`
	ModifiedFields    *ModifiedFields    `json:"modified_fields,omitempty"`
	DismissalFeedback *DismissalFeedback `json:"dismissal_feedback,omitempty"`
}

// HITLStartResponse carries the identifiers needed to resume the gated run.
type HITLStartResponse struct {
	ThreadID       string          `json:"thread_id"`
	InterruptID    string          `json:"interrupt_id,omitempty"`
	ProposedAction ProposedAction  `json:"proposed_action"`
	RawInterrupt   json.RawMessage `json:"raw_interrupt,omitempty"`
}

// HITLDecision approves the proposed action as-is or substitutes an edited one.
type HITLDecision struct {
	Type         string          `json:"type"` // approve | edit
	EditedAction *ProposedAction `json:"edited_action,omitempty"`
}

// HITLResumeRequest resumes a gated run with the reviewer's decision.
type HITLResumeRequest struct {
	ThreadID    string        `json:"thread_id"`
	InterruptID string        `json:"interrupt_id,omitempty"`
	Decision    *HITLDecision `json:"decision,omitempty"`
}

// UploadFileResponse is returned by the legacy filename-addressed upload.
type UploadFileResponse struct {
	Filename  string `json:"filename"`
	DocID     string `json:"doc_id,omitempty"`
	SubtypeID string `json:"subtype_id,omitempty"`
}
