package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
)

// Backend is the slice of the API client the panel drives.
type Backend interface {
	ListRules(ctx context.Context) ([]api.Rule, error)
	RulesBySubtype(ctx context.Context, subtypeID string, includeUniversal bool) ([]api.Rule, error)
	DocumentRules(ctx context.Context, docID string) ([]api.DocumentRuleAssociation, error)
	SetDocumentRule(ctx context.Context, docID, ruleID string, enabled bool) error
}

// Mode selects how enablement is resolved and persisted.
type Mode int

const (
	// ModeLegacy stores per-document enablement on the server. Toggles
	// persist before the local state flips.
	ModeLegacy Mode = iota
	// ModeSubtype derives applicability from the document's subtype.
	// Toggles only affect the current session's rule selection.
	ModeSubtype
)

// Entry is one rule row of the panel.
type Entry struct {
	Rule    api.Rule
	Enabled bool
}

// Panel holds the rule catalog scoped to one document, with the enablement
// state the next review run will use.
type Panel struct {
	backend   Backend
	logger    hclog.Logger
	docID     string
	subtypeID string
	mode      Mode
	entries   []Entry
}

// NewPanel creates a panel for a document. subtypeID may be empty, which
// forces legacy mode regardless of the requested one.
func NewPanel(backend Backend, logger hclog.Logger, docID, subtypeID string, mode Mode) *Panel {
	if subtypeID == "" {
		mode = ModeLegacy
	}
	return &Panel{
		backend:   backend,
		logger:    logger,
		docID:     docID,
		subtypeID: subtypeID,
		mode:      mode,
	}
}

// Load fetches the catalog and resolves enablement. In legacy mode a rule
// without an association record counts as enabled; in subtype mode a rule
// is enabled when the subtype (or universal scope) makes it applicable.
func (p *Panel) Load(ctx context.Context) error {
	catalog, err := p.backend.ListRules(ctx)
	if err != nil {
		return err
	}

	enabled, err := p.resolveEnabled(ctx, catalog)
	if err != nil {
		return err
	}

	p.entries = p.entries[:0]
	for _, rule := range catalog {
		p.entries = append(p.entries, Entry{Rule: rule, Enabled: enabled[rule.ID]})
	}
	return nil
}

func (p *Panel) resolveEnabled(ctx context.Context, catalog []api.Rule) (map[string]bool, error) {
	enabled := make(map[string]bool, len(catalog))

	switch p.mode {
	case ModeSubtype:
		applicable, err := p.backend.RulesBySubtype(ctx, p.subtypeID, true)
		if err != nil {
			return nil, err
		}
		for _, rule := range applicable {
			enabled[rule.ID] = true
		}
	default:
		for _, rule := range catalog {
			enabled[rule.ID] = rule.Status == api.RuleStatusActive
		}
		associations, err := p.backend.DocumentRules(ctx, p.docID)
		if err != nil {
			return nil, err
		}
		for _, assoc := range associations {
			enabled[assoc.RuleID] = assoc.Enabled
		}
	}
	return enabled, nil
}

// Entries returns the panel rows in catalog order.
func (p *Panel) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// EnabledRuleIDs returns the rule ids the next review run should use.
func (p *Panel) EnabledRuleIDs() []string {
	var out []string
	for _, e := range p.entries {
		if e.Enabled {
			out = append(out, e.Rule.ID)
		}
	}
	return out
}

// Toggle flips one rule. Legacy mode persists the association first and
// keeps the local state untouched when the server rejects it; subtype mode
// is session-local by definition.
func (p *Panel) Toggle(ctx context.Context, ruleID string) (bool, error) {
	idx := -1
	for i := range p.entries {
		if p.entries[i].Rule.ID == ruleID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, fmt.Errorf("unknown rule %q", ruleID)
	}

	next := !p.entries[idx].Enabled
	if p.mode == ModeLegacy {
		if err := p.backend.SetDocumentRule(ctx, p.docID, ruleID, next); err != nil {
			return p.entries[idx].Enabled, err
		}
	}
	p.entries[idx].Enabled = next
	return next, nil
}

// ValidateRuleForm checks the fields the rule editor requires.
func ValidateRuleForm(name, description string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("rule name is required")
	}
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("rule description is required")
	}
	return nil
}
