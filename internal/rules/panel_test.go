package rules

import (
	"context"
	"fmt"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
)

type fakeBackend struct {
	catalog      []api.Rule
	bySubtype    []api.Rule
	associations []api.DocumentRuleAssociation
	setErr       error
	setCalls     []api.DocumentRuleAssociation
}

func (f *fakeBackend) ListRules(ctx context.Context) ([]api.Rule, error) {
	return f.catalog, nil
}

func (f *fakeBackend) RulesBySubtype(ctx context.Context, subtypeID string, includeUniversal bool) ([]api.Rule, error) {
	if !includeUniversal {
		return nil, fmt.Errorf("universal rules must be included")
	}
	return f.bySubtype, nil
}

func (f *fakeBackend) DocumentRules(ctx context.Context, docID string) ([]api.DocumentRuleAssociation, error) {
	return f.associations, nil
}

func (f *fakeBackend) SetDocumentRule(ctx context.Context, docID, ruleID string, enabled bool) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls = append(f.setCalls, api.DocumentRuleAssociation{RuleID: ruleID, Enabled: enabled})
	return nil
}

func activeRule(id string) api.Rule {
	return api.Rule{ID: id, Name: "rule " + id, Status: api.RuleStatusActive}
}

func TestLoadLegacyModeDefaultsToActive(t *testing.T) {
	inactive := activeRule("r3")
	inactive.Status = api.RuleStatusInactive
	backend := &fakeBackend{
		catalog: []api.Rule{activeRule("r1"), activeRule("r2"), inactive},
		associations: []api.DocumentRuleAssociation{
			{RuleID: "r2", Enabled: false},
		},
	}
	p := NewPanel(backend, hclog.NewNullLogger(), "doc-1", "", ModeLegacy)

	require.NoError(t, p.Load(context.Background()))

	entries := p.Entries()
	require.Len(t, entries, 3)
	assert.True(t, entries[0].Enabled)  // active, no association
	assert.False(t, entries[1].Enabled) // disabled by association
	assert.False(t, entries[2].Enabled) // inactive rule
	assert.Equal(t, []string{"r1"}, p.EnabledRuleIDs())
}

func TestLoadSubtypeModeUsesApplicability(t *testing.T) {
	backend := &fakeBackend{
		catalog:   []api.Rule{activeRule("r1"), activeRule("r2")},
		bySubtype: []api.Rule{activeRule("r2")},
	}
	p := NewPanel(backend, hclog.NewNullLogger(), "doc-1", "sub-7", ModeSubtype)

	require.NoError(t, p.Load(context.Background()))

	assert.Equal(t, []string{"r2"}, p.EnabledRuleIDs())
}

func TestEmptySubtypeFallsBackToLegacy(t *testing.T) {
	backend := &fakeBackend{catalog: []api.Rule{activeRule("r1")}}
	p := NewPanel(backend, hclog.NewNullLogger(), "doc-1", "", ModeSubtype)

	require.NoError(t, p.Load(context.Background()))

	// Legacy resolution ran: no subtype lookup, active rule enabled.
	assert.Equal(t, []string{"r1"}, p.EnabledRuleIDs())
}

func TestToggleLegacyPersistsFirst(t *testing.T) {
	backend := &fakeBackend{catalog: []api.Rule{activeRule("r1")}}
	p := NewPanel(backend, hclog.NewNullLogger(), "doc-1", "", ModeLegacy)
	require.NoError(t, p.Load(context.Background()))

	enabled, err := p.Toggle(context.Background(), "r1")
	require.NoError(t, err)
	assert.False(t, enabled)
	require.Len(t, backend.setCalls, 1)
	assert.Equal(t, api.DocumentRuleAssociation{RuleID: "r1", Enabled: false}, backend.setCalls[0])
}

func TestToggleLegacyKeepsStateOnServerError(t *testing.T) {
	backend := &fakeBackend{
		catalog: []api.Rule{activeRule("r1")},
		setErr:  fmt.Errorf("boom"),
	}
	p := NewPanel(backend, hclog.NewNullLogger(), "doc-1", "", ModeLegacy)
	require.NoError(t, p.Load(context.Background()))

	enabled, err := p.Toggle(context.Background(), "r1")
	require.Error(t, err)
	assert.True(t, enabled)
	assert.Equal(t, []string{"r1"}, p.EnabledRuleIDs())
}

func TestToggleSubtypeIsLocalOnly(t *testing.T) {
	backend := &fakeBackend{
		catalog:   []api.Rule{activeRule("r1")},
		bySubtype: []api.Rule{activeRule("r1")},
	}
	p := NewPanel(backend, hclog.NewNullLogger(), "doc-1", "sub-7", ModeSubtype)
	require.NoError(t, p.Load(context.Background()))

	enabled, err := p.Toggle(context.Background(), "r1")
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Empty(t, backend.setCalls)
}

func TestToggleUnknownRule(t *testing.T) {
	backend := &fakeBackend{catalog: []api.Rule{activeRule("r1")}}
	p := NewPanel(backend, hclog.NewNullLogger(), "doc-1", "", ModeLegacy)
	require.NoError(t, p.Load(context.Background()))

	_, err := p.Toggle(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestValidateRuleForm(t *testing.T) {
	assert.NoError(t, ValidateRuleForm("Payment Terms", "flag open-ended payment windows"))
	assert.Error(t, ValidateRuleForm("", "desc"))
	assert.Error(t, ValidateRuleForm("   ", "desc"))
	assert.Error(t, ValidateRuleForm("name", " "))
}
