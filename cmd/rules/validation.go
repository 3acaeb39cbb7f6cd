package rules

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhaoxiaowang1993/ai-doc-review/internal/api"
	rulespanel "github.com/zhaoxiaowang1993/ai-doc-review/internal/rules"
)

// buildCreateRequest validates the create flags and assembles the payload.
func buildCreateRequest(cmd *cobra.Command) (*api.CreateRuleRequest, error) {
	if err := rulespanel.ValidateRuleForm(rulesOptions.Name, rulesOptions.Description); err != nil {
		return nil, err
	}
	if err := validateRiskLevel(rulesOptions.RiskLevel); err != nil {
		return nil, err
	}
	if rulesOptions.Universal && (len(rulesOptions.TypeIDs) > 0 || len(rulesOptions.SubtypeIDs) > 0) {
		return nil, fmt.Errorf("a universal rule cannot be scoped to types or subtypes")
	}

	examples, err := parseExamples(rulesOptions.Examples)
	if err != nil {
		return nil, err
	}

	req := &api.CreateRuleRequest{
		Name:        rulesOptions.Name,
		Description: rulesOptions.Description,
		RiskLevel:   rulesOptions.RiskLevel,
		Examples:    examples,
		Source:      api.RuleSourceCustom,
		TypeIDs:     rulesOptions.TypeIDs,
		SubtypeIDs:  rulesOptions.SubtypeIDs,
	}
	if rulesOptions.Universal {
		req.IsUniversal = &rulesOptions.Universal
	}
	return req, nil
}

// buildUpdateRequest validates the update flags and assembles the partial
// payload. Only flags the caller actually set are sent.
func buildUpdateRequest(cmd *cobra.Command, args []string) (string, *api.UpdateRuleRequest, error) {
	ruleID, err := validateRuleIDArg(args)
	if err != nil {
		return "", nil, err
	}

	req := &api.UpdateRuleRequest{}
	changed := false
	if cmd.Flags().Changed("name") {
		req.Name = &rulesOptions.Name
		changed = true
	}
	if cmd.Flags().Changed("description") {
		req.Description = &rulesOptions.Description
		changed = true
	}
	if cmd.Flags().Changed("risk") {
		if err := validateRiskLevel(rulesOptions.RiskLevel); err != nil {
			return "", nil, err
		}
		req.RiskLevel = &rulesOptions.RiskLevel
		changed = true
	}
	if cmd.Flags().Changed("status") {
		status := api.RuleStatus(rulesOptions.Status)
		if status != api.RuleStatusActive && status != api.RuleStatusInactive {
			return "", nil, fmt.Errorf("invalid status %q, expected active or inactive", rulesOptions.Status)
		}
		req.Status = &status
		changed = true
	}
	if !changed {
		return "", nil, fmt.Errorf("at least one field flag must be specified")
	}
	return ruleID, req, nil
}

func validateRiskLevel(level string) error {
	switch level {
	case "high", "medium", "low":
		return nil
	}
	return fmt.Errorf("invalid risk level %q, expected high, medium or low", level)
}

// validateRuleIDArg validates commands taking a single rule id argument.
func validateRuleIDArg(args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("exactly one rule id argument is required")
	}
	return args[0], nil
}

// validateDeleteArgs guards the destructive path: deletion is permanent on
// the backend, so it only proceeds when the caller confirmed with --force.
func validateDeleteArgs(args []string, force bool) (string, error) {
	ruleID, err := validateRuleIDArg(args)
	if err != nil {
		return "", err
	}
	if !force {
		return "", fmt.Errorf("deleting a rule is permanent; re-run with --force to confirm")
	}
	return ruleID, nil
}

func validateDocFlag(docID string) error {
	if docID == "" {
		return fmt.Errorf("the 'doc' flag must be specified")
	}
	return nil
}

func validateToggleFlags(docID, ruleID string) error {
	if err := validateDocFlag(docID); err != nil {
		return err
	}
	if ruleID == "" {
		return fmt.Errorf("the 'rule' flag must be specified")
	}
	return nil
}
