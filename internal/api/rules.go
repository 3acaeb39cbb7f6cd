package api

import (
	"context"
	"fmt"
	"strconv"
)

// ListRules returns the global rule catalog.
func (c *Client) ListRules(ctx context.Context) ([]Rule, error) {
	var rules []Rule
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetResult(&rules).
		Get("/api/v1/rules")
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return rules, nil
}

// CreateRule creates a new review rule and returns the stored entity.
func (c *Client) CreateRule(ctx context.Context, req CreateRuleRequest) (*Rule, error) {
	var rule Rule
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&rule).
		Post("/api/v1/rules")
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	c.logger.Info("rule created", "id", rule.ID, "name", rule.Name)
	return &rule, nil
}

// UpdateRule applies a partial update to a rule and returns the new entity.
func (c *Client) UpdateRule(ctx context.Context, ruleID string, req UpdateRuleRequest) (*Rule, error) {
	var rule Rule
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&rule).
		Patch(fmt.Sprintf("/api/v1/rules/%s", ruleID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &rule, nil
}

// DeleteRule deletes a rule definition.
func (c *Client) DeleteRule(ctx context.Context, ruleID string) error {
	resp, err := c.httpc.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/api/v1/rules/%s", ruleID))
	if err != nil {
		return err
	}
	return checkResponse(resp)
}

// RulesForReview returns the rules the backend will apply when reviewing a
// document of the given subtype.
func (c *Client) RulesForReview(ctx context.Context, subtypeID string) ([]Rule, error) {
	var rules []Rule
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetResult(&rules).
		Get(fmt.Sprintf("/api/v1/rules/for-review/%s", subtypeID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return rules, nil
}

// RulesBySubtype returns the rules scoped to a subtype, optionally including
// universal rules.
func (c *Client) RulesBySubtype(ctx context.Context, subtypeID string, includeUniversal bool) ([]Rule, error) {
	var rules []Rule
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetQueryParam("include_universal", strconv.FormatBool(includeUniversal)).
		SetResult(&rules).
		Get(fmt.Sprintf("/api/v1/rules/by-subtype/%s", subtypeID))
	if err != nil {
		return nil, err
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return rules, nil
}
