package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDeleteArgsRequiresForce(t *testing.T) {
	_, err := validateDeleteArgs([]string{"rule-1"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	ruleID, err := validateDeleteArgs([]string{"rule-1"}, true)
	require.NoError(t, err)
	assert.Equal(t, "rule-1", ruleID)
}

func TestValidateDeleteArgsRequiresRuleID(t *testing.T) {
	_, err := validateDeleteArgs(nil, true)
	require.Error(t, err)

	_, err = validateDeleteArgs([]string{""}, true)
	require.Error(t, err)
}
