// policy/engine_test.go
package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kaizen-platform/gatekeeper/model"
	"github.com/kaizen-platform/gatekeeper/policy"
)

func TestCitizenPermissions(t *testing.T) {
	engine := policy.NewEngine()

	assert.True(t, engine.Allowed("citizen", model.ActionHTTPRequest))
	assert.False(t, engine.Allowed("citizen", model.ActionExecuteScript))
	assert.False(t, engine.Allowed("citizen", model.ActionMintToken))
}

func TestSentinelPermissions(t *testing.T) {
	engine := policy.NewEngine()

	assert.True(t, engine.Allowed("sentinel", model.ActionExecuteScript))
	assert.True(t, engine.Allowed("sentinel", model.ActionMintToken))
	assert.True(t, engine.Allowed("sentinel", model.ActionHTTPRequest))
}

func TestUnknownRoleHasNoPermissions(t *testing.T) {
	engine := policy.NewEngine()

	assert.False(t, engine.Allowed("intruder", model.ActionHTTPRequest))
	assert.False(t, engine.Allowed("", model.ActionHTTPRequest))
}

func TestRiskRequiresConsensus(t *testing.T) {
	assert.True(t, policy.RiskRequiresConsensus(model.RiskHigh))
	assert.True(t, policy.RiskRequiresConsensus(model.RiskCritical))
	assert.False(t, policy.RiskRequiresConsensus(model.RiskLow))
	assert.False(t, policy.RiskRequiresConsensus(model.RiskMedium))
}

func TestActionRisk(t *testing.T) {
	engine := policy.NewEngine()

	assert.Equal(t, model.RiskHigh, engine.ActionRisk(model.ActionExecuteScript))
	assert.Equal(t, model.RiskCritical, engine.ActionRisk(model.ActionMintToken))
	assert.Equal(t, model.RiskLow, engine.ActionRisk(model.ActionHTTPRequest))
	assert.Equal(t, model.RiskMedium, engine.ActionRisk(model.Action("unknown")))
}

func TestCustomMatrix(t *testing.T) {
	engine := policy.NewEngineWithMatrix(map[string][]model.Action{
		"auditor": {model.ActionDBQuery},
	})

	assert.True(t, engine.Allowed("auditor", model.ActionDBQuery))
	assert.False(t, engine.Allowed("auditor", model.ActionExecuteScript))
	assert.False(t, engine.Allowed("sentinel", model.ActionExecuteScript))
}
