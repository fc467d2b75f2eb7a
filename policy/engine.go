// policy/engine.go
package policy

import (
	"github.com/kaizen-platform/gatekeeper/model"
)

// Engine holds the static role and risk tables. Tables are built once at
// startup and read-only afterwards, so concurrent lookups need no locking.
type Engine struct {
	roleMatrix map[string]map[model.Action]struct{}
	riskMap    map[model.Action]model.Risk
}

// defaultRoleMatrix is the role-based access control matrix.
func defaultRoleMatrix() map[string][]model.Action {
	return map[string][]model.Action{
		"citizen": {model.ActionHTTPRequest},
		"pro":     {model.ActionHTTPRequest, model.ActionWriteFile},
		"founder": {model.ActionHTTPRequest, model.ActionWriteFile, model.ActionDBQuery},
		"sentinel": {
			model.ActionHTTPRequest,
			model.ActionWriteFile,
			model.ActionDBQuery,
			model.ActionExecuteScript,
			model.ActionMintToken,
		},
	}
}

// defaultRiskMap is the default risk level per action.
func defaultRiskMap() map[model.Action]model.Risk {
	return map[model.Action]model.Risk{
		model.ActionExecuteScript: model.RiskHigh,
		model.ActionMintToken:     model.RiskCritical,
		model.ActionDBQuery:       model.RiskMedium,
		model.ActionWriteFile:     model.RiskMedium,
		model.ActionHTTPRequest:   model.RiskLow,
	}
}

// NewEngine creates an engine with the default tables.
func NewEngine() *Engine {
	return NewEngineWithMatrix(defaultRoleMatrix())
}

// NewEngineWithMatrix creates an engine with a caller-supplied role matrix,
// e.g. loaded from configuration at startup.
func NewEngineWithMatrix(matrix map[string][]model.Action) *Engine {
	roleMatrix := make(map[string]map[model.Action]struct{}, len(matrix))
	for role, actions := range matrix {
		set := make(map[model.Action]struct{}, len(actions))
		for _, a := range actions {
			set[a] = struct{}{}
		}
		roleMatrix[role] = set
	}
	return &Engine{
		roleMatrix: roleMatrix,
		riskMap:    defaultRiskMap(),
	}
}

// Allowed reports whether role may perform action. Unknown roles have no
// permissions.
func (e *Engine) Allowed(role string, action model.Action) bool {
	actions, ok := e.roleMatrix[role]
	if !ok {
		return false
	}
	_, ok = actions[action]
	return ok
}

// ActionRisk returns the default risk level for an action. Unknown actions
// default to medium.
func (e *Engine) ActionRisk(action model.Action) model.Risk {
	if risk, ok := e.riskMap[action]; ok {
		return risk
	}
	return model.RiskMedium
}

// RiskRequiresConsensus reports whether a risk level requires a consensus
// round before execution. This is the single gate deciding whether the
// consensus broker is invoked.
func RiskRequiresConsensus(risk model.Risk) bool {
	return risk == model.RiskHigh || risk == model.RiskCritical
}
