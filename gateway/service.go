// gateway/service.go

// Package gateway orchestrates the request lifecycle: authenticate, screen,
// obtain consensus for risky actions, execute, attest.
package gateway

import (
	"context"
	std_errors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kaizen-platform/gatekeeper/detector"
	gk_errors "github.com/kaizen-platform/gatekeeper/errors"
	logger "github.com/kaizen-platform/gatekeeper/logging"
	"github.com/kaizen-platform/gatekeeper/model"
	"github.com/kaizen-platform/gatekeeper/policy"
	"github.com/kaizen-platform/gatekeeper/util"
)

// ConsensusBroker obtains a quorum verdict for a decision case.
type ConsensusBroker interface {
	Evaluate(ctx context.Context, payload map[string]interface{}) (model.ConsensusResult, error)
}

// ScriptExecutor runs an approved script inside the sandbox.
type ScriptExecutor interface {
	Execute(ctx context.Context, script string) (model.SandboxResult, error)
}

// Attestor anchors request outcomes to the external ledger, best-effort.
type Attestor interface {
	Attest(ctx context.Context, payload, result map[string]interface{}) (string, bool)
	AttestBlocked(ctx context.Context, payload map[string]interface{}, reason string) (string, bool)
}

// TokenService mints and checks short-lived scoped tokens.
type TokenService interface {
	MintScopedToken(actorDID, scope string, ttl time.Duration) (string, error)
	RequireScope(token, scope string) error
}

// ActionHandler executes a non-script action. These are opaque external
// collaborators as far as the gateway is concerned.
type ActionHandler func(ctx context.Context, req *model.ExecRequest) (map[string]interface{}, error)

// Service drives each request through the lifecycle state machine.
type Service struct {
	policyEngine *policy.Engine
	tokenService TokenService
	broker       ConsensusBroker
	executor     ScriptExecutor
	attestor     Attestor
	eventBus     *util.EventBus
	handlers     map[model.Action]ActionHandler
	defaultTTL   time.Duration
}

func NewService(
	policyEngine *policy.Engine,
	tokenService TokenService,
	broker ConsensusBroker,
	executor ScriptExecutor,
	attestor Attestor,
	eventBus *util.EventBus,
) *Service {
	s := &Service{
		policyEngine: policyEngine,
		tokenService: tokenService,
		broker:       broker,
		executor:     executor,
		attestor:     attestor,
		eventBus:     eventBus,
		handlers:     make(map[model.Action]ActionHandler),
		defaultTTL:   30 * time.Second,
	}
	return s
}

// RegisterHandler installs the pass-through handler for a non-script action.
func (s *Service) RegisterHandler(action model.Action, handler ActionHandler) {
	s.handlers[action] = handler
}

// Outcome carries the terminal state of a processed request alongside the
// response returned to the caller.
type Outcome struct {
	Response model.ExecResponse
	State    State
	// Err classifies a blocked outcome for transport mapping; nil when the
	// request completed or was blocked by a policy-level denial.
	Err error
}

// Process runs req through the pipeline. The request is discarded once the
// response is returned; nothing persists across requests except the static
// policy tables.
func (s *Service) Process(ctx context.Context, req *model.ExecRequest) Outcome {
	log := logger.WithContext(
		zap.String("requestID", req.RequestID),
		zap.String("actorDID", req.ActorDID),
		zap.String("action", string(req.Action)),
	)
	log.Info("Request received")

	// RECEIVED -> AUTHENTICATED: bind the actor to a single-scope token
	// and check it. The transport signature was verified before the body
	// was interpreted.
	ttl := s.defaultTTL
	if req.TTLSeconds > 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}
	scopedToken, err := s.tokenService.MintScopedToken(req.ActorDID, string(req.Action), ttl)
	if err != nil {
		log.Error("Failed to mint scoped token", zap.Error(err))
		return s.block(ctx, req, StateAuthenticated, gk_errors.ErrTokenInvalid, "token minting failed")
	}
	if err := s.tokenService.RequireScope(scopedToken, string(req.Action)); err != nil {
		log.Warn("Scope check failed", zap.Error(err))
		return s.block(ctx, req, StateAuthenticated, err, err.Error())
	}

	// AUTHENTICATED -> SCREENED: threat heuristics, then the role matrix.
	if detector.LooksMalicious(req.Payload) {
		log.Warn("Payload matched injection heuristics")
		return s.block(ctx, req, StateScreened, gk_errors.ErrThreatDetected, "payload matched injection heuristics")
	}
	if !s.policyEngine.Allowed(req.ActorRole, req.Action) {
		log.Warn("Role lacks permission for action", zap.String("role", req.ActorRole))
		return s.block(ctx, req, StateScreened, gk_errors.ErrActionNotAllowed,
			fmt.Sprintf("role %q may not perform %s", req.ActorRole, req.Action))
	}

	// Effective risk: the declared level, floored at the action's default
	// so an under-declared request cannot skip consensus.
	risk := req.Risk
	if !risk.Valid() {
		risk = s.policyEngine.ActionRisk(req.Action)
	} else if riskRank(s.policyEngine.ActionRisk(req.Action)) > riskRank(risk) {
		risk = s.policyEngine.ActionRisk(req.Action)
	}

	// SCREENED -> CONSENSUS_PENDING, only for high or critical risk.
	if policy.RiskRequiresConsensus(risk) {
		log.Info("Consensus required", zap.String("risk", string(risk)))
		decisionCase := map[string]interface{}{
			"actor_did":    req.ActorDID,
			"action":       string(req.Action),
			"risk":         string(risk),
			"payload":      req.Payload,
			"context_hash": req.ContextHash,
		}
		result, err := s.broker.Evaluate(ctx, decisionCase)
		if err != nil {
			log.Error("Consensus round failed", zap.Error(err))
			return s.block(ctx, req, StateConsensusRejected, gk_errors.ErrConsensusDenied, "consensus round failed")
		}
		if !result.OK {
			log.Warn("Consensus rejected the action",
				zap.Float64("mean", result.Mean),
				zap.Float64("stddev", result.StdDev),
				zap.Float64("agreementRatio", result.AgreementRatio))
			return s.block(ctx, req, StateConsensusRejected, gk_errors.ErrConsensusDenied,
				fmt.Sprintf("consensus denied: mean=%.3f stddev=%.3f agreement=%.2f",
					result.Mean, result.StdDev, result.AgreementRatio))
		}
		log.Info("Consensus approved the action", zap.Float64("mean", result.Mean))
	}

	// -> EXECUTED
	result, err := s.execute(ctx, req)
	if err != nil {
		reason := err.Error()
		switch {
		case std_errors.Is(err, gk_errors.ErrSandboxRejected):
			return s.block(ctx, req, StateExecuted, gk_errors.ErrSandboxRejected, reason)
		case std_errors.Is(err, gk_errors.ErrSandboxTimeout):
			return s.block(ctx, req, StateExecuted, gk_errors.ErrSandboxTimeout, reason)
		default:
			log.Error("Action execution failed", zap.Error(err))
			return s.block(ctx, req, StateExecuted, gk_errors.ErrInternalServer, "action execution failed")
		}
	}

	// EXECUTED -> ATTESTED: record the outcome regardless of ledger
	// availability.
	tx, attested := s.attestor.Attest(ctx, req.Payload, result)
	var txRef *string
	if attested {
		txRef = &tx
	}

	preview := previewOf(result)
	resp := model.ExecResponse{
		Status:        model.StatusOK,
		AttestationTx: txRef,
		ResultPreview: &preview,
	}

	s.publish(ctx, util.EventRequestExecuted, req, StateComplete, model.StatusOK, "", tx)
	log.Info("Request complete", zap.Bool("attested", attested))
	return Outcome{Response: resp, State: StateComplete}
}

// execute dispatches the action. Scripts go through the sandbox; everything
// else goes to its registered pass-through handler.
func (s *Service) execute(ctx context.Context, req *model.ExecRequest) (map[string]interface{}, error) {
	if req.Action == model.ActionExecuteScript {
		script, _ := req.Payload["script"].(string)
		if script == "" {
			return nil, fmt.Errorf("%w: missing script in payload", gk_errors.ErrSandboxRejected)
		}
		sandboxResult, err := s.executor.Execute(ctx, script)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"rc":        sandboxResult.RC,
			"stdout":    sandboxResult.Stdout,
			"stderr":    sandboxResult.Stderr,
			"sandboxed": sandboxResult.Sandboxed,
		}, nil
	}

	if handler, ok := s.handlers[req.Action]; ok {
		return handler(ctx, req)
	}

	// Unregistered actions are accepted as opaque pass-throughs.
	return map[string]interface{}{
		"action":     string(req.Action),
		"dispatched": true,
	}, nil
}

// block attests a denial, publishes the terminal event, and builds the
// blocked response. Denial is a normal outcome, not a protocol error.
func (s *Service) block(ctx context.Context, req *model.ExecRequest, from State, cause error, reason string) Outcome {
	tx, attested := s.attestor.AttestBlocked(ctx, req.Payload, reason)
	var txRef *string
	if attested {
		txRef = &tx
	}

	s.publish(ctx, util.EventRequestBlocked, req, from, model.StatusBlocked, reason, tx)

	return Outcome{
		Response: model.ExecResponse{
			Status:        model.StatusBlocked,
			AttestationTx: txRef,
			Reason:        reason,
		},
		State: StateBlocked,
		Err:   cause,
	}
}

// publish emits the terminal lifecycle event for the decision trail.
func (s *Service) publish(ctx context.Context, eventType string, req *model.ExecRequest, stage State, outcome, reason, tx string) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, eventType, DecisionEvent{
		RequestID:     req.RequestID,
		ActorDID:      req.ActorDID,
		Action:        string(req.Action),
		Risk:          string(req.Risk),
		Stage:         string(stage),
		Outcome:       outcome,
		Reason:        reason,
		AttestationTx: tx,
	})
}

// DecisionEvent is the payload published on terminal transitions.
type DecisionEvent struct {
	RequestID     string
	ActorDID      string
	Action        string
	Risk          string
	Stage         string
	Outcome       string
	Reason        string
	AttestationTx string
}

// previewOf renders a short preview of the execution result.
func previewOf(result map[string]interface{}) string {
	if stdout, ok := result["stdout"].(string); ok && stdout != "" {
		return stdout
	}
	return fmt.Sprintf("%v", result)
}

func riskRank(r model.Risk) int {
	switch r {
	case model.RiskLow:
		return 0
	case model.RiskMedium:
		return 1
	case model.RiskHigh:
		return 2
	case model.RiskCritical:
		return 3
	}
	return 1
}
