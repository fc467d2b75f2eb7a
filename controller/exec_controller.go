// controller/exec_controller.go
package controller

import (
	"context"
	"encoding/base64"
	"encoding/json"
	std_errors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	gk_errors "github.com/kaizen-platform/gatekeeper/errors"
	"github.com/kaizen-platform/gatekeeper/gateway"
	logger "github.com/kaizen-platform/gatekeeper/logging"
	"github.com/kaizen-platform/gatekeeper/model"
	"github.com/kaizen-platform/gatekeeper/token"
	"github.com/kaizen-platform/gatekeeper/util"
)

// GatewayService drives a request through the authorization pipeline.
type GatewayService interface {
	Process(ctx context.Context, req *model.ExecRequest) gateway.Outcome
}

type ExecController struct {
	gatewayService GatewayService
}

func NewExecController(gatewayService GatewayService) *ExecController {
	return &ExecController{
		gatewayService: gatewayService,
	}
}

// RegisterRoutes registers the API routes
func (ec *ExecController) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/execute", ec.Execute)
	r.GET("/health", ec.Health)
}

// Health endpoint
func (ec *ExecController) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Execute endpoint. The DID signature travels in transport headers and is
// verified over the raw body before the body is interpreted.
func (ec *ExecController) Execute(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	sigHeader := c.GetHeader("X-DID-Signature")
	pubHeader := c.GetHeader("X-DID-PubKey")
	if sigHeader == "" || pubHeader == "" {
		util.RespondWithError(c, http.StatusUnauthorized, "Missing DID signature", gk_errors.ErrMissingSignature)
		return
	}

	signature, err := base64.StdEncoding.DecodeString(sigHeader)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Invalid DID signature", gk_errors.ErrInvalidSignature)
		return
	}
	publicKey, err := base64.StdEncoding.DecodeString(pubHeader)
	if err != nil {
		util.RespondWithError(c, http.StatusUnauthorized, "Invalid DID public key", gk_errors.ErrInvalidSignature)
		return
	}
	if !token.VerifySignature(body, publicKey, signature) {
		util.RespondWithError(c, http.StatusUnauthorized, "Invalid DID signature", gk_errors.ErrInvalidSignature)
		return
	}

	var req model.ExecRequest
	if err := json.Unmarshal(body, &req); err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", gk_errors.ErrInvalidRequest)
		return
	}
	if req.ActorDID == "" || !req.Action.Valid() {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid request data", gk_errors.ErrInvalidRequest)
		return
	}
	req.RequestID = util.GetRequestIDFromContext(c)

	outcome := ec.gatewayService.Process(c.Request.Context(), &req)

	switch {
	case std_errors.Is(outcome.Err, gk_errors.ErrTokenExpired),
		std_errors.Is(outcome.Err, gk_errors.ErrTokenInvalid):
		util.RespondWithError(c, http.StatusUnauthorized, "Authentication failed", outcome.Err)
	case std_errors.Is(outcome.Err, gk_errors.ErrScopeMismatch):
		util.RespondWithError(c, http.StatusForbidden, "Scope mismatch", outcome.Err)
	default:
		// Policy, threat, consensus, and sandbox denials are normal
		// outcomes: 200 with status=blocked.
		logger.Debug("Request processed",
			zap.String("requestID", req.RequestID),
			zap.String("status", outcome.Response.Status))
		c.JSON(http.StatusOK, outcome.Response)
	}
}
