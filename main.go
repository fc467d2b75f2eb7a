package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kaizen-platform/gatekeeper/attestation"
	"github.com/kaizen-platform/gatekeeper/audit"
	"github.com/kaizen-platform/gatekeeper/config"
	"github.com/kaizen-platform/gatekeeper/consensus"
	"github.com/kaizen-platform/gatekeeper/controller"
	"github.com/kaizen-platform/gatekeeper/db"
	"github.com/kaizen-platform/gatekeeper/gateway"
	logger "github.com/kaizen-platform/gatekeeper/logging"
	"github.com/kaizen-platform/gatekeeper/model"
	"github.com/kaizen-platform/gatekeeper/policy"
	"github.com/kaizen-platform/gatekeeper/router"
	"github.com/kaizen-platform/gatekeeper/sandbox"
	"github.com/kaizen-platform/gatekeeper/token"
	"github.com/kaizen-platform/gatekeeper/util"
)

func main() {
	// Initialize configuration
	if err := config.InitConfig(); err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}

	// Initialize logger
	logger.InitLogger()
	defer logger.Sync()

	// Initialize Redis
	if err := db.InitRedis(); err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer db.CloseRedis()

	// Initialize EventBus
	eventBus := util.NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eventBus.Start(ctx)

	// Initialize the decision trail
	auditRepository, err := audit.NewElasticsearchRepository(config.GetString("audit.elasticsearchURL"))
	if err != nil {
		logger.Fatal("Failed to initialize audit repository", zap.Error(err))
	}
	auditService := audit.NewService(auditRepository)
	subscribeAudit(eventBus, auditService)

	// Initialize the token signer. The private key stays inside the signer;
	// the gateway only holds the capability interface.
	signer, err := buildSigner()
	if err != nil {
		logger.Fatal("Failed to initialize token signer", zap.Error(err))
	}
	tokenService := token.NewService(signer,
		config.GetString("token.issuer"),
		config.GetString("token.audience"))

	// Initialize the policy engine (static tables, loaded once)
	policyEngine := buildPolicyEngine()

	// Initialize the consensus broker
	evaluators := buildEvaluators(config.GetStringSlice("consensus.evaluators"))
	broker := consensus.NewBroker(evaluators,
		consensus.WithTimeout(config.GetDuration("consensus.timeout")),
		consensus.WithThresholds(
			config.GetFloat64("consensus.minAgreement"),
			config.GetFloat64("consensus.maxStdDev")))

	// Initialize the sandbox executor
	executor := sandbox.NewExecutor(sandbox.Limits{
		CPUSeconds:     config.GetInt("sandbox.cpuSeconds"),
		MemoryKB:       config.GetInt("sandbox.memoryKB"),
		OutputMaxBytes: config.GetInt("sandbox.outputMaxBytes"),
	})

	// Initialize the attestation service
	attestor := attestation.NewService(
		config.GetString("ledger.url"),
		config.GetDuration("ledger.timeout"))

	// Initialize the gateway service and controller
	gatewayService := gateway.NewService(policyEngine, tokenService, broker, executor, attestor, eventBus)
	execController := controller.NewExecController(gatewayService)

	// Set up the router
	engine := router.SetupRouter(
		execController,
		config.GetInt("ratelimit.requests"),
		config.GetDuration("ratelimit.duration"))

	// Set up the server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.GetString("server.port")),
		Handler: engine,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", config.GetString("server.port")))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

// buildSigner picks the token signer. With token.hmacSecret set, the HS256
// development signer is used; otherwise a fresh Ed25519 key pair is
// generated at startup.
func buildSigner() (token.Signer, error) {
	if secret := config.GetString("token.hmacSecret"); secret != "" {
		logger.Warn("Using shared-secret HMAC signer; intended for development only")
		return token.NewHMACSigner([]byte(secret)), nil
	}
	return token.GenerateEd25519Signer()
}

// buildPolicyEngine loads the role matrix. A `policy.roles` map in the
// config overrides the built-in tables; the engine is read-only afterwards.
func buildPolicyEngine() *policy.Engine {
	roles := config.GetStringMapStringSlice("policy.roles")
	if len(roles) == 0 {
		return policy.NewEngine()
	}

	matrix := make(map[string][]model.Action, len(roles))
	for role, actions := range roles {
		for _, a := range actions {
			action := model.Action(a)
			if !action.Valid() {
				logger.Warn("Ignoring unknown action in policy config",
					zap.String("role", role), zap.String("action", a))
				continue
			}
			matrix[role] = append(matrix[role], action)
		}
	}
	return policy.NewEngineWithMatrix(matrix)
}

// buildEvaluators names each configured evaluator endpoint.
func buildEvaluators(urls []string) []consensus.Evaluator {
	evaluators := make([]consensus.Evaluator, len(urls))
	for i, url := range urls {
		evaluators[i] = consensus.Evaluator{
			Name:   fmt.Sprintf("sentinel_%d", i),
			URL:    url,
			Weight: 1,
		}
	}
	return evaluators
}

// subscribeAudit writes terminal gateway decisions to the local trail.
func subscribeAudit(eventBus *util.EventBus, auditService audit.Service) {
	handler := func(ctx context.Context, event util.Event) error {
		decision, ok := event.Payload.(gateway.DecisionEvent)
		if !ok {
			return fmt.Errorf("invalid event payload type: %T", event.Payload)
		}
		return auditService.LogDecision(ctx, audit.DecisionRecord{
			Timestamp:     time.Now().UTC(),
			RequestID:     decision.RequestID,
			ActorDID:      decision.ActorDID,
			Action:        decision.Action,
			Risk:          decision.Risk,
			Stage:         decision.Stage,
			Outcome:       decision.Outcome,
			Reason:        decision.Reason,
			AttestationTx: decision.AttestationTx,
		})
	}
	eventBus.Subscribe(util.EventRequestExecuted, handler)
	eventBus.Subscribe(util.EventRequestBlocked, handler)
}
