// consensus/broker.go

// Package consensus implements the quorum-approval protocol: a decision
// case is fanned out to independent evaluator services concurrently and
// their approval scores are aggregated into a verdict.
package consensus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	logger "github.com/kaizen-platform/gatekeeper/logging"
	"github.com/kaizen-platform/gatekeeper/model"
)

// Default verdict thresholds.
const (
	DefaultMinAgreement = 0.90
	DefaultMaxStdDev    = 0.15
	DefaultTimeout      = 4 * time.Second
)

// Evaluator is one independent evaluator service.
type Evaluator struct {
	Name   string
	URL    string
	Weight float64
}

// evalRequest is the wire format sent to an evaluator.
type evalRequest struct {
	Intent  string      `json:"intent"`
	Payload interface{} `json:"payload"`
}

// evalResponse is the wire format returned by an evaluator.
type evalResponse struct {
	Approval   float64 `json:"approval"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Broker dispatches decision cases to a fixed set of evaluators.
type Broker struct {
	evaluators []Evaluator
	client     *http.Client
	timeout    time.Duration
	minAgree   float64
	maxStdDev  float64
}

// Option configures a Broker.
type Option func(*Broker)

func WithTimeout(d time.Duration) Option {
	return func(b *Broker) { b.timeout = d }
}

func WithThresholds(minAgree, maxStdDev float64) Option {
	return func(b *Broker) {
		b.minAgree = minAgree
		b.maxStdDev = maxStdDev
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(b *Broker) { b.client = c }
}

func NewBroker(evaluators []Evaluator, opts ...Option) *Broker {
	b := &Broker{
		evaluators: evaluators,
		client:     &http.Client{},
		timeout:    DefaultTimeout,
		minAgree:   DefaultMinAgreement,
		maxStdDev:  DefaultMaxStdDev,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Evaluate dispatches payload to every evaluator concurrently, each under
// its own timeout, and aggregates the votes into a verdict. An evaluator
// that errors or times out votes exactly 0.0 and stays in the denominator;
// an unresponsive evaluator is a vote against, never an abstention. No
// retries are attempted within a round.
func (b *Broker) Evaluate(ctx context.Context, payload map[string]interface{}) (model.ConsensusResult, error) {
	if len(b.evaluators) == 0 {
		return model.ConsensusResult{OK: false}, fmt.Errorf("no evaluators configured")
	}

	votes := make([]model.Vote, len(b.evaluators))
	g, ctx := errgroup.WithContext(ctx)

	for i, ev := range b.evaluators {
		i, ev := i, ev
		g.Go(func() error {
			approval, reason, err := b.ask(ctx, ev, payload)
			if err != nil {
				// Fail closed: the evaluator votes against.
				logger.Warn("Evaluator call failed",
					zap.String("evaluator", ev.Name),
					zap.String("url", ev.URL),
					zap.Error(err))
				votes[i] = model.Vote{
					Evaluator: ev.Name,
					URL:       ev.URL,
					Approval:  0.0,
					Reason:    fmt.Sprintf("error: %v", err),
				}
				return nil
			}
			votes[i] = model.Vote{
				Evaluator: ev.Name,
				URL:       ev.URL,
				Approval:  clamp01(approval),
				Reason:    reason,
			}
			return nil
		})
	}

	// Workers never return errors; the join only waits for all votes to
	// settle (success, error, or timeout).
	_ = g.Wait()

	result := Aggregate(votes, b.minAgree, b.maxStdDev)
	logger.Info("Consensus round complete",
		zap.Float64("mean", result.Mean),
		zap.Float64("stddev", result.StdDev),
		zap.Float64("agreementRatio", result.AgreementRatio),
		zap.Bool("ok", result.OK))
	return result, nil
}

// ask performs a single evaluator call bounded by the broker timeout.
func (b *Broker) ask(ctx context.Context, ev Evaluator, payload map[string]interface{}) (float64, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	body, err := json.Marshal(evalRequest{Intent: "risk_eval", Payload: payload})
	if err != nil {
		return 0, "", fmt.Errorf("failed to marshal evaluator request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, ev.URL, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("failed to build evaluator request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, "", fmt.Errorf("evaluator returned status %d", resp.StatusCode)
	}

	var er evalResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return 0, "", fmt.Errorf("failed to decode evaluator response: %w", err)
	}
	return er.Approval, er.Reason, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
