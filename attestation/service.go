// attestation/service.go
package attestation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	gk_errors "github.com/kaizen-platform/gatekeeper/errors"
	logger "github.com/kaizen-platform/gatekeeper/logging"
	"github.com/kaizen-platform/gatekeeper/model"
)

// DefaultTimeout bounds a single ledger call.
const DefaultTimeout = 3 * time.Second

// previewMaxChars bounds the payload preview stored in blocked records.
const previewMaxChars = 500

// Service posts attestation records to the external ledger. Attestation is
// best-effort: a ledger failure degrades the response but never blocks the
// primary outcome. There is no retry queue; a failed attestation is lost.
type Service struct {
	ledgerURL string
	client    *http.Client
	timeout   time.Duration
}

func NewService(ledgerURL string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		ledgerURL: ledgerURL,
		client:    &http.Client{},
		timeout:   timeout,
	}
}

// Attest records a completed execution. Returns the ledger transaction hash
// and true on success, or ("", false) on any failure.
func (s *Service) Attest(ctx context.Context, payload, result map[string]interface{}) (string, bool) {
	digest, err := DigestPair(payload, result)
	if err != nil {
		logger.Error("Failed to digest attestation content", zap.Error(err))
		return "", false
	}
	payloadHash, err := Digest(payload)
	if err != nil {
		logger.Error("Failed to digest payload", zap.Error(err))
		return "", false
	}
	resultHash, err := Digest(result)
	if err != nil {
		logger.Error("Failed to digest result", zap.Error(err))
		return "", false
	}

	record := model.AttestationRecord{
		Digest:      digest,
		Type:        model.AttestationTypeExec,
		PayloadHash: payloadHash,
		ResultHash:  resultHash,
	}
	return s.post(ctx, record)
}

// AttestBlocked records a denied request so blocked attempts stay auditable.
func (s *Service) AttestBlocked(ctx context.Context, payload map[string]interface{}, reason string) (string, bool) {
	digest, err := Digest(payload)
	if err != nil {
		logger.Error("Failed to digest blocked payload", zap.Error(err))
		return "", false
	}

	preview := fmt.Sprintf("%v", payload)
	if len(preview) > previewMaxChars {
		preview = preview[:previewMaxChars]
	}

	record := model.AttestationRecord{
		Digest:         digest,
		Type:           model.AttestationTypeBlocked,
		Reason:         reason,
		PayloadPreview: preview,
	}
	return s.post(ctx, record)
}

// post submits a record to the ledger. Failures are logged and swallowed.
func (s *Service) post(ctx context.Context, record model.AttestationRecord) (string, bool) {
	body, err := json.Marshal(record)
	if err != nil {
		logger.Error("Failed to marshal attestation record", zap.Error(err))
		return "", false
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, s.ledgerURL+"/ledger/attest", bytes.NewReader(body))
	if err != nil {
		logger.Error("Failed to build ledger request", zap.Error(err))
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Warn("Ledger unreachable, continuing without attestation",
			zap.String("type", record.Type),
			zap.Error(fmt.Errorf("%w: %v", gk_errors.ErrAttestationUnavailable, err)))
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("Ledger rejected attestation",
			zap.String("type", record.Type),
			zap.Int("status", resp.StatusCode))
		return "", false
	}

	var receipt model.LedgerReceipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		logger.Warn("Failed to decode ledger receipt", zap.Error(err))
		return "", false
	}

	logger.Debug("Attestation anchored",
		zap.String("type", record.Type),
		zap.String("txHash", receipt.TxHash))
	return receipt.TxHash, true
}
