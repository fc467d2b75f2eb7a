// audit/model.go
package audit

import (
	"time"
)

// DecisionRecord is one gateway decision in the local trail. The trail is
// independent of the best-effort ledger anchor: it captures every outcome,
// including ones the ledger never saw.
type DecisionRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id"`
	ActorDID      string    `json:"actor_did"`
	Action        string    `json:"action"`
	Risk          string    `json:"risk"`
	Stage         string    `json:"stage"`
	Outcome       string    `json:"outcome"`
	Reason        string    `json:"reason,omitempty"`
	AttestationTx string    `json:"attestation_tx,omitempty"`
}
