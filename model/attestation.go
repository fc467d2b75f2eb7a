// model/attestation.go
package model

// Attestation record types posted to the ledger.
const (
	AttestationTypeExec    = "gatekeeper.exec"
	AttestationTypeBlocked = "gatekeeper.blocked"
)

// AttestationRecord is the content-addressed record anchored to the external
// ledger. Digest is a pure function of the record's content: identical
// content hashes identically regardless of field construction order.
type AttestationRecord struct {
	Digest         string `json:"digest"`
	Type           string `json:"type"`
	PayloadHash    string `json:"payload_hash,omitempty"`
	ResultHash     string `json:"result_hash,omitempty"`
	Reason         string `json:"reason,omitempty"`
	PayloadPreview string `json:"payload_preview,omitempty"`
}

// LedgerReceipt is the ledger's acknowledgement of an attestation.
type LedgerReceipt struct {
	TxHash string `json:"tx_hash"`
}
