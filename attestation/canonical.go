// attestation/canonical.go

// Package attestation canonicalizes request/result pairs, computes content
// digests, and anchors them to an external ledger, best-effort.
package attestation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Canonicalize returns the RFC 8785 canonical JSON form of v. Identical
// content always yields identical bytes regardless of construction order.
func Canonicalize(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal for canonicalization: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize: %w", err)
	}
	return canonical, nil
}

// Digest returns the hex SHA-256 of the canonical form of v.
func Digest(v interface{}) (string, error) {
	canonical, err := Canonicalize(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// DigestPair hashes payload and result together, in that order, so the
// digest binds the request to its outcome.
func DigestPair(payload, result interface{}) (string, error) {
	payloadBytes, err := Canonicalize(payload)
	if err != nil {
		return "", err
	}
	resultBytes, err := Canonicalize(result)
	if err != nil {
		return "", err
	}
	hasher := sha256.New()
	hasher.Write(payloadBytes)
	hasher.Write(resultBytes)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
