// token/signer.go
package token

import (
	"crypto/ed25519"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is the capability boundary for token signing. The gateway only ever
// holds a Signer, never raw key material, so the private key can live in a
// KMS or HSM behind an implementation of this interface.
type Signer interface {
	Method() jwt.SigningMethod
	SignKey() interface{}
	VerifyKey() interface{}
}

// HMACSigner signs with a shared symmetric secret (HS256). Development and
// test use only: a shared secret is a single point of compromise.
type HMACSigner struct {
	secret []byte
}

func NewHMACSigner(secret []byte) *HMACSigner {
	return &HMACSigner{secret: secret}
}

func (s *HMACSigner) Method() jwt.SigningMethod { return jwt.SigningMethodHS256 }
func (s *HMACSigner) SignKey() interface{}      { return s.secret }
func (s *HMACSigner) VerifyKey() interface{}    { return s.secret }

// Ed25519Signer signs with an asymmetric Ed25519 key pair. The private key
// never leaves the signer; verifiers only need the public half.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
}

func NewEd25519Signer(priv ed25519.PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{priv: priv}
}

// GenerateEd25519Signer creates a signer with a fresh key pair.
func GenerateEd25519Signer() (*Ed25519Signer, error) {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	return &Ed25519Signer{priv: priv}, nil
}

func (s *Ed25519Signer) Method() jwt.SigningMethod { return jwt.SigningMethodEdDSA }
func (s *Ed25519Signer) SignKey() interface{}      { return s.priv }
func (s *Ed25519Signer) VerifyKey() interface{}    { return s.priv.Public() }
