//go:build property
// +build property

// attestation/canonical_prop_test.go
package attestation_test

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/kaizen-platform/gatekeeper/attestation"
)

// TestCanonicalizeIdempotence verifies canonical output re-canonicalizes to
// itself and that construction order never changes the digest.
func TestCanonicalizeIdempotence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Canonical form is a fixed point", prop.ForAll(
		func(keys []string, values []string) bool {
			obj := make(map[string]interface{})
			for i := 0; i < len(keys) && i < len(values); i++ {
				if keys[i] != "" {
					obj[keys[i]] = values[i]
				}
			}

			canonical, err := attestation.Canonicalize(obj)
			if err != nil {
				return false
			}

			var decoded map[string]interface{}
			if err := json.Unmarshal(canonical, &decoded); err != nil {
				return false
			}
			again, err := attestation.Canonicalize(decoded)
			if err != nil {
				return false
			}
			return string(canonical) == string(again)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.Property("Digest ignores insertion order", prop.ForAll(
		func(keys []string, values []string) bool {
			forward := make(map[string]interface{})
			for i := 0; i < len(keys) && i < len(values); i++ {
				if keys[i] != "" {
					forward[keys[i]] = values[i]
				}
			}
			reverse := make(map[string]interface{})
			for i := len(keys) - 1; i >= 0; i-- {
				if i < len(values) && keys[i] != "" {
					reverse[keys[i]] = values[i]
				}
			}

			d1, err1 := attestation.Digest(forward)
			d2, err2 := attestation.Digest(reverse)
			if err1 != nil || err2 != nil {
				return err1 != nil && err2 != nil
			}
			return d1 == d2
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}
