//go:build property
// +build property

// consensus/aggregate_prop_test.go
package consensus_test

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/kaizen-platform/gatekeeper/consensus"
	"github.com/kaizen-platform/gatekeeper/model"
)

func genApprovals() gopter.Gen {
	return gen.SliceOfN(10, gen.Float64Range(0, 1)).SuchThat(func(v []float64) bool {
		return len(v) >= 1
	})
}

// TestAggregateVerdictFormula checks the verdict against an independent
// recomputation of mean, population standard deviation, and agreement ratio
// for random vote vectors.
func TestAggregateVerdictFormula(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	const (
		minAgree  = 0.90
		maxStdDev = 0.15
	)

	properties.Property("Verdict matches recomputed statistics", prop.ForAll(
		func(approvals []float64, size int) bool {
			n := 1 + size%10
			if n > len(approvals) {
				n = len(approvals)
			}
			votes := make([]model.Vote, n)
			for i := 0; i < n; i++ {
				votes[i] = model.Vote{Evaluator: "sentinel", Approval: approvals[i]}
			}

			result := consensus.Aggregate(votes, minAgree, maxStdDev)

			var sum float64
			agree := 0
			for _, v := range votes {
				sum += v.Approval
				if v.Approval >= minAgree {
					agree++
				}
			}
			mean := sum / float64(n)
			var variance float64
			for _, v := range votes {
				d := v.Approval - mean
				variance += d * d
			}
			stddev := math.Sqrt(variance / float64(n))
			ratio := float64(agree) / float64(n)

			if math.Abs(result.Mean-mean) > 1e-12 {
				return false
			}
			if math.Abs(result.StdDev-stddev) > 1e-12 {
				return false
			}
			if math.Abs(result.AgreementRatio-ratio) > 1e-12 {
				return false
			}

			expected := ratio >= 0.5 && stddev <= maxStdDev && mean >= minAgree
			return result.OK == expected
		},
		genApprovals(),
		gen.IntRange(0, 100),
	))

	properties.Property("Verdict is order independent", prop.ForAll(
		func(approvals []float64) bool {
			votes := make([]model.Vote, len(approvals))
			reversed := make([]model.Vote, len(approvals))
			for i, a := range approvals {
				votes[i] = model.Vote{Approval: a}
				reversed[len(approvals)-1-i] = model.Vote{Approval: a}
			}

			r1 := consensus.Aggregate(votes, minAgree, maxStdDev)
			r2 := consensus.Aggregate(reversed, minAgree, maxStdDev)

			return r1.OK == r2.OK &&
				math.Abs(r1.Mean-r2.Mean) < 1e-12 &&
				math.Abs(r1.StdDev-r2.StdDev) < 1e-12
		},
		genApprovals(),
	))

	properties.Property("A zero vote never raises the mean", prop.ForAll(
		func(approvals []float64) bool {
			votes := make([]model.Vote, len(approvals))
			for i, a := range approvals {
				votes[i] = model.Vote{Approval: a}
			}
			base := consensus.Aggregate(votes, minAgree, maxStdDev)
			withZero := consensus.Aggregate(append(votes, model.Vote{Approval: 0}), minAgree, maxStdDev)
			return withZero.Mean <= base.Mean+1e-12
		},
		genApprovals(),
	))

	properties.TestingRun(t)
}
