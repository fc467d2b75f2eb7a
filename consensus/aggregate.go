// consensus/aggregate.go
package consensus

import (
	"math"

	"github.com/kaizen-platform/gatekeeper/model"
)

// Aggregate computes the verdict over a vote list. The verdict requires all
// three conditions: agreement ratio of at least half, population standard
// deviation within maxStdDev, and mean of at least minAgree. A high mean
// with high disagreement between evaluators is not sufficient; the spread
// check stops one very confident evaluator from pushing a risky action past
// several uncertain ones.
func Aggregate(votes []model.Vote, minAgree, maxStdDev float64) model.ConsensusResult {
	result := model.ConsensusResult{Votes: votes}
	if len(votes) == 0 {
		return result
	}

	var sum float64
	agreeCount := 0
	for _, v := range votes {
		sum += v.Approval
		if v.Approval >= minAgree {
			agreeCount++
		}
	}
	n := float64(len(votes))
	result.Mean = sum / n
	result.AgreementRatio = float64(agreeCount) / n

	var variance float64
	for _, v := range votes {
		d := v.Approval - result.Mean
		variance += d * d
	}
	variance /= n
	result.StdDev = math.Sqrt(variance)

	result.OK = result.AgreementRatio >= 0.5 &&
		result.StdDev <= maxStdDev &&
		result.Mean >= minAgree
	return result
}

// AggregateWeighted computes the weighted-mean verdict. Weights are
// normalized to sum to one; zero or negative total weight falls back to
// equal weights. This mode has no spread check and is less strict than
// Aggregate; callers choose which verdict to use.
func AggregateWeighted(votes []model.Vote, weights []float64, minAgree float64) model.ConsensusResult {
	result := model.ConsensusResult{Votes: votes}
	if len(votes) == 0 || len(weights) != len(votes) {
		return result
	}

	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}

	var weightedMean float64
	if total <= 0 {
		for _, v := range votes {
			weightedMean += v.Approval
		}
		weightedMean /= float64(len(votes))
	} else {
		for i, v := range votes {
			w := weights[i]
			if w < 0 {
				w = 0
			}
			weightedMean += v.Approval * (w / total)
		}
	}

	agreeCount := 0
	for _, v := range votes {
		if v.Approval >= minAgree {
			agreeCount++
		}
	}

	result.Mean = weightedMean
	result.AgreementRatio = float64(agreeCount) / float64(len(votes))
	result.OK = weightedMean >= minAgree
	return result
}
