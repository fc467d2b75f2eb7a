// model/consensus.go
package model

// Vote is one evaluator's approval score for a decision case. An evaluator
// that errored or timed out still carries a vote of 0.0; it is never
// dropped from the aggregate.
type Vote struct {
	Evaluator string  `json:"evaluator"`
	URL       string  `json:"url"`
	Approval  float64 `json:"approval"`
	Reason    string  `json:"reason"`
}

// ConsensusResult is the aggregate verdict over all votes in a round.
// Derived, never persisted.
type ConsensusResult struct {
	Mean           float64 `json:"mean"`
	StdDev         float64 `json:"stddev"` // population standard deviation
	AgreementRatio float64 `json:"agreement_ratio"`
	Votes          []Vote  `json:"votes"`
	OK             bool    `json:"ok"`
}
