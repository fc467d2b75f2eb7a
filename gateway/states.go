// gateway/states.go
package gateway

// State is a stage in the request lifecycle. Stages are strictly ordered:
// authentication completes before screening, screening before consensus,
// consensus before execution.
type State string

const (
	StateReceived          State = "RECEIVED"
	StateAuthenticated     State = "AUTHENTICATED"
	StateScreened          State = "SCREENED"
	StateConsensusPending  State = "CONSENSUS_PENDING"
	StateConsensusApproved State = "CONSENSUS_APPROVED"
	StateConsensusRejected State = "CONSENSUS_REJECTED"
	StateExecuted          State = "EXECUTED"
	StateAttested          State = "ATTESTED"
	StateComplete          State = "COMPLETE"
	StateBlocked           State = "BLOCKED"
)
