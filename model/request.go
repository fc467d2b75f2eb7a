// model/request.go
package model

// Action is a privileged operation mediated by the gateway.
type Action string

const (
	ActionExecuteScript Action = "execute_script"
	ActionHTTPRequest   Action = "http_request"
	ActionDBQuery       Action = "db_query"
	ActionMintToken     Action = "mint_token"
	ActionWriteFile     Action = "write_file"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionExecuteScript, ActionHTTPRequest, ActionDBQuery, ActionMintToken, ActionWriteFile:
		return true
	}
	return false
}

// Risk is the declared or derived risk level of a request.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

// Valid reports whether r is one of the known risk levels.
func (r Risk) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskCritical:
		return true
	}
	return false
}

// ExecRequest is a request to perform a privileged action. It is immutable
// once received; the gateway assigns RequestID at entry.
type ExecRequest struct {
	RequestID   string                 `json:"request_id,omitempty"`
	ActorDID    string                 `json:"actor_did" binding:"required"`
	ActorRole   string                 `json:"actor_role,omitempty"`
	Action      Action                 `json:"action" binding:"required"`
	Risk        Risk                   `json:"risk"`
	Payload     map[string]interface{} `json:"payload" binding:"required"`
	ContextHash string                 `json:"context_hash" binding:"required"`
	TTLSeconds  int                    `json:"ttl_seconds"`
}

// Response statuses. A denial is a normal outcome, not a protocol error.
const (
	StatusOK      = "ok"
	StatusBlocked = "blocked"
)

// ExecResponse is the gateway's answer to an ExecRequest.
type ExecResponse struct {
	Status        string  `json:"status"`
	AttestationTx *string `json:"attestation_tx"`
	ResultPreview *string `json:"result_preview"`
	Reason        string  `json:"reason,omitempty"`
}
