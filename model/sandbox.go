// model/sandbox.go
package model

// SandboxResult is the outcome of a sandboxed script execution. Stdout and
// Stderr are truncated to the configured byte limit before they get here.
type SandboxResult struct {
	RC        int    `json:"rc"`
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	Sandboxed bool   `json:"sandboxed"`
}
