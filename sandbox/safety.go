// sandbox/safety.go

// Package sandbox executes approved script payloads in a resource-limited
// subprocess. This is process-level isolation: CPU time, address space,
// wall clock, and output size are bounded, but it is not a kernel or
// hypervisor jail.
package sandbox

import (
	"fmt"
	"strings"
)

// dangerousPatterns reject a script outright before any process is spawned.
var dangerousPatterns = []string{
	"rm -rf",
	"dd if=",
	"mkfs",
	"fdisk",
	"shutdown",
	"reboot",
	"curl",
	"wget",
	"nc ",
	"netcat",
	"python -c",
	"perl -e",
	"eval",
	"exec(",
}

// maxRedirections bounds the number of redirections or pipes in a script.
const maxRedirections = 10

// ValidateScriptSafety performs static analysis on a script before
// execution. A denylist match or structural violation rejects the script
// with no process spawned.
func ValidateScriptSafety(script string) (bool, string) {
	scriptLower := strings.ToLower(script)

	for _, pattern := range dangerousPatterns {
		if strings.Contains(scriptLower, pattern) {
			return false, fmt.Sprintf("dangerous pattern detected: %s", pattern)
		}
	}

	if strings.Count(script, ">") > maxRedirections || strings.Count(script, "|") > maxRedirections {
		return false, "too many redirections or pipes"
	}

	return true, "script appears safe"
}
