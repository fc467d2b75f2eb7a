// sandbox/executor.go
package sandbox

import (
	"bytes"
	"context"
	std_errors "errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	gk_errors "github.com/kaizen-platform/gatekeeper/errors"
	logger "github.com/kaizen-platform/gatekeeper/logging"
	"github.com/kaizen-platform/gatekeeper/model"
)

// Default resource limits.
const (
	DefaultCPUSeconds     = 2
	DefaultMemoryKB       = 262144 // 256 MB
	DefaultOutputMaxBytes = 2048
)

// Runner spawns the sandboxed process for a validated script.
type Runner interface {
	Run(ctx context.Context, script string) (model.SandboxResult, error)
}

// Limits are the resource bounds applied to a sandboxed process.
type Limits struct {
	CPUSeconds     int
	MemoryKB       int
	OutputMaxBytes int
}

func DefaultLimits() Limits {
	return Limits{
		CPUSeconds:     DefaultCPUSeconds,
		MemoryKB:       DefaultMemoryKB,
		OutputMaxBytes: DefaultOutputMaxBytes,
	}
}

// Executor validates scripts and delegates approved ones to its runner.
type Executor struct {
	runner Runner
}

func NewExecutor(limits Limits) *Executor {
	return &Executor{runner: &bashRunner{limits: limits}}
}

// NewExecutorWithRunner injects a custom runner; used by tests to assert
// that rejected scripts never reach process spawn.
func NewExecutorWithRunner(runner Runner) *Executor {
	return &Executor{runner: runner}
}

// Execute runs script under the sandbox after the static safety check.
// A denylisted script returns ErrSandboxRejected with no process spawned;
// a script that exceeds its limits returns ErrSandboxTimeout.
func (e *Executor) Execute(ctx context.Context, script string) (model.SandboxResult, error) {
	if ok, reason := ValidateScriptSafety(script); !ok {
		logger.Warn("Script rejected by static safety check", zap.String("reason", reason))
		return model.SandboxResult{}, fmt.Errorf("%w: %s", gk_errors.ErrSandboxRejected, reason)
	}
	return e.runner.Run(ctx, script)
}

// bashRunner executes scripts via bash in an ephemeral working directory.
type bashRunner struct {
	limits Limits
}

func (r *bashRunner) Run(ctx context.Context, script string) (model.SandboxResult, error) {
	tmpdir, err := os.MkdirTemp("", "gatekeeper-sandbox-")
	if err != nil {
		return model.SandboxResult{}, fmt.Errorf("failed to create sandbox directory: %w", err)
	}
	// The working directory is single-use; tear it down on every exit path.
	defer os.RemoveAll(tmpdir)

	scriptPath := filepath.Join(tmpdir, "task.sh")
	if err := os.WriteFile(scriptPath, []byte("#!/bin/bash\n"+script), 0o755); err != nil {
		return model.SandboxResult{}, fmt.Errorf("failed to write sandbox script: %w", err)
	}

	// Wall-clock timeout independent of the CPU rlimit.
	wallClock := time.Duration(r.limits.CPUSeconds+1) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, wallClock)
	defer cancel()

	cmdline := fmt.Sprintf("ulimit -t %d -v %d; exec %s", r.limits.CPUSeconds, r.limits.MemoryKB, scriptPath)
	cmd := exec.CommandContext(runCtx, "bash", "-c", cmdline)
	cmd.Dir = tmpdir
	cmd.Env = []string{
		"PATH=/usr/bin:/bin", // minimal PATH
		"HOME=" + tmpdir,
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Run the script in its own process group and kill the whole group on
	// cancellation, so nothing the script forked outlives the request.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = time.Second

	runErr := cmd.Run()

	if runCtx.Err() == context.DeadlineExceeded {
		logger.Warn("Sandbox execution timed out", zap.Duration("wallClock", wallClock))
		return model.SandboxResult{
			RC:        -1,
			Stderr:    "execution timeout",
			Sandboxed: true,
		}, gk_errors.ErrSandboxTimeout
	}

	result := model.SandboxResult{
		RC:        0,
		Stdout:    truncateTail(stdout.Bytes(), r.limits.OutputMaxBytes),
		Stderr:    truncateTail(stderr.Bytes(), r.limits.OutputMaxBytes),
		Sandboxed: true,
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if std_errors.As(runErr, &exitErr) {
			result.RC = exitErr.ExitCode()
			return result, nil
		}
		return model.SandboxResult{
			RC:        -1,
			Stderr:    fmt.Sprintf("sandbox error: %v", runErr),
			Sandboxed: true,
		}, fmt.Errorf("sandbox execution failed: %w", runErr)
	}

	return result, nil
}

// truncateTail keeps the last max bytes of b to bound output channels.
func truncateTail(b []byte, max int) string {
	if len(b) > max {
		b = b[len(b)-max:]
	}
	return string(b)
}
