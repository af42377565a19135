package core

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"github.com/mark1russell7/ecosys/internal/types"
)

// ProcessRunner abstracts package-manager and shell invocations. Every call
// carries a timeout; on expiry the process is terminated and the result is a
// TimeoutError with the phase identified.
type ProcessRunner interface {
	// Install runs the package manager's install in cwd, optionally adding
	// packages (dev controls the dev-dependency flag).
	Install(ctx context.Context, cwd string, packages []string, dev bool) (types.ProcessResult, error)
	// Run runs a package script (e.g. "build") in cwd.
	Run(ctx context.Context, script, cwd string) (types.ProcessResult, error)
	// Exec runs an arbitrary shell command in cwd. Only for user-supplied
	// commands (scaffolding, remote creation); everything else uses explicit
	// argv methods.
	Exec(ctx context.Context, command, cwd string, timeout time.Duration) (types.ProcessResult, error)
}

// PnpmRunner implements ProcessRunner over the pnpm binary.
type PnpmRunner struct{}

// NewPnpmRunner creates a PnpmRunner.
func NewPnpmRunner() *PnpmRunner {
	return &PnpmRunner{}
}

// Install runs pnpm install (optionally pnpm add) with the install timeout.
func (p *PnpmRunner) Install(ctx context.Context, cwd string, packages []string, dev bool) (types.ProcessResult, error) {
	args := []string{"install"}
	if len(packages) > 0 {
		args = []string{"add"}
		if dev {
			args = append(args, "--save-dev")
		}
		args = append(args, packages...)
	}
	return runProcess(ctx, cwd, "install", InstallTimeout, "pnpm", args...)
}

// Run runs a pnpm script with the build timeout.
func (p *PnpmRunner) Run(ctx context.Context, script, cwd string) (types.ProcessResult, error) {
	return runProcess(ctx, cwd, "run "+script, BuildTimeout, "pnpm", "run", script)
}

// Exec runs a shell command string using the platform's native shell.
func (p *PnpmRunner) Exec(ctx context.Context, command, cwd string, timeout time.Duration) (types.ProcessResult, error) {
	if timeout <= 0 {
		timeout = BuildTimeout
	}
	if runtime.GOOS == "windows" {
		return runProcess(ctx, cwd, "exec", timeout, "cmd", "/c", command)
	}
	return runProcess(ctx, cwd, "exec", timeout, "sh", "-c", command)
}

// runProcess executes one external command with a deadline, capturing stdout
// and stderr separately so failures can surface the relevant stream.
func runProcess(ctx context.Context, cwd, phase string, timeout time.Duration, name string, args ...string) (types.ProcessResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = cwd

	var stdout, stderr capturedOutput
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := types.ProcessResult{
		Success:  err == nil,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if ctx.Err() == context.DeadlineExceeded {
		return result, &TimeoutError{Phase: phase, Limit: timeout.String()}
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		// Non-zero exit is reported through the success boolean, not raised.
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return result, err
}

// capturedOutput collects one process stream; each stream gets its own sink.
type capturedOutput struct {
	buf []byte
}

func (c *capturedOutput) Write(p []byte) (int, error) {
	c.buf = append(c.buf, p...)
	return len(p), nil
}

func (c *capturedOutput) String() string { return string(c.buf) }
