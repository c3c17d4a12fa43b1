// Package shell is the external-process collaborator: tool availability
// checks run during Initializing, post-generation helper commands run
// during End, and executable-bit marking for the generated apply scripts.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/vmartowicz/vmz-generator-jhipster/pkg/lifecycle"
)

// Result captures one finished command.
type Result struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner invokes external commands by name with arguments. The lifecycle
// engine blocks while a command runs; there is no concurrent execution.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*Result, error)
}

// Check is one external tool availability check. Mandatory checks abort the
// run on failure (unless checks are skipped); advisory checks only warn.
type Check struct {
	// Tool is the executable name probed for.
	Tool string

	// Args are the probe arguments, typically a version subcommand.
	Args []string

	// Mandatory marks the check fatal on failure.
	Mandatory bool

	// Hint is appended to the failure message to point at installation
	// instructions.
	Hint string
}

// ExecRunner runs commands on the local host with captured output.
type ExecRunner struct {
	// Timeout bounds each command. Zero means no bound beyond ctx.
	Timeout time.Duration

	// Dir is the working directory commands run in. Empty means the
	// process working directory. The generated apply scripts reference
	// their manifests relative to the bundle root, so runners invoking
	// them must be anchored there.
	Dir string
}

// NewExecRunner creates a local command runner with a per-command timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run executes a command and captures its output. A non-zero exit is
// returned as an error alongside the populated result.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Command:  name,
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	// ProcessState is nil when the command never started (not found).
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err != nil {
		return result, fmt.Errorf("%s exited with code %d: %w", name, result.ExitCode, err)
	}
	return result, nil
}

// RunCheck probes one external tool and converts a failure into the
// check-failed error the runner knows how to treat as advisory or fatal.
func RunCheck(ctx context.Context, runner Runner, check Check) error {
	_, err := runner.Run(ctx, check.Tool, check.Args...)
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf("%s not found or not working", check.Tool)
	if check.Hint != "" {
		msg = fmt.Sprintf("%s: %s", msg, check.Hint)
	}
	cerr := lifecycle.NewCheckFailedError(msg, err)
	if check.Mandatory {
		cerr = cerr.AsMandatory()
	}
	return cerr
}

// MarkExecutable sets the executable bit on a generated script. The caller
// decides which platform's script set gets marked; this helper never widens
// the selection.
func MarkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat script %s: %w", path, err)
	}
	if err := os.Chmod(path, info.Mode()|0111); err != nil {
		return fmt.Errorf("failed to mark %s executable: %w", path, err)
	}
	return nil
}
