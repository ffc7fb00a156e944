// Package command runs external tools and captures their output.
package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Result is what one process invocation produced.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner abstracts process execution for testability.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner executes commands via os/exec.
type ExecRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		res.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		return res, err
	}
	return res, nil
}

// Func adapts a function to Runner.
type Func func(ctx context.Context, name string, args ...string) (Result, error)

func (f Func) Run(ctx context.Context, name string, args ...string) (Result, error) {
	return f(ctx, name, args...)
}
