package command

import (
	"context"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	requireShell(t)

	res, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo out; echo err 1>&2")
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Zero(t, res.ExitCode)
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	requireShell(t)

	res, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo broken 1>&2; exit 3")
	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "broken\n", res.Stderr)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	res, err := ExecRunner{}.Run(context.Background(), "definitely-not-a-real-binary-xyz")
	require.Error(t, err)
	assert.Equal(t, -1, res.ExitCode)
}
