package shell_test

import (
	"os/exec"
	"testing"

	"github.com/kyanite-sh/kyanite/internal/shell"
	"github.com/stretchr/testify/require"
)

func TestRunner(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}

	runner := shell.Runner{}

	t.Run("stdout", func(t *testing.T) {
		t.Parallel()
		ex, err := runner.Run(t.Context(), "echo hello")
		require.NoError(t, err)
		require.Equal(t, "hello\n", ex.Stdout)
		require.Empty(t, ex.Stderr)
		require.Zero(t, ex.ExitCode)
	})

	t.Run("stderr", func(t *testing.T) {
		t.Parallel()
		ex, err := runner.Run(t.Context(), "echo oops 1>&2")
		require.NoError(t, err)
		require.Empty(t, ex.Stdout)
		require.Equal(t, "oops\n", ex.Stderr)
		require.Zero(t, ex.ExitCode)
	})

	t.Run("non-zero exit is not an error", func(t *testing.T) {
		t.Parallel()
		ex, err := runner.Run(t.Context(), "echo partial; exit 3")
		require.NoError(t, err)
		require.Equal(t, "partial\n", ex.Stdout)
		require.Equal(t, 3, ex.ExitCode)
	})

	t.Run("launch failure", func(t *testing.T) {
		t.Parallel()
		broken := shell.Runner{Shell: "/does/not/exist"}
		ex, err := broken.Run(t.Context(), "echo hello")
		require.Error(t, err)
		require.Zero(t, ex)
	})
}
