package cleanup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reportbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 1)
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestRun_RemovesTrackedUntrackedAndRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "nested"), 0o750))
	tracked := filepath.Join(root, "page_000001.pdf")
	writeFile(t, tracked)
	writeFile(t, filepath.Join(root, "stray.png"))
	writeFile(t, filepath.Join(root, "nested", "deep.tmp"))

	warnings := New(fastPolicy()).Run(context.Background(), root, []string{tracked})

	assert.Empty(t, warnings)
	_, err := os.Stat(root)
	assert.True(t, os.IsNotExist(err), "workspace should be gone")
}

func TestRun_IdempotentOnMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "never-created")
	c := New(fastPolicy())

	assert.Empty(t, c.Run(context.Background(), root, []string{filepath.Join(root, "page_000001.pdf")}))
	assert.Empty(t, c.Run(context.Background(), root, nil))
	assert.Empty(t, c.Run(context.Background(), "", nil))
}

func TestRun_ExternallyDeletedArtifacts(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "page_000001.pdf")
	b := filepath.Join(root, "page_000002.pdf")
	writeFile(t, a)
	writeFile(t, b)
	require.NoError(t, os.Remove(a))

	warnings := New(fastPolicy()).Run(context.Background(), root, []string{a, b})

	assert.Empty(t, warnings)
	_, err := os.Stat(root)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_FailureIsWarningAndOthersContinue(t *testing.T) {
	root := t.TempDir()
	stuck := filepath.Join(root, "page_000001.pdf")
	other := filepath.Join(root, "page_000002.pdf")
	writeFile(t, stuck)
	writeFile(t, other)

	locked := errors.New("file locked")
	calls := map[string]int{}
	remove := func(p string) error {
		calls[p]++
		if p == stuck {
			return locked
		}
		return os.Remove(p)
	}
	removeAll := func(p string) error {
		if p == stuck {
			return locked
		}
		return os.RemoveAll(p)
	}

	warnings := New(fastPolicy()).WithRemover(remove, removeAll).Run(context.Background(), root, []string{stuck, other})

	require.NotEmpty(t, warnings)
	for _, w := range warnings {
		assert.Equal(t, ferrors.CategoryCleanup, w.Category())
		assert.Equal(t, ferrors.SeverityWarning, w.Severity())
	}
	assert.Equal(t, 2, calls[stuck], "one initial attempt plus one retry")
	_, err := os.Stat(other)
	assert.True(t, os.IsNotExist(err), "deletion continues past a failing entry")
	path, _ := warnings[0].Context().GetString("path")
	assert.Equal(t, stuck, path)
}

func TestRun_CanceledContextStillDeletesAndReports(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "page_000001.pdf")
	writeFile(t, a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	warnings := New(retry.NewPolicy(config.RetryBackoffFixed, time.Hour, time.Hour, 3)).Run(ctx, root, []string{a})

	_, err := os.Stat(root)
	assert.True(t, os.IsNotExist(err), "best-effort deletion continues after cancellation")
	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0], context.Canceled)
}
