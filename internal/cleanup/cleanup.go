// Package cleanup removes a run workspace on a best-effort basis. Failures are
// reported as warnings and never abort the remaining deletions.
package cleanup

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/logfields"
	"git.home.luguber.info/inful/reportbuilder/internal/observability"
	"git.home.luguber.info/inful/reportbuilder/internal/retry"
)

// RemoveFunc deletes a single path. Tests swap it to inject failures.
type RemoveFunc func(path string) error

// Cleaner removes tracked artifacts, any remaining entries, then the root directory.
type Cleaner struct {
	policy    retry.Policy
	remove    RemoveFunc
	removeAll RemoveFunc
}

// New returns a Cleaner using policy for per-path retries.
func New(policy retry.Policy) *Cleaner {
	return &Cleaner{policy: policy, remove: os.Remove, removeAll: os.RemoveAll}
}

// WithRemover overrides the single-path and recursive deletion functions.
func (c *Cleaner) WithRemover(remove, removeAll RemoveFunc) *Cleaner {
	if remove != nil {
		c.remove = remove
	}
	if removeAll != nil {
		c.removeAll = removeAll
	}
	return c
}

// Run deletes every tracked path, then whatever else is left in root, then root itself.
// A missing path is a no-op. Returned warnings are already logged.
func (c *Cleaner) Run(ctx context.Context, root string, tracked []string) []*ferrors.ClassifiedError {
	if root == "" {
		return nil
	}
	ctx = observability.WithStage(ctx, "cleanup")

	var warnings []*ferrors.ClassifiedError
	attempt := func(path string, fn RemoveFunc) {
		attempts, err := c.policy.Do(ctx, func() error {
			if err := fn(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			return nil
		}, nil)
		if err == nil {
			return
		}
		w := ferrors.CleanupWarning("failed to remove workspace entry").
			WithCause(err).
			WithContext("path", path).
			WithContext("attempts", attempts).
			Build()
		observability.WarnContext(ctx, "Cleanup could not remove path",
			logfields.Path(path), logfields.Attempt(attempts), logfields.Error(err))
		warnings = append(warnings, w)
	}

	for _, p := range tracked {
		attempt(p, c.remove)
	}

	entries, err := os.ReadDir(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return warnings
	case err != nil:
		warnings = append(warnings, ferrors.CleanupWarning("failed to list workspace").
			WithCause(err).WithContext("path", root).Build())
		observability.WarnContext(ctx, "Cleanup could not list workspace", logfields.Path(root), logfields.Error(err))
	default:
		for _, e := range entries {
			attempt(filepath.Join(root, e.Name()), c.removeAll)
		}
	}

	attempt(root, c.remove)

	if ctx.Err() != nil {
		w := ferrors.CleanupWarning("cleanup interrupted by cancellation").
			WithCause(ctx.Err()).
			WithContext("path", root).
			Build()
		observability.WarnContext(ctx, "Cleanup ran after cancellation", logfields.Path(root), logfields.Count(len(warnings)))
		warnings = append(warnings, w)
	}

	if len(warnings) == 0 {
		observability.DebugContext(ctx, "Workspace removed", logfields.Path(root))
	}
	return warnings
}
