package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/reportbuilder/internal/cleanup"
	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/logfields"
	"git.home.luguber.info/inful/reportbuilder/internal/observability"
	"git.home.luguber.info/inful/reportbuilder/internal/retry"
)

const (
	dirPrefix   = "reportbuilder-"
	pagePattern = "page_%06d.pdf"
)

// Manager handles the lifecycle of a single run's workspace directory.
type Manager struct {
	mu sync.Mutex

	baseDir string
	root    string
	fixed   bool
	ensured bool

	tracked []string
	seen    map[string]struct{}
	cleaner *cleanup.Cleaner
}

// NewManager creates a manager that allocates a unique directory under baseDir.
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, cleaner: cleanup.New(retry.DefaultPolicy())}
}

// NewFixedManager creates a manager bound to dir. The directory is still removed on Teardown.
func NewFixedManager(dir string) *Manager {
	return &Manager{root: dir, fixed: true, cleaner: cleanup.New(retry.DefaultPolicy())}
}

// WithCleaner replaces the teardown strategy.
func (m *Manager) WithCleaner(c *cleanup.Cleaner) *Manager {
	if c != nil {
		m.cleaner = c
	}
	return m
}

// Ensure creates the workspace directory. Repeated calls return nil.
func (m *Manager) Ensure() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ensured {
		return nil
	}

	if m.fixed {
		if err := os.MkdirAll(m.root, 0o750); err != nil {
			return ferrors.WorkspaceError("failed to create workspace directory").
				WithCause(err).WithContext("path", m.root).Build()
		}
		entries, err := os.ReadDir(m.root)
		if err != nil {
			return ferrors.WorkspaceError("failed to read workspace directory").
				WithCause(err).WithContext("path", m.root).Build()
		}
		if len(entries) > 0 {
			return ferrors.WorkspaceError("workspace directory is not empty").
				WithContext("path", m.root).WithContext("entries", len(entries)).Build()
		}
		slog.Info("Using fixed workspace", logfields.Path(m.root))
	} else {
		if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
			return ferrors.WorkspaceError("failed to create workspace base directory").
				WithCause(err).WithContext("path", m.baseDir).Build()
		}
		name := fmt.Sprintf("%s%s-%s", dirPrefix, time.Now().Format("20060102-150405"), uuid.NewString()[:8])
		root := filepath.Join(m.baseDir, name)
		if err := os.Mkdir(root, 0o750); err != nil && !errors.Is(err, fs.ErrExist) {
			return ferrors.WorkspaceError("failed to create workspace directory").
				WithCause(err).WithContext("path", root).Build()
		}
		m.root = root
		slog.Info("Created workspace", logfields.Path(root))
	}

	m.ensured = true
	m.seen = make(map[string]struct{})
	return nil
}

// Root returns the workspace directory, or "" before Ensure for ephemeral managers.
func (m *Manager) Root() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.root
}

// AllocatePath returns the artifact path for sequence number seq.
func (m *Manager) AllocatePath(seq int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ensured {
		return "", ferrors.WorkspaceError("workspace not created").WithContext("page_seq", seq).Build()
	}
	if seq < 1 {
		return "", ferrors.WorkspaceError("page sequence numbers start at 1").WithContext("page_seq", seq).Build()
	}
	p := filepath.Join(m.root, fmt.Sprintf(pagePattern, seq))
	if _, dup := m.seen[p]; dup {
		return "", ferrors.WorkspaceError("page path already allocated").
			WithContext("page_seq", seq).WithContext("path", p).Build()
	}
	m.track(p)
	return p, nil
}

// AuxPath returns a unique scratch path for page seq. pattern may contain one "*"
// which is replaced by a random token, as in os.CreateTemp.
func (m *Manager) AuxPath(seq int, pattern string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ensured {
		return "", ferrors.WorkspaceError("workspace not created").WithContext("page_seq", seq).Build()
	}
	if strings.ContainsRune(pattern, filepath.Separator) {
		return "", ferrors.WorkspaceError("scratch pattern must be a file name").WithContext("pattern", pattern).Build()
	}
	if pattern == "" {
		pattern = "*"
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	var name string
	if strings.Contains(pattern, "*") {
		name = strings.Replace(pattern, "*", token, 1)
	} else {
		name = pattern + "-" + token
	}
	p := filepath.Join(m.root, fmt.Sprintf("aux_%06d_%s", seq, name))
	m.track(p)
	return p, nil
}

// Artifacts returns every path handed out so far, in allocation order.
func (m *Manager) Artifacts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.tracked))
	copy(out, m.tracked)
	return out
}

// Teardown removes the workspace. It is safe to call repeatedly and never fails;
// problems are returned as cleanup warnings.
func (m *Manager) Teardown(ctx context.Context) []*ferrors.ClassifiedError {
	m.mu.Lock()
	root, tracked, ensured := m.root, m.tracked, m.ensured
	m.tracked, m.seen, m.ensured = nil, nil, false
	if !m.fixed {
		m.root = ""
	}
	m.mu.Unlock()

	if !ensured {
		return nil
	}
	warnings := m.cleaner.Run(ctx, root, tracked)
	if len(warnings) == 0 {
		observability.InfoContext(ctx, "Cleaned up workspace", logfields.Path(root))
	}
	return warnings
}

func (m *Manager) track(p string) {
	m.tracked = append(m.tracked, p)
	m.seen[p] = struct{}{}
}
