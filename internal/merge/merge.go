// Package merge concatenates page artifacts into the final PDF document.
package merge

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/logfields"
	"git.home.luguber.info/inful/reportbuilder/internal/observability"
)

var configDirOnce sync.Once

// newConf returns a fresh pdfcpu configuration without touching the user's config dir.
func newConf() *model.Configuration {
	configDirOnce.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PDF merges artifacts into a fixed destination path. The destination is only
// replaced once the whole document has been written and verified.
type PDF struct {
	dest string
}

// NewPDF returns a merger writing to dest.
func NewPDF(dest string) *PDF {
	return &PDF{dest: dest}
}

// Dest returns the destination path.
func (m *PDF) Dest() string { return m.dest }

// Merge concatenates paths in the given order and returns the destination path.
func (m *PDF) Merge(ctx context.Context, paths []string) (string, error) {
	if len(paths) == 0 {
		return "", ferrors.MergeError("no page artifacts to merge").WithContext("output", m.dest).Build()
	}

	files := make([]*os.File, 0, len(paths))
	defer func() {
		for _, f := range files {
			_ = f.Close()
		}
	}()

	total := 0
	for i, p := range paths {
		if err := ctx.Err(); err != nil {
			return "", ferrors.MergeError("merge canceled").WithCause(err).Build()
		}
		f, err := os.Open(p)
		if err != nil {
			return "", artifactError("page artifact unreadable", err, p, i)
		}
		files = append(files, f)
		if err := api.Validate(f, newConf()); err != nil {
			return "", artifactError("page artifact is not a valid PDF", err, p, i)
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", artifactError("page artifact unreadable", err, p, i)
		}
		n, err := api.PageCount(f, newConf())
		if err != nil {
			return "", artifactError("page artifact has no readable page tree", err, p, i)
		}
		total += n
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return "", artifactError("page artifact unreadable", err, p, i)
		}
	}

	dir := filepath.Dir(m.dest)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", ferrors.MergeError("failed to create output directory").
			WithCause(err).WithContext("path", dir).Build()
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(m.dest)+".*.tmp")
	if err != nil {
		return "", ferrors.MergeError("failed to create temporary output").
			WithCause(err).WithContext("path", dir).Build()
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err := concat(files, tmp); err != nil {
		return "", ferrors.MergeError("failed to concatenate page artifacts").
			WithCause(err).WithContext("output", m.dest).WithContext("count", len(paths)).Build()
	}
	if err := tmp.Chmod(0o644); err != nil {
		return "", ferrors.MergeError("failed to set output permissions").WithCause(err).Build()
	}
	if err := tmp.Sync(); err != nil {
		return "", ferrors.MergeError("failed to flush output").WithCause(err).Build()
	}
	if err := tmp.Close(); err != nil {
		return "", ferrors.MergeError("failed to close output").WithCause(err).Build()
	}

	got, err := api.PageCountFile(tmpPath)
	if err != nil {
		return "", ferrors.MergeError("merged document is unreadable").WithCause(err).Build()
	}
	if got != total {
		return "", ferrors.MergeError("merged page count mismatch").
			WithContext("expected", total).WithContext("actual", got).Build()
	}

	if err := ctx.Err(); err != nil {
		return "", ferrors.MergeError("merge canceled").WithCause(err).Build()
	}
	if err := os.Rename(tmpPath, m.dest); err != nil {
		return "", ferrors.MergeError("failed to replace output document").
			WithCause(err).WithContext("output", m.dest).Build()
	}
	committed = true

	observability.DebugContext(ctx, "Merged page artifacts",
		logfields.Output(m.dest), logfields.Count(len(paths)), logfields.Pages(total))
	return m.dest, nil
}

func concat(files []*os.File, w io.Writer) error {
	if len(files) == 1 {
		_, err := io.Copy(w, files[0])
		return err
	}
	rs := make([]io.ReadSeeker, len(files))
	for i, f := range files {
		rs[i] = f
	}
	return api.MergeRaw(rs, w, false, newConf())
}

func artifactError(msg string, cause error, path string, index int) error {
	return ferrors.MergeError(msg).
		WithCause(fmt.Errorf("%s: %w", filepath.Base(path), cause)).
		WithContext("path", path).
		WithContext("index", index).
		Build()
}
