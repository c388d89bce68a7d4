package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reportbuilder/internal/config"
	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/history"
	"git.home.luguber.info/inful/reportbuilder/internal/metrics"
)

const testConfig = `
output:
  path: out/report.pdf
workspace:
  base_dir: tmp
page:
  title: Test report
sections:
  - name: title
    kind: text
    title: Computer Graphics
    paragraphs: ["Curves and surfaces."]
  - name: notes
    kind: markdown
    file: notes.md
  - name: samples
    kind: chart
    labels: [a, b, c]
    values: [1, 4, 2]
`

func loadConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# Notes\n\nOne.\n\n---\n\nTwo.\n"), 0o600))
	path := filepath.Join(dir, "reportbuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	return cfg
}

type outcomeRecorder struct {
	metrics.NoopRecorder
	outcomes []string
	pages    int
}

func (r *outcomeRecorder) IncRunOutcome(o string) { r.outcomes = append(r.outcomes, o) }
func (r *outcomeRecorder) AddPages(n int)         { r.pages += n }

func workspaceEntries(t *testing.T, cfg *config.Config) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(cfg.ResolvePath("tmp"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func TestDefaultService_RunEndToEnd(t *testing.T) {
	cfg := loadConfig(t, testConfig)
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	rec := &outcomeRecorder{}

	svc := NewService().WithHistory(store).WithRecorder(rec)
	res, err := svc.Run(context.Background(), Request{Config: cfg, Trigger: "cli"})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.True(t, res.Merged)
	assert.Equal(t, cfg.ResolvePath("out/report.pdf"), res.OutputPath)
	require.Len(t, res.Manifest, 3)
	assert.Equal(t, "notes", res.Manifest[1].Producer)
	assert.Equal(t, 2, res.Manifest[1].Pages, "thematic break starts a second page")
	assert.Equal(t, 4, res.Pages)

	n, err := api.PageCountFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Empty(t, workspaceEntries(t, cfg))

	assert.Equal(t, []string{"success"}, rec.outcomes)
	assert.Equal(t, 4, rec.pages)

	runs, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].ID)
	assert.Equal(t, []string{"title", "notes", "samples"}, runs[0].Producers)
}

func TestDefaultService_FailureLeavesNoDocument(t *testing.T) {
	cfg := loadConfig(t, testConfig)
	require.NoError(t, os.WriteFile(cfg.ResolvePath("notes.md"), []byte("![gone](missing.png)\n"), 0o600))
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	res, err := NewService().WithHistory(store).Run(context.Background(), Request{Config: cfg})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryProducer))
	assert.Equal(t, StatusFailed, res.Status)
	assert.False(t, res.Merged)

	_, statErr := os.Stat(cfg.ResolvePath("out/report.pdf"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, workspaceEntries(t, cfg))

	runs, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "failed", runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

func TestDefaultService_OutputOverride(t *testing.T) {
	cfg := loadConfig(t, testConfig)
	out := filepath.Join(t.TempDir(), "custom.pdf")
	zero := time.Duration(0)

	res, err := NewService().Run(context.Background(), Request{Config: cfg, OutputPath: out, ProducerTimeout: &zero})
	require.NoError(t, err)
	assert.Equal(t, out, res.OutputPath)
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestDefaultService_InvalidSection(t *testing.T) {
	cfg := loadConfig(t, testConfig)
	cfg.Sections = append(cfg.Sections, config.Section{Name: "eq", Kind: "latex"})

	res, err := NewService().Run(context.Background(), Request{Config: cfg})
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	assert.Equal(t, StatusFailed, res.Status)
	assert.Empty(t, workspaceEntries(t, cfg), "no workspace is created for an invalid config")
}

func TestDefaultService_NoSections(t *testing.T) {
	cfg := loadConfig(t, "output:\n  path: out/report.pdf\nworkspace:\n  base_dir: tmp\n")

	res, err := NewService().Run(context.Background(), Request{Config: cfg})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)
	assert.False(t, res.Merged)
	_, statErr := os.Stat(cfg.ResolvePath("out/report.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDefaultService_NilConfig(t *testing.T) {
	res, err := NewService().Run(context.Background(), Request{})
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Equal(t, StatusFailed, res.Status)
}

func TestDefaultService_Canceled(t *testing.T) {
	cfg := loadConfig(t, testConfig)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewService().Run(ctx, Request{Config: cfg})
	require.Error(t, err)
	assert.Equal(t, StatusCanceled, res.Status)
	assert.Empty(t, workspaceEntries(t, cfg))
}

func TestStatusIsSuccess(t *testing.T) {
	assert.True(t, StatusSuccess.IsSuccess())
	assert.True(t, StatusWarning.IsSuccess())
	assert.False(t, StatusFailed.IsSuccess())
	assert.False(t, StatusCanceled.IsSuccess())
}
