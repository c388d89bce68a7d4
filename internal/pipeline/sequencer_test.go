package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/reportbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/reportbuilder/internal/producer"
	"git.home.luguber.info/inful/reportbuilder/internal/surface"
	"git.home.luguber.info/inful/reportbuilder/internal/surface/surfacetest"
	"git.home.luguber.info/inful/reportbuilder/internal/workspace"
)

func newWorkspace(t *testing.T) *workspace.Manager {
	t.Helper()
	ws := workspace.NewManager(t.TempDir())
	require.NoError(t, ws.Ensure())
	t.Cleanup(func() { ws.Teardown(context.Background()) })
	return ws
}

func TestSequencer_NextPersistsBeforeReturning(t *testing.T) {
	ws := newWorkspace(t)
	seq := NewSequencer(ws, surface.NewPDFFactory(surface.Options{}), 0, nil)

	page, err := seq.Next(context.Background(), producer.NewFunc("a", func(_ context.Context, s surface.Surface) error {
		s.Heading("A", 1)
		s.NewPage()
		s.Text("more")
		return nil
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, page.Seq)
	assert.Equal(t, PagePersisted, page.State)
	assert.Equal(t, 2, page.Pages)
	info, err := os.Stat(page.Path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSequencer_ScratchIsUniquePerInvocation(t *testing.T) {
	ws := newWorkspace(t)
	seq := NewSequencer(ws, &surfacetest.Factory{}, 0, nil)

	var got []string
	p := producer.NewFunc("plot", func(_ context.Context, s surface.Surface) error {
		path, err := s.Scratch("plot-*.png")
		got = append(got, path)
		return err
	})
	_, err := seq.Next(context.Background(), p)
	require.NoError(t, err)
	_, err = seq.Next(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.NotEqual(t, got[0], got[1])
	assert.Equal(t, ws.Root(), filepath.Dir(got[0]))
}

func TestSequencer_RefusesAfterFailure(t *testing.T) {
	ws := newWorkspace(t)
	seq := NewSequencer(ws, &surfacetest.Factory{}, 0, nil)

	_, err := seq.Next(context.Background(), producer.NewFunc("bad", func(context.Context, surface.Surface) error {
		return errors.New("nope")
	}))
	require.Error(t, err)

	_, err = seq.Next(context.Background(), producer.NewFunc("ok", func(context.Context, surface.Surface) error { return nil }))
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryInternal))
	assert.Zero(t, seq.Manifest().Len())
}

func TestSequencer_FactoryFailureIsPageSaveError(t *testing.T) {
	ws := newWorkspace(t)
	seq := NewSequencer(ws, &surfacetest.Factory{FailNew: errors.New("no fonts")}, 0, nil)

	_, err := seq.Next(context.Background(), producer.NewFunc("a", func(context.Context, surface.Surface) error { return nil }))
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryPageSave))
}

func TestSequencer_RequiresWorkspace(t *testing.T) {
	ws := workspace.NewManager(t.TempDir())
	seq := NewSequencer(ws, &surfacetest.Factory{}, 0, nil)

	_, err := seq.Next(context.Background(), producer.NewFunc("a", func(context.Context, surface.Surface) error { return nil }))
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryWorkspace))
}

func TestManifest_Append(t *testing.T) {
	var m Manifest
	require.NoError(t, m.Append(Page{Seq: 1, Path: "a", State: PagePersisted, Pages: 2}))
	assert.Error(t, m.Append(Page{Seq: 3, Path: "c", State: PagePersisted}), "gap")
	assert.Error(t, m.Append(Page{Seq: 2, Path: "b", State: PageDrawing}), "not persisted")
	require.NoError(t, m.Append(Page{Seq: 2, Path: "b", State: PagePersisted, Pages: 1}))

	assert.Equal(t, []string{"a", "b"}, m.Paths())
	assert.Equal(t, 3, m.PageTotal())
	assert.Equal(t, "persisted", PagePersisted.String())
}
