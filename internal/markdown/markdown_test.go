package markdown

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/reportbuilder/internal/surface/surfacetest"
)

func TestRender_BlockStructure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hull.png"), []byte("png"), 0o600))

	body := []byte(`# Bezier curves

Control points *define* the
convex hull.

- first
- second

1. one
2. two

![hull](hull.png)

---

## Next page

` + "```\nB(t) = (1-t)^2 P0\n```\n")

	rec := surfacetest.New(dir)
	require.NoError(t, Render(body, rec, Options{BaseDir: dir}))

	want := []string{
		"h1:Bezier curves",
		"p:Control points define the convex hull.",
		"t:• first",
		"t:• second",
		"t:1. one",
		"t:2. two",
		"img:hull.png",
		"newpage",
		"h2:Next page",
		"t:    B(t) = (1-t)^2 P0",
	}
	if diff := cmp.Diff(want, rec.Snapshot()); diff != "" {
		t.Fatalf("rendered ops mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 2, rec.PageCount())
}

func TestRender_MissingImageFails(t *testing.T) {
	rec := surfacetest.New(t.TempDir())
	err := Render([]byte("![x](nope.png)\n"), rec, Options{BaseDir: t.TempDir()})
	require.Error(t, err)
}

func TestRender_NestedList(t *testing.T) {
	rec := surfacetest.New(t.TempDir())
	require.NoError(t, Render([]byte("- outer\n  - inner\n"), rec, Options{}))
	if diff := cmp.Diff([]string{"t:• outer", "t:  • inner"}, rec.Snapshot()); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestImages(t *testing.T) {
	got := Images([]byte("![a](a.png) text ![b](/abs/b.jpg)"), Options{BaseDir: "/base"})
	if diff := cmp.Diff([]string{filepath.Join("/base", "a.png"), "/abs/b.jpg"}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
