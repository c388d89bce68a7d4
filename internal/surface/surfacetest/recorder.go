// Package surfacetest provides an in-memory surface for exercising producers
// and the pipeline without rendering PDFs.
package surfacetest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/reportbuilder/internal/surface"
)

// Recorder captures drawing calls as "op:arg" strings.
type Recorder struct {
	mu        sync.Mutex
	Ops       []string
	pages     int
	path      string
	scratch   surface.ScratchFunc
	err       error
	finalErr  error
	Finalized bool
	Abandoned bool
}

// New returns a standalone recorder whose scratch files land in dir.
func New(dir string) *Recorder {
	n := 0
	return &Recorder{scratch: func(pattern string) (string, error) {
		n++
		return filepath.Join(dir, fmt.Sprintf("scratch_%d_%s", n, strings.ReplaceAll(pattern, "*", "x"))), nil
	}}
}

func (r *Recorder) record(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Finalized || r.Abandoned {
		return
	}
	if r.pages == 0 {
		r.pages = 1
	}
	r.Ops = append(r.Ops, op)
}

func (r *Recorder) Heading(text string, level int) { r.record(fmt.Sprintf("h%d:%s", level, text)) }
func (r *Recorder) Paragraph(text string)          { r.record("p:" + text) }
func (r *Recorder) Text(text string)               { r.record("t:" + text) }

func (r *Recorder) Image(path string, widthMM float64) {
	if _, err := os.Stat(path); err != nil {
		r.Fail(err)
		return
	}
	r.record("img:" + filepath.Base(path))
}

func (r *Recorder) NewPage() {
	r.mu.Lock()
	r.pages++
	r.mu.Unlock()
	r.record("newpage")
}

func (r *Recorder) PageCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pages
}

func (r *Recorder) Scratch(pattern string) (string, error) {
	if r.scratch == nil {
		return "", errors.New("no scratch")
	}
	return r.scratch(pattern)
}

func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Fail makes the surface report err, as a rendering failure would.
func (r *Recorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

// Finalize writes the recorded operations to the bound path, one per line.
func (r *Recorder) Finalize() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Finalized || r.Abandoned {
		return surface.ErrClosed
	}
	r.Finalized = true
	if r.err != nil {
		return r.err
	}
	if r.finalErr != nil {
		return r.finalErr
	}
	if r.path == "" {
		return nil
	}
	return os.WriteFile(r.path, []byte(strings.Join(r.Ops, "\n")), 0o600)
}

func (r *Recorder) Abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Abandoned = true
}

// Snapshot returns a copy of the recorded operations.
func (r *Recorder) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Ops...)
}

// Factory hands out recorders and remembers them in creation order.
type Factory struct {
	mu        sync.Mutex
	Canvases  []*Recorder
	FailNew   error
	FailFinal map[string]error // Finalize failures keyed by artifact base name
}

// New implements surface.Factory.
func (f *Factory) New(path string, scratch surface.ScratchFunc) (surface.Canvas, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailNew != nil {
		return nil, f.FailNew
	}
	r := &Recorder{path: path, scratch: scratch}
	if err, ok := f.FailFinal[filepath.Base(path)]; ok {
		r.finalErr = err
	}
	f.Canvases = append(f.Canvases, r)
	return r, nil
}
