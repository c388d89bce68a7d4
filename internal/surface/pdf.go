package surface

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

const customFamily = "reportfont"

// ErrClosed is reported when a canvas is used after Finalize or Abandon.
var ErrClosed = errors.New("surface closed")

// Options configure every PDF canvas created by a factory.
type Options struct {
	PageSize    string // a3, a4, a5, letter, legal
	Orientation string // "P" or "L"
	FontFamily  string // core font name; ignored when FontFile is set
	FontFile    string // optional UTF-8 TrueType font
	FontSize    float64
	Title       string
	// CreationDate pins document metadata; zero uses a fixed epoch so reruns are reproducible.
	CreationDate time.Time
}

// PDFFactory creates fpdf-backed canvases.
type PDFFactory struct {
	opts Options
}

// NewPDFFactory returns a factory with defaults filled in.
func NewPDFFactory(opts Options) *PDFFactory {
	if opts.PageSize == "" {
		opts.PageSize = "a4"
	}
	if opts.Orientation == "" {
		opts.Orientation = "P"
	}
	if opts.FontFamily == "" {
		opts.FontFamily = "Helvetica"
	}
	if opts.FontSize <= 0 {
		opts.FontSize = 12
	}
	if opts.CreationDate.IsZero() {
		opts.CreationDate = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &PDFFactory{opts: opts}
}

// New implements Factory.
func (f *PDFFactory) New(path string, scratch ScratchFunc) (Canvas, error) {
	if path == "" {
		return nil, errors.New("canvas path is empty")
	}
	doc := fpdf.New(f.opts.Orientation, "mm", f.opts.PageSize, "")
	doc.SetCreationDate(f.opts.CreationDate)
	doc.SetModificationDate(f.opts.CreationDate)
	doc.SetCatalogSort(true)

	family, utf8 := f.opts.FontFamily, false
	if f.opts.FontFile != "" {
		if _, err := os.Stat(f.opts.FontFile); err != nil {
			return nil, fmt.Errorf("font file: %w", err)
		}
		doc.AddUTF8Font(customFamily, "", f.opts.FontFile)
		doc.AddUTF8Font(customFamily, "B", f.opts.FontFile)
		family, utf8 = customFamily, true
	}
	if f.opts.Title != "" {
		doc.SetTitle(f.opts.Title, true)
	}
	doc.SetFont(family, "", f.opts.FontSize)
	if doc.Err() {
		return nil, doc.Error()
	}

	return &PDF{
		doc:     doc,
		path:    path,
		scratch: scratch,
		family:  family,
		size:    f.opts.FontSize,
		utf8:    utf8,
	}, nil
}

// PDF is a Canvas that renders into an in-memory fpdf document until Finalize.
type PDF struct {
	mu      sync.Mutex
	doc     *fpdf.Fpdf
	path    string
	scratch ScratchFunc
	family  string
	size    float64
	utf8    bool
	closed  bool
	err     error
}

func (p *PDF) lineHeight(size float64) float64 { return size * 0.5 }

// ensurePage starts the first page lazily so an empty producer still yields one page on Finalize.
func (p *PDF) ensurePage() {
	if p.doc.PageCount() == 0 {
		p.doc.AddPage()
	}
}

func (p *PDF) usable() bool {
	if p.closed {
		return false
	}
	if p.err == nil && p.doc.Err() {
		p.err = p.doc.Error()
	}
	return p.err == nil
}

// encode maps text onto the core font code page; unrepresentable runes become '?'.
func (p *PDF) encode(s string) string {
	if p.utf8 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

// Heading implements Surface.
func (p *PDF) Heading(text string, level int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.usable() {
		return
	}
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}
	size := p.size * (1.8 - 0.2*float64(level))
	p.ensurePage()
	p.doc.SetFont(p.family, "B", size)
	p.doc.MultiCell(0, p.lineHeight(size)+1, p.encode(text), "", "L", false)
	p.doc.SetFont(p.family, "", p.size)
	p.doc.Ln(p.lineHeight(p.size) / 2)
}

// Paragraph implements Surface.
func (p *PDF) Paragraph(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.usable() {
		return
	}
	p.ensurePage()
	p.doc.MultiCell(0, p.lineHeight(p.size), p.encode(text), "", "J", false)
	p.doc.Ln(p.lineHeight(p.size) / 2)
}

// Text implements Surface.
func (p *PDF) Text(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.usable() {
		return
	}
	p.ensurePage()
	p.doc.MultiCell(0, p.lineHeight(p.size), p.encode(text), "", "L", false)
}

// Image implements Surface.
func (p *PDF) Image(path string, widthMM float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.usable() {
		return
	}
	if _, err := os.Stat(path); err != nil {
		p.err = fmt.Errorf("image %s: %w", path, err)
		return
	}
	p.ensurePage()
	left, _, right, _ := p.doc.GetMargins()
	pageW, _ := p.doc.GetPageSize()
	if maxW := pageW - left - right; widthMM <= 0 || widthMM > maxW {
		widthMM = maxW
	}
	p.doc.ImageOptions(path, left, -1, widthMM, 0, true, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	p.doc.Ln(p.lineHeight(p.size) / 2)
}

// NewPage implements Surface.
func (p *PDF) NewPage() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.usable() {
		return
	}
	p.doc.AddPage()
}

// PageCount implements Surface.
func (p *PDF) PageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.PageCount()
}

// Scratch implements Surface.
func (p *PDF) Scratch(pattern string) (string, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return "", ErrClosed
	}
	if p.scratch == nil {
		return "", errors.New("scratch files are not available on this surface")
	}
	return p.scratch(pattern)
}

// Err implements Surface.
func (p *PDF) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil && p.doc.Err() {
		p.err = p.doc.Error()
	}
	return p.err
}

// Finalize implements Canvas.
func (p *PDF) Finalize() (err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.closed = true
	if p.err != nil {
		return p.err
	}

	p.ensurePage()
	f, err := os.OpenFile(p.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(p.path)
		}
	}()
	if err = p.doc.Output(f); err != nil {
		return err
	}
	return f.Sync()
}

// Abandon implements Canvas.
func (p *PDF) Abandon() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}
