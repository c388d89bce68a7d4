// Package markdown renders Markdown onto a drawing surface by walking the
// Goldmark AST. Only block structure is kept; inline emphasis is flattened to text.
package markdown

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/reportbuilder/internal/surface"
)

// Options controls rendering.
type Options struct {
	// BaseDir resolves relative image destinations.
	BaseDir string
}

// ParseBody parses a Markdown body into a Goldmark AST.
func ParseBody(body []byte) gmast.Node {
	md := goldmark.New()
	return md.Parser().Parse(text.NewReader(body))
}

// Images returns the resolved destinations of every image in body, in document order.
func Images(body []byte, opts Options) []string {
	root := ParseBody(body)
	var out []string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if img, ok := n.(*gmast.Image); ok && entering {
			out = append(out, resolve(string(img.Destination), opts.BaseDir))
		}
		return gmast.WalkContinue, nil
	})
	return out
}

// Render draws body onto s. A thematic break starts a new page.
func Render(body []byte, s surface.Surface, opts Options) error {
	r := &renderer{src: body, s: s, opts: opts}
	r.blocks(ParseBody(body), "")
	return s.Err()
}

type renderer struct {
	src  []byte
	s    surface.Surface
	opts Options
}

func (r *renderer) blocks(parent gmast.Node, indent string) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *gmast.Heading:
			r.s.Heading(r.inline(node), node.Level)
		case *gmast.Paragraph, *gmast.TextBlock:
			r.paragraph(node, indent)
		case *gmast.List:
			r.list(node, indent)
		case *gmast.FencedCodeBlock, *gmast.CodeBlock:
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				r.s.Text(indent + "    " + strings.TrimRight(string(seg.Value(r.src)), "\r\n"))
			}
		case *gmast.ThematicBreak:
			r.s.NewPage()
		case *gmast.Blockquote:
			r.blocks(node, indent+"  ")
		case *gmast.HTMLBlock:
		default:
			r.blocks(node, indent)
		}
	}
}

// paragraph flushes text runs around images so images keep their position.
func (r *renderer) paragraph(n gmast.Node, indent string) {
	var b strings.Builder
	flush := func() {
		if t := strings.TrimSpace(b.String()); t != "" {
			r.s.Paragraph(indent + t)
		}
		b.Reset()
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if img, ok := c.(*gmast.Image); ok {
			flush()
			r.s.Image(resolve(string(img.Destination), r.opts.BaseDir), 0)
			continue
		}
		r.collect(c, &b)
	}
	flush()
}

func (r *renderer) list(l *gmast.List, indent string) {
	num := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "•"
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d.", num)
			num++
		}
		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			switch child := c.(type) {
			case *gmast.Paragraph, *gmast.TextBlock:
				t := r.inline(child)
				if first {
					t = marker + " " + t
					first = false
				}
				r.s.Text(indent + t)
			case *gmast.List:
				r.list(child, indent+"  ")
			default:
				r.blocks(c, indent+"  ")
			}
		}
	}
}

func (r *renderer) inline(n gmast.Node) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.collect(c, &b)
	}
	return strings.TrimSpace(b.String())
}

func (r *renderer) collect(n gmast.Node, b *strings.Builder) {
	switch t := n.(type) {
	case *gmast.Text:
		b.Write(t.Segment.Value(r.src))
		if t.HardLineBreak() {
			b.WriteByte('\n')
		} else if t.SoftLineBreak() {
			b.WriteByte(' ')
		}
	case *gmast.String:
		b.Write(t.Value)
	case *gmast.AutoLink:
		b.Write(t.Label(r.src))
	case *gmast.RawHTML:
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.collect(c, b)
		}
	}
}

func resolve(dest, base string) string {
	if dest == "" || filepath.IsAbs(dest) || base == "" {
		return dest
	}
	return filepath.Join(base, dest)
}
