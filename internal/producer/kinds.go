package producer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/reportbuilder/internal/config"
	"git.home.luguber.info/inful/reportbuilder/internal/markdown"
	"git.home.luguber.info/inful/reportbuilder/internal/surface"
)

// Built-in section kinds.
const (
	KindText     = "text"
	KindMarkdown = "markdown"
	KindImage    = "image"
	KindChart    = "chart"
)

type textProducer struct {
	name       string
	title      string
	paragraphs []string
}

func buildText(sec config.Section, _ Env) (Producer, error) {
	return &textProducer{name: sec.Name, title: sec.Title, paragraphs: sec.Paragraphs}, nil
}

func (p *textProducer) Name() string { return p.name }

func (p *textProducer) Produce(ctx context.Context, s surface.Surface) error {
	if p.title != "" {
		s.Heading(p.title, 1)
	}
	for _, para := range p.paragraphs {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Paragraph(para)
	}
	return s.Err()
}

type markdownProducer struct {
	name  string
	title string
	file  string
	body  string
	base  string
}

func buildMarkdown(sec config.Section, env Env) (Producer, error) {
	switch {
	case sec.File == "" && sec.Body == "":
		return nil, invalid(KindMarkdown, "markdown section needs file or body")
	case sec.File != "" && sec.Body != "":
		return nil, invalid(KindMarkdown, "markdown section takes file or body, not both")
	}
	p := &markdownProducer{name: sec.Name, title: sec.Title, body: sec.Body, base: env.resolve(".")}
	if sec.File != "" {
		p.file = env.resolve(sec.File)
		if _, err := os.Stat(p.file); err != nil {
			return nil, fmt.Errorf("markdown file: %w", err)
		}
		p.base = filepath.Dir(p.file)
	}
	return p, nil
}

func (p *markdownProducer) Name() string { return p.name }

func (p *markdownProducer) Produce(ctx context.Context, s surface.Surface) error {
	body := []byte(p.body)
	if p.file != "" {
		data, err := os.ReadFile(p.file)
		if err != nil {
			return err
		}
		body = data
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.title != "" {
		s.Heading(p.title, 1)
	}
	return markdown.Render(body, s, markdown.Options{BaseDir: p.base})
}

type imageProducer struct {
	name    string
	title   string
	file    string
	caption string
	width   float64
}

func buildImage(sec config.Section, env Env) (Producer, error) {
	if sec.File == "" {
		return nil, invalid(KindImage, "image section needs file")
	}
	switch strings.ToLower(filepath.Ext(sec.File)) {
	case ".png", ".jpg", ".jpeg", ".gif":
	default:
		return nil, invalid(KindImage, "image file must be png, jpeg or gif")
	}
	p := &imageProducer{name: sec.Name, title: sec.Title, file: env.resolve(sec.File), caption: sec.Caption, width: sec.Width}
	if _, err := os.Stat(p.file); err != nil {
		return nil, fmt.Errorf("image file: %w", err)
	}
	return p, nil
}

func (p *imageProducer) Name() string { return p.name }

func (p *imageProducer) Produce(_ context.Context, s surface.Surface) error {
	if p.title != "" {
		s.Heading(p.title, 1)
	}
	s.Image(p.file, p.width)
	if p.caption != "" {
		s.Text(p.caption)
	}
	return s.Err()
}
