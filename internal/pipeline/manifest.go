package pipeline

import "fmt"

// Manifest is the ordered list of persisted pages for one run.
type Manifest struct {
	pages []Page
}

// Append adds p, which must be persisted and carry the next sequence number.
func (m *Manifest) Append(p Page) error {
	if p.State != PagePersisted {
		return fmt.Errorf("page %d is %s, not persisted", p.Seq, p.State)
	}
	if want := len(m.pages) + 1; p.Seq != want {
		return fmt.Errorf("page sequence %d out of order, expected %d", p.Seq, want)
	}
	m.pages = append(m.pages, p)
	return nil
}

// Len returns the number of pages.
func (m *Manifest) Len() int { return len(m.pages) }

// Paths returns artifact paths in sequence order.
func (m *Manifest) Paths() []string {
	out := make([]string, len(m.pages))
	for i, p := range m.pages {
		out[i] = p.Path
	}
	return out
}

// Pages returns a copy of the manifest entries.
func (m *Manifest) Pages() []Page {
	return append([]Page(nil), m.pages...)
}

// PageTotal sums the document pages across all entries.
func (m *Manifest) PageTotal() int {
	n := 0
	for _, p := range m.pages {
		n += p.Pages
	}
	return n
}
