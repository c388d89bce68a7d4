// Package surface defines the drawing surface handed to content producers and
// its PDF implementation.
package surface

// Surface is the capability a producer draws on. Calls after an error are
// ignored; the first error is reported by Err.
type Surface interface {
	// Heading draws a section heading; level 1 is the largest.
	Heading(text string, level int)
	// Paragraph draws a wrapped block of text followed by spacing.
	Paragraph(text string)
	// Text draws a single wrapped line with no trailing spacing.
	Text(text string)
	// Image places a raster file at the cursor. widthMM <= 0 uses the printable width.
	Image(path string, widthMM float64)
	// NewPage starts a new logical page.
	NewPage()
	// PageCount returns the pages drawn so far.
	PageCount() int
	// Scratch returns a unique path for an auxiliary file owned by this page.
	Scratch(pattern string) (string, error)
	Err() error
}

// Canvas is a Surface bound to an artifact path. The owner either finalizes it,
// which durably writes the artifact, or abandons it.
type Canvas interface {
	Surface
	// Finalize writes and closes the artifact. It returns only after the file is synced.
	Finalize() error
	// Abandon discards the canvas without writing. Later calls become no-ops.
	Abandon()
}

// ScratchFunc allocates auxiliary file paths for one page.
type ScratchFunc func(pattern string) (string, error)

// Factory creates canvases bound to artifact paths.
type Factory interface {
	New(path string, scratch ScratchFunc) (Canvas, error)
}
