package driven

import "context"

// Extractor converts an uploaded file into plain text for a new document.
type Extractor interface {
	// Extensions returns the lower-case file extensions handled (".md").
	Extensions() []string

	// Extract returns the document title and text found in data.
	// name is the original file name and is used for a fallback title.
	Extract(ctx context.Context, name string, data []byte) (*Extracted, error)
}

// Extracted is the result of converting a file.
type Extracted struct {
	// Title is taken from the file content or, failing that, its name.
	Title string

	// Text is the plain text with paragraphs separated by blank lines.
	Text string

	// Format names the detected format (markdown, html, ...).
	Format string
}
