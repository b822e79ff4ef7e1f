// Package chunker splits document text into bounded passages on paragraph
// boundaries.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 900

const paragraphSeparator = "\n\n"

var paragraphBreak = regexp.MustCompile(`\n{2,}`)

// Processor splits text into passages of at most chunkSize characters.
// Sizes are counted in runes.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ChunkSize returns the configured maximum chunk size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Split breaks text into ordered, non-empty chunks.
//
// Paragraphs (separated by blank lines) are packed greedily while the
// joined chunk fits. A paragraph longer than the limit is cut into
// fixed-width pieces. Blank input yields no chunks.
func (p *Processor) Split(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = strings.TrimSpace(normalized)
	if normalized == "" {
		return nil
	}

	var chunks []string
	current := ""

	for _, raw := range paragraphBreak.Split(normalized, -1) {
		paragraph := strings.TrimSpace(raw)
		if paragraph == "" {
			continue
		}

		candidate := paragraph
		if current != "" {
			candidate = current + paragraphSeparator + paragraph
		}
		if utf8.RuneCountInString(candidate) <= p.chunkSize {
			current = candidate
			continue
		}

		if current != "" {
			chunks = append(chunks, current)
			current = ""
		}

		if utf8.RuneCountInString(paragraph) <= p.chunkSize {
			current = paragraph
			continue
		}

		chunks = append(chunks, p.hardSplit(paragraph)...)
	}

	if current != "" {
		chunks = append(chunks, current)
	}

	return chunks
}

// hardSplit cuts s into chunkSize-rune pieces, trimming each and dropping
// pieces that trim to nothing.
func (p *Processor) hardSplit(s string) []string {
	runes := []rune(s)
	pieces := make([]string, 0, len(runes)/p.chunkSize+1)
	for start := 0; start < len(runes); start += p.chunkSize {
		end := start + p.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			pieces = append(pieces, piece)
		}
	}
	return pieces
}
