// Package chunk holds the unit of storage and retrieval: a bounded slice of an
// ingested document together with the name of the document it came from.
package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSize is the default chunk window in characters.
const DefaultSize = 300

// Chunk is an immutable text fragment with its source label.
type Chunk struct {
	text   string
	source string
}

// New validates and creates a Chunk. Blank text is rejected.
func New(text, source string) (Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return Chunk{}, fmt.Errorf("chunk text is blank")
	}
	return Chunk{text: text, source: source}, nil
}

// Text returns the raw chunk text.
func (c *Chunk) Text() string { return c.text }

// Source returns the originating document name.
func (c *Chunk) Source() string { return c.source }

// Split slices text into fixed windows of size characters (runes). The last window
// may be shorter. size <= 0 uses DefaultSize. Empty text yields no windows.
func Split(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultSize
	}

	out := make([]string, 0, utf8.RuneCountInString(text)/size+1)
	start, n := 0, 0
	for i := range text {
		if n == size {
			out = append(out, text[start:i])
			start, n = i, 0
		}
		n++
	}
	return append(out, text[start:])
}
