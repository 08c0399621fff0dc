// Package chunker splits document text into overlapping segments for
// semantic indexing.
package chunker

import "strings"

const (
	// DefaultChunkSize is the target chunk size in runes.
	DefaultChunkSize = 500
	// DefaultOverlap is the number of runes shared between adjacent chunks.
	DefaultOverlap = 50
)

// separators in preference order: paragraph, line, sentence, word.
// A hard character cut is the fallback when none occurs in the window.
var separators = []string{"\n\n", "\n", ". ", " "}

// Splitter produces deterministic, overlapping chunks of text. Splitting
// is greedy: each chunk takes as much text as fits in the size target and
// breaks at the latest preferred boundary inside the window.
type Splitter struct {
	chunkSize int
	overlap   int
	seps      [][]rune
}

// NewSplitter creates a splitter with the given chunk size and overlap,
// both counted in runes. Non-positive or inconsistent values fall back to
// the defaults.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 10
		}
	}
	seps := make([][]rune, len(separators))
	for i, s := range separators {
		seps[i] = []rune(s)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap, seps: seps}
}

// Split divides content into ordered chunk texts. Identical input always
// yields identical chunk boundaries. Empty or whitespace-only content
// yields no chunks.
func (s *Splitter) Split(content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	runes := []rune(content)
	n := len(runes)
	var chunks []string

	start := 0
	for start < n {
		end := start + s.chunkSize
		if end >= n {
			appendChunk(&chunks, runes[start:n])
			break
		}

		cut := s.findCut(runes, start, end)
		appendChunk(&chunks, runes[start:cut])

		next := cut - s.overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

// findCut returns the exclusive end of the chunk starting at start, given
// the window limit end. It prefers the latest occurrence of the highest
// priority separator; a separator is only accepted if it leaves the chunk
// longer than the overlap, so the splitter always makes forward progress.
func (s *Splitter) findCut(runes []rune, start, end int) int {
	window := runes[start:end]
	for _, sep := range s.seps {
		idx := lastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := start + idx + len(sep)
		if cut > start+s.overlap {
			return cut
		}
	}
	// No usable separator in range: hard character cut.
	return end
}

// lastIndex returns the rune index of the last occurrence of sep in window.
func lastIndex(window, sep []rune) int {
	if len(sep) == 0 || len(sep) > len(window) {
		return -1
	}
outer:
	for i := len(window) - len(sep); i >= 0; i-- {
		for j := range sep {
			if window[i+j] != sep[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

func appendChunk(chunks *[]string, runes []rune) {
	text := strings.TrimSpace(string(runes))
	if text != "" {
		*chunks = append(*chunks, text)
	}
}
