// Package chunk splits page text into overlapping, sentence-respecting
// retrieval units.
package chunk

import (
	"strings"
	"unicode"

	"github.com/margin-review/margin/models"
)

// Config controls chunking behavior. Sizes are in characters.
type Config struct {
	Size    int // Target chunk size.
	Overlap int // Trailing overlap carried into the next chunk.
}

// DefaultConfig returns the standard 500/100 chunking parameters.
func DefaultConfig() Config {
	return Config{Size: 500, Overlap: 100}
}

// Split produces retrieval chunks from extracted pages. Chunks never cross
// page boundaries, IDs increase monotonically across the whole document,
// and consecutive chunks within a page share a trailing/leading overlap
// window. Pages with only whitespace yield no chunks.
//
// Char offsets are advisory: the overlap seeding makes them approximate,
// and nothing downstream indexes with them.
func Split(pages []models.PageText, cfg Config) []models.Chunk {
	if cfg.Size <= 0 {
		cfg.Size = 500
	}
	if cfg.Overlap <= 0 {
		cfg.Overlap = 100
	}

	var chunks []models.Chunk
	chunkID := 0

	for _, page := range pages {
		if strings.TrimSpace(page.RawText) == "" {
			continue
		}

		sentences := SplitSentences(page.RawText)
		var current []rune
		start := 0

		for _, sentence := range sentences {
			sent := []rune(sentence)

			if len(current)+len(sent) > cfg.Size && len(current) > 0 {
				text := strings.TrimSpace(string(current))
				chunks = append(chunks, models.Chunk{
					ID:          chunkID,
					Text:        text,
					SourcePage:  page.PageNumber,
					StartOffset: start,
					EndOffset:   start + len(current),
				})
				chunkID++

				// Seed the next buffer with the trailing overlap of the
				// closed chunk, when there is enough of it.
				if len(current) > cfg.Overlap {
					overlap := current[len(current)-cfg.Overlap:]
					start += len(current) - cfg.Overlap
					current = append(append([]rune{}, overlap...), ' ')
					current = append(current, sent...)
				} else {
					start += len(current)
					current = append([]rune{}, sent...)
				}
				continue
			}

			if len(current) > 0 {
				current = append(current, ' ')
			}
			current = append(current, sent...)
		}

		if strings.TrimSpace(string(current)) != "" {
			chunks = append(chunks, models.Chunk{
				ID:          chunkID,
				Text:        strings.TrimSpace(string(current)),
				SourcePage:  page.PageNumber,
				StartOffset: start,
				EndOffset:   start + len(current),
			})
			chunkID++
		}
	}

	return chunks
}

// SplitSentences splits text at terminal punctuation (period, exclamation
// mark, question mark) followed by whitespace. The trailing fragment is
// returned even without terminal punctuation.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
