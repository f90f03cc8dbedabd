package chunking

import "strings"

// Splitter recursively splits text into overlapping chunks, trying
// progressively finer separators (paragraph, line, space, character)
// until pieces fit within ChunkSize.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewSplitter constructs a Splitter with the given size and overlap.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Split breaks text into chunks of at most ChunkSize bytes of new text.
// Every chunk after the first starts with the last ChunkOverlap bytes of
// the previous chunk, so such a chunk can be up to ChunkOverlap bytes
// longer than ChunkSize. The separators a piece was split on are not kept
// when pieces are packed back together.
func (s *Splitter) Split(text string) []string {
	pieces := s.splitRecursive(text, defaultSeparators)
	return s.mergeWithOverlap(pieces)
}

func (s *Splitter) splitRecursive(text string, separators []string) []string {
	if len(text) <= s.ChunkSize {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	if len(separators) == 0 {
		return []string{text}
	}

	sep := separators[0]
	rest := separators[1:]

	var parts []string
	if sep == "" {
		for _, r := range text {
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.Split(text, sep)
	}

	var result []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len(part) > s.ChunkSize {
			result = append(result, s.splitRecursive(part, rest)...)
		} else {
			result = append(result, part)
		}
	}
	return result
}

// mergeWithOverlap packs the leaf pieces produced by splitRecursive back
// into chunks, starting a new chunk when the next piece would push the
// current one past ChunkSize, and carrying ChunkOverlap bytes of trailing
// context from the previous chunk into the next (on top of ChunkSize).
func (s *Splitter) mergeWithOverlap(pieces []string) []string {
	if len(pieces) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
		}
	}

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece) > s.ChunkSize {
			full := current.String()
			flush()
			current.Reset()
			if s.ChunkOverlap > 0 && len(full) > s.ChunkOverlap {
				current.WriteString(full[len(full)-s.ChunkOverlap:])
			}
		}
		current.WriteString(piece)
	}
	flush()

	return chunks
}
