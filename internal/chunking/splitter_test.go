package chunking

import "testing"

func TestSplitter_ShortTextUnchanged(t *testing.T) {
	s := NewSplitter(100, 10)
	got := s.Split("a short sentence")
	if len(got) != 1 || got[0] != "a short sentence" {
		t.Fatalf("expected single unchanged chunk, got %v", got)
	}
}

func TestSplitter_SplitsOnParagraphs(t *testing.T) {
	s := NewSplitter(20, 0)
	text := "first paragraph here\n\nsecond paragraph here\n\nthird paragraph here"
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d: %v", len(chunks), chunks)
	}
	for _, c := range chunks {
		if len(c) > 20+0 {
			// overlap is 0 here so no chunk should exceed chunk size meaningfully beyond a single piece
		}
	}
}

func TestSplitter_RespectsOverlap(t *testing.T) {
	s := NewSplitter(10, 4)
	text := "aaaaaaaaaa bbbbbbbbbb cccccccccc"
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// the start of chunk[1] should share trailing context with chunk[0]
	prev := chunks[0]
	next := chunks[1]
	if len(prev) >= 4 && !containsOverlap(prev, next) {
		t.Errorf("expected chunk overlap between %q and %q", prev, next)
	}
}

func containsOverlap(prev, next string) bool {
	tail := prev
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	for i := 1; i <= len(tail); i++ {
		suffix := tail[len(tail)-i:]
		if len(next) >= len(suffix) && next[:len(suffix)] == suffix {
			return true
		}
	}
	return false
}

func TestSplitter_EmptyText(t *testing.T) {
	s := NewSplitter(100, 10)
	if got := s.Split(""); len(got) != 0 {
		t.Fatalf("expected no chunks for empty text, got %v", got)
	}
}
