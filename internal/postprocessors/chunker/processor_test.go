package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// reconstruct joins the non-overlapping remainder of each window.
func reconstruct(text string, windows []Window) string {
	var sb strings.Builder
	prevEnd := 0
	for _, w := range windows {
		sb.WriteString(text[prevEnd:w.End])
		prevEnd = w.End
	}
	return sb.String()
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Size() != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.Size())
		}
		if p.Overlap() != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.Overlap())
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p, err := New(WithChunkSize(500), WithOverlap(100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Size() != 500 || p.Overlap() != 100 {
			t.Errorf("expected 500/100, got %d/%d", p.Size(), p.Overlap())
		}
	})

	t.Run("overlap equal to chunk size fails", func(t *testing.T) {
		_, err := New(WithChunkSize(100), WithOverlap(100))
		if !errors.Is(err, domain.ErrInvalidChunkConfig) {
			t.Errorf("expected ErrInvalidChunkConfig, got %v", err)
		}
		if !domain.IsConfigurationError(err) {
			t.Error("expected a configuration error")
		}
	})

	t.Run("zero size fails", func(t *testing.T) {
		if _, err := New(WithChunkSize(0)); err == nil {
			t.Error("expected error for zero chunk size")
		}
	})

	t.Run("negative overlap fails", func(t *testing.T) {
		if _, err := New(WithOverlap(-1)); err == nil {
			t.Error("expected error for negative overlap")
		}
	})
}

func TestSplit_Empty(t *testing.T) {
	windows, err := Split("", 10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 0 {
		t.Errorf("expected no windows, got %d", len(windows))
	}
}

func TestSplit_ShorterThanSize(t *testing.T) {
	windows, err := Split("short text", 100, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if windows[0].Start != 0 || windows[0].End != 10 || windows[0].Text != "short text" {
		t.Errorf("unexpected window: %+v", windows[0])
	}
}

func TestSplit_InvalidConfigFailsBeforeWork(t *testing.T) {
	_, err := Split("", 10, 10)
	if !errors.Is(err, domain.ErrInvalidChunkConfig) {
		t.Errorf("expected ErrInvalidChunkConfig for empty text, got %v", err)
	}
}

func TestSplit_2500Bytes(t *testing.T) {
	text := strings.Repeat("x", 2500)

	windows, err := Split(text, 1000, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][2]int{{0, 1000}, {800, 1800}, {1600, 2500}}
	if len(windows) != len(want) {
		t.Fatalf("expected %d windows, got %d", len(want), len(windows))
	}
	for i, w := range windows {
		if w.Index != i {
			t.Errorf("window %d: expected index %d, got %d", i, i, w.Index)
		}
		if w.Start != want[i][0] || w.End != want[i][1] {
			t.Errorf("window %d: expected [%d,%d), got [%d,%d)", i, want[i][0], want[i][1], w.Start, w.End)
		}
	}
}

func TestSplit_ExactChunkSize(t *testing.T) {
	windows, err := Split(strings.Repeat("a", 100), 100, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 1 {
		t.Errorf("expected 1 window for text equal to size, got %d", len(windows))
	}
}

func TestSplit_Properties(t *testing.T) {
	texts := []string{
		"a",
		"The quick brown fox jumps over the lazy dog.",
		strings.Repeat("lorem ipsum dolor sit amet ", 97),
		strings.Repeat("0123456789", 250),
	}
	configs := [][2]int{{1, 0}, {7, 3}, {10, 9}, {64, 0}, {100, 20}, {1000, 200}}

	for _, text := range texts {
		for _, cfg := range configs {
			size, overlap := cfg[0], cfg[1]
			windows, err := Split(text, size, overlap)
			if err != nil {
				t.Fatalf("size=%d overlap=%d: %v", size, overlap, err)
			}

			if got := reconstruct(text, windows); got != text {
				t.Errorf("size=%d overlap=%d: round trip mismatch", size, overlap)
			}

			last := windows[len(windows)-1]
			if last.End != len(text) {
				t.Errorf("size=%d overlap=%d: last end %d != %d", size, overlap, last.End, len(text))
			}

			for i, w := range windows {
				if w.End <= w.Start || w.End > len(text) || w.End-w.Start > size {
					t.Errorf("size=%d overlap=%d: bad window %+v", size, overlap, w)
				}
				if text[w.Start:w.End] != w.Text {
					t.Errorf("size=%d overlap=%d: window text does not match offsets", size, overlap)
				}
				if i == 0 {
					continue
				}
				prev := windows[i-1]
				if w.Start < prev.Start || w.End < prev.End {
					t.Errorf("size=%d overlap=%d: offsets decreased at %d", size, overlap, i)
				}
				if prev.End-w.Start > overlap {
					t.Errorf("size=%d overlap=%d: overlap %d exceeds limit", size, overlap, prev.End-w.Start)
				}
			}
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	text := strings.Repeat("determinism ", 300)
	a, _ := Split(text, 250, 50)
	b, _ := Split(text, 250, 50)
	if len(a) != len(b) {
		t.Fatalf("window counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("window %d differs", i)
		}
	}
}

func TestProcessor_Name(t *testing.T) {
	p, _ := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestProcessor_Process_EmptyContent(t *testing.T) {
	p, _ := New()
	doc := &domain.Document{ID: "test-doc", Content: ""}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestProcessor_Process_PopulatesChunks(t *testing.T) {
	p, _ := New(WithChunkSize(10), WithOverlap(3))
	doc := &domain.Document{ID: "doc-1", Content: "abcdefghijklmnopqrstuvwxyz"}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}

	for i, c := range chunks {
		if c.DocumentID != "doc-1" {
			t.Errorf("chunk %d: wrong document id %q", i, c.DocumentID)
		}
		if c.Index != i {
			t.Errorf("chunk %d: wrong index %d", i, c.Index)
		}
		if c.ID != ChunkID("doc-1", i) {
			t.Errorf("chunk %d: wrong id %q", i, c.ID)
		}
		if c.Content != doc.Content[c.Start:c.End] {
			t.Errorf("chunk %d: content does not match offsets", i)
		}
		if c.Metadata == nil {
			t.Errorf("chunk %d: metadata not initialised", i)
		}
	}
}

func TestProcessor_Process_IgnoresInputChunks(t *testing.T) {
	p, _ := New(WithChunkSize(100), WithOverlap(10))
	doc := &domain.Document{ID: "doc", Content: "fresh content"}
	input := []domain.Chunk{{ID: "stale", Content: "stale"}}

	chunks, err := p.Process(context.Background(), doc, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Content != "fresh content" {
		t.Errorf("expected a single fresh chunk, got %+v", chunks)
	}
}
