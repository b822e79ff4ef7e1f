package chunker

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		if p.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.ChunkSize())
		}
	})

	t.Run("custom chunk size", func(t *testing.T) {
		p := New(WithChunkSize(500))
		if p.ChunkSize() != 500 {
			t.Errorf("expected chunkSize 500, got %d", p.ChunkSize())
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithChunkSize(-5))
		if p.ChunkSize() != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", p.ChunkSize())
		}
	})
}

func TestProcessor_Split_Blank(t *testing.T) {
	p := New()
	for _, in := range []string{"", "   ", "\n\n\r\n\t"} {
		if chunks := p.Split(in); len(chunks) != 0 {
			t.Errorf("expected no chunks for %q, got %v", in, chunks)
		}
	}
}

func TestProcessor_Split_ShortTextIsOneTrimmedChunk(t *testing.T) {
	p := New()
	in := "  Submit a request 14 days in advance.\n"
	chunks := p.Split(in)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != strings.TrimSpace(in) {
		t.Errorf("expected trimmed input, got %q", chunks[0])
	}
}

func TestProcessor_Split_Idempotent(t *testing.T) {
	p := New(WithChunkSize(50))
	in := "First paragraph.\n\nSecond paragraph."
	first := p.Split(in)
	if len(first) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(first))
	}
	again := p.Split(first[0])
	if !reflect.DeepEqual(first, again) {
		t.Errorf("re-chunking changed output: %v vs %v", first, again)
	}
}

func TestProcessor_Split_PacksParagraphs(t *testing.T) {
	p := New(WithChunkSize(20))
	in := "aaaa\r\n\r\nbbbb\n\n\n\ncccccccccccc\n\ndd"

	got := p.Split(in)
	want := []string{"aaaa\n\nbbbb", "cccccccccccc\n\ndd"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcessor_Split_ExactFit(t *testing.T) {
	p := New(WithChunkSize(10))
	// "abcd" + "\n\n" + "efgh" is exactly 10 characters.
	got := p.Split("abcd\n\nefgh")
	if len(got) != 1 || got[0] != "abcd\n\nefgh" {
		t.Errorf("expected a single packed chunk, got %q", got)
	}
}

func TestProcessor_Split_HardSplitsLongParagraph(t *testing.T) {
	p := New(WithChunkSize(10))
	in := "intro\n\n" + strings.Repeat("x", 25) + "\n\ntail"

	got := p.Split(in)
	want := []string{"intro", "xxxxxxxxxx", "xxxxxxxxxx", "xxxxx", "tail"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcessor_Split_HardSplitTrimsPieces(t *testing.T) {
	p := New(WithChunkSize(5))
	got := p.Split("abcd efghi     jk")
	want := []string{"abcd", "efghi", "jk"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcessor_Split_CountsRunes(t *testing.T) {
	p := New(WithChunkSize(6))
	got := p.Split("привет мир")
	for _, c := range got {
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %q is not valid UTF-8", c)
		}
		if utf8.RuneCountInString(c) > 6 {
			t.Errorf("chunk %q exceeds limit", c)
		}
	}
	want := []string{"привет", "мир"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestProcessor_Split_NoEmptyChunksAndBounded(t *testing.T) {
	p := New(WithChunkSize(40))
	in := strings.Repeat("Lorem ipsum dolor sit amet.\n\n", 30) + strings.Repeat("z", 130)

	chunks := p.Split(in)
	if len(chunks) == 0 {
		t.Fatal("expected chunks")
	}
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if utf8.RuneCountInString(c) > 40 {
			t.Errorf("chunk %d has %d runes", i, utf8.RuneCountInString(c))
		}
	}
}

func TestProcessor_Split_Deterministic(t *testing.T) {
	p := New(WithChunkSize(30))
	in := "one two three\n\nfour five six seven eight nine ten\n\neleven"
	first := p.Split(in)
	for i := 0; i < 5; i++ {
		if !reflect.DeepEqual(first, p.Split(in)) {
			t.Fatal("split is not deterministic")
		}
	}
}
