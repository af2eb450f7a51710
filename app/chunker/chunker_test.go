package chunker

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func para(sentence string, n int) string {
	return strings.TrimSpace(strings.Repeat(sentence+" ", n))
}

func TestChunkEmptyInput(t *testing.T) {
	c := New(DefaultOptions())
	for _, text := range []string{"", "   ", "\n\n\t\n", "\u200B\uFEFF"} {
		if got := c.Chunk("doc", text); got != nil {
			t.Fatalf("expected nil for %q, got %d chunks", text, len(got))
		}
	}
}

func TestChunkDeterministic(t *testing.T) {
	c := New(DefaultOptions())
	text := para("Red foxes patrol the hedgerows at dusk looking for careless rabbits.", 8) +
		"\n\n" + para("Badgers dig extensive setts under the old oak trees along the ridge.", 8)

	first := c.Chunk("doc", text)
	second := c.Chunk("doc", text)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("chunking is not deterministic")
	}
}

func TestChunkIDsAndOrdinals(t *testing.T) {
	c := New(DefaultOptions())
	text := para("The harbour filled with fishing boats before the storm rolled in from the north.", 8) +
		"\n\n" + para("The lighthouse keeper logged every vessel that passed the point that evening.", 8)

	chunks := c.Chunk("doc-1", text)
	if len(chunks) == 0 {
		t.Fatalf("expected chunks")
	}
	for i, ch := range chunks {
		wantID := fmt.Sprintf("doc-1#chunk%d", i)
		if ch.ID != wantID || ch.Ordinal != i || ch.DocumentID != "doc-1" {
			t.Fatalf("chunk %d: got id=%q ordinal=%d doc=%q", i, ch.ID, ch.Ordinal, ch.DocumentID)
		}
		if strings.TrimSpace(ch.Text) == "" {
			t.Fatalf("chunk %d has empty text", i)
		}
	}
}

func TestChunkNormalizesLineEndings(t *testing.T) {
	c := New(DefaultOptions())
	p1 := para("The mill by the river ground flour for three villages every market day.", 8)
	p2 := para("Wagons queued along the towpath from dawn until the sluice gates closed.", 8)

	lf := p1 + "\n\n" + p2
	crlf := strings.ReplaceAll(lf, "\n", "\r\n")
	dirty := "\uFEFF" + strings.Replace(crlf, "mill", "mi\u200Bll", 1)

	if !reflect.DeepEqual(c.Chunk("d", lf), c.Chunk("d", crlf)) {
		t.Fatalf("CRLF input chunked differently from LF input")
	}
	if !reflect.DeepEqual(c.Chunk("d", lf), c.Chunk("d", dirty)) {
		t.Fatalf("zero-width characters changed the chunking")
	}
}

func TestChunkOverlapCarriesPreviousBlock(t *testing.T) {
	c := New(DefaultOptions())
	p1 := para("The observatory on the hill tracked meteor showers through the clear autumn nights.", 6)
	p2 := para("Astronomers logged each streak by hand in the old ledgers kept since the war.", 6)

	chunks := c.Chunk("doc", p1+"\n\n"+p2)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != p1 {
		t.Fatalf("chunk 0 = %q, want first paragraph", chunks[0].Text)
	}
	if !strings.HasPrefix(chunks[1].Text, p1) || !strings.HasSuffix(chunks[1].Text, p2) {
		t.Fatalf("chunk 1 should start with the overlap block and end with the new paragraph")
	}
}

func TestChunkRestoresPronounContext(t *testing.T) {
	c := New(Options{OverlapBlocks: 0})
	p1 := para("The vixen raised four cubs in the den beneath the fallen beech tree last spring.", 6)
	p2 := para("It hunted voles in the tall grass every morning without fail before sunrise.", 6)

	chunks := c.Chunk("doc", p1+"\n\n"+p2)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[1].Text, p1) {
		t.Fatalf("pronoun-led chunk should re-attach the previous block, got %q", chunks[1].Text[:40])
	}
	if !strings.Contains(chunks[1].Text, p2) {
		t.Fatalf("chunk 1 lost its own paragraph")
	}
}

func TestChunkDropsBoilerplate(t *testing.T) {
	c := New(DefaultOptions())
	p1 := para("The orchard yielded twelve tonnes of apples despite the late frost in May.", 8)
	text := strings.Join([]string{
		"Accept all cookies",
		"----------------------",
		"Home / Products / Orchards / Apples",
		p1,
	}, "\n\n")

	chunks := c.Chunk("doc", text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	lower := strings.ToLower(chunks[0].Text)
	if strings.Contains(lower, "cookie") || strings.Contains(lower, "home / products") {
		t.Fatalf("boilerplate survived: %q", chunks[0].Text)
	}
	if chunks[0].Text != p1 {
		t.Fatalf("content paragraph was altered")
	}
}

func TestChunkMergesHeadingIntoBody(t *testing.T) {
	c := New(DefaultOptions())
	p1 := para("Migration routes follow the coastline south until the estuary splits the flocks.", 8)

	chunks := c.Chunk("doc", "# Autumn Migration\n\n"+p1)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0].Text, "# Autumn Migration\n") {
		t.Fatalf("heading should lead its section, got %q", chunks[0].Text[:40])
	}
}

func TestChunkRegroupsUnseparatedLines(t *testing.T) {
	c := New(DefaultOptions())
	var lines []string
	for i := 0; i < 16; i++ {
		lines = append(lines, "the cat sat on the mat near the old barn door again")
	}
	lines = append(lines, "the hay loft stayed warm and dry all through november")

	chunks := c.Chunk("doc", strings.Join(lines, "\n"))
	if len(chunks) == 0 {
		t.Fatalf("expected chunks from single-newline text")
	}
	var all strings.Builder
	for _, ch := range chunks {
		all.WriteString(ch.Text)
		all.WriteString(" ")
	}
	if !strings.Contains(all.String(), "hay loft") {
		t.Fatalf("content lost during regrouping")
	}
}

func TestChunkSplitsOversizedBlockAtSentences(t *testing.T) {
	c := New(Options{OverlapBlocks: 0})
	giant := para("Salmon swim upstream to spawn in the gravel beds of their natal rivers every autumn.", 30)

	chunks := c.Chunk("doc", giant)
	if len(chunks) < 3 {
		t.Fatalf("expected the oversized block to split, got %d chunks", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch.Text) > DefaultOptions().MaxChunkSize {
			t.Fatalf("chunk %d exceeds max size: %d", i, len(ch.Text))
		}
		if !strings.HasSuffix(strings.TrimSpace(ch.Text), ".") {
			t.Fatalf("chunk %d does not end at a sentence boundary: %q", i, ch.Text)
		}
	}
}

func TestChunkShortDocumentSingleChunk(t *testing.T) {
	c := New(DefaultOptions())
	text := para("A short note about the well in the courtyard and the bucket on its chain.", 3)

	chunks := c.Chunk("doc", text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for a short document, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Fatalf("short document should survive whole")
	}
}

func TestLooksLikeHeading(t *testing.T) {
	c := New(DefaultOptions())
	cases := []struct {
		line string
		want bool
	}{
		{"# Setup", true},
		{"Chapter 4: The Return", true},
		{"Feeding Habits Of Foxes", true},
		{"the quick brown fox jumps over the lazy dog", false},
		{para("A line far longer than the heading threshold keeps flowing on.", 3), false},
	}
	for _, cse := range cases {
		if got := c.looksLikeHeading(cse.line); got != cse.want {
			t.Fatalf("looksLikeHeading(%q) = %v, want %v", cse.line, got, cse.want)
		}
	}
}
