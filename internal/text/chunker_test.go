package text

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sentenceDoc builds a document of numbered ten-word sentences grouped into
// paragraphs of perPara sentences each.
func sentenceDoc(total, perPara int) (string, []string) {
	var sentences []string
	for i := 1; i <= total; i++ {
		s := fmt.Sprintf("Sentence %d has exactly ten words in it right now.", i)
		sentences = append(sentences, s)
	}

	var paras []string
	for i := 0; i < total; i += perPara {
		end := i + perPara
		if end > total {
			end = total
		}
		paras = append(paras, strings.Join(sentences[i:end], " "))
	}
	return strings.Join(paras, "\n\n"), sentences
}

func TestChunkSemantic(t *testing.T) {
	t.Run("empty input yields no chunks", func(t *testing.T) {
		assert.Nil(t, ChunkSemantic("", 500, 2))
		assert.Nil(t, ChunkSemantic("   \n\n\t  ", 500, 2))
	})

	t.Run("short document stays whole", func(t *testing.T) {
		text := "First sentence here. Second sentence follows."
		chunks := ChunkSemantic(text, 500, 2)
		require.Len(t, chunks, 1)
		assert.Contains(t, chunks[0], "First sentence here.")
		assert.Contains(t, chunks[0], "Second sentence follows.")
	})

	t.Run("1200 word document chunks into three with sentence overlap", func(t *testing.T) {
		doc, sentences := sentenceDoc(120, 12)

		chunks := ChunkSemantic(doc, 500, 2)
		require.Len(t, chunks, 3)

		for _, c := range chunks {
			words := len(strings.Fields(c))
			assert.LessOrEqual(t, words, 550, "chunk exceeds target plus slack")
		}

		// Chunk 2 must open with chunk 1's trailing two sentences.
		lead := sentences[48] + " " + sentences[49]
		assert.True(t, strings.HasPrefix(chunks[1], lead),
			"chunk 2 should start with the carried sentences")

		// No dropped tail: the last sentence survives in the last chunk.
		assert.Contains(t, chunks[2], sentences[119])
	})

	t.Run("all sentences covered", func(t *testing.T) {
		doc, sentences := sentenceDoc(40, 8)
		chunks := ChunkSemantic(doc, 100, 2)
		joined := strings.Join(chunks, " ")
		for _, s := range sentences {
			assert.Contains(t, joined, s)
		}
	})

	t.Run("paragraph breaks survive reconstruction", func(t *testing.T) {
		doc := "Alpha is first. Beta is second.\n\nGamma opens the next paragraph."
		chunks := ChunkSemantic(doc, 500, 2)
		require.Len(t, chunks, 1)
		assert.Contains(t, chunks[0], "Beta is second.\n\nGamma")
	})

	t.Run("hard-wrapped lines are not promoted to paragraph breaks", func(t *testing.T) {
		doc := "Alpha starts here and\n wraps onto a second line. Beta is second.\n\nGamma opens the next paragraph."
		chunks := ChunkSemantic(doc, 500, 2)
		require.Len(t, chunks, 1)
		assert.Contains(t, chunks[0], "and\n wraps")
		assert.Contains(t, chunks[0], "Beta is second.\n\nGamma")
	})

	t.Run("no punctuation falls back to window chunking", func(t *testing.T) {
		words := make([]string, 120)
		for i := range words {
			words[i] = fmt.Sprintf("w%d", i)
		}
		text := strings.Join(words, " ")

		chunks := ChunkSemantic(text, 50, 2)
		require.Greater(t, len(chunks), 1, "a long unpunctuated blob must still split")
		joined := strings.Join(chunks, " ")
		assert.Contains(t, joined, "w119", "tail must not be dropped")
	})

	t.Run("zero overlap starts fresh chunks", func(t *testing.T) {
		doc, sentences := sentenceDoc(20, 20)
		chunks := ChunkSemantic(doc, 50, 0)
		require.Greater(t, len(chunks), 1)
		assert.True(t, strings.HasPrefix(chunks[1], sentences[5]),
			"without overlap chunk 2 starts at the next unseen sentence")
	})
}

func TestSplitSentences(t *testing.T) {
	t.Run("boundary requires uppercase follower", func(t *testing.T) {
		got := SplitSentences("This ends here. and continues lowercase. Then a new one.")
		// The lowercase continuation is not a boundary.
		require.Len(t, got, 2)
		assert.Equal(t, "This ends here. and continues lowercase.", got[0])
	})

	t.Run("question and exclamation boundaries", func(t *testing.T) {
		got := SplitSentences("Is it so? Yes! Definitely so.")
		require.Len(t, got, 3)
		assert.Equal(t, "Is it so?", got[0])
		assert.Equal(t, "Yes!", got[1])
	})

	t.Run("paragraph marker on last sentence", func(t *testing.T) {
		got := SplitSentences("One here.\n\nTwo there.")
		require.Len(t, got, 2)
		assert.True(t, strings.HasSuffix(got[0], paragraphMark))
		assert.True(t, strings.HasSuffix(got[1], paragraphMark))
	})
}

func TestChunkWindow(t *testing.T) {
	words := func(n int) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = fmt.Sprintf("w%d", i)
		}
		return strings.Join(parts, " ")
	}

	t.Run("fits in one window", func(t *testing.T) {
		text := words(10)
		assert.Equal(t, []string{text}, ChunkWindow(text, 20, 5))
	})

	t.Run("tail shorter than window is emitted", func(t *testing.T) {
		chunks := ChunkWindow(words(25), 10, 0)
		require.Len(t, chunks, 3)
		assert.Equal(t, 5, len(strings.Fields(chunks[2])))
	})

	t.Run("overlap repeats words between windows", func(t *testing.T) {
		chunks := ChunkWindow(words(30), 10, 3)
		require.Greater(t, len(chunks), 1)
		first := strings.Fields(chunks[0])
		second := strings.Fields(chunks[1])
		assert.Equal(t, first[7:], second[:3])
	})

	t.Run("overlap greater than size still terminates", func(t *testing.T) {
		chunks := ChunkWindow(words(40), 5, 10)
		require.NotEmpty(t, chunks)

		// Every window starts one word later than the previous: no window
		// repeats and the full text is covered.
		seen := map[string]bool{}
		for _, c := range chunks {
			assert.False(t, seen[c], "window emitted twice: %q", c)
			seen[c] = true
		}
		assert.Contains(t, chunks[len(chunks)-1], "w39")
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, ChunkWindow("", 10, 2))
	})
}
