package text

import (
	"regexp"
	"strings"
)

// paragraphRe splits on blank-line boundaries, tolerating trailing spaces.
var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// boundaryRe marks a sentence boundary: terminal punctuation followed by
// whitespace and an uppercase letter. Consecutive abbreviations and
// lowercase-starting sentences are deliberately not split.
var boundaryRe = regexp.MustCompile(`[.!?]\s+[A-Z]`)

// paragraphMark is appended to the last sentence of each paragraph so the
// paragraph structure survives chunk reconstruction. U+2029 (paragraph
// separator) never occurs in practice, so reconstruction cannot mistake
// an intra-sentence newline for a paragraph break.
const paragraphMark = "\u2029"

// ChunkSemantic splits text into chunks along paragraph and sentence
// boundaries. Sentences are accumulated greedily until the running word
// count would exceed targetWords; the next chunk is seeded with the last
// overlapSentences sentences of the previous one. Text without usable
// sentence boundaries falls back to fixed-size window chunking.
func ChunkSemantic(text string, targetWords, overlapSentences int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// A lone "sentence" means no usable boundaries were found; window
	// chunking handles both that and documents short enough to fit whole.
	sentences := SplitSentences(text)
	if len(sentences) <= 1 {
		return ChunkWindow(text, targetWords, defaultWindowOverlap)
	}

	var chunks []string
	var current []string
	wordCount := 0

	for _, sentence := range sentences {
		n := len(strings.Fields(sentence))

		if wordCount+n > targetWords && len(current) > 0 {
			chunks = append(chunks, joinSentences(current))

			if overlapSentences > 0 && len(current) >= overlapSentences {
				current = append([]string(nil), current[len(current)-overlapSentences:]...)
				wordCount = 0
				for _, s := range current {
					wordCount += len(strings.Fields(s))
				}
			} else {
				current = nil
				wordCount = 0
			}
		}

		current = append(current, sentence)
		wordCount += n
	}

	if len(current) > 0 {
		chunks = append(chunks, joinSentences(current))
	}

	if len(chunks) == 0 {
		return ChunkWindow(text, targetWords, defaultWindowOverlap)
	}
	return chunks
}

// defaultWindowOverlap is the word overlap used when semantic chunking
// falls back to the fixed window.
const defaultWindowOverlap = 50

// ChunkWindow slides a fixed window of sizeWords words with overlapWords of
// back-step. The tail is emitted even when shorter than a full window, and
// the window always advances by at least one word so overlap >= size cannot
// loop forever.
func ChunkWindow(text string, sizeWords, overlapWords int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if sizeWords <= 0 {
		sizeWords = 1
	}
	if len(words) <= sizeWords {
		return []string{text}
	}

	step := sizeWords - overlapWords
	if step < 1 {
		step = 1
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + sizeWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// SplitSentences breaks text into sentences, paragraph by paragraph. The
// last sentence of each paragraph carries a trailing paragraph marker.
func SplitSentences(text string) []string {
	var all []string

	for _, para := range paragraphRe.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		sentences := splitParagraph(para)
		if len(sentences) == 0 {
			continue
		}
		sentences[len(sentences)-1] += paragraphMark
		all = append(all, sentences...)
	}

	return all
}

// splitParagraph cuts a paragraph after each boundary match. The matched
// uppercase letter belongs to the next sentence, so the cut lands right
// after the punctuation.
func splitParagraph(para string) []string {
	var sentences []string
	last := 0

	for _, loc := range boundaryRe.FindAllStringIndex(para, -1) {
		end := loc[0] + 1 // include the punctuation mark
		s := strings.TrimSpace(para[last:end])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1] - 1 // uppercase letter starts the next sentence
	}

	if tail := strings.TrimSpace(para[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// joinSentences reassembles accumulated sentences, restoring paragraph
// breaks from the markers.
func joinSentences(sentences []string) string {
	joined := strings.Join(sentences, " ")
	joined = strings.ReplaceAll(joined, paragraphMark+" ", "\n\n")
	joined = strings.ReplaceAll(joined, paragraphMark, "")
	return strings.TrimSpace(joined)
}
