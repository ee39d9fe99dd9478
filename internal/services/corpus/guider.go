package corpus

import (
	"fmt"
	"strings"

	"github.com/pinta-partners/maggid/internal/models"
)

// blockSentinel separates passage blocks in guider text. Fixed so downstream
// chunkers can split the text unambiguously.
const blockSentinel = "=================================================="

// tokensPerWord approximates the provider tokenizer for chunk sizing.
const tokensPerWord = 1.33

// BuildGuiderText serializes the corpus into grounding text: one
// self-contained block per passage, in corpus order. The output is a pure
// function of the corpus contents, so the same corpus always yields
// byte-identical text.
func BuildGuiderText(c *models.Corpus) string {
	var b strings.Builder

	for i := 0; i < c.Len(); i++ {
		passage := c.At(i)

		b.WriteString(blockSentinel)
		b.WriteString("\n")
		b.WriteString(passage.Reference())
		b.WriteString("\n\n")

		b.WriteString("Original Hebrew:\n")
		b.WriteString(passage.PassageContent)
		b.WriteString("\n\n")

		b.WriteString("**Translation:**\n")
		b.WriteString(passage.Translation)
		b.WriteString("\n\n")

		b.WriteString("**Summary:**\n")
		b.WriteString(passage.Summary)
		b.WriteString("\n\n")

		b.WriteString("**Keywords:**\n")
		for n, keyword := range passage.Keywords {
			fmt.Fprintf(&b, "%d. %s\n", n+1, strings.TrimSpace(keyword))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ChunkText splits text into overlapping chunks of roughly chunkTokens tokens
// each, using a word-count approximation. Consecutive chunks share
// overlapTokens worth of trailing words so a passage block straddling a
// boundary is still seen whole in one chunk. Returns the text as a single
// chunk when it fits.
func ChunkText(text string, chunkTokens, overlapTokens int) []string {
	if chunkTokens < 1 {
		return []string{text}
	}

	words := strings.Fields(text)
	wordsPerChunk := int(float64(chunkTokens) / tokensPerWord)
	if wordsPerChunk < 1 {
		wordsPerChunk = 1
	}
	if len(words) <= wordsPerChunk {
		return []string{text}
	}

	overlapWords := int(float64(overlapTokens) / tokensPerWord)
	if overlapWords >= wordsPerChunk {
		overlapWords = wordsPerChunk - 1
	}
	step := wordsPerChunk - overlapWords

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + wordsPerChunk
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
