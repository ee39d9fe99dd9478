package enrichment

import (
	"fmt"
	"strings"
)

// translationPrompt asks for a faithful English rendering of a Hebrew passage.
func translationPrompt(bookName, hebrewText string) string {
	return fmt.Sprintf(`Please translate the following Hebrew text into English. This is from %s:

Hebrew text: %s

Provide the translation, preserving Hasidic concepts and terminology. Output only the translation - do not add any explanations or comments.`, bookName, hebrewText)
}

// summaryPrompt asks for a short English summary of a Hebrew passage.
func summaryPrompt(bookName, hebrewText string) string {
	return fmt.Sprintf(`Please read and summarize the following Hebrew passage from %s.
Focus on the key Hasidic concepts and theological insights:

Hebrew text: %s

Provide a clear 3-4 sentence summary in English that captures the theological depth. Output only the English summary - do not add any explanations or comments.`, bookName, hebrewText)
}

// keywordsPrompt asks for key theological terms, one per line.
func keywordsPrompt(hebrewText string) string {
	return fmt.Sprintf(`Please extract 10 key Hebrew/Jewish theological terms from this Hebrew passage:

Hebrew text: %s

List exactly 10 terms, one per line, focusing on Hasidic and Kabbalistic concepts. Output only the terms - do not add any explanations or comments and do not number the terms.`, hebrewText)
}

// parseKeywords splits a one-term-per-line model response into cleaned
// keywords. Stray numbering and bullet markers are stripped; empty lines are
// dropped.
func parseKeywords(response string) []string {
	lines := strings.Split(response, "\n")
	keywords := make([]string, 0, len(lines))
	for _, line := range lines {
		keyword := strings.TrimSpace(line)
		keyword = strings.TrimLeft(keyword, "0123456789.)- *")
		keyword = strings.TrimSpace(keyword)
		if keyword == "" {
			continue
		}
		keywords = append(keywords, keyword)
	}
	return keywords
}
