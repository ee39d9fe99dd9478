package synthesis

import (
	"fmt"
	"strings"

	"github.com/pinta-partners/maggid/internal/models"
)

const synthesisSystemPrompt = "You are a highly knowledgeable scholar of Chassidic literature. " +
	"Answer the question using ONLY the provided passages; do not draw on outside knowledge. " +
	"Every claim in your answer must cite its supporting passage by writing the passage id in square brackets, e.g. [p12]. " +
	"Cite only ids that appear in the provided passages. " +
	"If the passages do not contain enough material to answer, say so plainly."

// buildEvidenceBlock renders the evidence passages in ranked order, each
// prefixed by its id marker so the model can cite it.
func buildEvidenceBlock(corpus *models.Corpus, evidence []models.EvidenceItem) string {
	var b strings.Builder
	for _, item := range evidence {
		passage, ok := corpus.ByID(item.PassageID)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "=== %s ===\n", passage.PassageID)
		fmt.Fprintf(&b, "Source: %s\n\n", passage.Reference())
		fmt.Fprintf(&b, "Translation:\n%s\n\n", passage.Translation)
		fmt.Fprintf(&b, "Summary:\n%s\n\n", passage.Summary)
	}
	return b.String()
}

func synthesisUserPrompt(question, evidenceBlock string) string {
	return fmt.Sprintf(`Question: %s

Passages:
%s
Write a grounded answer to the question, citing passage ids in square brackets.`, question, evidenceBlock)
}
