package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/pinta-partners/maggid/internal/interfaces"
	"github.com/pinta-partners/maggid/internal/models"
	"github.com/pinta-partners/maggid/internal/services/corpus"
)

// NoMatchSentinel is the exact phrase the judge model is told to output when
// a block contains nothing relevant.
const NoMatchSentinel = "No relevant match found"

const judgeSystemPrompt = "You are a highly knowledgeable scholar and expert in the teachings of the Chassidic literature. " +
	"Your task is to analyze the provided text to identify passages that best reflect the teachings or themes " +
	"of the book in relation to the given question. " +
	"Passages are preceded with an identifier enclosed in triple equals (===) for easy extraction. " +
	"Respond with a JSON array of objects with fields \"passage_id\", \"score\" (0-10), and \"reason\". " +
	"Include only passages that provide meaningful insight. " +
	"If no passage is relevant, respond with exactly: " + NoMatchSentinel

// judgeVote is one passage relevance judgment parsed from a model response.
type judgeVote struct {
	PassageID string  `json:"passage_id"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
}

// LLMJudgeScorer scores passages by asking an LLM to judge relevance. Passage
// summaries are serialized into one proposal text and split into overlapping
// token-bounded blocks so the whole corpus fits the model's context window
// across multiple calls; a passage judged in more than one block gets the
// average of its votes.
type LLMJudgeScorer struct {
	llm           interfaces.LLMService
	blockTokens   int
	overlapTokens int
	logger        arbor.ILogger
}

// NewLLMJudgeScorer creates an LLM-judged scorer. blockTokens bounds the
// approximate token size of each judged block; overlapTokens is shared between
// consecutive blocks so proposals straddling a boundary are still judged whole.
func NewLLMJudgeScorer(llm interfaces.LLMService, blockTokens, overlapTokens int, logger arbor.ILogger) *LLMJudgeScorer {
	return &LLMJudgeScorer{
		llm:           llm,
		blockTokens:   blockTokens,
		overlapTokens: overlapTokens,
		logger:        logger,
	}
}

// Score judges every corpus passage against the query. Model responses that
// cannot be parsed, and ids that do not resolve, are discarded with a warning
// rather than failing the query; only transport-level errors are returned.
func (s *LLMJudgeScorer) Score(ctx context.Context, c *models.Corpus, query models.Query) (map[string]float64, error) {
	blocks := s.buildBlocks(c, query.Text)

	totals := make(map[string]float64)
	votes := make(map[string]int)

	for i, block := range blocks {
		response, err := s.llm.Chat(ctx, []interfaces.Message{
			{Role: "system", Content: judgeSystemPrompt},
			{Role: "user", Content: judgeUserPrompt(query.Text, block)},
		})
		if err != nil {
			return nil, fmt.Errorf("relevance judgment failed for block %d of %d: %w", i+1, len(blocks), err)
		}

		blockVotes, ok := s.parseVotes(response)
		if !ok {
			s.logger.Warn().
				Int("block", i+1).
				Int("response_length", len(response)).
				Msg("Unparseable relevance judgment, skipping block")
			continue
		}

		for _, vote := range blockVotes {
			if c.Position(vote.PassageID) < 0 {
				s.logger.Warn().
					Str("passage_id", vote.PassageID).
					Msg("Judge cited unknown passage id, discarding")
				continue
			}
			totals[vote.PassageID] += vote.Score
			votes[vote.PassageID]++
		}
	}

	scores := make(map[string]float64, len(totals))
	for passageID, total := range totals {
		scores[passageID] = total / float64(votes[passageID])
	}
	return scores, nil
}

func judgeUserPrompt(query, block string) string {
	return fmt.Sprintf(`TASK: Identify passages from the text that provide meaningful insight into the following question:
Question: %s
Text from the text block to analyze:
%s`, query, block)
}

// buildBlocks serializes passage proposals (id marker plus summary) and splits
// them into overlapping blocks whose approximate token count stays under the
// configured budget minus the query itself.
func (s *LLMJudgeScorer) buildBlocks(c *models.Corpus, query string) []string {
	budget := s.blockTokens - len(strings.Fields(query))
	if budget < 1 {
		budget = s.blockTokens
	}

	proposals := make([]string, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		passage := c.At(i)
		proposals = append(proposals, fmt.Sprintf("=== %s ===\n%s", passage.PassageID, passage.Summary))
	}
	if len(proposals) == 0 {
		return nil
	}

	return corpus.ChunkText(strings.Join(proposals, "\n\n"), budget, s.overlapTokens)
}

// parseVotes extracts relevance votes from a model response. Returns ok=false
// when the response is neither the no-match sentinel nor parseable JSON.
func (s *LLMJudgeScorer) parseVotes(response string) ([]judgeVote, bool) {
	cleaned := StripCodeFences(response)
	if cleaned == "" || strings.Contains(cleaned, NoMatchSentinel) {
		return nil, true
	}

	var parsed []judgeVote
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		// Some models wrap the array in an envelope object
		var envelope struct {
			RelevanceResults []judgeVote `json:"relevance_results"`
		}
		if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
			return nil, false
		}
		parsed = envelope.RelevanceResults
	}
	return parsed, true
}

// StripCodeFences removes a surrounding markdown code fence from a model
// response, tolerating a language tag after the opening fence.
func StripCodeFences(response string) string {
	cleaned := strings.TrimSpace(response)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	cleaned = strings.TrimPrefix(cleaned, "```")
	if newline := strings.IndexByte(cleaned, '\n'); newline >= 0 {
		firstLine := strings.TrimSpace(cleaned[:newline])
		// A bare language tag like "json" sits on the fence line
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}[]") {
			cleaned = cleaned[newline+1:]
		}
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
