package retrieval

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/pinta-partners/maggid/internal/common"
	"github.com/pinta-partners/maggid/internal/interfaces"
)

// NewEngineFromConfig builds a retrieval engine for the configured scoring
// mode. llm may be nil in lexical mode; in llm mode it is required.
func NewEngineFromConfig(config *common.RetrievalConfig, llm interfaces.LLMService, logger arbor.ILogger) (*Engine, error) {
	var scorer Scorer
	switch config.Mode {
	case "lexical":
		scorer = NewLexicalScorer()
	case "llm":
		if llm == nil {
			return nil, fmt.Errorf("retrieval mode llm requires an LLM service")
		}
		scorer = NewLLMJudgeScorer(llm, config.ChunkTokens, config.ChunkOverlap, logger)
	default:
		return nil, fmt.Errorf("unknown retrieval mode: %s", config.Mode)
	}

	logger.Debug().
		Str("mode", config.Mode).
		Int("k", config.K).
		Float64("min_score", config.MinScore).
		Msg("Retrieval engine initialized")

	return NewEngine(scorer, config.MinScore, logger), nil
}
