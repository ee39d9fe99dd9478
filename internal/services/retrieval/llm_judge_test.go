package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinta-partners/maggid/internal/common"
	"github.com/pinta-partners/maggid/internal/interfaces"
	"github.com/pinta-partners/maggid/internal/models"
)

// queueLLM returns queued responses in order.
type queueLLM struct {
	responses []string
	calls     int
}

func (q *queueLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	response := q.responses[q.calls%len(q.responses)]
	q.calls++
	return response, nil
}

func (q *queueLLM) HealthCheck(ctx context.Context) error { return nil }
func (q *queueLLM) Close() error                          { return nil }

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no fence",
			input: `[{"passage_id": "p1"}]`,
			want:  `[{"passage_id": "p1"}]`,
		},
		{
			name:  "json fence",
			input: "```json\n[{\"passage_id\": \"p1\"}]\n```",
			want:  `[{"passage_id": "p1"}]`,
		},
		{
			name:  "bare fence",
			input: "```\n[1, 2]\n```",
			want:  "[1, 2]",
		},
		{
			name:  "fence directly against content",
			input: "```[1, 2]\n```",
			want:  "[1, 2]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripCodeFences(tt.input)
			if got != tt.want {
				t.Errorf("StripCodeFences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLLMJudge_ParsesVotesAndDiscardsUnknownIDs(t *testing.T) {
	llm := &queueLLM{responses: []string{
		"```json\n[{\"passage_id\": \"p1\", \"score\": 8.5, \"reason\": \"on point\"}, {\"passage_id\": \"ghost\", \"score\": 9, \"reason\": \"hallucinated\"}]\n```",
	}}
	scorer := NewLLMJudgeScorer(llm, 6800, 1300, common.GetLogger())

	scores, err := scorer.Score(context.Background(), testCorpus(), models.Query{Text: "faith"})

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"p1": 8.5}, scores)
}

func TestLLMJudge_NoMatchSentinelMeansNoEvidence(t *testing.T) {
	llm := &queueLLM{responses: []string{NoMatchSentinel}}
	scorer := NewLLMJudgeScorer(llm, 6800, 1300, common.GetLogger())

	scores, err := scorer.Score(context.Background(), testCorpus(), models.Query{Text: "unrelated topic"})

	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestLLMJudge_UnparseableResponseSkipsBlock(t *testing.T) {
	llm := &queueLLM{responses: []string{"I think passage one is nice."}}
	scorer := NewLLMJudgeScorer(llm, 6800, 1300, common.GetLogger())

	scores, err := scorer.Score(context.Background(), testCorpus(), models.Query{Text: "faith"})

	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestLLMJudge_AveragesVotesAcrossBlocks(t *testing.T) {
	// Tiny block budget forces multiple overlapping blocks; every block votes for p1
	llm := &queueLLM{responses: []string{
		`[{"passage_id": "p1", "score": 6, "reason": "r"}]`,
		`[{"passage_id": "p1", "score": 10, "reason": "r"}]`,
	}}
	scorer := NewLLMJudgeScorer(llm, 8, 2, common.GetLogger())

	scores, err := scorer.Score(context.Background(), testCorpus(), models.Query{Text: "faith"})

	require.NoError(t, err)
	require.Greater(t, llm.calls, 1)
	assert.InDelta(t, 8.0, scores["p1"], 2.0)
}

func TestLLMJudge_EnvelopeResponseFormat(t *testing.T) {
	llm := &queueLLM{responses: []string{
		`{"relevance_results": [{"passage_id": "p2", "score": 7, "reason": "creation themes"}]}`,
	}}
	scorer := NewLLMJudgeScorer(llm, 6800, 1300, common.GetLogger())

	scores, err := scorer.Score(context.Background(), testCorpus(), models.Query{Text: "creation"})

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"p2": 7.0}, scores)
}
