package models

// DuplicateWarning reports a passage dropped during corpus assembly because
// its identity was already present. Non-fatal, surfaced for logging.
type DuplicateWarning struct {
	PassageID string `json:"passage_id"`
	Reference string `json:"reference"`
	Reason    string `json:"reason"`
}

// Corpus is the full immutable, deduplicated collection of enriched passages
// used for retrieval. It is built once by the assembly stage and shared by
// reference; concurrent reads require no locking. Rebuilding produces a new
// Corpus value, never an in-place mutation.
type Corpus struct {
	passages []EnrichedPassage
	byID     map[string]int // passage_id -> position in passages
}

// NewCorpus builds a Corpus from an already-deduplicated, ordered passage
// sequence. Callers normally go through the assembly stage, which enforces
// identity uniqueness before constructing the corpus.
func NewCorpus(passages []EnrichedPassage) *Corpus {
	byID := make(map[string]int, len(passages))
	for i := range passages {
		byID[passages[i].PassageID] = i
	}
	return &Corpus{passages: passages, byID: byID}
}

// Len returns the number of passages in the corpus.
func (c *Corpus) Len() int {
	return len(c.passages)
}

// Passages returns the ordered passage sequence. The returned slice is the
// corpus's backing store and must not be modified.
func (c *Corpus) Passages() []EnrichedPassage {
	return c.passages
}

// At returns the passage at position i in corpus order.
func (c *Corpus) At(i int) *EnrichedPassage {
	return &c.passages[i]
}

// ByID looks up a passage by passage_id. The second return reports whether
// the id resolves.
func (c *Corpus) ByID(passageID string) (*EnrichedPassage, bool) {
	i, ok := c.byID[passageID]
	if !ok {
		return nil, false
	}
	return &c.passages[i], true
}

// Position returns the corpus-order position of a passage_id, or -1 when the
// id does not resolve. Used for deterministic tie-breaking in retrieval.
func (c *Corpus) Position(passageID string) int {
	i, ok := c.byID[passageID]
	if !ok {
		return -1
	}
	return i
}
