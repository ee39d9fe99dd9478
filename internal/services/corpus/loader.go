package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/pinta-partners/maggid/internal/models"
)

// Loader builds a corpus from a directory of enriched passage CSVs.
type Loader struct {
	assembler *Assembler
	logger    arbor.ILogger
}

// NewLoader creates a corpus loader.
func NewLoader(logger arbor.ILogger) *Loader {
	return &Loader{
		assembler: NewAssembler(logger),
		logger:    logger,
	}
}

// LoadDir reads every *.csv file in dir in sorted filename order and merges
// them into one corpus. Sorted order makes the merge, and therefore the
// first-wins dedup and the guider text, reproducible across runs.
func (l *Loader) LoadDir(dir string) (*models.Corpus, []models.DuplicateWarning, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read corpus directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".csv" {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no CSV files found in corpus directory %s", dir)
	}

	batches := make([][]models.EnrichedPassage, 0, len(files))
	for _, name := range files {
		path := filepath.Join(dir, name)
		passages, err := ReadEnrichedCSV(path)
		if err != nil {
			return nil, nil, err
		}
		l.logger.Debug().
			Str("file", name).
			Int("passages", len(passages)).
			Msg("Loaded enriched CSV")
		batches = append(batches, passages)
	}

	corpus, warnings := l.assembler.Assemble(batches...)
	return corpus, warnings, nil
}

// WriteGuiderFile serializes the corpus and writes the guider text to path,
// creating parent directories as needed.
func WriteGuiderFile(path string, c *models.Corpus) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create guider directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(BuildGuiderText(c)), 0o644); err != nil {
		return fmt.Errorf("failed to write guider file %s: %w", path, err)
	}
	return nil
}
