package corpus

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/pinta-partners/maggid/internal/models"
)

// Column layouts for the passage CSV schemas. Header row is required; columns
// are resolved by name so ordering is free.
var (
	rawColumns      = []string{"book_name", "parsha_name", "dvar_torah_id", "passage_id", "passage_content"}
	enrichedColumns = append(rawColumns[:len(rawColumns):len(rawColumns)], "translation", "keywords", "summary")
)

// columnIndex maps required column names to their positions in the header.
func columnIndex(header []string, required []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}
	return index, nil
}

// ReadPassagesCSV loads raw passage records from a UTF-8 CSV file with the
// input schema (book_name, parsha_name, dvar_torah_id, passage_id,
// passage_content).
func ReadPassagesCSV(path string) ([]models.PassageRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open passages CSV %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse passages CSV %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("passages CSV %s is empty (header row required)", path)
	}

	index, err := columnIndex(rows[0], rawColumns)
	if err != nil {
		return nil, fmt.Errorf("invalid passages CSV %s: %w", path, err)
	}

	records := make([]models.PassageRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record, err := recordFromRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("passages CSV %s row %d: %w", path, i+2, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ReadEnrichedCSV loads enriched passage records from a UTF-8 CSV file with
// the enriched schema (input columns plus translation, keywords, summary).
func ReadEnrichedCSV(path string) ([]models.EnrichedPassage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open enriched CSV %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse enriched CSV %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("enriched CSV %s is empty (header row required)", path)
	}

	index, err := columnIndex(rows[0], enrichedColumns)
	if err != nil {
		return nil, fmt.Errorf("invalid enriched CSV %s: %w", path, err)
	}

	passages := make([]models.EnrichedPassage, 0, len(rows)-1)
	for i, row := range rows[1:] {
		record, err := recordFromRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("enriched CSV %s row %d: %w", path, i+2, err)
		}
		passages = append(passages, models.EnrichedPassage{
			PassageRecord: record,
			Translation:   cell(row, index, "translation"),
			Keywords:      models.SplitKeywords(cell(row, index, "keywords")),
			Summary:       cell(row, index, "summary"),
		})
	}
	return passages, nil
}

// WriteEnrichedCSV writes enriched passages in the enriched schema. The
// parent directory must exist.
func WriteEnrichedCSV(path string, passages []models.EnrichedPassage) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create enriched CSV %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(enrichedColumns); err != nil {
		return fmt.Errorf("failed to write enriched CSV header: %w", err)
	}

	for i := range passages {
		p := &passages[i]
		row := []string{
			p.BookName,
			p.ParshaName,
			p.DvarTorahID,
			p.PassageID,
			p.PassageContent,
			p.Translation,
			models.JoinKeywords(p.Keywords),
			p.Summary,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write enriched CSV row for passage %s: %w", p.PassageID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush enriched CSV %s: %w", path, err)
	}
	return nil
}

func recordFromRow(row []string, index map[string]int) (models.PassageRecord, error) {
	record := models.PassageRecord{
		BookName:       cell(row, index, "book_name"),
		ParshaName:     cell(row, index, "parsha_name"),
		DvarTorahID:    cell(row, index, "dvar_torah_id"),
		PassageID:      cell(row, index, "passage_id"),
		PassageContent: cell(row, index, "passage_content"),
	}
	if record.PassageID == "" {
		return models.PassageRecord{}, fmt.Errorf("passage_id is empty")
	}
	return record, nil
}

func cell(row []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
