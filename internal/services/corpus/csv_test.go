package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pinta-partners/maggid/internal/common"
	"github.com/pinta-partners/maggid/internal/models"
)

func TestReadPassagesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	data := "book_name,parsha_name,dvar_torah_id,passage_id,passage_content\n" +
		"Divrey Yoel,Bereshit,1,p1,\"hebrew, with comma\"\n" +
		"Divrey Yoel,Bereshit,1,p2,second passage\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	records, err := ReadPassagesCSV(path)

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "hebrew, with comma", records[0].PassageContent)
	assert.Equal(t, "p2", records[1].PassageID)
}

func TestReadPassagesCSV_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("book_name,passage_id\nDivrey Yoel,p1\n"), 0o644))

	_, err := ReadPassagesCSV(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestReadPassagesCSV_EmptyPassageID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	data := "book_name,parsha_name,dvar_torah_id,passage_id,passage_content\n" +
		"Divrey Yoel,Bereshit,1,,text\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := ReadPassagesCSV(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "passage_id is empty")
}

func TestEnrichedCSV_RoundTripWithEscapedKeywords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enriched.csv")
	passages := []models.EnrichedPassage{
		{
			PassageRecord: models.PassageRecord{
				BookName:       "Divrey Yoel",
				ParshaName:     "Shemot",
				DvarTorahID:    "2",
				PassageID:      "p1",
				PassageContent: "hebrew text",
			},
			Translation: "english text",
			Summary:     "the summary",
			Keywords:    []string{"emunah", "galus | geulah", `back\slash`},
		},
	}

	require.NoError(t, WriteEnrichedCSV(path, passages))

	loaded, err := ReadEnrichedCSV(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, passages[0], loaded[0])
}

func TestLoadDir_MergesInSortedFilenameOrder(t *testing.T) {
	dir := t.TempDir()

	// Written out of order on purpose; load order must follow filenames
	writeEnrichedFile(t, filepath.Join(dir, "b_noach.csv"), enriched("Divrey Yoel", "Noach", "1", "p2", "noach text"))
	writeEnrichedFile(t, filepath.Join(dir, "a_bereshit.csv"), enriched("Divrey Yoel", "Bereshit", "1", "p1", "bereshit text"))

	loader := NewLoader(common.GetLogger())
	corpus, warnings, err := loader.LoadDir(dir)

	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Equal(t, 2, corpus.Len())
	assert.Equal(t, 0, corpus.Position("p1"))
	assert.Equal(t, 1, corpus.Position("p2"))
}

func TestLoadDir_EmptyDirectory(t *testing.T) {
	loader := NewLoader(common.GetLogger())

	_, _, err := loader.LoadDir(t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CSV files")
}

func writeEnrichedFile(t *testing.T, path string, passages ...models.EnrichedPassage) {
	t.Helper()
	require.NoError(t, WriteEnrichedCSV(path, passages))
}
