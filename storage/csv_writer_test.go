package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-ingest/models"
)

func TestCSVWriterWritesErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "ingestion_errors.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteErrors([]models.FeedIngestionError{
		{Partner: "cramers", Stage: models.StageValidate, RecordID: "A2", Message: "price: missing", Severity: models.SeverityError},
		{Partner: "interflora", Stage: models.StageStatus, Message: "status feed, unavailable", Severity: models.SeverityWarning},
	}))
	assert.Equal(t, 2, w.Rows())
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"partner", "stage", "record_id", "severity", "message"}, rows[0])
	assert.Equal(t, []string{"cramers", "validate", "A2", "error", "price: missing"}, rows[1])
	assert.Equal(t, "status feed, unavailable", rows[2][4])
}
