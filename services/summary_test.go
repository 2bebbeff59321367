package services

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"feed-ingest/models"
)

func TestSummaryPrint(t *testing.T) {
	var buf bytes.Buffer
	report := &models.RunReport{
		RunID:      "run-1",
		StartedAt:  testNow,
		FinishedAt: testNow.Add(3 * time.Second),
		Partners: []models.PartnerResult{
			{PartnerID: "cramers", Success: true, Total: 3, Valid: 2, Invalid: 1, New: 2, ProductBytes: 2048,
				Errors: []models.FeedIngestionError{{Partner: "cramers", Stage: models.StageValidate, RecordID: "A2", Message: "price: missing"}}},
			{PartnerID: "interflora", Err: "fetch https://x: 5 attempts: boom"},
		},
		ImageStats:    map[models.SourceType]int{models.SourcePartner: 1, models.SourcePlaceholder: 1},
		TotalProducts: 2,
	}

	NewSummaryService(&buf).Print(report)
	out := buf.String()

	for _, want := range []string{"FEED INGESTION SUMMARY", "run-1", "cramers", "interflora", "5 attempts", "2.0 KB", "cramers/validate"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryPrintEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewSummaryService(&buf).Print(&models.RunReport{DryRun: true})
	out := buf.String()
	for _, want := range []string{"(dry run)", "No partners processed", "No images resolved", "None"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"kort", 10, "kort"},
		{"hämtning misslyckades för öppen länk", 12, "hämtning ..."},
		{"åäöåäöåäö", 6, "åäö..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.max)
		if got != tt.want || !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) = %q; want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
