package services

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"feed-ingest/models"
)

// SummaryService renders a RunReport for the terminal.
type SummaryService struct {
	out io.Writer
}

func NewSummaryService(out io.Writer) *SummaryService {
	if out == nil {
		out = os.Stdout
	}
	return &SummaryService{out: out}
}

func (s *SummaryService) Print(r *models.RunReport) {
	sep := strings.Repeat("═", 62)
	thin := strings.Repeat("─", 62)
	w := s.out

	title := "FEED INGESTION SUMMARY"
	if r.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📦 %s\033[0m\n", title)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Run id            : %s\n", r.RunID)
	fmt.Fprintf(w, "  Duration          : %s\n", r.FinishedAt.Sub(r.StartedAt).Round(1e6))
	fmt.Fprintf(w, "  Partners          : \033[1m%d\033[0m (%d failed)\n", len(r.Partners), r.Failed())
	fmt.Fprintf(w, "  Catalog products  : \033[1m%d\033[0m\n", r.TotalProducts)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Partners\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Partners) == 0 {
		fmt.Fprintf(w, "  No partners processed\n")
	}
	for _, p := range r.Partners {
		if !p.Success {
			fmt.Fprintf(w, "  \033[1;31m✗\033[0m %-14s %s\n", p.PartnerID, truncate(p.Err, 44))
			continue
		}
		fmt.Fprintf(w, "  \033[1;32m✓\033[0m %-14s %4d valid / %-4d total  %4d new  %4d upd  %3d off\n",
			p.PartnerID, p.Valid, p.Total, p.New, p.Updated, p.Deactivated)
		fmt.Fprintf(w, "    %-14s %s feed, %s status, %d rejected, %d capped, %s\n",
			"", humanBytes(p.ProductBytes), humanBytes(p.StatusBytes), p.Invalid, p.Capped,
			p.Duration.Round(1e6))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Image sources\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	total := 0
	for _, n := range r.ImageStats {
		total += n
	}
	if total == 0 {
		fmt.Fprintf(w, "  No images resolved\n")
	} else {
		for _, src := range []models.SourceType{models.SourcePartner, models.SourceRoyaltyFree, models.SourceGenerated, models.SourcePlaceholder} {
			n := r.ImageStats[src]
			bar := strings.Repeat("█", scaleBar(n, total, 30))
			fmt.Fprintf(w, "  %-14s %-30s %d\n", src, bar, n)
		}
	}
	fmt.Fprintln(w)

	errs := r.Errors()
	fmt.Fprintf(w, "\033[1;33m  Ingestion errors\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(errs) == 0 {
		fmt.Fprintf(w, "  None\n")
	} else {
		byStage := map[string]int{}
		for _, e := range errs {
			byStage[e.Partner+"/"+string(e.Stage)]++
		}
		keys := make([]string, 0, len(byStage))
		for k := range byStage {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if byStage[keys[i]] != byStage[keys[j]] {
				return byStage[keys[i]] > byStage[keys[j]]
			}
			return keys[i] < keys[j]
		})
		for _, k := range keys {
			fmt.Fprintf(w, "  %-30s %d\n", k, byStage[k])
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func scaleBar(n, total, width int) int {
	if n == 0 || total == 0 {
		return 0
	}
	if w := n * width / total; w > 0 {
		return w
	}
	return 1
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
