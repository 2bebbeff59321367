package models

import "time"

// PartnerResult summarises one partner's ingestion within a run.
type PartnerResult struct {
	PartnerID    string
	PartnerName  string
	Success      bool
	Err          string
	ProductBytes int
	StatusBytes  int
	Total        int
	Valid        int
	Invalid      int
	Capped       int
	New          int
	Updated      int
	Deactivated  int
	Duration     time.Duration
	Errors       []FeedIngestionError
}

// RunReport is the per-run summary handed to the CLI.
type RunReport struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	DryRun        bool
	Partners      []PartnerResult
	ImageStats    map[SourceType]int
	TotalProducts int
}

// Failed returns how many partners did not complete.
func (r *RunReport) Failed() int {
	n := 0
	for _, p := range r.Partners {
		if !p.Success {
			n++
		}
	}
	return n
}

// AllFailed reports whether every processed partner failed.
func (r *RunReport) AllFailed() bool {
	return len(r.Partners) > 0 && r.Failed() == len(r.Partners)
}

// Errors flattens every partner's ingestion errors.
func (r *RunReport) Errors() []FeedIngestionError {
	var out []FeedIngestionError
	for _, p := range r.Partners {
		out = append(out, p.Errors...)
	}
	return out
}
