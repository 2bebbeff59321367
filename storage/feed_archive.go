package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MaxFetchLogRuns is how many runs fetch-log.json retains.
const MaxFetchLogRuns = 100

// FeedFetch is the outcome of one feed download.
type FeedFetch struct {
	Partner string `json:"partner"`
	Kind    string `json:"kind"`
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Bytes   int    `json:"bytes"`
	Error   string `json:"error,omitempty"`
	File    string `json:"file,omitempty"`
}

// FetchLogEntry records every feed download of one run.
type FetchLogEntry struct {
	RunID     string      `json:"runId"`
	Timestamp time.Time   `json:"timestamp"`
	Feeds     []FeedFetch `json:"feeds"`
}

// FeedArchive keeps raw feed documents and the fetch log under one
// directory. Safe for concurrent use.
type FeedArchive struct {
	mu  sync.Mutex
	dir string
}

func NewFeedArchive(dir string) *FeedArchive {
	return &FeedArchive{dir: dir}
}

// Save stores a raw feed as <partner>-<kind>-<YYYY-MM-DD>.xml and returns
// its path. A second save on the same day replaces the first.
func (a *FeedArchive) Save(partnerID, kind string, day time.Time, data []byte) (string, error) {
	name := fmt.Sprintf("%s-%s-%s.xml", partnerID, kind, day.UTC().Format("2006-01-02"))
	path := filepath.Join(a.dir, name)
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("archive %s: %w", name, err)
	}
	return path, nil
}

func (a *FeedArchive) logPath() string {
	return filepath.Join(a.dir, "fetch-log.json")
}

// AppendLog adds entry to fetch-log.json, dropping the oldest runs beyond
// MaxFetchLogRuns.
func (a *FeedArchive) AppendLog(entry FetchLogEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries, err := a.readLog()
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	if len(entries) > MaxFetchLogRuns {
		entries = entries[len(entries)-MaxFetchLogRuns:]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("fetch log: encode: %w", err)
	}
	if err := writeFileAtomic(a.logPath(), data); err != nil {
		return fmt.Errorf("fetch log: %w", err)
	}
	return nil
}

// ReadLog returns the retained fetch log, oldest first.
func (a *FeedArchive) ReadLog() ([]FetchLogEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.readLog()
}

func (a *FeedArchive) readLog() ([]FetchLogEntry, error) {
	data, err := os.ReadFile(a.logPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch log: read: %w", err)
	}
	var entries []FetchLogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// a corrupt log is restarted rather than blocking ingestion
		return nil, nil
	}
	return entries, nil
}
