package journal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/meltforce/liftlog/internal/ingest"
)

// journalNameRe matches journal filenames: 2026-01-05.txt
var journalNameRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.txt$`)

// Stats tracks sync progress.
type Stats struct {
	FilesTotal   int
	FilesSent    int
	FilesSkipped int
	FilesErrored int

	ItemsLogged     int
	ItemsDuplicated int
	ItemsUnknown    int
}

// Syncer walks a journal directory and posts unsent files to the server.
type Syncer struct {
	client *Client
	state  *StateDB
	dir    string
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a Syncer for the given journal directory.
func New(client *Client, state *StateDB, dir string, dryRun bool, log *slog.Logger) *Syncer {
	return &Syncer{client: client, state: state, dir: dir, dryRun: dryRun, log: log}
}

// Run syncs every unsent journal file, oldest date first. A failed file
// stops the run; already-sent files before it stay marked.
func (s *Syncer) Run() (*Stats, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return &s.stats, fmt.Errorf("reading %s: %w", s.dir, err)
	}

	type journal struct {
		name string
		date string
	}
	var journals []journal
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := journalNameRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		journals = append(journals, journal{name: entry.Name(), date: m[1]})
	}
	sort.Slice(journals, func(i, j int) bool { return journals[i].date < journals[j].date })

	s.stats.FilesTotal = len(journals)

	for _, j := range journals {
		path := filepath.Join(s.dir, j.name)

		info, err := os.Stat(path)
		if err != nil {
			s.stats.FilesErrored++
			return &s.stats, fmt.Errorf("stat %s: %w", j.name, err)
		}
		hash, err := HashFile(path)
		if err != nil {
			s.stats.FilesErrored++
			return &s.stats, fmt.Errorf("hashing %s: %w", j.name, err)
		}

		synced, err := s.state.IsSynced(j.name, info.Size(), hash)
		if err != nil {
			return &s.stats, fmt.Errorf("checking state for %s: %w", j.name, err)
		}
		if synced {
			s.stats.FilesSkipped++
			continue
		}

		text, err := os.ReadFile(path)
		if err != nil {
			s.stats.FilesErrored++
			return &s.stats, fmt.Errorf("reading %s: %w", j.name, err)
		}
		if strings.TrimSpace(string(text)) == "" {
			s.log.Warn("skipping empty journal", "file", j.name)
			s.stats.FilesSkipped++
			continue
		}

		if s.dryRun {
			s.log.Info("would send", "file", j.name, "date", j.date, "bytes", info.Size())
			s.stats.FilesSent++
			continue
		}

		result, err := s.client.SendJournal(string(text), j.date)
		if err != nil {
			s.stats.FilesErrored++
			return &s.stats, fmt.Errorf("sending %s: %w", j.name, err)
		}
		s.countOutcomes(result)

		if err := s.state.MarkSynced(j.name, info.Size(), hash); err != nil {
			return &s.stats, fmt.Errorf("marking %s synced: %w", j.name, err)
		}
		s.stats.FilesSent++
		s.log.Info("journal sent", "file", j.name, "session", result.SessionID, "items", len(result.Results))
	}

	return &s.stats, nil
}

func (s *Syncer) countOutcomes(result *ingest.Result) {
	for _, item := range result.Results {
		switch item.Status {
		case ingest.StatusLogged:
			s.stats.ItemsLogged++
		case ingest.StatusAlreadyLogged:
			s.stats.ItemsDuplicated++
		case ingest.StatusUnknown:
			s.stats.ItemsUnknown++
		}
	}
}
