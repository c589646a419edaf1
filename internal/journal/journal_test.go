package journal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/ingest"
)

func writeJournal(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testServer(t *testing.T, handler func(req ingest.Request) ingest.Result) (*httptest.Server, *[]ingest.Request) {
	t.Helper()
	var got []ingest.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			http.Error(w, `{"error":"invalid API key"}`, http.StatusForbidden)
			return
		}
		var req ingest.Request
		json.NewDecoder(r.Body).Decode(&req)
		got = append(got, req)
		json.NewEncoder(w).Encode(handler(req))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func okResult(req ingest.Request) ingest.Result {
	return ingest.Result{
		SessionID: uuid.New(),
		Date:      req.Date,
		Results:   []ingest.ItemOutcome{{Status: ingest.StatusLogged, Exercise: "Bench Press"}},
	}
}

// TestRunSendsJournalsOldestFirst verifies journal files are posted in date
// order with their filename dates, and non-journal files are ignored.
func TestRunSendsJournalsOldestFirst(t *testing.T) {
	dir := t.TempDir()
	writeJournal(t, dir, "2026-01-07.txt", "squats 3x5 at 225")
	writeJournal(t, dir, "2026-01-05.txt", "3x8 bench at 185")
	writeJournal(t, dir, "notes.md", "not a journal")

	srv, got := testServer(t, okResult)
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	syncer := New(NewClient(srv.URL, "test-key"), state, dir, false, slog.Default())
	stats, err := syncer.Run()
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if stats.FilesTotal != 2 || stats.FilesSent != 2 {
		t.Errorf("stats = %+v, want 2 files found and sent", stats)
	}
	if len(*got) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(*got))
	}
	if (*got)[0].Date != "2026-01-05" || (*got)[1].Date != "2026-01-07" {
		t.Errorf("dates = %s, %s, want oldest first", (*got)[0].Date, (*got)[1].Date)
	}
	if (*got)[0].Text != "3x8 bench at 185" {
		t.Errorf("text = %q, want journal contents", (*got)[0].Text)
	}
	if stats.ItemsLogged != 2 {
		t.Errorf("ItemsLogged = %d, want 2", stats.ItemsLogged)
	}
}

// TestRunSkipsAlreadySynced verifies a second run resends nothing, and an
// edited file is sent again.
func TestRunSkipsAlreadySynced(t *testing.T) {
	dir := t.TempDir()
	writeJournal(t, dir, "2026-01-05.txt", "3x8 bench at 185")

	srv, got := testServer(t, okResult)
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	client := NewClient(srv.URL, "test-key")

	syncer := New(client, state, dir, false, slog.Default())
	if _, err := syncer.Run(); err != nil {
		t.Fatalf("first run error: %v", err)
	}

	stats, err := New(client, state, dir, false, slog.Default()).Run()
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if stats.FilesSkipped != 1 || stats.FilesSent != 0 {
		t.Errorf("second run stats = %+v, want one skip", stats)
	}
	if len(*got) != 1 {
		t.Errorf("server saw %d requests, want 1", len(*got))
	}

	// Editing the file invalidates its synced state.
	writeJournal(t, dir, "2026-01-05.txt", "3x8 bench at 185, added curls 12, 10, 8")
	stats, err = New(client, state, dir, false, slog.Default()).Run()
	if err != nil {
		t.Fatalf("third run error: %v", err)
	}
	if stats.FilesSent != 1 {
		t.Errorf("third run stats = %+v, want the edited file resent", stats)
	}
}

// TestRunDryRun verifies dry-run mode never contacts the server or marks
// files synced.
func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	writeJournal(t, dir, "2026-01-05.txt", "3x8 bench at 185")

	srv, got := testServer(t, okResult)
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	syncer := New(NewClient(srv.URL, "test-key"), state, dir, true, slog.Default())
	stats, err := syncer.Run()
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if stats.FilesSent != 1 {
		t.Errorf("stats = %+v, want one file reported", stats)
	}
	if len(*got) != 0 {
		t.Errorf("server saw %d requests during dry run, want 0", len(*got))
	}

	synced, err := state.IsSynced("2026-01-05.txt", 17, "")
	if err != nil {
		t.Fatal(err)
	}
	if synced {
		t.Error("dry run marked a file as synced")
	}
}

// TestRunStopsOnPermanentError verifies a 4xx response halts the run
// without marking the file synced.
func TestRunStopsOnPermanentError(t *testing.T) {
	dir := t.TempDir()
	writeJournal(t, dir, "2026-01-05.txt", "3x8 bench at 185")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"no exercises found in text"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	syncer := New(NewClient(srv.URL, "test-key"), state, dir, false, slog.Default())
	stats, err := syncer.Run()
	if err == nil {
		t.Fatal("Run succeeded against a 422 response")
	}
	if stats.FilesErrored != 1 {
		t.Errorf("stats = %+v, want one errored file", stats)
	}
}

// TestStateDBRoundTrip verifies the size+hash keyed state records.
func TestStateDBRoundTrip(t *testing.T) {
	state, err := OpenStateDB(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer state.Close()

	synced, err := state.IsSynced("2026-01-05.txt", 42, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if synced {
		t.Error("IsSynced = true before MarkSynced")
	}

	if err := state.MarkSynced("2026-01-05.txt", 42, "abc"); err != nil {
		t.Fatal(err)
	}

	synced, err = state.IsSynced("2026-01-05.txt", 42, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if !synced {
		t.Error("IsSynced = false after MarkSynced")
	}

	// Different hash means the file changed.
	synced, err = state.IsSynced("2026-01-05.txt", 42, "def")
	if err != nil {
		t.Fatal(err)
	}
	if synced {
		t.Error("IsSynced = true for a different hash")
	}
}
