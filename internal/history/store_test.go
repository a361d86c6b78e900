package history

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sandsound/sandsound/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "history.json"), log.New(io.Discard))
}

func TestOpen_MissingFile(t *testing.T) {
	s := testStore(t)

	if got := s.Query("PL1"); len(got) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(got))
	}
}

func TestOpen_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	s := Open(path, log.New(io.Discard))
	if got := s.Query("PL1"); len(got) != 0 {
		t.Errorf("Expected empty history after corrupt load, got %d entries", len(got))
	}

	// Recording must recover the file.
	err := s.Record(model.HistoryEntry{VideoID: "v1", PlaylistID: "PL1"})
	if err != nil {
		t.Fatalf("Record after corrupt load failed: %v", err)
	}

	reopened := Open(path, log.New(io.Discard))
	if !reopened.IsDownloaded("v1", "PL1") {
		t.Error("Expected recovered file to contain the recorded entry")
	}
}

func TestRecord_AndQuerySorted(t *testing.T) {
	s := testStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []model.HistoryEntry{
		{VideoID: "v2", PlaylistID: "PL1", Title: "second", DownloadedAt: base.Add(time.Hour)},
		{VideoID: "v1", PlaylistID: "PL1", Title: "first", DownloadedAt: base},
	}
	for _, e := range entries {
		if err := s.Record(e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got := s.Query("PL1")
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got[0].VideoID != "v1" || got[1].VideoID != "v2" {
		t.Errorf("Expected entries ordered by download time, got %s then %s", got[0].VideoID, got[1].VideoID)
	}
}

func TestRecord_RoundTripThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s := Open(path, log.New(io.Discard))
	err := s.Record(model.HistoryEntry{
		VideoID:    "v1",
		PlaylistID: "PL1",
		Title:      "a song",
		OutputPath: "/music/a song.mp3",
		Format:     "mp3",
		Quality:    "192",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	reopened := Open(path, log.New(io.Discard))
	got := reopened.Query("PL1")
	if len(got) != 1 {
		t.Fatalf("Expected 1 entry after reopen, got %d", len(got))
	}
	if got[0].OutputPath != "/music/a song.mp3" {
		t.Errorf("Expected output path to survive reopen, got %s", got[0].OutputPath)
	}
	if got[0].DownloadedAt.IsZero() {
		t.Error("Expected Record to stamp DownloadedAt")
	}
}

func TestRecord_RerecordOverwrites(t *testing.T) {
	s := testStore(t)

	first := model.HistoryEntry{VideoID: "v1", PlaylistID: "PL1", OutputPath: "/old/path.mp3"}
	if err := s.Record(first); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	second := model.HistoryEntry{VideoID: "v1", PlaylistID: "PL1", OutputPath: "/new/path.mp3"}
	if err := s.Record(second); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got := s.Query("PL1")
	if len(got) != 1 {
		t.Fatalf("Expected re-record to keep a single entry, got %d", len(got))
	}
	if got[0].OutputPath != "/new/path.mp3" {
		t.Errorf("Expected path to be updated, got %s", got[0].OutputPath)
	}
}

func TestIsDownloaded_ScopedByPlaylist(t *testing.T) {
	s := testStore(t)

	if err := s.Record(model.HistoryEntry{VideoID: "v1", PlaylistID: "PL1"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Record(model.HistoryEntry{VideoID: "v2"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if !s.IsDownloaded("v1", "PL1") {
		t.Error("Expected v1 downloaded in PL1 scope")
	}
	if s.IsDownloaded("v1", "PL2") {
		t.Error("Expected v1 not downloaded in PL2 scope")
	}
	if s.IsDownloaded("v1", "") {
		t.Error("Expected v1 not downloaded in singles scope")
	}
	if !s.IsDownloaded("v2", "") {
		t.Error("Expected v2 downloaded in singles scope")
	}
}

func TestDownloadedIDs(t *testing.T) {
	s := testStore(t)

	for _, id := range []string{"a", "b"} {
		if err := s.Record(model.HistoryEntry{VideoID: id, PlaylistID: "PL1"}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	ids := s.DownloadedIDs("PL1")
	if len(ids) != 2 {
		t.Fatalf("Expected 2 IDs, got %d", len(ids))
	}
	if _, ok := ids["a"]; !ok {
		t.Error("Expected set to contain 'a'")
	}

	if len(s.DownloadedIDs("unknown")) != 0 {
		t.Error("Expected empty set for unknown playlist")
	}
}

func TestSetPlaylistInfo(t *testing.T) {
	s := testStore(t)

	if err := s.SetPlaylistInfo("PL1", "https://example.com/playlist?list=PL1", "My Mix"); err != nil {
		t.Fatalf("SetPlaylistInfo failed: %v", err)
	}

	record := s.PlaylistRecord("PL1")
	if record == nil {
		t.Fatal("Expected playlist record to exist")
	}
	if record.Title != "My Mix" {
		t.Errorf("Expected title 'My Mix', got %s", record.Title)
	}
	if record.PlaylistURL != "https://example.com/playlist?list=PL1" {
		t.Errorf("Unexpected playlist URL: %s", record.PlaylistURL)
	}
}

func TestClearPlaylist(t *testing.T) {
	s := testStore(t)

	if err := s.Record(model.HistoryEntry{VideoID: "v1", PlaylistID: "PL1"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.ClearPlaylist("PL1"); err != nil {
		t.Fatalf("ClearPlaylist failed: %v", err)
	}
	if s.IsDownloaded("v1", "PL1") {
		t.Error("Expected playlist scope to be cleared")
	}

	// Clearing an unknown scope is a no-op.
	if err := s.ClearPlaylist("unknown"); err != nil {
		t.Errorf("Expected no error clearing unknown playlist, got %v", err)
	}
}

func TestClearAll(t *testing.T) {
	s := testStore(t)

	if err := s.Record(model.HistoryEntry{VideoID: "v1", PlaylistID: "PL1"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Record(model.HistoryEntry{VideoID: "v2"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	if s.IsDownloaded("v1", "PL1") || s.IsDownloaded("v2", "") {
		t.Error("Expected all history to be cleared")
	}
}
