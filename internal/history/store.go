// Package history tracks completed downloads per playlist scope and computes
// which items of a freshly fetched playlist listing still need downloading.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sandsound/sandsound/internal/model"
)

// HistoryFileName is the history file inside the application directory.
const HistoryFileName = "history.json"

// historyFile is the on-disk document shape: playlists keyed by ID plus a
// separate map for single-video downloads.
type historyFile struct {
	Playlists    map[string]*model.PlaylistRecord `json:"playlists"`
	SingleVideos map[string]model.HistoryEntry    `json:"single_videos"`
}

// Store is the durable record of completed downloads, keyed by playlist
// scope and video ID. It is backed by a single JSON file rewritten on every
// change; a missing or corrupt file loads as empty history.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *log.Logger
	data   historyFile
}

// Open loads the history file at path. Corruption is not fatal: the store
// starts empty and the next Record overwrites the broken file.
func Open(path string, logger *log.Logger) *Store {
	s := &Store{
		path:   path,
		logger: logger,
		data: historyFile{
			Playlists:    make(map[string]*model.PlaylistRecord),
			SingleVideos: make(map[string]model.HistoryEntry),
		},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s
	}
	if err != nil {
		s.logger.Warn("history unreadable, starting empty", "path", path, "err", err)
		return s
	}

	var loaded historyFile
	if err := json.Unmarshal(raw, &loaded); err != nil {
		s.logger.Warn("history corrupt, starting empty", "path", path, "err", err)
		return s
	}
	if loaded.Playlists != nil {
		s.data.Playlists = loaded.Playlists
	}
	if loaded.SingleVideos != nil {
		s.data.SingleVideos = loaded.SingleVideos
	}
	return s
}

// Record inserts or updates a history entry in its playlist scope (or the
// singles scope when the entry carries no playlist ID) and persists the file.
// Re-recording an existing (scope, video) pair overwrites the old entry.
func (s *Store) Record(entry model.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.DownloadedAt.IsZero() {
		entry.DownloadedAt = time.Now()
	}

	if entry.PlaylistID == "" {
		s.data.SingleVideos[entry.VideoID] = entry
		return s.save()
	}

	record, ok := s.data.Playlists[entry.PlaylistID]
	if !ok {
		record = &model.PlaylistRecord{
			PlaylistID: entry.PlaylistID,
			Videos:     make(map[string]model.HistoryEntry),
		}
		s.data.Playlists[entry.PlaylistID] = record
	}
	record.Videos[entry.VideoID] = entry
	record.LastDownloaded = entry.DownloadedAt

	return s.save()
}

// SetPlaylistInfo records the URL and title of a playlist scope so the
// history file stays meaningful to a human reader.
func (s *Store) SetPlaylistInfo(playlistID, url, title string) error {
	if playlistID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.data.Playlists[playlistID]
	if !ok {
		record = &model.PlaylistRecord{
			PlaylistID: playlistID,
			Videos:     make(map[string]model.HistoryEntry),
		}
		s.data.Playlists[playlistID] = record
	}
	record.PlaylistURL = url
	record.Title = title
	return s.save()
}

// Query returns all entries recorded for a playlist scope, ordered by
// download time. An empty scope queries single-video downloads.
func (s *Store) Query(playlistID string) []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []model.HistoryEntry
	if playlistID == "" {
		for _, e := range s.data.SingleVideos {
			entries = append(entries, e)
		}
	} else if record, ok := s.data.Playlists[playlistID]; ok {
		for _, e := range record.Videos {
			entries = append(entries, e)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DownloadedAt.Equal(entries[j].DownloadedAt) {
			return entries[i].VideoID < entries[j].VideoID
		}
		return entries[i].DownloadedAt.Before(entries[j].DownloadedAt)
	})
	return entries
}

// DownloadedIDs returns the set of video IDs recorded for a playlist scope.
func (s *Store) DownloadedIDs(playlistID string) map[string]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]struct{})
	if record, ok := s.data.Playlists[playlistID]; ok {
		for id := range record.Videos {
			ids[id] = struct{}{}
		}
	}
	return ids
}

// IsDownloaded reports whether a video was previously downloaded. With a
// playlist ID the check is scoped to that playlist; otherwise it consults
// single-video downloads.
func (s *Store) IsDownloaded(videoID, playlistID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if playlistID != "" {
		record, ok := s.data.Playlists[playlistID]
		if !ok {
			return false
		}
		_, have := record.Videos[videoID]
		return have
	}
	_, have := s.data.SingleVideos[videoID]
	return have
}

// PlaylistRecord returns the record for a playlist scope, or nil.
func (s *Store) PlaylistRecord(playlistID string) *model.PlaylistRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Playlists[playlistID]
}

// ClearPlaylist removes a playlist scope from history.
func (s *Store) ClearPlaylist(playlistID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Playlists[playlistID]; !ok {
		return nil
	}
	delete(s.data.Playlists, playlistID)
	return s.save()
}

// ClearAll removes all history.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Playlists = make(map[string]*model.PlaylistRecord)
	s.data.SingleVideos = make(map[string]model.HistoryEntry)
	return s.save()
}

// save rewrites the history file atomically: temp file in the same
// directory, then rename over the target. Callers hold the mutex.
func (s *Store) save() error {
	raw, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("write history: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "history-*.json")
	if err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write history: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}
