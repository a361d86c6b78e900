package model

import "time"

// HistoryEntry is the record of one completed download. Entries are created
// on successful completion and never mutated afterwards, except that
// re-recording the same (playlist, video) pair overwrites the entry. That
// is how a moved output file gets its path updated.
type HistoryEntry struct {
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	PlaylistID   string    `json:"playlist_id,omitempty"` // empty for single-video downloads
	DownloadedAt time.Time `json:"downloaded_at"`
	OutputPath   string    `json:"output_path,omitempty"`
	Format       string    `json:"format"`
	Quality      string    `json:"quality,omitempty"`
}

// PlaylistRecord groups history entries belonging to one playlist scope.
type PlaylistRecord struct {
	PlaylistID     string                  `json:"playlist_id"`
	PlaylistURL    string                  `json:"playlist_url,omitempty"`
	Title          string                  `json:"title,omitempty"`
	LastDownloaded time.Time               `json:"last_downloaded"`
	Videos         map[string]HistoryEntry `json:"videos"`
}
