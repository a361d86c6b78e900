package model

import (
	"fmt"
	"strings"
	"time"
)

// DownloadTask represents a single download task
type DownloadTask struct {
	ID         string
	VideoID    string // remote item identifier, when known
	URL        string
	PlaylistID string // playlist scope for history recording, empty for singles
	Format     string // output format (mp3, mp4, ...)
	Quality    string // quality setting (bitrate or height cap, or "best")
	Status     TaskStatus
	Progress   float64   // 0.0 to 1.0
	Percent    int       // 0 to 100
	Speed      string    // human readable speed (e.g., "1.2MB/s")
	ETASec     int       // ETA in seconds, -1 if unknown
	LastError  string    // last error message if any
	OutputPath string    // path to downloaded file
	FileSize   int64     // file size in bytes
	StartedAt  time.Time // when download started
	FinishedAt time.Time // when download finished
	Title      string    // video title
	Duration   string    // video duration
}

// ConversionTask represents a single FFmpeg transcode task
type ConversionTask struct {
	ID           string
	InputPath    string
	OutputPath   string
	TargetFormat string
	Status       TaskStatus
	Progress     float64 // 0.0 to 1.0
	Percent      int     // 0 to 100
	LastError    string  // last error message if any
	StartedAt    time.Time
	FinishedAt   time.Time
}

// GetETAString returns ETA formatted as hh:mm:ss, or "—" if unknown
func (dt *DownloadTask) GetETAString() string {
	if dt.ETASec <= 0 {
		return "—"
	}

	hours := dt.ETASec / 3600
	minutes := (dt.ETASec % 3600) / 60
	seconds := dt.ETASec % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// GetDisplayTitle returns title, filename, or URL in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	// First priority: video title (non-URL)
	if dt.Title != "" && !strings.HasPrefix(dt.Title, "http") {
		return dt.Title
	}

	// Second priority: filename from OutputPath
	if dt.OutputPath != "" {
		// Extract just the filename without path (support both / and \ separators)
		parts := strings.FieldsFunc(dt.OutputPath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			// Remove file extension for cleaner display
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}

	// Fallback: the URL itself
	return dt.URL
}
