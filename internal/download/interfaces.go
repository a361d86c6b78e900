package download

import (
	"github.com/sandsound/sandsound/internal/model"
)

// Recorder persists completed downloads. Implemented by history.Store.
type Recorder interface {
	Record(entry model.HistoryEntry) error
}

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(*model.DownloadTask))
	AddTask(url, format, quality string) (*model.DownloadTask, error)
	GetTask(id string) (*model.DownloadTask, bool)
	GetTaskByVideoID(videoID string) (*model.DownloadTask, bool)
	GetAllTasks() []*model.DownloadTask
	StopTask(id string) error
	PauseTask(id string) error
	ResumeTask(id string) error
	RestartTask(id string) error
	RemoveTask(id string) error

	AddPlaylist(playlist *model.Playlist) error
	GetPlaylist(id string) (*model.Playlist, bool)
	DownloadPlaylist(playlist *model.Playlist, format, quality string) error
	CancelPlaylist(playlistID string) error

	// SetMaxParallelDownloads sets the maximum number of parallel downloads
	SetMaxParallelDownloads(max int)

	// SetDownloadDirectory sets the download directory
	SetDownloadDirectory(dir string)

	// SetCookieFile sets the Netscape cookie file passed to the extractor
	SetCookieFile(path string)

	// SetFFmpegLocation sets the FFmpeg location passed to the extractor
	SetFFmpegLocation(path string)
}
