package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/sandsound/sandsound/internal/model"
)

// PlaylistGroup renders a unified list of playlist videos and individual
// download tasks. The download service mutates the same playlist model the
// group holds, so updates only need a refresh.
type PlaylistGroup struct {
	window fyne.Window

	playlists        []*model.Playlist
	selectedPlaylist *model.Playlist
	individualTasks  []*model.DownloadTask
	rows             []listRow

	container *fyne.Container
	list      *widget.List

	// TaskRow callbacks
	onStartPause func(taskID string)
	onReveal     func(filePath string)
	onOpen       func(filePath string)
	onCopyPath   func(filePath string)
}

// listRow is one rendered entry: either a playlist video or a task.
type listRow struct {
	video *model.PlaylistVideo
	task  *model.DownloadTask
}

// NewPlaylistGroup creates a new playlist group UI component
func NewPlaylistGroup(window fyne.Window) *PlaylistGroup {
	pg := &PlaylistGroup{
		window: window,
	}

	pg.createUI()
	return pg
}

// createUI creates the user interface for the playlist group
func (pg *PlaylistGroup) createUI() {
	pg.list = widget.NewList(
		func() int {
			return len(pg.rows)
		},
		func() fyne.CanvasObject {
			return pg.createRow()
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			pg.updateRow(id, obj)
		},
	)

	// Scroll container keeps long playlists usable
	pg.container = container.NewBorder(nil, nil, nil, nil, container.NewScroll(pg.list))
}

// createRow creates a template row widget
func (pg *PlaylistGroup) createRow() fyne.CanvasObject {
	row := NewTaskRow(nil)
	row.SetCallbacks(
		func(taskID string) {
			if pg.onStartPause != nil {
				pg.onStartPause(taskID)
			}
		},
		func(filePath string) {
			if pg.onReveal != nil {
				pg.onReveal(filePath)
			}
		},
		func(filePath string) {
			if pg.onOpen != nil {
				pg.onOpen(filePath)
			}
		},
		func(filePath string) {
			if pg.onCopyPath != nil {
				pg.onCopyPath(filePath)
			}
		},
	)
	return row
}

// updateRow binds a row widget to the entry at id
func (pg *PlaylistGroup) updateRow(id widget.ListItemID, obj fyne.CanvasObject) {
	if id >= len(pg.rows) {
		return
	}
	taskRow, ok := obj.(*TaskRow)
	if !ok {
		return
	}

	entry := pg.rows[id]
	if entry.task != nil {
		taskRow.UpdateTask(entry.task, false)
		return
	}

	video := entry.video
	taskRow.UpdateTask(&model.DownloadTask{
		ID:         video.ID,
		VideoID:    video.ID,
		Title:      video.Title,
		Duration:   video.Duration,
		Status:     taskStatusFor(video.Status),
		Progress:   video.Progress,
		Percent:    int(video.Progress * MaxProgressPercent),
		URL:        video.URL,
		OutputPath: video.OutputPath,
		FileSize:   video.FileSize,
		Speed:      video.Speed,
		ETASec:     video.ETASec,
		LastError:  video.Error,
	}, video.Status == model.VideoStatusSkipped)
}

// taskStatusFor maps a playlist item status onto the task status TaskRow renders
func taskStatusFor(status model.VideoStatus) model.TaskStatus {
	switch status {
	case model.VideoStatusDownloading:
		return model.TaskStatusDownloading
	case model.VideoStatusPaused:
		return model.TaskStatusPaused
	case model.VideoStatusCompleted, model.VideoStatusSkipped:
		return model.TaskStatusCompleted
	case model.VideoStatusError:
		return model.TaskStatusError
	default:
		return model.TaskStatusPending
	}
}

// Container returns the main container of the playlist group
func (pg *PlaylistGroup) Container() *fyne.Container {
	return pg.container
}

// SetTaskRowCallbacks sets the callback functions for row actions
func (pg *PlaylistGroup) SetTaskRowCallbacks(
	onStartPause func(taskID string),
	onReveal func(filePath string),
	onOpen func(filePath string),
	onCopyPath func(filePath string),
) {
	pg.onStartPause = onStartPause
	pg.onReveal = onReveal
	pg.onOpen = onOpen
	pg.onCopyPath = onCopyPath
}

// AddPlaylist adds a playlist and selects it for display
func (pg *PlaylistGroup) AddPlaylist(playlist *model.Playlist) {
	pg.playlists = append(pg.playlists, playlist)
	pg.selectedPlaylist = playlist
	pg.rebuildRows()
}

// AddIndividualTask adds a single-video download task to the list
func (pg *PlaylistGroup) AddIndividualTask(task *model.DownloadTask) {
	pg.individualTasks = append(pg.individualTasks, task)
	pg.rebuildRows()
}

// RemoveIndividualTask drops a single-video task from the list
func (pg *PlaylistGroup) RemoveIndividualTask(taskID string) {
	for i, task := range pg.individualTasks {
		if task.ID == taskID {
			pg.individualTasks = append(pg.individualTasks[:i], pg.individualTasks[i+1:]...)
			break
		}
	}
	pg.rebuildRows()
}

// SelectedPlaylist returns the playlist currently displayed
func (pg *PlaylistGroup) SelectedPlaylist() *model.Playlist {
	return pg.selectedPlaylist
}

// Refresh re-renders the list after model updates. Must run on the UI thread.
func (pg *PlaylistGroup) Refresh() {
	pg.list.Refresh()
}

// rebuildRows recomputes the unified entry list
func (pg *PlaylistGroup) rebuildRows() {
	pg.rows = pg.rows[:0]

	if pg.selectedPlaylist != nil {
		for _, video := range pg.selectedPlaylist.Videos {
			pg.rows = append(pg.rows, listRow{video: video})
		}
	}
	for _, task := range pg.individualTasks {
		pg.rows = append(pg.rows, listRow{task: task})
	}

	pg.list.Refresh()
}
