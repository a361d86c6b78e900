package ui

import (
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/sandsound/sandsound/internal/model"
)

// File size formatting constants
const (
	FileSizeUnit  = 1024
	FileSizeUnits = "KMGTPE"
)

// Progress calculation constants
const (
	MaxProgressPercent = 100
	MinProgressPercent = 1
)

// formatFileSize formats file size in bytes to human readable format
func formatFileSize(bytes int64) string {
	if bytes < FileSizeUnit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(FileSizeUnit), 0
	for n := bytes / FileSizeUnit; n >= FileSizeUnit; n /= FileSizeUnit {
		div *= FileSizeUnit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), FileSizeUnits[exp])
}

// TaskRow is a compact row widget showing one download: title, status,
// percent, speed/ETA, and the per-file actions.
type TaskRow struct {
	widget.BaseWidget

	task    *model.DownloadTask
	skipped bool // item was found in history and never queued

	// UI components
	titleLabel    *widget.Label
	statusLabel   *widget.Label
	progressLabel *widget.Label
	speedEtaLabel *widget.Label

	// Action buttons
	startPauseBtn *widget.Button
	revealBtn     *widget.Button // reveal in file manager
	playBtn       *widget.Button // open file with default app
	copyBtn       *widget.Button

	// Callbacks
	onStartPause func(taskID string)
	onReveal     func(filePath string)
	onOpen       func(filePath string)
	onCopyPath   func(filePath string)
}

// NewTaskRow creates a new task row widget
func NewTaskRow(task *model.DownloadTask) *TaskRow {
	if task == nil {
		task = &model.DownloadTask{ID: "placeholder", Status: model.TaskStatusPending}
	}

	tr := &TaskRow{task: task}
	tr.ExtendBaseWidget(tr)
	tr.createUI()
	tr.updateFromTask()
	return tr
}

// SetCallbacks sets the action callbacks
func (tr *TaskRow) SetCallbacks(
	onStartPause func(taskID string),
	onReveal func(filePath string),
	onOpen func(filePath string),
	onCopyPath func(filePath string),
) {
	tr.onStartPause = onStartPause
	tr.onReveal = onReveal
	tr.onOpen = onOpen
	tr.onCopyPath = onCopyPath
}

// UpdateTask updates the row with new task data. skipped marks items that
// were found in download history and never queued.
func (tr *TaskRow) UpdateTask(task *model.DownloadTask, skipped bool) {
	if task == nil {
		return
	}

	task.Title = cleanDisplayText(task.Title)
	tr.task = task
	tr.skipped = skipped
	tr.updateFromTask()
	tr.Refresh()
}

// createUI creates the UI components
func (tr *TaskRow) createUI() {
	tr.titleLabel = widget.NewLabel("")
	tr.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	tr.titleLabel.Wrapping = fyne.TextWrapWord
	tr.titleLabel.Truncation = fyne.TextTruncateEllipsis
	tr.titleLabel.Alignment = fyne.TextAlignLeading

	tr.statusLabel = widget.NewLabel("")
	tr.statusLabel.Alignment = fyne.TextAlignTrailing
	tr.progressLabel = widget.NewLabel("")
	tr.progressLabel.Alignment = fyne.TextAlignTrailing
	tr.speedEtaLabel = widget.NewLabel("")
	tr.speedEtaLabel.Alignment = fyne.TextAlignLeading
	tr.speedEtaLabel.TextStyle = fyne.TextStyle{Monospace: true}

	tr.startPauseBtn = widget.NewButton("pause", func() {
		if tr.onStartPause != nil {
			// Playlist rows carry the remote video ID; the handler maps it
			// to the internal task.
			tr.onStartPause(tr.task.ID)
		}
	})
	tr.startPauseBtn.Importance = widget.MediumImportance

	tr.revealBtn = widget.NewButton("reveal", func() {
		if tr.onReveal != nil && tr.hasLocalFile() {
			tr.onReveal(tr.task.OutputPath)
		}
	})
	tr.revealBtn.Importance = widget.MediumImportance

	tr.playBtn = widget.NewButton("play", func() {
		if tr.onOpen != nil && tr.hasLocalFile() {
			tr.onOpen(tr.task.OutputPath)
		}
	})
	tr.playBtn.Importance = widget.MediumImportance

	tr.copyBtn = widget.NewButton("path", func() {
		if tr.onCopyPath != nil && tr.hasLocalFile() {
			tr.onCopyPath(tr.task.OutputPath)
		}
	})
	tr.copyBtn.Importance = widget.MediumImportance
}

// hasLocalFile reports whether the task points at a real local file path
// rather than an unset value or a URL.
func (tr *TaskRow) hasLocalFile() bool {
	p := tr.task.OutputPath
	if p == "" || strings.HasPrefix(p, "http") {
		return false
	}
	return strings.ContainsAny(p, "/\\")
}

// updateFromTask updates UI components based on task state
func (tr *TaskRow) updateFromTask() {
	if tr.task == nil {
		return
	}

	tr.titleLabel.SetText(cleanDisplayText(tr.task.GetDisplayTitle()))

	// Status label color and text
	switch {
	case tr.skipped:
		tr.statusLabel.Importance = widget.LowImportance
		tr.statusLabel.SetText("skipped")
	case tr.task.Status == model.TaskStatusError:
		tr.statusLabel.Importance = widget.DangerImportance
		tr.statusLabel.SetText(IconError + " " + tr.task.Status.String())
	case tr.task.Status == model.TaskStatusCompleted:
		tr.statusLabel.Importance = widget.SuccessImportance
		tr.statusLabel.SetText(tr.task.Status.String())
	case tr.task.Status == model.TaskStatusDownloading:
		tr.statusLabel.Importance = widget.HighImportance
		tr.statusLabel.SetText(IconPlay + " " + tr.task.Status.String())
	case tr.task.Status == model.TaskStatusPaused:
		tr.statusLabel.Importance = widget.MediumImportance
		tr.statusLabel.SetText(IconPause + " " + tr.task.Status.String())
	default:
		tr.statusLabel.Importance = widget.MediumImportance
		tr.statusLabel.SetText(tr.task.Status.String())
	}

	// Percent label; completed rows show the file size instead
	if tr.skipped {
		tr.progressLabel.SetText("")
	} else if tr.task.Status == model.TaskStatusCompleted {
		if tr.task.FileSize > 0 {
			tr.progressLabel.SetText(formatFileSize(tr.task.FileSize))
		} else {
			tr.progressLabel.SetText("")
		}
	} else {
		tr.progressLabel.SetText(fmt.Sprintf(ProgressLabelFormat, tr.effectivePercent()))
	}

	// Speed and ETA
	speedEtaText := ""
	switch tr.task.Status {
	case model.TaskStatusDownloading:
		if tr.task.Speed != "" {
			speedEtaText = tr.task.Speed
		}
		if tr.task.ETASec > 0 {
			if speedEtaText != "" {
				speedEtaText += MiddleDotSeparator
			}
			speedEtaText += tr.task.GetETAString()
		}
		if speedEtaText == "" {
			speedEtaText = DashPlaceholder
		}
	case model.TaskStatusError:
		speedEtaText = tr.task.LastError
	}
	tr.speedEtaLabel.SetText(speedEtaText)

	tr.updateButtons()
}

// effectivePercent derives a displayable percent, never showing 0 once
// progress has started.
func (tr *TaskRow) effectivePercent() int {
	percent := tr.task.Percent
	if percent <= 0 && tr.task.Progress > 0 {
		percent = int(tr.task.Progress * MaxProgressPercent)
		if percent == 0 {
			percent = MinProgressPercent
		}
	}
	if percent < 0 {
		percent = 0
	}
	if percent > MaxProgressPercent {
		percent = MaxProgressPercent
	}
	return percent
}

// updateButtons updates button states based on task status
func (tr *TaskRow) updateButtons() {
	switch {
	case tr.skipped, tr.task.Status == model.TaskStatusCompleted:
		tr.startPauseBtn.Disable()
		tr.startPauseBtn.SetText("pause")
	case tr.task.Status == model.TaskStatusPaused:
		tr.startPauseBtn.Enable()
		tr.startPauseBtn.SetText("resume")
	case tr.task.Status == model.TaskStatusStopped, tr.task.Status == model.TaskStatusError:
		tr.startPauseBtn.Enable()
		tr.startPauseBtn.SetText("retry")
	default:
		tr.startPauseBtn.Enable()
		tr.startPauseBtn.SetText("pause")
	}

	if tr.hasLocalFile() {
		tr.revealBtn.Enable()
		tr.playBtn.Enable()
		tr.copyBtn.Enable()
	} else {
		tr.revealBtn.Disable()
		tr.playBtn.Disable()
		tr.copyBtn.Disable()
	}
}

// cleanDisplayText strips control characters that break single-line labels
func cleanDisplayText(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}

// CreateRenderer creates the widget renderer
func (tr *TaskRow) CreateRenderer() fyne.WidgetRenderer {
	return &taskRowRenderer{taskRow: tr}
}

// taskRowRenderer renders the task row widget
type taskRowRenderer struct {
	taskRow *TaskRow
	layout  *fyne.Container
}

// Layout arranges the components
func (r *taskRowRenderer) Layout(size fyne.Size) {
	if r.layout == nil {
		r.createLayout()
	}
	if size.Width < RowMinWidth {
		size.Width = RowMinWidth
	}
	if size.Height < RowMinHeight {
		size.Height = RowMinHeight
	}
	r.layout.Resize(size)
}

// MinSize returns the minimum size
func (r *taskRowRenderer) MinSize() fyne.Size {
	if r.layout != nil {
		return r.layout.MinSize()
	}
	return fyne.NewSize(RowMinWidth, RowMinHeight)
}

// Refresh refreshes the renderer
func (r *taskRowRenderer) Refresh() {
	if r.layout == nil {
		r.createLayout()
	}
	r.layout.Refresh()
}

// Objects returns the container objects
func (r *taskRowRenderer) Objects() []fyne.CanvasObject {
	if r.layout == nil {
		r.createLayout()
	}
	return []fyne.CanvasObject{r.layout}
}

// Destroy cleans up the renderer
func (r *taskRowRenderer) Destroy() {}

// createLayout creates the main layout
func (r *taskRowRenderer) createLayout() {
	tr := r.taskRow

	// Fix a label's width using a transparent rectangle underneath
	fixedWidth := func(w float32, obj fyne.CanvasObject) fyne.CanvasObject {
		spacer := canvas.NewRectangle(color.RGBA{0, 0, 0, 0})
		spacer.SetMinSize(fyne.NewSize(w, obj.MinSize().Height))
		return container.NewStack(spacer, obj)
	}

	// Status on the first row, speed then percent on the second
	rightSide := container.NewVBox(
		fixedWidth(StatusLabelWidth, tr.statusLabel),
		container.NewHBox(
			fixedWidth(SpeedLabelWidth, tr.speedEtaLabel),
			fixedWidth(PercentLabelWidth, tr.progressLabel),
		),
	)

	actionRow := container.NewHBox(
		tr.startPauseBtn,
		tr.revealBtn,
		tr.playBtn,
		tr.copyBtn,
	)

	// Action buttons pinned to the right edge, compact info next to them,
	// the title takes the remaining space with wrapping.
	rightCluster := container.NewBorder(nil, nil, nil, actionRow, rightSide)
	mainContent := container.NewBorder(nil, nil, nil, rightCluster, tr.titleLabel)

	r.layout = container.NewVBox(
		mainContent,
		widget.NewSeparator(),
	)
	r.layout.Resize(fyne.NewSize(RowMinWidth, RowDefaultH))
}
