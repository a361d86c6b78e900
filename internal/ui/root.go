package ui

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/charmbracelet/log"

	"github.com/sandsound/sandsound/internal/config"
	"github.com/sandsound/sandsound/internal/convert"
	"github.com/sandsound/sandsound/internal/download"
	"github.com/sandsound/sandsound/internal/history"
	"github.com/sandsound/sandsound/internal/model"
	"github.com/sandsound/sandsound/internal/platform"
)

// AppTitle is the main window title
const AppTitle = "SandSound"

// RootUI is the main window: URL entry, format selection, the unified
// download list, and the settings dialog.
type RootUI struct {
	window fyne.Window
	logger *log.Logger

	urlEntry      *widget.Entry
	downloadBtn   *widget.Button
	formatSelect  *widget.Select
	qualitySelect *widget.Select
	skipCheck     *widget.Check

	playlistGroup *PlaylistGroup

	downloadSvc download.Downloader
	convertSvc  convert.Converter
	cfg         *config.Store
	hist        *history.Store
	fetcher     *platform.SnapshotFetcher

	// UI update debouncing for progress events
	lastUIUpdate  time.Time
	uiUpdateMutex sync.Mutex

	// Completion toasts fire once per task
	notifiedDone map[string]bool

	// Notification panel under the URL row
	notificationContainer *fyne.Container
	notificationLabel     *widget.Label
	notificationSpinner   *widget.ProgressBarInfinite
}

// NewRootUI creates and initializes the main UI
func NewRootUI(
	window fyne.Window,
	downloadSvc download.Downloader,
	convertSvc convert.Converter,
	cfg *config.Store,
	hist *history.Store,
	logger *log.Logger,
) *RootUI {
	ui := &RootUI{
		window:       window,
		logger:       logger,
		downloadSvc:  downloadSvc,
		convertSvc:   convertSvc,
		cfg:          cfg,
		hist:         hist,
		fetcher:      platform.NewSnapshotFetcher(),
		notifiedDone: make(map[string]bool),
	}

	window.SetTitle(AppTitle)
	ui.downloadSvc.SetUpdateCallback(ui.onTaskUpdate)
	ui.convertSvc.SetUpdateCallback(ui.onConversionUpdate)

	ui.setupUI()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.urlEntry = widget.NewEntry()
	ui.urlEntry.SetPlaceHolder("Paste a video or playlist URL")
	ui.urlEntry.Validator = ui.validateURL
	ui.urlEntry.OnSubmitted = func(string) {
		ui.onDownloadClick()
	}

	ui.downloadBtn = widget.NewButton("Download", ui.onDownloadClick)
	ui.downloadBtn.Importance = widget.HighImportance

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	// Format/quality selectors seeded from the configured defaults
	formats := append(append([]string{}, config.AudioFormats...), config.VideoFormats...)
	ui.qualitySelect = widget.NewSelect(config.QualityOptionsFor(ui.cfg.GetDefaultFormat()), nil)
	ui.qualitySelect.SetSelected(ui.cfg.GetDefaultQuality())
	ui.formatSelect = widget.NewSelect(formats, func(format string) {
		ui.qualitySelect.Options = config.QualityOptionsFor(format)
		ui.qualitySelect.SetSelected(config.DefaultQuality)
	})
	ui.formatSelect.Selected = ui.cfg.GetDefaultFormat()

	// Skip toggle: unchecking forces a full playlist re-download
	ui.skipCheck = widget.NewCheck("Skip downloaded", nil)
	ui.skipCheck.SetChecked(true)

	urlRow := container.NewBorder(nil, nil, container.NewHBox(settingsBtn), ui.downloadBtn, ui.urlEntry)
	optionsRow := container.NewHBox(
		widget.NewLabel("Format:"), ui.formatSelect,
		widget.NewLabel("Quality:"), ui.qualitySelect,
		ui.skipCheck,
	)

	// Notification panel under the URL input (hidden by default)
	ui.notificationLabel = widget.NewLabel("")
	ui.notificationLabel.Alignment = fyne.TextAlignLeading
	ui.notificationSpinner = widget.NewProgressBarInfinite()
	ui.notificationSpinner.Hide()
	ui.notificationContainer = container.NewHBox(ui.notificationSpinner, container.NewPadded(ui.notificationLabel))
	ui.notificationContainer.Hide()

	topPanel := container.NewVBox(urlRow, optionsRow, ui.notificationContainer)

	ui.playlistGroup = NewPlaylistGroup(ui.window)
	ui.playlistGroup.SetTaskRowCallbacks(
		ui.onStartPauseTask,
		ui.onRevealFile,
		ui.onOpenFile,
		ui.onCopyPath,
	)

	content := container.NewBorder(
		topPanel, // top
		nil,      // bottom
		nil,      // left
		nil,      // right
		ui.playlistGroup.Container(),
	)

	ui.window.SetContent(content)
}

// validateURL validates the entered URL
func (ui *RootUI) validateURL(input string) error {
	if strings.TrimSpace(input) == "" {
		return nil // Empty is allowed
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return err
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}

	return nil
}

// selectedFormat returns the format chosen in the selector, falling back to
// the configured default.
func (ui *RootUI) selectedFormat() string {
	if ui.formatSelect.Selected != "" {
		return ui.formatSelect.Selected
	}
	return ui.cfg.GetDefaultFormat()
}

func (ui *RootUI) selectedQuality() string {
	if ui.qualitySelect.Selected != "" {
		return ui.qualitySelect.Selected
	}
	return ui.cfg.GetDefaultQuality()
}

// onDownloadClick handles the download button click
func (ui *RootUI) onDownloadClick() {
	urlText := cleanDisplayText(ui.urlEntry.Text)
	if urlText == "" {
		ui.showNotification("Enter a video or playlist URL", false)
		return
	}
	if err := ui.validateURL(urlText); err != nil {
		ui.showNotification("Invalid URL: "+err.Error(), false)
		return
	}

	if platform.IsPlaylistURL(urlText) {
		ui.handlePlaylistURL(urlText)
		return
	}

	task, err := ui.downloadSvc.AddTask(urlText, ui.selectedFormat(), ui.selectedQuality())
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			ui.showNotification("Already in the queue", false)
		} else {
			ui.showNotification("Error: "+err.Error(), false)
		}
		return
	}

	ui.logger.Info("queued single download", "task", task.ID, "url", urlText)
	ui.playlistGroup.AddIndividualTask(task)
	ui.urlEntry.SetText("")
	ui.hideNotification()
}

// handlePlaylistURL fetches the playlist listing in the background, diffs it
// against download history, and queues only the new items. A failed fetch
// queues nothing.
func (ui *RootUI) handlePlaylistURL(playlistURL string) {
	ui.showNotification("Fetching playlist listing...", true)
	format := ui.selectedFormat()
	quality := ui.selectedQuality()
	skipDownloaded := ui.skipCheck.Checked

	go func() {
		snapshot, err := ui.fetcher.FetchPlaylist(context.Background(), playlistURL)
		if err != nil {
			ui.logger.Error("playlist fetch failed", "url", playlistURL, "err", err)
			fyne.Do(func() {
				ui.showNotification("Playlist fetch failed: "+err.Error(), false)
			})
			return
		}

		downloaded := map[string]struct{}{}
		if skipDownloaded {
			downloaded = ui.hist.DownloadedIDs(snapshot.PlaylistID)
		}
		newItems := history.Reconcile(snapshot.Items, downloaded)

		playlist := buildPlaylist(snapshot, downloaded)
		if err := ui.hist.SetPlaylistInfo(snapshot.PlaylistID, snapshot.URL, snapshot.Title); err != nil {
			ui.logger.Warn("record playlist info", "playlist", snapshot.PlaylistID, "err", err)
		}

		ui.logger.Info("playlist reconciled",
			"playlist", snapshot.PlaylistID,
			"new", len(newItems),
			"total", len(snapshot.Items))

		fyne.Do(func() {
			ui.playlistGroup.AddPlaylist(playlist)
			ui.urlEntry.SetText("")
			ui.showNotification(fmt.Sprintf("%s: %d new of %d total", playlist.Title, len(newItems), len(snapshot.Items)), false)

			if len(newItems) == 0 {
				return
			}
			if err := ui.downloadSvc.AddPlaylist(playlist); err != nil {
				ui.showNotification("Error: "+err.Error(), false)
				return
			}
			if err := ui.downloadSvc.DownloadPlaylist(playlist, format, quality); err != nil {
				ui.showNotification("Error: "+err.Error(), false)
			}
		})
	}()
}

// buildPlaylist turns a remote snapshot into the playlist model, marking
// items present in downloaded as skipped.
func buildPlaylist(snapshot *model.Snapshot, downloaded map[string]struct{}) *model.Playlist {
	playlist := model.NewPlaylist(snapshot.URL)
	playlist.ID = snapshot.PlaylistID
	playlist.Title = snapshot.Title

	seen := make(map[string]struct{}, len(snapshot.Items))
	for _, item := range snapshot.Items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}

		video := &model.PlaylistVideo{
			ID:        item.ID,
			Title:     item.Title,
			URL:       platform.VideoURL(item.ID),
			Status:    model.VideoStatusPending,
			ETASec:    -1,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if _, ok := downloaded[item.ID]; ok {
			video.Status = model.VideoStatusSkipped
			video.Downloaded = true
		}
		playlist.AddVideo(video)
	}

	playlist.UpdateStatus(model.PlaylistStatusReady)
	return playlist
}

// showNotification displays a message in the panel under the URL input.
// When spinning is true a spinner indicates background activity.
func (ui *RootUI) showNotification(message string, spinning bool) {
	fyne.Do(func() {
		ui.notificationLabel.SetText(message)
		if spinning {
			ui.notificationSpinner.Show()
		} else {
			ui.notificationSpinner.Hide()
		}
		ui.notificationContainer.Show()
		ui.notificationContainer.Refresh()
	})
}

// hideNotification hides the notification panel
func (ui *RootUI) hideNotification() {
	fyne.Do(func() {
		ui.notificationSpinner.Hide()
		ui.notificationContainer.Hide()
	})
}

// onShowSettings shows the settings dialog and pushes saved values into the
// running services.
func (ui *RootUI) onShowSettings() {
	ShowSettingsDialog(ui.window, ui.cfg, func() {
		ui.downloadSvc.SetDownloadDirectory(ui.cfg.GetDownloadDirectory())
		ui.downloadSvc.SetCookieFile(ui.cfg.GetCookieFile())
		ui.downloadSvc.SetFFmpegLocation(ui.cfg.FFmpegLocation())
		ui.downloadSvc.SetMaxParallelDownloads(ui.cfg.GetMaxParallelDownloads())
		ui.convertSvc.SetFFmpegDirectory(ui.cfg.FFmpegLocation())
		ui.showNotification("Settings saved", false)
	})
}

// onStartPauseTask handles start/pause button clicks from rows. Playlist
// rows pass the remote video ID.
func (ui *RootUI) onStartPauseTask(taskID string) {
	task, exists := ui.downloadSvc.GetTask(taskID)
	if !exists {
		if byVideo, ok := ui.downloadSvc.GetTaskByVideoID(taskID); ok {
			task = byVideo
			taskID = byVideo.ID
		} else {
			ui.showNotification("Task not found", false)
			return
		}
	}

	var err error
	switch task.Status {
	case model.TaskStatusPending, model.TaskStatusError, model.TaskStatusStopped:
		err = ui.downloadSvc.RestartTask(taskID)
	case model.TaskStatusPaused:
		err = ui.downloadSvc.ResumeTask(taskID)
	case model.TaskStatusDownloading, model.TaskStatusStarting:
		err = ui.downloadSvc.PauseTask(taskID)
	default:
		return
	}
	if err != nil {
		ui.logger.Warn("start/pause task", "task", taskID, "err", err)
		ui.showNotification("Error: "+err.Error(), false)
	}
}

// onRevealFile reveals a file in the system file manager
func (ui *RootUI) onRevealFile(filePath string) {
	if err := platform.OpenFileInManager(filePath); err != nil {
		ui.logger.Warn("reveal file", "path", filePath, "err", err)
		ui.showNotification("Could not reveal file: "+err.Error(), false)
	}
}

// onOpenFile opens a downloaded file with the default application
func (ui *RootUI) onOpenFile(filePath string) {
	if err := platform.OpenFileWithDefaultApp(filePath); err != nil {
		ui.logger.Warn("open file", "path", filePath, "err", err)
		ui.showNotification("Could not open file: "+err.Error(), false)
	}
}

// onCopyPath copies a file path to the clipboard
func (ui *RootUI) onCopyPath(filePath string) {
	fyne.CurrentApp().Clipboard().SetContent(filePath)
	ui.showNotification("Path copied to clipboard", false)
}

// onTaskUpdate handles task updates from the download service. Progress
// events are debounced; state transitions always refresh.
func (ui *RootUI) onTaskUpdate(task *model.DownloadTask) {
	justCompleted := false
	if task.Status == model.TaskStatusCompleted {
		ui.uiUpdateMutex.Lock()
		if !ui.notifiedDone[task.ID] {
			ui.notifiedDone[task.ID] = true
			justCompleted = true
		}
		ui.uiUpdateMutex.Unlock()
	}

	if !justCompleted && !task.Status.IsFinished() {
		ui.uiUpdateMutex.Lock()
		now := time.Now()
		tooSoon := now.Sub(ui.lastUIUpdate) < UIUpdateDebounce
		if !tooSoon {
			ui.lastUIUpdate = now
		}
		ui.uiUpdateMutex.Unlock()
		if tooSoon {
			return
		}
	}

	fyne.Do(func() {
		ui.playlistGroup.Refresh()
	})

	if justCompleted {
		ui.logger.Info("download completed", "task", task.ID, "output", task.OutputPath)
		ui.sendCompletionNotification(task)

		if ui.cfg.GetAutoRevealOnComplete() && task.OutputPath != "" {
			ui.onRevealFile(task.OutputPath)
		}
	}
}

// onConversionUpdate reflects transcode progress in the notification panel
func (ui *RootUI) onConversionUpdate(task *model.ConversionTask) {
	switch task.Status {
	case model.TaskStatusCompleted:
		ui.showNotification("Converted to "+task.TargetFormat+": "+task.OutputPath, false)
	case model.TaskStatusError:
		ui.showNotification("Conversion failed: "+task.LastError, false)
	case model.TaskStatusDownloading:
		ui.showNotification(fmt.Sprintf("Converting to %s... %d%%", task.TargetFormat, task.Percent), true)
	}
}

// sendCompletionNotification sends a system notification and an in-app toast
func (ui *RootUI) sendCompletionNotification(task *model.DownloadTask) {
	fyne.CurrentApp().SendNotification(&fyne.Notification{
		Title:   "Download completed",
		Content: task.GetDisplayTitle(),
	})

	fyne.Do(func() {
		ui.showToastNotification(task)
	})
}

// showToastNotification shows an in-app toast with file actions
func (ui *RootUI) showToastNotification(task *model.DownloadTask) {
	titleLabel := widget.NewLabel("Download completed")
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}

	messageLabel := widget.NewLabel(task.GetDisplayTitle())
	messageLabel.Truncation = fyne.TextTruncateEllipsis

	revealBtn := widget.NewButton("Reveal", func() {
		if task.OutputPath != "" {
			ui.onRevealFile(task.OutputPath)
		}
	})
	revealBtn.Importance = widget.HighImportance

	openBtn := widget.NewButton("Open", func() {
		if task.OutputPath != "" {
			ui.onOpenFile(task.OutputPath)
		}
	})

	convertBtn := widget.NewButton("Convert", func() {
		if task.OutputPath != "" {
			ui.showConvertDialog(task.OutputPath)
		}
	})

	var toastPopup *widget.PopUp
	closeBtn := widget.NewButton(IconClose, func() {
		if toastPopup != nil {
			toastPopup.Hide()
		}
	})
	closeBtn.Importance = widget.LowImportance

	header := container.NewBorder(nil, nil, titleLabel, closeBtn)
	actions := container.NewHBox(revealBtn, openBtn, convertBtn)
	content := container.NewVBox(header, messageLabel, actions)

	toastPopup = widget.NewPopUp(content, ui.window.Canvas())

	// Position in top-right corner
	canvasSize := ui.window.Canvas().Size()
	toastSize := fyne.NewSize(ToastWidth, ToastHeight)
	toastPopup.Resize(toastSize)
	toastPopup.Move(fyne.NewPos(canvasSize.Width-toastSize.Width-ToastMargin, ToastMargin))
	toastPopup.Show()

	go func() {
		time.Sleep(ToastAutoHide)
		fyne.Do(func() {
			toastPopup.Hide()
		})
	}()
}

// showConvertDialog lets the user pick a target format for a finished file
func (ui *RootUI) showConvertDialog(inputPath string) {
	formats := append(append([]string{}, config.AudioFormats...), config.VideoFormats...)
	formatSelect := widget.NewSelect(formats, nil)
	formatSelect.SetSelected(config.DefaultFormat)

	dialog.ShowCustomConfirm("Convert file", "Convert", "Cancel", formatSelect, func(confirmed bool) {
		if !confirmed || formatSelect.Selected == "" {
			return
		}
		if _, err := ui.convertSvc.StartConversion(inputPath, formatSelect.Selected); err != nil {
			ui.showNotification("Conversion failed to start: "+err.Error(), false)
		}
	}, ui.window)
}
