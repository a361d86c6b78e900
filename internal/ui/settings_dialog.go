package ui

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/sandsound/sandsound/internal/config"
)

// SettingsDialog edits the persistent application settings
type SettingsDialog struct {
	store  *config.Store
	window fyne.Window
	dialog *dialog.ConfirmDialog

	// UI components
	downloadDirEntry *widget.Entry
	cookieFileEntry  *widget.Entry
	cookieHintLabel  *widget.Label
	ffmpegPathEntry  *widget.Entry
	ffmpegHintLabel  *widget.Label
	formatSelect     *widget.Select
	qualitySelect    *widget.Select
	maxParallelEntry *widget.Entry
	themeSelect      *widget.Select
	autoRevealCheck  *widget.Check

	onSaved func()
}

// ShowSettingsDialog builds and shows the settings dialog. onSaved runs after
// a confirmed save.
func ShowSettingsDialog(window fyne.Window, store *config.Store, onSaved func()) {
	sd := &SettingsDialog{
		store:   store,
		window:  window,
		onSaved: onSaved,
	}
	sd.createUI()
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	// Download directory selection
	sd.downloadDirEntry = widget.NewEntry()
	sd.downloadDirEntry.SetPlaceHolder("Download directory path")
	browseDirBtn := widget.NewButton("Browse", sd.onBrowseDirectory)
	downloadDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.downloadDirEntry)

	// Cookie file with validity hint
	sd.cookieFileEntry = widget.NewEntry()
	sd.cookieFileEntry.SetPlaceHolder("Netscape cookies.txt (optional)")
	sd.cookieFileEntry.OnChanged = func(string) { sd.refreshHints() }
	browseCookieBtn := widget.NewButton("Browse", sd.onBrowseCookieFile)
	cookieRow := container.NewBorder(nil, nil, nil, browseCookieBtn, sd.cookieFileEntry)
	sd.cookieHintLabel = widget.NewLabel("")

	// FFmpeg path with availability hint
	sd.ffmpegPathEntry = widget.NewEntry()
	sd.ffmpegPathEntry.SetPlaceHolder("FFmpeg binary or directory (empty = use PATH)")
	sd.ffmpegPathEntry.OnChanged = func(string) { sd.refreshHints() }
	browseFFmpegBtn := widget.NewButton("Browse", sd.onBrowseFFmpeg)
	ffmpegRow := container.NewBorder(nil, nil, nil, browseFFmpegBtn, sd.ffmpegPathEntry)
	sd.ffmpegHintLabel = widget.NewLabel("")

	// Default format; quality options follow the format kind
	formats := append(append([]string{}, config.AudioFormats...), config.VideoFormats...)
	sd.formatSelect = widget.NewSelect(formats, func(format string) {
		sd.qualitySelect.Options = config.QualityOptionsFor(format)
		sd.qualitySelect.SetSelected(config.DefaultQuality)
	})
	sd.qualitySelect = widget.NewSelect(config.AudioQualities, nil)

	// Max parallel downloads
	sd.maxParallelEntry = widget.NewEntry()
	sd.maxParallelEntry.SetPlaceHolder("1-8")

	// Theme
	sd.themeSelect = widget.NewSelect([]string{"dark", "light"}, nil)

	// Auto-reveal completed downloads
	sd.autoRevealCheck = widget.NewCheck("Reveal file in manager when a download completes", nil)

	form := container.NewVBox(
		widget.NewLabel("Download Settings"),
		widget.NewSeparator(),

		widget.NewLabel("Download Directory:"),
		downloadDirRow,

		widget.NewLabel("Cookie File:"),
		cookieRow,
		sd.cookieHintLabel,

		widget.NewLabel("FFmpeg Location:"),
		ffmpegRow,
		sd.ffmpegHintLabel,

		widget.NewLabel("Default Format:"),
		sd.formatSelect,

		widget.NewLabel("Default Quality:"),
		sd.qualitySelect,

		widget.NewLabel("Max Parallel Downloads:"),
		sd.maxParallelEntry,

		widget.NewSeparator(),
		widget.NewLabel("Interface Settings"),
		widget.NewSeparator(),

		widget.NewLabel("Theme (applies on restart):"),
		sd.themeSelect,

		sd.autoRevealCheck,
	)

	sd.dialog = dialog.NewCustomConfirm(
		"Settings",
		"Save",
		"Cancel",
		container.NewScroll(form),
		sd.onSave,
		sd.window,
	)

	sd.dialog.Resize(fyne.NewSize(560, 540))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.downloadDirEntry.SetText(sd.store.GetDownloadDirectory())
	sd.cookieFileEntry.SetText(sd.store.GetCookieFile())
	sd.ffmpegPathEntry.SetText(sd.store.GetFFmpegPath())

	format := sd.store.GetDefaultFormat()
	sd.formatSelect.Selected = format
	sd.qualitySelect.Options = config.QualityOptionsFor(format)
	sd.qualitySelect.SetSelected(sd.store.GetDefaultQuality())

	sd.maxParallelEntry.SetText(strconv.Itoa(sd.store.GetMaxParallelDownloads()))
	sd.themeSelect.SetSelected(sd.store.GetTheme())
	sd.autoRevealCheck.SetChecked(sd.store.GetAutoRevealOnComplete())

	sd.refreshHints()
}

// refreshHints updates the cookie and ffmpeg validity labels from the entry
// text, so hints track what the user is typing rather than the saved values
func (sd *SettingsDialog) refreshHints() {
	sd.cookieHintLabel.SetText(cookieHint(sd.cookieFileEntry.Text))
	sd.ffmpegHintLabel.SetText(ffmpegHint(sd.ffmpegPathEntry.Text))
}

func cookieHint(path string) string {
	switch {
	case path == "":
		return "No cookie file set"
	case config.ValidCookieFile(path):
		return "Cookie file found"
	default:
		return "Cookie file not found"
	}
}

func ffmpegHint(path string) string {
	if config.FFmpegUsable(path) {
		return "FFmpeg available"
	}
	return "FFmpeg not found; downloads needing conversion will fail"
}

// onBrowseDirectory handles download directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.downloadDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onBrowseCookieFile handles cookie file browsing
func (sd *SettingsDialog) onBrowseCookieFile() {
	dialog.ShowFileOpen(func(uri fyne.URIReadCloser, err error) {
		if err != nil || uri == nil {
			return
		}
		defer uri.Close()
		sd.cookieFileEntry.SetText(uri.URI().Path())
	}, sd.window)
}

// onBrowseFFmpeg handles ffmpeg location browsing
func (sd *SettingsDialog) onBrowseFFmpeg() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.ffmpegPathEntry.SetText(uri.Path())
	}, sd.window)
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}

	if dir := sd.downloadDirEntry.Text; dir != "" {
		if err := sd.store.SetDownloadDirectory(dir); err != nil {
			dialog.ShowError(err, sd.window)
			return
		}
	}

	sd.store.SetCookieFile(sd.cookieFileEntry.Text)
	sd.store.SetFFmpegPath(sd.ffmpegPathEntry.Text)

	if sd.formatSelect.Selected != "" {
		sd.store.SetDefaultFormat(sd.formatSelect.Selected)
	}
	if sd.qualitySelect.Selected != "" {
		sd.store.SetDefaultQuality(sd.qualitySelect.Selected)
	}

	if text := sd.maxParallelEntry.Text; text != "" {
		if maxParallel, err := strconv.Atoi(text); err == nil {
			sd.store.SetMaxParallelDownloads(maxParallel)
		}
	}

	if sd.themeSelect.Selected != "" {
		sd.store.SetTheme(sd.themeSelect.Selected)
	}
	sd.store.SetAutoRevealOnComplete(sd.autoRevealCheck.Checked)

	if sd.onSaved != nil {
		sd.onSaved()
	}
}
