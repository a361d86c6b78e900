package main

import (
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/sandsound/sandsound/internal/config"
	"github.com/sandsound/sandsound/internal/convert"
	"github.com/sandsound/sandsound/internal/download"
	"github.com/sandsound/sandsound/internal/history"
	"github.com/sandsound/sandsound/internal/logging"
	"github.com/sandsound/sandsound/internal/platform"
	"github.com/sandsound/sandsound/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID = "com.sandsound.app"

	WindowWidth  = 860
	WindowHeight = 620
)

// HistoryFileName is the download history file inside the application directory
const HistoryFileName = "history.json"

func main() {
	logger := logging.New(os.Stderr)
	logger.Info("starting", "version", version)

	configDir, err := platform.ConfigDir()
	if err != nil {
		logger.Fatal("resolve config dir", "err", err)
	}

	cfg, err := config.Load(filepath.Join(configDir, config.ConfigFileName))
	if err != nil {
		logger.Fatal("load config", "err", err)
	}

	hist := history.Open(filepath.Join(configDir, HistoryFileName), logging.Named(logger, "history"))

	downloadSvc := download.NewService(
		cfg.GetDownloadDirectory(),
		cfg.GetMaxParallelDownloads(),
		logging.Named(logger, "download"),
		hist,
	)
	downloadSvc.SetCookieFile(cfg.GetCookieFile())
	downloadSvc.SetFFmpegLocation(cfg.FFmpegLocation())

	convertSvc := convert.NewService(cfg.FFmpegLocation(), logging.Named(logger, "convert"))

	fyneApp := app.NewWithID(AppID)
	fyneApp.Settings().SetTheme(ui.NewCompactTheme(cfg.GetTheme()))

	window := fyneApp.NewWindow(fmt.Sprintf("%s v%s", ui.AppTitle, version))
	window.Resize(fyne.NewSize(WindowWidth, WindowHeight))

	ui.NewRootUI(window, downloadSvc, convertSvc, cfg, hist, logging.Named(logger, "ui"))

	window.ShowAndRun()
}
