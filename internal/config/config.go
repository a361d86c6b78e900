// Package config manages persistent application settings stored in a single
// YAML file. Missing or unreadable files fall back to defaults; every setter
// writes the file back immediately.
package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/sandsound/sandsound/internal/platform"
)

// ConfigFileName is the settings file inside the application directory.
const ConfigFileName = "config.yaml"

// Default values
const (
	DefaultFormat      = "mp3"
	DefaultQuality     = "best"
	DefaultTheme       = "dark"
	DefaultMaxParallel = 3

	MinParallelDownloads = 1
	MaxParallelDownloads = 8
)

// Format and quality catalogs offered by the settings UI.
var (
	AudioFormats   = []string{"mp3", "m4a", "opus", "flac", "wav"}
	VideoFormats   = []string{"mp4", "webm", "mkv"}
	AudioQualities = []string{"128", "192", "256", "320", "best"}
	VideoQualities = []string{"480", "720", "1080", "1440", "2160", "4320", "best"}
)

// settingsFile is the on-disk document shape.
type settingsFile struct {
	DownloadDir      string `yaml:"download_dir"`
	CookieFile       string `yaml:"cookie_file"`
	FFmpegPath       string `yaml:"ffmpeg_path"`
	DefaultFormat    string `yaml:"default_format"`
	DefaultQuality   string `yaml:"default_quality"`
	Theme            string `yaml:"theme"`
	MaxParallel      int    `yaml:"max_parallel_downloads"`
	// Pointer so a file missing the key keeps the default instead of
	// reading as false.
	AutoRevealOnDone *bool `yaml:"auto_reveal_on_complete"`
}

// Store manages application configuration backed by a YAML file.
type Store struct {
	mu   sync.Mutex
	path string
	data settingsFile
}

func defaults() settingsFile {
	downloadDir, err := platform.GetHomeDownloadsDir()
	if err != nil {
		downloadDir = filepath.Join(os.TempDir(), "sandsound")
	}
	autoReveal := true
	return settingsFile{
		DownloadDir:      filepath.Join(downloadDir, "SandSound"),
		DefaultFormat:    DefaultFormat,
		DefaultQuality:   DefaultQuality,
		Theme:            DefaultTheme,
		MaxParallel:      DefaultMaxParallel,
		AutoRevealOnDone: &autoReveal,
	}
}

// Load reads the config file at path, falling back to defaults when the file
// is missing or corrupt. The download directory is created if needed.
func Load(path string) (*Store, error) {
	s := &Store{path: path, data: defaults()}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run: persist the defaults so the file exists for editing.
		if err := s.save(); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		var loaded settingsFile
		if err := yaml.Unmarshal(raw, &loaded); err == nil {
			s.merge(loaded)
		}
		// Unparseable file keeps the defaults (fail open).
	}

	if err := platform.CreateDirectoryIfNotExists(s.data.DownloadDir); err != nil {
		return nil, fmt.Errorf("ensure download dir: %w", err)
	}
	return s, nil
}

// merge overlays loaded values onto defaults, keeping defaults for empty keys.
func (s *Store) merge(loaded settingsFile) {
	if loaded.DownloadDir != "" {
		s.data.DownloadDir = loaded.DownloadDir
	}
	s.data.CookieFile = loaded.CookieFile
	s.data.FFmpegPath = loaded.FFmpegPath
	if loaded.DefaultFormat != "" {
		s.data.DefaultFormat = loaded.DefaultFormat
	}
	if loaded.DefaultQuality != "" {
		s.data.DefaultQuality = loaded.DefaultQuality
	}
	if loaded.Theme != "" {
		s.data.Theme = loaded.Theme
	}
	if loaded.MaxParallel > 0 {
		s.data.MaxParallel = clampParallel(loaded.MaxParallel)
	}
	if loaded.AutoRevealOnDone != nil {
		s.data.AutoRevealOnDone = loaded.AutoRevealOnDone
	}
}

// save writes the settings atomically: temp file in the same directory, then
// rename over the target.
func (s *Store) save() error {
	raw, err := yaml.Marshal(&s.data)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.yaml")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write config: %w", err)
	}
	return os.Rename(tmp.Name(), s.path)
}

// Path returns the config file path.
func (s *Store) Path() string { return s.path }

// GetDownloadDirectory returns the configured download directory
func (s *Store) GetDownloadDirectory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DownloadDir
}

// SetDownloadDirectory sets the download directory
func (s *Store) SetDownloadDirectory(dir string) error {
	if err := platform.CreateDirectoryIfNotExists(dir); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.DownloadDir = dir
	return s.save()
}

// GetCookieFile returns the configured Netscape cookie file path
func (s *Store) GetCookieFile() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.CookieFile
}

// SetCookieFile sets the cookie file path
func (s *Store) SetCookieFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.CookieFile = path
	return s.save()
}

// CookieFileValid reports whether the configured cookie file exists and is a
// regular file.
func (s *Store) CookieFileValid() bool {
	return ValidCookieFile(s.GetCookieFile())
}

// ValidCookieFile reports whether path names an existing regular file.
func ValidCookieFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// GetFFmpegPath returns the configured FFmpeg path, empty meaning "use PATH"
func (s *Store) GetFFmpegPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.FFmpegPath
}

// SetFFmpegPath sets the FFmpeg executable or directory path
func (s *Store) SetFFmpegPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.FFmpegPath = path
	return s.save()
}

// FFmpegLocation resolves the configured FFmpeg location to pass to
// external tools.
func (s *Store) FFmpegLocation() string {
	return ResolveFFmpegLocation(s.GetFFmpegPath())
}

// ResolveFFmpegLocation resolves an FFmpeg path for external tools. A file
// is used as-is; a directory is used when it contains an ffmpeg binary;
// otherwise empty (resolve via PATH).
func ResolveFFmpegLocation(path string) string {
	if path == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	if info.Mode().IsRegular() {
		return path
	}
	if info.IsDir() {
		for _, name := range []string{"ffmpeg", "ffmpeg.exe"} {
			candidate := filepath.Join(path, name)
			if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() {
				return path
			}
		}
	}
	return ""
}

// FFmpegAvailable reports whether FFmpeg can be invoked, either via the
// configured location or the system PATH.
func (s *Store) FFmpegAvailable() bool {
	return FFmpegUsable(s.GetFFmpegPath())
}

// FFmpegUsable reports whether FFmpeg can be invoked given a configured
// path, falling back to the system PATH.
func FFmpegUsable(path string) bool {
	if ResolveFFmpegLocation(path) != "" {
		return true
	}
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// GetDefaultFormat returns the default download format
func (s *Store) GetDefaultFormat() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DefaultFormat
}

// SetDefaultFormat sets the default download format
func (s *Store) SetDefaultFormat(format string) error {
	if format == "" {
		format = DefaultFormat
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.DefaultFormat = format
	return s.save()
}

// GetDefaultQuality returns the default quality setting
func (s *Store) GetDefaultQuality() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.DefaultQuality
}

// SetDefaultQuality sets the default quality setting
func (s *Store) SetDefaultQuality(quality string) error {
	if quality == "" {
		quality = DefaultQuality
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.DefaultQuality = quality
	return s.save()
}

// GetTheme returns the UI theme name ("dark" or "light")
func (s *Store) GetTheme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Theme
}

// SetTheme sets the UI theme name
func (s *Store) SetTheme(theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Theme = theme
	return s.save()
}

// GetMaxParallelDownloads returns the maximum number of parallel downloads
func (s *Store) GetMaxParallelDownloads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.MaxParallel
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads,
// clamped to the supported range.
func (s *Store) SetMaxParallelDownloads(count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.MaxParallel = clampParallel(count)
	return s.save()
}

// GetAutoRevealOnComplete returns whether to auto-reveal completed downloads
func (s *Store) GetAutoRevealOnComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.AutoRevealOnDone == nil {
		return true
	}
	return *s.data.AutoRevealOnDone
}

// SetAutoRevealOnComplete sets whether to auto-reveal completed downloads
func (s *Store) SetAutoRevealOnComplete(autoReveal bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.AutoRevealOnDone = &autoReveal
	return s.save()
}

// IsAudioFormat reports whether format is one of the audio catalogs entries.
func IsAudioFormat(format string) bool {
	for _, f := range AudioFormats {
		if f == format {
			return true
		}
	}
	return false
}

// QualityOptionsFor returns the quality catalog matching the format kind.
func QualityOptionsFor(format string) []string {
	if IsAudioFormat(format) {
		return AudioQualities
	}
	return VideoQualities
}

func clampParallel(count int) int {
	if count < MinParallelDownloads {
		return MinParallelDownloads
	}
	if count > MaxParallelDownloads {
		return MaxParallelDownloads
	}
	return count
}
