package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// writeConfig writes a config document pointing the download directory into
// the test's temp space.
func writeConfig(t *testing.T, doc settingsFile) string {
	t.Helper()
	if doc.DownloadDir == "" {
		doc.DownloadDir = filepath.Join(t.TempDir(), "downloads")
	}
	raw, err := yaml.Marshal(&doc)
	if err != nil {
		t.Fatalf("Failed to marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), ConfigFileName)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.GetDefaultFormat() != DefaultFormat {
		t.Errorf("Expected default format %s, got %s", DefaultFormat, s.GetDefaultFormat())
	}
	if s.GetMaxParallelDownloads() != DefaultMaxParallel {
		t.Errorf("Expected default max parallel %d, got %d", DefaultMaxParallel, s.GetMaxParallelDownloads())
	}
	if s.GetTheme() != DefaultTheme {
		t.Errorf("Expected default theme %s, got %s", DefaultTheme, s.GetTheme())
	}

	// The defaults are persisted on first run.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected config file to be written on first run: %v", err)
	}
}

func TestLoad_ExistingFile(t *testing.T) {
	downloadDir := filepath.Join(t.TempDir(), "music")
	path := writeConfig(t, settingsFile{
		DownloadDir:    downloadDir,
		DefaultFormat:  "m4a",
		DefaultQuality: "256",
		Theme:          "light",
		MaxParallel:    5,
	})

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.GetDownloadDirectory() != downloadDir {
		t.Errorf("Expected download dir %s, got %s", downloadDir, s.GetDownloadDirectory())
	}
	if s.GetDefaultFormat() != "m4a" {
		t.Errorf("Expected format m4a, got %s", s.GetDefaultFormat())
	}
	if s.GetMaxParallelDownloads() != 5 {
		t.Errorf("Expected max parallel 5, got %d", s.GetMaxParallelDownloads())
	}
	if s.GetTheme() != "light" {
		t.Errorf("Expected theme light, got %s", s.GetTheme())
	}

	// The download directory is ensured at load time.
	if _, err := os.Stat(downloadDir); err != nil {
		t.Errorf("Expected download dir to be created: %v", err)
	}
}

func TestLoad_CorruptFileKeepsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(":\tnot yaml ["), 0644); err != nil {
		t.Fatalf("Failed to write corrupt config: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.GetDefaultFormat() != DefaultFormat {
		t.Errorf("Expected defaults after corrupt load, got format %s", s.GetDefaultFormat())
	}
}

func TestSettersPersist(t *testing.T) {
	path := writeConfig(t, settingsFile{})
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := s.SetDefaultFormat("opus"); err != nil {
		t.Fatalf("SetDefaultFormat failed: %v", err)
	}
	if err := s.SetDefaultQuality("128"); err != nil {
		t.Fatalf("SetDefaultQuality failed: %v", err)
	}
	if err := s.SetAutoRevealOnComplete(false); err != nil {
		t.Fatalf("SetAutoRevealOnComplete failed: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if reloaded.GetDefaultFormat() != "opus" {
		t.Errorf("Expected format opus after reload, got %s", reloaded.GetDefaultFormat())
	}
	if reloaded.GetDefaultQuality() != "128" {
		t.Errorf("Expected quality 128 after reload, got %s", reloaded.GetDefaultQuality())
	}
	if reloaded.GetAutoRevealOnComplete() {
		t.Error("Expected auto-reveal to be disabled after reload")
	}
}

func TestSetMaxParallelDownloads_Clamped(t *testing.T) {
	path := writeConfig(t, settingsFile{})
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if err := s.SetMaxParallelDownloads(0); err != nil {
		t.Fatalf("SetMaxParallelDownloads failed: %v", err)
	}
	if got := s.GetMaxParallelDownloads(); got != MinParallelDownloads {
		t.Errorf("Expected clamp to %d, got %d", MinParallelDownloads, got)
	}

	if err := s.SetMaxParallelDownloads(99); err != nil {
		t.Fatalf("SetMaxParallelDownloads failed: %v", err)
	}
	if got := s.GetMaxParallelDownloads(); got != MaxParallelDownloads {
		t.Errorf("Expected clamp to %d, got %d", MaxParallelDownloads, got)
	}
}

func TestCookieFileValid(t *testing.T) {
	path := writeConfig(t, settingsFile{})
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.CookieFileValid() {
		t.Error("Expected invalid with no cookie file set")
	}

	cookie := filepath.Join(t.TempDir(), "cookies.txt")
	if err := os.WriteFile(cookie, []byte("# Netscape HTTP Cookie File"), 0644); err != nil {
		t.Fatalf("Failed to write cookie file: %v", err)
	}
	if err := s.SetCookieFile(cookie); err != nil {
		t.Fatalf("SetCookieFile failed: %v", err)
	}
	if !s.CookieFileValid() {
		t.Error("Expected valid cookie file")
	}

	if err := s.SetCookieFile(filepath.Join(t.TempDir(), "missing.txt")); err != nil {
		t.Fatalf("SetCookieFile failed: %v", err)
	}
	if s.CookieFileValid() {
		t.Error("Expected invalid for missing cookie file")
	}
}

func TestFFmpegLocation(t *testing.T) {
	path := writeConfig(t, settingsFile{})
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := s.FFmpegLocation(); got != "" {
		t.Errorf("Expected empty location with nothing configured, got %s", got)
	}

	// A configured file is used directly.
	binary := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(binary, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("Failed to write fake binary: %v", err)
	}
	if err := s.SetFFmpegPath(binary); err != nil {
		t.Fatalf("SetFFmpegPath failed: %v", err)
	}
	if got := s.FFmpegLocation(); got != binary {
		t.Errorf("Expected %s, got %s", binary, got)
	}

	// A directory containing ffmpeg resolves to the directory.
	dir := filepath.Dir(binary)
	if err := s.SetFFmpegPath(dir); err != nil {
		t.Fatalf("SetFFmpegPath failed: %v", err)
	}
	if got := s.FFmpegLocation(); got != dir {
		t.Errorf("Expected %s, got %s", dir, got)
	}

	// A directory without an ffmpeg binary resolves to nothing.
	if err := s.SetFFmpegPath(t.TempDir()); err != nil {
		t.Fatalf("SetFFmpegPath failed: %v", err)
	}
	if got := s.FFmpegLocation(); got != "" {
		t.Errorf("Expected empty location for bare directory, got %s", got)
	}
}

func TestIsAudioFormatAndQualityOptions(t *testing.T) {
	if !IsAudioFormat("mp3") {
		t.Error("Expected mp3 to be an audio format")
	}
	if IsAudioFormat("mp4") {
		t.Error("Expected mp4 to not be an audio format")
	}

	audio := QualityOptionsFor("mp3")
	if len(audio) != len(AudioQualities) {
		t.Errorf("Expected audio qualities for mp3, got %v", audio)
	}
	video := QualityOptionsFor("mkv")
	if len(video) != len(VideoQualities) {
		t.Errorf("Expected video qualities for mkv, got %v", video)
	}
}

func TestLoad_MissingAutoRevealKeyKeepsDefault(t *testing.T) {
	// A hand-edited file without the auto_reveal key keeps the default true.
	doc := "download_dir: " + filepath.Join(t.TempDir(), "downloads") + "\n" +
		"default_format: mp3\n"
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !s.GetAutoRevealOnComplete() {
		t.Error("Expected auto-reveal default true when the key is absent")
	}
}

func TestLoad_ExplicitAutoRevealFalse(t *testing.T) {
	doc := "download_dir: " + filepath.Join(t.TempDir(), "downloads") + "\n" +
		"auto_reveal_on_complete: false\n"
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.GetAutoRevealOnComplete() {
		t.Error("Expected auto-reveal false when the key says so")
	}
}
