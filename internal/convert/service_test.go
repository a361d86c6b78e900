package convert

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sandsound/sandsound/internal/model"
)

func testService() *Service {
	return NewService("", log.New(io.Discard))
}

func TestNewService(t *testing.T) {
	service := testService()

	if len(service.tasks) != 0 {
		t.Errorf("Expected empty tasks map, got %d items", len(service.tasks))
	}
}

func TestGenerateOutputPath(t *testing.T) {
	tests := []struct {
		input    string
		format   string
		expected string
	}{
		{"/path/to/video.mp4", "mp3", "/path/to/video.mp3"},
		{"/path/to/audio.opus", "flac", "/path/to/audio.flac"},
		{"song.webm", "m4a", "song.m4a"},
		{"/no/ext/file", "mp4", "/no/ext/file.mp4"},
	}

	for _, test := range tests {
		result := generateOutputPath(test.input, test.format)
		if result != test.expected {
			t.Errorf("generateOutputPath(%s, %s) = %s, expected %s", test.input, test.format, result, test.expected)
		}
	}
}

func TestBuildFFmpegArgs_AudioTarget(t *testing.T) {
	service := testService()
	args := service.BuildFFmpegArgs("/input.mp4", "/output.mp3", "mp3")

	expectedArgs := []string{
		"-y",
		"-i", "/input.mp4",
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", "192k",
		"-progress", "pipe:2",
		"-nostats",
		"/output.mp3",
	}

	if len(args) != len(expectedArgs) {
		t.Fatalf("Expected %d args, got %d: %v", len(expectedArgs), len(args), args)
	}
	for i, expected := range expectedArgs {
		if args[i] != expected {
			t.Errorf("Arg %d: expected %s, got %s", i, expected, args[i])
		}
	}
}

func TestBuildFFmpegArgs_LosslessAudioSkipsBitrate(t *testing.T) {
	service := testService()
	args := service.BuildFFmpegArgs("/input.mp4", "/output.flac", "flac")

	for i, arg := range args {
		if arg == "-b:a" {
			t.Errorf("Expected no bitrate flag for flac, found at position %d", i)
		}
	}
}

func TestBuildFFmpegArgs_VideoTarget(t *testing.T) {
	service := testService()
	args := service.BuildFFmpegArgs("/input.webm", "/output.mp4", "mp4")

	expectedArgs := []string{
		"-y",
		"-i", "/input.webm",
		"-c:v", VideoCodec,
		"-preset", VideoPreset,
		"-crf", VideoCRF,
		"-c:a", AudioCodec,
		"-movflags", FastStartFlag,
		"-progress", "pipe:2",
		"-nostats",
		"/output.mp4",
	}

	if len(args) != len(expectedArgs) {
		t.Fatalf("Expected %d args, got %d: %v", len(expectedArgs), len(args), args)
	}
	for i, expected := range expectedArgs {
		if args[i] != expected {
			t.Errorf("Arg %d: expected %s, got %s", i, expected, args[i])
		}
	}
}

func TestBuildFFmpegArgs_NonMP4VideoSkipsFastStart(t *testing.T) {
	service := testService()
	args := service.BuildFFmpegArgs("/input.mp4", "/output.mkv", "mkv")

	for i, arg := range args {
		if arg == "-movflags" {
			t.Errorf("Expected no faststart flag for mkv, found at position %d", i)
		}
	}
}

func TestStartConversion_NonExistentFile(t *testing.T) {
	service := testService()

	_, err := service.StartConversion("/path/to/nonexistent/file.mp4", "mp3")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
	if !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("Expected 'does not exist' error, got: %v", err)
	}
}

func TestStartConversion_SameFormat(t *testing.T) {
	service := testService()

	input := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(input, []byte("data"), 0644); err != nil {
		t.Fatalf("Failed to write input file: %v", err)
	}

	_, err := service.StartConversion(input, "mp3")
	if err == nil {
		t.Error("Expected error converting a file into its own format")
	}
}

func TestStartConversion_EmptyFormat(t *testing.T) {
	service := testService()

	input := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(input, []byte("data"), 0644); err != nil {
		t.Fatalf("Failed to write input file: %v", err)
	}

	if _, err := service.StartConversion(input, ""); err == nil {
		t.Error("Expected error for empty target format")
	}
}

func TestStopConversion_NotFound(t *testing.T) {
	service := testService()

	if err := service.StopConversion("missing"); err == nil {
		t.Error("Expected error stopping unknown task")
	}
}

func TestStopConversion_NotActive(t *testing.T) {
	service := testService()

	service.tasks["t1"] = &model.ConversionTask{
		ID:         "t1",
		Status:     model.TaskStatusCompleted,
		FinishedAt: time.Now(),
	}

	if err := service.StopConversion("t1"); err == nil {
		t.Error("Expected error stopping a finished task")
	}
}

func TestBinaryResolution(t *testing.T) {
	service := testService()

	if got := service.binary(FFmpegCommand); got != FFmpegCommand {
		t.Errorf("Expected bare command for PATH lookup, got %s", got)
	}

	service.SetFFmpegDirectory("/opt/ffmpeg")
	if got := service.binary(FFprobeCommand); got != filepath.Join("/opt/ffmpeg", FFprobeCommand) {
		t.Errorf("Expected command joined to directory, got %s", got)
	}
}

func TestUpdateCallback(t *testing.T) {
	service := testService()

	var got *model.ConversionTask
	service.SetUpdateCallback(func(task *model.ConversionTask) {
		got = task
	})

	task := &model.ConversionTask{ID: "t1", Status: model.TaskStatusDownloading}
	service.notifyUpdate(task)

	if got != task {
		t.Error("Expected callback to receive the task")
	}
}

func TestBinary_FilePathResolvesToDirectory(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(ffmpeg, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("Failed to write fake binary: %v", err)
	}

	// Configuring the binary itself must not produce <binary>/ffmpeg.
	service := NewService(ffmpeg, log.New(io.Discard))
	if got := service.binary(FFmpegCommand); got != ffmpeg {
		t.Errorf("Expected %s, got %s", ffmpeg, got)
	}
	if got := service.binary(FFprobeCommand); got != filepath.Join(dir, FFprobeCommand) {
		t.Errorf("Expected ffprobe next to ffmpeg, got %s", got)
	}
}

func TestSetFFmpegDirectory_AcceptsBinaryPath(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(ffmpeg, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("Failed to write fake binary: %v", err)
	}

	service := testService()
	service.SetFFmpegDirectory(ffmpeg)
	if got := service.binary(FFmpegCommand); got != ffmpeg {
		t.Errorf("Expected %s, got %s", ffmpeg, got)
	}
}
