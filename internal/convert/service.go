// Package convert runs FFmpeg transcodes of downloaded files into a
// different audio or video container.
package convert

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sandsound/sandsound/internal/model"
)

// FFmpeg constants for transcode settings
const (
	// Video codec settings
	VideoCodec  = "libx264"
	VideoPreset = "medium"
	VideoCRF    = "23"

	// Audio codec settings for video containers
	AudioCodec = "aac"

	// Container flags
	FastStartFlag = "+faststart"

	// Executable and I/O constants
	FFmpegCommand       = "ffmpeg"
	FFprobeCommand      = "ffprobe"
	FFprobeLogLevel     = "error"
	FFprobeShowEntries  = "format=duration"
	FFprobeOutputFormat = "csv=p=0"
	ProgressPipeTarget  = "pipe:2"
	ProgressTimePrefix  = "out_time_us="
	TaskIDPrefix        = "convert-"
)

// audioCodecs maps audio target formats to their ffmpeg codec and bitrate.
// Targets not listed here are treated as video containers.
var audioCodecs = map[string]struct {
	codec   string
	bitrate string
}{
	"mp3":  {"libmp3lame", "192k"},
	"m4a":  {"aac", "192k"},
	"opus": {"libopus", "128k"},
	"flac": {"flac", ""},
	"wav":  {"pcm_s16le", ""},
}

// Service handles FFmpeg transcode operations
type Service struct {
	tasks      map[string]*model.ConversionTask
	tasksMutex sync.RWMutex
	ffmpegDir  string // directory holding ffmpeg/ffprobe, empty for PATH lookup
	logger     *log.Logger
	onUpdate   func(*model.ConversionTask) // callback for UI updates
}

// NewService creates a new transcode service. ffmpegDir may be empty to use
// binaries from PATH; a path to the ffmpeg binary itself is accepted and
// resolved to its directory.
func NewService(ffmpegDir string, logger *log.Logger) *Service {
	return &Service{
		tasks:     make(map[string]*model.ConversionTask),
		ffmpegDir: normalizeFFmpegDir(ffmpegDir),
		logger:    logger,
	}
}

// SetUpdateCallback sets the callback function for task updates
func (s *Service) SetUpdateCallback(callback func(*model.ConversionTask)) {
	s.onUpdate = callback
}

// SetFFmpegDirectory points the service at a directory holding the ffmpeg
// and ffprobe binaries. A path to the ffmpeg binary itself is accepted and
// resolved to its directory.
func (s *Service) SetFFmpegDirectory(dir string) {
	s.tasksMutex.Lock()
	s.ffmpegDir = normalizeFFmpegDir(dir)
	s.tasksMutex.Unlock()
}

// normalizeFFmpegDir accepts either the ffmpeg binary path or its directory
// and returns the directory.
func normalizeFFmpegDir(path string) string {
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return filepath.Dir(path)
	}
	return path
}

// StartConversion starts transcoding a file into the target format
func (s *Service) StartConversion(inputPath, targetFormat string) (*model.ConversionTask, error) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	// Check if a conversion is already in progress for this file
	for _, task := range s.tasks {
		if task.InputPath == inputPath && task.Status.IsActive() {
			return nil, fmt.Errorf("conversion already in progress for file: %s", inputPath)
		}
	}

	// Check if input file exists
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file does not exist: %s", inputPath)
	}

	targetFormat = strings.ToLower(strings.TrimSpace(targetFormat))
	if targetFormat == "" {
		return nil, fmt.Errorf("no target format given")
	}

	outputPath := generateOutputPath(inputPath, targetFormat)
	if outputPath == inputPath {
		return nil, fmt.Errorf("file is already %s: %s", targetFormat, inputPath)
	}

	task := &model.ConversionTask{
		ID:           generateTaskID(),
		InputPath:    inputPath,
		OutputPath:   outputPath,
		TargetFormat: targetFormat,
		Status:       model.TaskStatusPending,
		Progress:     0.0,
		Percent:      0,
		StartedAt:    time.Now(),
	}

	s.tasks[task.ID] = task

	// Start conversion in background
	go s.startConversion(task)

	return task, nil
}

// StopConversion stops a running transcode task
func (s *Service) StopConversion(taskID string) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return fmt.Errorf("conversion task not found: %s", taskID)
	}

	if !task.Status.IsActive() {
		return fmt.Errorf("conversion task is not active: %s", task.Status)
	}

	// Set stopping status
	task.Status = model.TaskStatusStopping
	s.notifyUpdate(task)

	return nil
}

// GetTask returns a transcode task by ID
func (s *Service) GetTask(taskID string) (*model.ConversionTask, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	task, exists := s.tasks[taskID]
	return task, exists
}

// startConversion performs the actual transcode
func (s *Service) startConversion(task *model.ConversionTask) {
	// Update status to starting
	s.tasksMutex.Lock()
	task.Status = model.TaskStatusStarting
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	// Get duration of input file for progress calculation
	duration, err := s.getMediaDuration(task.InputPath)
	if err != nil {
		s.logger.Warn("probe duration", "input", task.InputPath, "err", err)
		s.setTaskError(task, err)
		return
	}

	// Create context for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Monitor for stop requests
	go func() {
		for {
			s.tasksMutex.RLock()
			status := task.Status
			s.tasksMutex.RUnlock()

			if status == model.TaskStatusStopping {
				cancel()
				return
			}
			if status.IsFinished() {
				return
			}
			time.Sleep(100 * time.Millisecond)
		}
	}()

	// Update status to running
	s.tasksMutex.Lock()
	task.Status = model.TaskStatusDownloading
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	// Build ffmpeg command
	args := s.BuildFFmpegArgs(task.InputPath, task.OutputPath, task.TargetFormat)
	cmd := exec.CommandContext(ctx, s.binary(FFmpegCommand), args...)

	// Setup progress monitoring
	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.setTaskError(task, fmt.Errorf("failed to create stderr pipe: %w", err))
		return
	}

	// Start ffmpeg process
	if err := cmd.Start(); err != nil {
		s.setTaskError(task, fmt.Errorf("failed to start ffmpeg: %w", err))
		return
	}

	// Monitor progress
	go s.monitorProgress(stderr, task, duration)

	// Wait for completion
	err = cmd.Wait()

	// Handle result
	s.tasksMutex.Lock()
	if ctx.Err() == context.Canceled {
		task.Status = model.TaskStatusStopped
		// Remove partial output file
		os.Remove(task.OutputPath)
	} else if err != nil {
		task.Status = model.TaskStatusError
		task.LastError = err.Error()
		// Remove partial output file
		os.Remove(task.OutputPath)
	} else {
		task.Status = model.TaskStatusCompleted
		task.Progress = 1.0
		task.Percent = 100
	}
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()

	s.notifyUpdate(task)
}

// BuildFFmpegArgs builds the ffmpeg command arguments for the target format
func (s *Service) BuildFFmpegArgs(inputPath, outputPath, targetFormat string) []string {
	args := []string{
		"-y", // Overwrite output file
		"-i", inputPath,
	}

	if ac, ok := audioCodecs[targetFormat]; ok {
		// Audio target: drop the video stream
		args = append(args, "-vn", "-c:a", ac.codec)
		if ac.bitrate != "" {
			args = append(args, "-b:a", ac.bitrate)
		}
	} else {
		args = append(args,
			"-c:v", VideoCodec,
			"-preset", VideoPreset,
			"-crf", VideoCRF,
			"-c:a", AudioCodec,
		)
		if targetFormat == "mp4" {
			args = append(args, "-movflags", FastStartFlag)
		}
	}

	args = append(args,
		"-progress", ProgressPipeTarget, // Progress to stderr
		"-nostats", // No stats output
		outputPath,
	)
	return args
}

// getMediaDuration gets the duration of a media file using ffprobe
func (s *Service) getMediaDuration(filePath string) (float64, error) {
	cmd := exec.Command(s.binary(FFprobeCommand), "-v", FFprobeLogLevel, "-show_entries", FFprobeShowEntries, "-of", FFprobeOutputFormat, filePath)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	durationStr := strings.TrimSpace(string(output))
	duration, err := strconv.ParseFloat(durationStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return duration, nil
}

// monitorProgress monitors ffmpeg progress output
func (s *Service) monitorProgress(stderr io.ReadCloser, task *model.ConversionTask, totalDuration float64) {
	defer stderr.Close()
	scanner := bufio.NewScanner(stderr)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Parse progress line: out_time_us=123456
		if strings.HasPrefix(line, ProgressTimePrefix) {
			timeStr := strings.TrimPrefix(line, ProgressTimePrefix)
			timeMicroseconds, err := strconv.ParseInt(timeStr, 10, 64)
			if err != nil {
				continue
			}

			// Convert to seconds
			timeSeconds := float64(timeMicroseconds) / 1000000.0

			// Calculate progress percentage
			if totalDuration > 0 {
				progress := timeSeconds / totalDuration
				if progress > 1.0 {
					progress = 1.0
				}

				s.tasksMutex.Lock()
				task.Progress = progress
				task.Percent = int(progress * 100)
				s.tasksMutex.Unlock()

				s.notifyUpdate(task)
			}
		}
	}
}

// setTaskError sets an error state for a task
func (s *Service) setTaskError(task *model.ConversionTask, err error) {
	s.tasksMutex.Lock()
	task.Status = model.TaskStatusError
	task.LastError = err.Error()
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()

	s.notifyUpdate(task)
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(task *model.ConversionTask) {
	if s.onUpdate != nil {
		s.onUpdate(task)
	}
}

// binary resolves an ffmpeg-suite binary name against the configured
// directory, falling back to PATH lookup
func (s *Service) binary(name string) string {
	s.tasksMutex.RLock()
	dir := s.ffmpegDir
	s.tasksMutex.RUnlock()
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// generateOutputPath swaps the input extension for the target format
func generateOutputPath(inputPath, targetFormat string) string {
	ext := filepath.Ext(inputPath)
	return strings.TrimSuffix(inputPath, ext) + "." + targetFormat
}

// generateTaskID generates a unique task ID using UUID v7 for better
// uniqueness and time ordering
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if UUID generation fails
		return fmt.Sprintf(TaskIDPrefix+"%d", time.Now().UnixNano())
	}
	return TaskIDPrefix + id.String()
}
