package download

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lrstanley/go-ytdlp"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/sandsound/sandsound/internal/model"
)

const (
	// TaskIDPrefix prefixes generated download task IDs
	TaskIDPrefix = "dl-"

	// ProgressInterval is how often yt-dlp reports progress
	ProgressInterval = 500 * time.Millisecond

	// progressUpdatesPerSecond caps progress callbacks toward the UI.
	// State transitions always pass.
	progressUpdatesPerSecond = 10

	// retryBackoff is the delay before the single retry attempt
	retryBackoff = 2 * time.Second
	maxRetries   = 1

	// maxParallelSlots is the semaphore capacity, the hard upper bound on
	// parallel downloads. Matches the config clamp.
	maxParallelSlots = 8
)

// Service handles download operations
type Service struct {
	tasks      map[string]*model.DownloadTask
	playlists  map[string]*model.Playlist
	cancels    map[string]context.CancelFunc
	pauseReq   map[string]bool
	tasksMutex sync.RWMutex

	// sem has fixed capacity maxParallelSlots and lives as long as the
	// service. The effective limit is lowered by holding reservedSlots
	// units; shrinking below the number of running tasks absorbs their
	// slots as they finish (pendingReserve).
	sem            *semaphore.Weighted
	slotMu         sync.Mutex
	reservedSlots  int64
	pendingReserve int64

	progressGate *rate.Limiter

	downloadDir    string
	cookieFile     string
	ffmpegLocation string

	logger   *log.Logger
	recorder Recorder
	onUpdate func(*model.DownloadTask) // callback for UI updates
}

// NewService creates a new download service. The recorder receives a history
// entry for every completed task; it may be nil to disable history.
func NewService(downloadDir string, maxParallel int, logger *log.Logger, recorder Recorder) *Service {
	s := &Service{
		tasks:        make(map[string]*model.DownloadTask),
		playlists:    make(map[string]*model.Playlist),
		cancels:      make(map[string]context.CancelFunc),
		pauseReq:     make(map[string]bool),
		sem:          semaphore.NewWeighted(maxParallelSlots),
		progressGate: rate.NewLimiter(rate.Limit(progressUpdatesPerSecond), 1),
		downloadDir:  downloadDir,
		logger:       logger,
		recorder:     recorder,
	}
	s.applyParallelLimit(clampParallel(maxParallel))
	return s
}

// SetUpdateCallback sets the callback function for task updates
func (s *Service) SetUpdateCallback(callback func(*model.DownloadTask)) {
	s.onUpdate = callback
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads.
// Running tasks keep their slots; a lowered limit takes effect as they
// finish. Raising the limit starts pending tasks for the freed slots.
func (s *Service) SetMaxParallelDownloads(max int) {
	freed := s.applyParallelLimit(clampParallel(max))
	for i := 0; i < freed; i++ {
		s.startNextPendingTask()
	}
}

// applyParallelLimit adjusts how many semaphore units are held back so that
// at most max remain available to tasks. Returns the number of units freed.
func (s *Service) applyParallelLimit(max int) int {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()

	target := int64(maxParallelSlots - max)
	freed := 0
	for s.reservedSlots > target {
		s.sem.Release(1)
		s.reservedSlots--
		freed++
	}
	for s.reservedSlots < target && s.sem.TryAcquire(1) {
		s.reservedSlots++
	}
	// Whatever could not be reserved now is absorbed from finishing tasks.
	s.pendingReserve = target - s.reservedSlots
	return freed
}

// releaseSlot returns a task's semaphore unit, folding it into the reserve
// when a lowered limit is still waiting for slots.
func (s *Service) releaseSlot() {
	s.slotMu.Lock()
	defer s.slotMu.Unlock()

	if s.pendingReserve > 0 {
		s.pendingReserve--
		s.reservedSlots++
		return
	}
	s.sem.Release(1)
}

func clampParallel(max int) int {
	if max < 1 {
		return 1
	}
	if max > maxParallelSlots {
		return maxParallelSlots
	}
	return max
}

// SetDownloadDirectory sets the download directory
func (s *Service) SetDownloadDirectory(dir string) {
	s.tasksMutex.Lock()
	s.downloadDir = dir
	s.tasksMutex.Unlock()
}

// SetCookieFile sets the Netscape cookie file passed to the extractor
func (s *Service) SetCookieFile(path string) {
	s.tasksMutex.Lock()
	s.cookieFile = path
	s.tasksMutex.Unlock()
}

// SetFFmpegLocation sets the FFmpeg location passed to the extractor
func (s *Service) SetFFmpegLocation(path string) {
	s.tasksMutex.Lock()
	s.ffmpegLocation = path
	s.tasksMutex.Unlock()
}

// AddTask adds a new single-video download task
func (s *Service) AddTask(url, format, quality string) (*model.DownloadTask, error) {
	return s.addTask(url, format, quality, extractVideoID(url), "")
}

// addTask queues a task and starts it when a parallel slot is free.
func (s *Service) addTask(url, format, quality, videoID, playlistID string) (*model.DownloadTask, error) {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	// Check for duplicate URLs
	for _, task := range s.tasks {
		if task.URL == url && !task.Status.IsFinished() {
			return nil, fmt.Errorf("task already exists for URL: %s", url)
		}
	}

	task := &model.DownloadTask{
		ID:         generateTaskID(),
		VideoID:    videoID,
		URL:        url,
		PlaylistID: playlistID,
		Format:     format,
		Quality:    quality,
		Status:     model.TaskStatusPending,
		Progress:   0.0,
		Percent:    0,
		ETASec:     -1,
		StartedAt:  time.Now(),
	}

	s.tasks[task.ID] = task

	if s.sem.TryAcquire(1) {
		go s.runTask(task)
	}

	return task, nil
}

// GetTask returns a task by ID
func (s *Service) GetTask(id string) (*model.DownloadTask, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	task, exists := s.tasks[id]
	return task, exists
}

// GetTaskByVideoID returns a task by its remote video identifier
func (s *Service) GetTaskByVideoID(videoID string) (*model.DownloadTask, bool) {
	if videoID == "" {
		return nil, false
	}
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	for _, task := range s.tasks {
		if task.VideoID == videoID {
			return task, true
		}
	}
	return nil, false
}

// GetAllTasks returns all tasks
func (s *Service) GetAllTasks() []*model.DownloadTask {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()

	tasks := make([]*model.DownloadTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	return tasks
}

// StopTask stops a running task
func (s *Service) StopTask(id string) error {
	return s.interruptTask(id, false)
}

// PauseTask pauses a running task. yt-dlp keeps partial files, so a later
// resume continues where the download stopped.
func (s *Service) PauseTask(id string) error {
	return s.interruptTask(id, true)
}

func (s *Service) interruptTask(id string, pause bool) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return fmt.Errorf("task not found: %s", id)
	}

	if !task.Status.IsActive() {
		return fmt.Errorf("task is not active: %s", task.Status)
	}

	task.Status = model.TaskStatusStopping
	s.pauseReq[id] = pause
	if cancel, ok := s.cancels[id]; ok {
		cancel()
	}
	s.notifyUpdate(task)
	return nil
}

// ResumeTask restarts a paused task
func (s *Service) ResumeTask(id string) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return fmt.Errorf("task not found: %s", id)
	}
	if task.Status != model.TaskStatusPaused {
		return fmt.Errorf("task is not paused: %s", task.Status)
	}

	task.Status = model.TaskStatusPending
	task.LastError = ""
	s.notifyUpdate(task)

	if s.sem.TryAcquire(1) {
		go s.runTask(task)
	}
	return nil
}

// RestartTask re-queues a stopped, errored, or pending task
func (s *Service) RestartTask(id string) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return fmt.Errorf("task not found: %s", id)
	}
	if task.Status.IsActive() {
		return fmt.Errorf("task is already running: %s", task.Status)
	}

	task.Status = model.TaskStatusPending
	task.Progress = 0
	task.Percent = 0
	task.LastError = ""
	task.StartedAt = time.Now()
	task.FinishedAt = time.Time{}
	s.notifyUpdate(task)

	if s.sem.TryAcquire(1) {
		go s.runTask(task)
	}
	return nil
}

// RemoveTask removes a finished or pending task from the service
func (s *Service) RemoveTask(id string) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return fmt.Errorf("task not found: %s", id)
	}
	if task.Status.IsActive() {
		return fmt.Errorf("cannot remove active task: %s", task.Status)
	}

	delete(s.tasks, id)
	delete(s.pauseReq, id)
	return nil
}

// AddPlaylist registers a playlist with the service
func (s *Service) AddPlaylist(playlist *model.Playlist) error {
	if playlist == nil || playlist.ID == "" {
		return fmt.Errorf("playlist has no ID")
	}
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()
	s.playlists[playlist.ID] = playlist
	return nil
}

// GetPlaylist returns a registered playlist by ID
func (s *Service) GetPlaylist(id string) (*model.Playlist, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	p, ok := s.playlists[id]
	return p, ok
}

// DownloadPlaylist queues a task for every pending video of the playlist.
// Videos the reconciliation marked as skipped stay untouched. A failing item
// does not affect its siblings.
func (s *Service) DownloadPlaylist(playlist *model.Playlist, format, quality string) error {
	if playlist == nil {
		return fmt.Errorf("playlist is nil")
	}

	playlist.UpdateStatus(model.PlaylistStatusDownloading)

	queued := 0
	for _, video := range playlist.Videos {
		if video.Status != model.VideoStatusPending {
			continue
		}
		_, err := s.addTask(video.URL, format, quality, video.ID, playlist.ID)
		if err != nil {
			s.logger.Warn("skipping playlist item", "video", video.ID, "err", err)
			continue
		}
		queued++
	}

	s.logger.Info("playlist queued",
		"playlist", playlist.ID,
		"queued", queued,
		"skipped", len(playlist.GetSkippedVideos()),
		"total", playlist.TotalVideos)

	if queued == 0 {
		playlist.UpdateStatus(model.PlaylistStatusCompleted)
	}
	return nil
}

// CancelPlaylist stops every task belonging to a playlist
func (s *Service) CancelPlaylist(playlistID string) error {
	s.tasksMutex.RLock()
	var ids []string
	for id, task := range s.tasks {
		if task.PlaylistID == playlistID && !task.Status.IsFinished() {
			ids = append(ids, id)
		}
	}
	s.tasksMutex.RUnlock()

	for _, id := range ids {
		task, _ := s.GetTask(id)
		if task == nil {
			continue
		}
		if task.Status.IsActive() {
			if err := s.StopTask(id); err != nil {
				s.logger.Warn("cancel playlist item", "task", id, "err", err)
			}
			continue
		}
		// Pending tasks just flip to stopped.
		s.tasksMutex.Lock()
		task.Status = model.TaskStatusStopped
		s.tasksMutex.Unlock()
		s.notifyUpdate(task)
	}

	s.tasksMutex.Lock()
	if p, ok := s.playlists[playlistID]; ok {
		p.UpdateStatus(model.PlaylistStatusReady)
	}
	s.tasksMutex.Unlock()
	return nil
}

// runTask executes a download task. The caller has acquired a parallel slot.
func (s *Service) runTask(task *model.DownloadTask) {
	defer func() {
		s.releaseSlot()
		s.startNextPendingTask()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusStarting
	s.cancels[task.ID] = cancel
	delete(s.pauseReq, task.ID)
	downloadDir := s.downloadDir
	cookieFile := s.cookieFile
	ffmpegLocation := s.ffmpegLocation
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusDownloading
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	// Configure yt-dlp
	dl := ytdlp.New().
		ForceOverwrites().
		RestrictFilenames().
		Output(filepath.Join(downloadDir, "%(title)s.%(ext)s"))

	dl = applyFormat(dl, task.Format, task.Quality)

	if cookieFile != "" {
		dl = dl.Cookies(cookieFile)
	}
	if ffmpegLocation != "" {
		dl = dl.FFmpegLocation(ffmpegLocation)
	}

	dl.ProgressFunc(ProgressInterval, func(update ytdlp.ProgressUpdate) {
		s.updateTaskProgress(task, &update)
	})

	result, err := s.downloadWithRetry(ctx, dl, task)

	s.tasksMutex.Lock()
	delete(s.cancels, task.ID)
	paused := s.pauseReq[task.ID]
	delete(s.pauseReq, task.ID)

	var completed bool
	if err != nil {
		if ctx.Err() == context.Canceled {
			if paused {
				task.Status = model.TaskStatusPaused
			} else {
				task.Status = model.TaskStatusStopped
			}
		} else {
			task.Status = model.TaskStatusError
			task.LastError = err.Error()
		}
	} else {
		task.Status = model.TaskStatusCompleted
		task.Progress = 1.0
		task.Percent = 100
		completed = true

		if result != nil {
			if info, err := result.GetExtractedInfo(); err == nil && len(info) > 0 {
				if info[0].Filename != nil {
					task.OutputPath = *info[0].Filename
				}
				if task.Title == "" && info[0].Title != nil {
					task.Title = *info[0].Title
				}
			}
		}
		if task.OutputPath != "" {
			if fi, err := os.Stat(task.OutputPath); err == nil {
				task.FileSize = fi.Size()
			}
		}
	}
	task.FinishedAt = time.Now()
	s.syncPlaylistVideo(task)
	s.tasksMutex.Unlock()

	if completed {
		s.recordHistory(task)
	}

	s.notifyUpdate(task)
}

// recordHistory persists a completed task into download history. Recording
// failures are logged, never surfaced to the task.
func (s *Service) recordHistory(task *model.DownloadTask) {
	if s.recorder == nil {
		return
	}

	videoID := task.VideoID
	if videoID == "" {
		videoID = task.URL
	}

	entry := model.HistoryEntry{
		VideoID:      videoID,
		Title:        task.Title,
		PlaylistID:   task.PlaylistID,
		DownloadedAt: time.Now(),
		OutputPath:   task.OutputPath,
		Format:       task.Format,
		Quality:      task.Quality,
	}
	if err := s.recorder.Record(entry); err != nil {
		s.logger.Error("record download history", "video", videoID, "err", err)
	}
}

// downloadWithRetry attempts download with retry logic
func (s *Service) downloadWithRetry(ctx context.Context, dl *ytdlp.Command, task *model.DownloadTask) (*ytdlp.Result, error) {
	var lastErr error
	var result *ytdlp.Result

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Backoff delay
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

			s.logger.Info("retrying download", "task", task.ID, "attempt", attempt+1)
		}

		res, err := dl.Run(ctx, task.URL)
		if err == nil {
			return res, nil
		}

		lastErr = err
		result = res // Keep last result even if there was an error
		s.logger.Warn("download attempt failed", "task", task.ID, "attempt", attempt+1, "err", err)

		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}

	return result, lastErr
}

// updateTaskProgress updates task progress from yt-dlp info
func (s *Service) updateTaskProgress(task *model.DownloadTask, update *ytdlp.ProgressUpdate) {
	s.tasksMutex.Lock()

	if update.TotalBytes > 0 {
		percent := float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100
		task.Percent = int(percent)
		task.Progress = percent / 100.0
	}

	if !update.Started.IsZero() {
		elapsed := time.Since(update.Started)
		if elapsed.Seconds() > 0 {
			bytesPerSecond := float64(update.DownloadedBytes) / elapsed.Seconds()
			task.Speed = fmt.Sprintf("%.1fMB/s", bytesPerSecond/1024/1024)
		}
	}

	if eta := update.ETA(); eta > 0 {
		task.ETASec = int(eta.Seconds())
	}

	if update.Info != nil && update.Info.Title != nil && *update.Info.Title != "" && task.Title == "" {
		task.Title = *update.Info.Title
	}

	s.syncPlaylistVideo(task)
	s.tasksMutex.Unlock()

	// Throttle pure progress updates; the terminal notify in runTask always
	// delivers the final state.
	if s.progressGate.Allow() {
		s.notifyUpdate(task)
	}
}

// startNextPendingTask starts the next pending task if a slot is free
func (s *Service) startNextPendingTask() {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	for _, task := range s.tasks {
		if task.Status == model.TaskStatusPending {
			if s.sem.TryAcquire(1) {
				go s.runTask(task)
			}
			return
		}
	}
}

// syncPlaylistVideo mirrors a task's state onto its playlist item. Caller
// must hold tasksMutex.
func (s *Service) syncPlaylistVideo(task *model.DownloadTask) {
	if task.PlaylistID == "" {
		return
	}
	playlist, ok := s.playlists[task.PlaylistID]
	if !ok {
		return
	}

	playlist.UpdateVideoStatus(task.VideoID, videoStatusFor(task.Status))
	playlist.UpdateVideoProgress(task.VideoID, task.Progress)
	if task.Status == model.TaskStatusCompleted {
		playlist.UpdateVideoOutputPath(task.VideoID, task.OutputPath, task.FileSize)
		playlist.Downloaded = len(playlist.GetCompletedVideos())
		if playlist.Downloaded+len(playlist.GetSkippedVideos()) == playlist.TotalVideos {
			playlist.UpdateStatus(model.PlaylistStatusCompleted)
		}
	}
}

// videoStatusFor maps a task status onto the playlist item status
func videoStatusFor(status model.TaskStatus) model.VideoStatus {
	switch status {
	case model.TaskStatusCompleted:
		return model.VideoStatusCompleted
	case model.TaskStatusError:
		return model.VideoStatusError
	case model.TaskStatusPaused:
		return model.VideoStatusPaused
	case model.TaskStatusStopped, model.TaskStatusPending:
		return model.VideoStatusPending
	default:
		return model.VideoStatusDownloading
	}
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(task *model.DownloadTask) {
	if s.onUpdate != nil {
		s.onUpdate(task)
	}
}

// extractVideoID pulls the v= query parameter out of a watch URL; empty when
// the URL carries none.
func extractVideoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("v")
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
