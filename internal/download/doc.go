package download

// Package download implements the core download pipeline built on top of
// yt-dlp (via github.com/lrstanley/go-ytdlp). It manages task lifecycle,
// concurrency limits, progress propagation to the UI, playlist batches, and
// records completed downloads into history.
