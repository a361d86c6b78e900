package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/ytdlp/v2"

	"github.com/sandsound/sandsound/internal/model"
)

// Timeout constants
const (
	DefaultFetchTimeout = 60 * time.Second
)

// URL parameters and separators
const (
	PlaylistURLParam       = "list="
	PlaylistParamSeparator = "&"
)

// Default values
const (
	DefaultPlaylistTitle = "Untitled Playlist"
	PlaylistTitleSuffix  = " Playlist"
	MinCommonPrefixLen   = 10
)

// URL templates
const (
	VideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// FetchError reports a failed remote playlist fetch. No reconciliation or
// download may proceed on it: partial listings are never diffed.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch playlist %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err is (or wraps) a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// SnapshotFetcher fetches remote playlist listings through the extraction
// library.
type SnapshotFetcher struct {
	timeout time.Duration
}

// NewSnapshotFetcher creates a new playlist snapshot fetcher
func NewSnapshotFetcher() *SnapshotFetcher {
	return &SnapshotFetcher{
		timeout: DefaultFetchTimeout,
	}
}

// SetTimeout sets the timeout for fetch operations
func (f *SnapshotFetcher) SetTimeout(timeout time.Duration) {
	f.timeout = timeout
}

// FetchPlaylist fetches the current remote listing of a playlist URL. The
// returned snapshot preserves remote item order. Any failure yields a
// *FetchError and no snapshot.
func (f *SnapshotFetcher) FetchPlaylist(ctx context.Context, url string) (*model.Snapshot, error) {
	if !IsPlaylistURL(url) {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("not a playlist URL")}
	}

	playlistID := ExtractPlaylistID(url)
	if playlistID == "" {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("could not extract playlist ID")}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	remote := make([]model.RemoteItem, 0, len(items))
	for _, it := range items {
		remote = append(remote, model.RemoteItem{ID: it.VideoID, Title: it.Title})
	}

	return &model.Snapshot{
		PlaylistID: playlistID,
		Title:      snapshotTitle(remote),
		URL:        url,
		Items:      remote,
	}, nil
}

// IsPlaylistURL checks if the URL carries a playlist parameter
func IsPlaylistURL(url string) bool {
	return strings.Contains(url, PlaylistURLParam)
}

// ExtractPlaylistID extracts the playlist ID from various URL formats:
//   - https://www.youtube.com/watch?v=VIDEO_ID&list=PLAYLIST_ID
//   - https://www.youtube.com/playlist?list=PLAYLIST_ID
func ExtractPlaylistID(url string) string {
	if !strings.Contains(url, PlaylistURLParam) {
		return ""
	}
	parts := strings.Split(url, PlaylistURLParam)
	if len(parts) < 2 {
		return ""
	}
	playlistID := parts[1]
	if strings.Contains(playlistID, PlaylistParamSeparator) {
		playlistID = strings.Split(playlistID, PlaylistParamSeparator)[0]
	}
	return playlistID
}

// VideoURL builds the canonical watch URL for a video ID.
func VideoURL(videoID string) string {
	return fmt.Sprintf(VideoURLTemplate, videoID)
}

// snapshotTitle derives a display title from the item titles. Flat listings
// do not carry the playlist name, so the common prefix of the first two
// titles is used when it is long enough to be meaningful.
func snapshotTitle(items []model.RemoteItem) string {
	if len(items) == 0 {
		return DefaultPlaylistTitle
	}
	if len(items) > 1 {
		prefix := commonPrefix(items[0].Title, items[1].Title)
		if len(prefix) > MinCommonPrefixLen {
			return strings.TrimSpace(prefix) + PlaylistTitleSuffix
		}
	}
	return items[0].Title + PlaylistTitleSuffix
}

// commonPrefix finds the common prefix between two strings
func commonPrefix(s1, s2 string) string {
	minLen := min(len(s1), len(s2))
	for i := 0; i < minLen; i++ {
		if s1[i] != s2[i] {
			return s1[:i]
		}
	}
	return s1[:minLen]
}
