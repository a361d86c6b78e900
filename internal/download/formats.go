package download

import (
	"fmt"

	"github.com/lrstanley/go-ytdlp"
)

// Format selector templates passed to yt-dlp per output format.
var (
	audioSelectors = map[string]string{
		"mp3":  "bestaudio/best",
		"m4a":  "bestaudio[ext=m4a]/bestaudio/best",
		"opus": "bestaudio[ext=opus]/bestaudio/best",
		"flac": "bestaudio/best",
		"wav":  "bestaudio/best",
	}

	videoSelectors = map[string]string{
		"mp4":  "bestvideo[ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best",
		"webm": "bestvideo[ext=webm]+bestaudio[ext=webm]/best[ext=webm]/best",
		"mkv":  "bestvideo+bestaudio/best",
	}

	// Formats that need an explicit merge container.
	mergeFormats = map[string]bool{
		"mp4": true,
		"mkv": true,
	}

	videoHeights = map[string]string{
		"480":  "480",
		"720":  "720",
		"1080": "1080",
		"1440": "1440",
		"2160": "2160",
		"4320": "4320",
	}

	audioBitrates = map[string]string{
		"128": "128",
		"192": "192",
		"256": "256",
		"320": "320",
	}
)

// IsAudioFormat reports whether format is extracted as audio.
func IsAudioFormat(format string) bool {
	_, ok := audioSelectors[format]
	return ok
}

// videoSelector resolves the yt-dlp format selector for a video download.
// Numeric qualities cap the stream height; "best" falls back to the
// per-container selector.
func videoSelector(format, quality string) string {
	if height, ok := videoHeights[quality]; ok {
		return fmt.Sprintf("bestvideo[height<=%s]+bestaudio/best[height<=%s]", height, height)
	}
	if selector, ok := videoSelectors[format]; ok {
		return selector
	}
	return "bestvideo+bestaudio/best"
}

// audioQuality maps a quality setting to the yt-dlp --audio-quality value.
// "best" is 0 in yt-dlp's scale.
func audioQuality(quality string) string {
	if bitrate, ok := audioBitrates[quality]; ok {
		return bitrate
	}
	return "0"
}

// applyFormat configures the command for the requested output format and
// quality.
func applyFormat(dl *ytdlp.Command, format, quality string) *ytdlp.Command {
	if IsAudioFormat(format) {
		selector, ok := audioSelectors[format]
		if !ok {
			selector = "bestaudio/best"
		}
		return dl.Format(selector).
			ExtractAudio().
			AudioFormat(format).
			AudioQuality(audioQuality(quality))
	}

	dl = dl.Format(videoSelector(format, quality))
	if mergeFormats[format] {
		dl = dl.MergeOutputFormat(format)
	}
	return dl
}
