package download

import "testing"

func TestIsAudioFormat(t *testing.T) {
	tests := []struct {
		format   string
		expected bool
	}{
		{"mp3", true},
		{"m4a", true},
		{"opus", true},
		{"flac", true},
		{"wav", true},
		{"mp4", false},
		{"webm", false},
		{"mkv", false},
		{"", false},
	}

	for _, test := range tests {
		result := IsAudioFormat(test.format)
		if result != test.expected {
			t.Errorf("IsAudioFormat(%s) = %v, expected %v", test.format, result, test.expected)
		}
	}
}

func TestVideoSelector_HeightCap(t *testing.T) {
	selector := videoSelector("mp4", "720")
	expected := "bestvideo[height<=720]+bestaudio/best[height<=720]"
	if selector != expected {
		t.Errorf("videoSelector(mp4, 720) = %s, expected %s", selector, expected)
	}
}

func TestVideoSelector_BestFallsBackToContainer(t *testing.T) {
	selector := videoSelector("webm", "best")
	expected := "bestvideo[ext=webm]+bestaudio[ext=webm]/best[ext=webm]/best"
	if selector != expected {
		t.Errorf("videoSelector(webm, best) = %s, expected %s", selector, expected)
	}
}

func TestVideoSelector_UnknownContainer(t *testing.T) {
	selector := videoSelector("avi", "best")
	if selector != "bestvideo+bestaudio/best" {
		t.Errorf("Expected generic selector for unknown container, got %s", selector)
	}
}

func TestAudioQuality(t *testing.T) {
	tests := []struct {
		quality  string
		expected string
	}{
		{"128", "128"},
		{"192", "192"},
		{"320", "320"},
		{"best", "0"},
		{"", "0"},
	}

	for _, test := range tests {
		result := audioQuality(test.quality)
		if result != test.expected {
			t.Errorf("audioQuality(%s) = %s, expected %s", test.quality, result, test.expected)
		}
	}
}
