package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.JPG", "jpg"},
		{"document.pdf", "pdf"},
		{"archive.tar.gz", "gz"},
		{"noextension", ""},
		{"UPPER.PNG", "png"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FileExtension(tt.filename), tt.filename)
	}
}

func TestYoutubeVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?t=10&v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://example.com/image.png", ""},
		{"not a url at all", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, YoutubeVideoID(tt.url), tt.url)
	}
}

func TestYoutubeEmbedURL(t *testing.T) {
	assert.Equal(t,
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		YoutubeEmbedURL("https://youtu.be/dQw4w9WgXcQ"),
	)

	// Failed extraction leaves the id segment empty; callers check the id
	// beforehand.
	assert.Equal(t,
		"https://www.youtube.com/embed/",
		YoutubeEmbedURL("https://example.com"),
	)
}

func TestHumanFileSize(t *testing.T) {
	tests := []struct {
		kb   float64
		want string
	}{
		{500, "500 KB"},
		{3276.8, "3.2 MB"},
		{2097152, "2 GB"},
		{0.5, "0.5 KB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HumanFileSize(tt.kb))
	}
}

func TestRandomString(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s := RandomString(30)
		assert.Len(t, s, 30)
		for _, r := range s {
			assert.True(t, strings.ContainsRune(randomAlphabet, r))
		}
		assert.False(t, seen[s], "random strings must not repeat")
		seen[s] = true
	}
}

func TestRoundKB(t *testing.T) {
	// 3.2MB upload rounds to 5 decimal places of kilobytes.
	assert.InDelta(t, 3276.8, RoundKB(3355443), 0.01)
	assert.Equal(t, 0.00977, RoundKB(10))
	assert.Equal(t, 1.0, RoundKB(1024))
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "uploads/avatars", JoinPath("uploads", "avatars"))
	assert.Equal(t, "uploads", JoinPath("uploads", ""))
	assert.Equal(t, "avatars", JoinPath("", "avatars"))
	assert.Equal(t, "", JoinPath("", ""))
	assert.Equal(t, "a/b", JoinPath("/a/", "/b/"))

	// Traversal parts are dropped, never joined.
	assert.Equal(t, "avatars", JoinPath("../..", "avatars"))
	assert.Equal(t, "uploads/secret", JoinPath("uploads/../secret", ""))
	assert.Equal(t, "a/b", JoinPath("a/./b"))
	assert.Equal(t, "", JoinPath("..", "."))
}
