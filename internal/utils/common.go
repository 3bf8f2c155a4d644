package utils

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// Common utilities used across filesystem-api

// FileExtension extracts the extension from the original client file name.
// Content sniffing can report a generic binary type when the extension and
// the content disagree, so the last dot-segment of the name is authoritative.
func FileExtension(filename string) string {
	parts := strings.Split(filename, ".")
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[len(parts)-1])
}

// youtubeIDPatterns covers the URL shapes YouTube hands out: watch links
// (?v= / &v= and the legacy i= form), /v/ paths, /embed/ paths and the
// youtu.be short form.
var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&](?:v|i)=([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/(?:v|i)/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]+)`),
}

// YoutubeVideoID extracts the video id from a YouTube URL. An empty result
// means the value is not a YouTube URL, not an error.
func YoutubeVideoID(value string) string {
	for _, pattern := range youtubeIDPatterns {
		if m := pattern.FindStringSubmatch(value); m != nil {
			return m[1]
		}
	}
	return ""
}

// YoutubeEmbedURL builds the embed form of a YouTube URL. Callers must check
// YoutubeVideoID beforehand; a failed extraction leaves the id segment empty.
func YoutubeEmbedURL(value string) string {
	return "https://www.youtube.com/embed/" + YoutubeVideoID(value)
}

// HumanFileSize renders a kilobyte count as a human readable string, e.g.
// "3.2 MB". Values below 1 KB render in the given unit as-is.
func HumanFileSize(kb float64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	index := 1
	value := kb

	for value > 1024 && index < len(units)-1 {
		value = value / 1024
		index++
	}

	rounded := math.Round(value*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + units[index]
}

const randomAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomString returns n characters of high-entropy alphanumerics. Storage
// keys use n=30 and rely on the keyspace for uniqueness; there is no
// collision check.
func RandomString(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(randomAlphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
		}
		b[i] = randomAlphabet[idx.Int64()]
	}
	return string(b)
}

// RoundKB converts a byte size to kilobytes rounded to 5 decimal places.
func RoundKB(sizeBytes int64) float64 {
	return math.Round(float64(sizeBytes)/1024*1e5) / 1e5
}

// JoinPath joins non-empty path segments with "/". Empty, dot and parent
// parts are dropped so caller-supplied folders cannot escape the store root.
func JoinPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		for _, p := range strings.Split(s, "/") {
			if p == "" || p == "." || p == ".." {
				continue
			}
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}
