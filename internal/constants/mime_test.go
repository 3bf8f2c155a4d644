package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupMime(t *testing.T) {
	tests := []struct {
		extension string
		want      string
	}{
		{"jpg", "image/jpeg"},
		{"jpeg", "image/jpeg"},
		{"png", "image/png"},
		{"txt", "text/plain"},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"woff2", "font/woff2"},
	}

	for _, tt := range tests {
		mime, ok := LookupMime(tt.extension)
		assert.True(t, ok, tt.extension)
		assert.Equal(t, tt.want, mime)
	}
}

func TestLookupMimeUnknown(t *testing.T) {
	_, ok := LookupMime("xyz")
	assert.False(t, ok)

	// Registry keys are canonical lowercase; uppercase input does not match.
	_, ok = LookupMime("JPG")
	assert.False(t, ok)
}

func TestLookupExtension(t *testing.T) {
	// Shared MIME types resolve to the first registered extension.
	ext, ok := LookupExtension("image/jpeg")
	assert.True(t, ok)
	assert.Equal(t, "jpg", ext)

	ext, ok = LookupExtension("image/tiff")
	assert.True(t, ok)
	assert.Equal(t, "tif", ext)

	_, ok = LookupExtension("application/x-nonexistent")
	assert.False(t, ok)
}

func TestResolveMime(t *testing.T) {
	// Registered extensions always win over the sniffed fallback.
	assert.Equal(t, "image/jpeg", ResolveMime("jpg", "application/octet-stream"))
	assert.Equal(t, "text/plain", ResolveMime("txt", "image/png"))

	// Unregistered extensions fall back to the sniffed value.
	assert.Equal(t, "application/x-custom", ResolveMime("xyz", "application/x-custom"))
}
