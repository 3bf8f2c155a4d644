package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// stubStore fakes a backing store for endpoint resolution.
type stubStore struct {
	name    string
	signErr error
}

func (s *stubStore) Name() string   { return s.name }
func (s *stubStore) Folder() string { return "" }
func (s *stubStore) Put(folder, sourcePath, fileName, visibility string) (string, error) {
	return "", nil
}
func (s *stubStore) Delete(path string) error                  { return nil }
func (s *stubStore) SetVisibility(path, visibility string) error { return nil }
func (s *stubStore) URL(path string) string {
	if s.name == "local" {
		return "/storage/" + path
	}
	return "https://cdn.example.com/" + path
}
func (s *stubStore) TemporaryURL(path string, ttl time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return "https://cdn.example.com/" + path + "?signed=1", nil
}

func TestKindFlags(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png", "image"},
		{"video/mp4", "video"},
		{"audio/mpeg", "audio"},
		{"youtube", "youtube"},
		{"application/pdf", "file"},
		{"text/plain", "file"},
	}

	for _, tt := range tests {
		f := &File{Mime: tt.mime}
		assert.Equal(t, tt.want == "image", f.IsImage(), tt.mime)
		assert.Equal(t, tt.want == "video", f.IsVideo(), tt.mime)
		assert.Equal(t, tt.want == "audio", f.IsAudio(), tt.mime)
		assert.Equal(t, tt.want == "youtube", f.IsYoutube(), tt.mime)
		assert.Equal(t, tt.want == "file", f.IsFile(), tt.mime)
	}
}

func TestTypeTag(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/jpeg", "jpeg"},
		{"image/png", "png"},
		{"youtube", "youtube"},
		{"application/ld+json", "jsonld"},
		{"image/svg+xml", "svg"},
		{"text/plain", "text"},
		{"application/msword", "word"},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "word"},
		{"application/vnd.ms-powerpoint", "ppt"},
		{"application/vnd.openxmlformats-officedocument.presentationml.presentation", "ppt"},
		{"application/vnd.ms-excel", "excel"},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "excel"},
		{"application/pdf", "pdf"},
		{"video/webm", "video"},
		{"audio/ogg", "audio"},
		{"application/zip", "file"},
		{"", "file"},
	}

	for _, tt := range tests {
		f := &File{Mime: tt.mime}
		assert.Equal(t, tt.want, f.Type(), tt.mime)
	}
}

func TestFilename(t *testing.T) {
	f := &File{Mime: "image/png", Path: "uploads/abc123.png"}
	assert.Equal(t, "abc123.png", f.Filename())

	assert.Empty(t, (&File{Mime: "youtube", Path: "x"}).Filename())
	assert.Empty(t, (&File{Mime: "image/png"}).Filename())
}

func TestOptimizedPath(t *testing.T) {
	base := File{Mime: "image/jpeg", Extension: "jpg", Path: "uploads/abc123.jpg"}

	none := base
	assert.Empty(t, none.OptimizedPath())

	resized := base
	resized.IsResized = true
	assert.Equal(t, "uploads/abc123--o.jpg", resized.OptimizedPath())

	converted := base
	converted.IsConvertedToWebp = true
	assert.Equal(t, "uploads/abc123--o.webp", converted.OptimizedPath())

	// A flagged entity with no stored path has nothing to locate.
	pathless := File{Mime: "image/jpeg", Extension: "jpg", IsResized: true}
	assert.Empty(t, pathless.OptimizedPath())
}

func TestEndpointYoutube(t *testing.T) {
	f := &File{
		Mime: "youtube",
		URL:  "https://youtu.be/dQw4w9WgXcQ",
		Data: FileData{Vid: "dQw4w9WgXcQ"},
	}

	// YouTube references ignore the optimized flag.
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", f.Endpoint(nil, false, false))
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", f.Endpoint(nil, false, true))
}

func TestEndpointLocal(t *testing.T) {
	store := &stubStore{name: "local"}
	f := &File{Mime: "image/png", Extension: "png", Disk: "local", Path: "uploads/a.png"}

	assert.Equal(t, "/storage/uploads/a.png", f.Endpoint(store, false, false))

	f.IsConvertedToWebp = true
	assert.Equal(t, "/storage/uploads/a--o.webp", f.Endpoint(store, false, true))
}

func TestEndpointRemote(t *testing.T) {
	store := &stubStore{name: "s3"}

	public := &File{Mime: "image/png", Disk: "s3", Path: "uploads/a.png", Visibility: "public"}
	assert.Equal(t, "https://cdn.example.com/uploads/a.png", public.Endpoint(store, false, false))

	private := &File{Mime: "image/png", Disk: "s3", Path: "uploads/a.png", Visibility: "private"}
	assert.Equal(t, "https://cdn.example.com/uploads/a.png?signed=1", private.Endpoint(store, false, false))

	// A signing failure resolves to nothing, which soft-fails.
	broken := &stubStore{name: "s3", signErr: errors.New("boom")}
	assert.Equal(t, Endpoint404, private.Endpoint(broken, false, false))
}

func TestEndpointExternalURL(t *testing.T) {
	f := &File{Mime: "image/png", URL: "https://example.com/pic.png"}
	assert.Equal(t, "https://example.com/pic.png", f.Endpoint(nil, false, false))
}

func TestEndpointPlaceholders(t *testing.T) {
	empty := &File{Mime: "image/png"}
	assert.Equal(t, Endpoint404, empty.Endpoint(nil, false, false))

	denyAll := func(f *File) bool { return false }
	orig := Authorize
	Authorize = denyAll
	defer func() { Authorize = orig }()

	f := &File{Mime: "image/png", URL: "https://example.com/pic.png"}
	assert.Equal(t, Endpoint403, f.Endpoint(nil, false, false))

	// noauth bypasses the authorization predicate.
	assert.Equal(t, "https://example.com/pic.png", f.Endpoint(nil, true, false))
}

func TestNewIDSortable(t *testing.T) {
	a := NewID()
	time.Sleep(2 * time.Millisecond)
	b := NewID()

	assert.Len(t, a, 26)
	assert.True(t, a < b, "ids must sort by creation time")
}

func TestSize(t *testing.T) {
	f := &File{KB: 3276.8}
	assert.Equal(t, "3.2 MB", f.Size())
}
