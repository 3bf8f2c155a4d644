package models

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"filesystem-api/internal/storage"
	"filesystem-api/internal/utils"

	"github.com/oklog/ulid/v2"
)

// Endpoint placeholders returned instead of a real URL so display widgets
// never crash on a broken or unauthorized reference; they render an error
// image instead.
const (
	Endpoint404 = "/assets/placeholders/404.png"
	Endpoint403 = "/assets/placeholders/403.png"
)

// MimeYoutube is the sentinel MIME for YouTube reference entities.
const MimeYoutube = "youtube"

// OptimizedSuffix is the filename marker appended to a source file's base
// name to locate its derivative. The optimize path writes the derivative
// under this convention and OptimizedPath reconstructs it from the
// optimization flags, so both sides must agree on it.
const OptimizedSuffix = "--o"

// Authorize decides whether the caller may receive a file's real endpoint.
// Hosts replace this with their own check; the default allows everyone.
var Authorize = func(f *File) bool { return true }

// FileData is the structured metadata bag persisted as JSON. YouTube
// references fill the video fields; user edits fill the display fields.
type FileData struct {
	Vid         string `json:"vid,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Embed       string `json:"embed,omitempty"`
	Description string `json:"description,omitempty"`
}

func (d FileData) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *FileData) Scan(value interface{}) error {
	if value == nil {
		*d = FileData{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported type %T for FileData", value)
	}
}

// File represents one stored or referenced artifact: an uploaded binary, a
// remote image URL or a YouTube reference.
type File struct {
	ID         string   `json:"id" gorm:"primaryKey"`
	Name       string   `json:"name" gorm:"not null"`
	Mime       string   `json:"mime"`
	Extension  string   `json:"extension"`
	KB         float64  `json:"kb"`
	Disk       string   `json:"disk"`
	Path       string   `json:"path"`
	URL        string   `json:"url"`
	Width      *int     `json:"width"`
	Height     *int     `json:"height"`
	Alt        string   `json:"alt"`
	Visibility string   `json:"visibility"`
	Env        string   `json:"env"`
	Data       FileData `json:"data" gorm:"type:json"`

	IsResized         bool `json:"isResized" gorm:"column:is_resized"`
	IsConvertedToWebp bool `json:"isConvertedToWebp" gorm:"column:is_converted_to_webp"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewID returns a lexicographically sortable ULID. Assigned once at creation.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// IsImage reports whether the entity is an image.
func (f *File) IsImage() bool {
	return strings.HasPrefix(f.Mime, "image/")
}

// IsVideo reports whether the entity is a video.
func (f *File) IsVideo() bool {
	return strings.HasPrefix(f.Mime, "video/")
}

// IsAudio reports whether the entity is audio.
func (f *File) IsAudio() bool {
	return strings.HasPrefix(f.Mime, "audio/")
}

// IsYoutube reports whether the entity is a YouTube reference.
func (f *File) IsYoutube() bool {
	return f.Mime == MimeYoutube
}

// IsFile reports whether the entity is a plain document (none of the above).
func (f *File) IsFile() bool {
	return !f.IsImage() && !f.IsVideo() && !f.IsAudio() && !f.IsYoutube()
}

// Size renders the stored kilobyte count as a human readable string.
func (f *File) Size() string {
	return utils.HumanFileSize(f.KB)
}

// Filename returns the stored object's file name, empty for references that
// never touched storage.
func (f *File) Filename() string {
	if f.IsYoutube() || f.Path == "" {
		return ""
	}
	parts := strings.Split(f.Path, "/")
	return parts[len(parts)-1]
}

// Type maps the MIME type onto the display tag vocabulary. Office document
// types must match before the generic fallthrough, so the checks are ordered.
func (f *File) Type() string {
	mime := f.Mime

	if strings.HasPrefix(mime, "image/") {
		return strings.TrimPrefix(mime, "image/")
	}

	switch {
	case mime == MimeYoutube:
		return "youtube"
	case strings.HasSuffix(mime, "ld+json"):
		return "jsonld"
	case strings.HasSuffix(mime, "svg+xml"):
		return "svg"
	case strings.HasSuffix(mime, "plain"):
		return "text"
	case strings.HasSuffix(mime, "msword"),
		strings.HasSuffix(mime, "vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return "word"
	case strings.HasSuffix(mime, "vnd.ms-powerpoint"),
		strings.HasSuffix(mime, "vnd.openxmlformats-officedocument.presentationml.presentation"):
		return "ppt"
	case strings.HasSuffix(mime, "vnd.ms-excel"),
		strings.HasSuffix(mime, "vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return "excel"
	case strings.HasSuffix(mime, "/pdf"):
		return "pdf"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	case strings.HasPrefix(mime, "audio/"):
		return "audio"
	default:
		return "file"
	}
}

// OptimizedPath reconstructs the derivative's storage path from the
// optimization flags and the source path. Empty when no derivative exists.
func (f *File) OptimizedPath() string {
	if f.Path == "" || (!f.IsResized && !f.IsConvertedToWebp) {
		return ""
	}

	base := f.Path
	if idx := strings.LastIndex(base, "."); idx > strings.LastIndex(base, "/") {
		base = base[:idx]
	}

	extension := f.Extension
	if f.IsConvertedToWebp {
		extension = "webp"
	}

	return base + OptimizedSuffix + "." + extension
}

// Endpoint resolves the access-ready URL for the entity. YouTube references
// always resolve to the embed form. Unresolvable endpoints yield the 404
// placeholder; resolvable but unauthorized ones yield the 403 placeholder
// unless noauth bypasses the check.
func (f *File) Endpoint(store storage.Store, noauth, optimized bool) string {
	if f.IsYoutube() {
		return "https://www.youtube.com/embed/" + f.Data.Vid
	}

	resolved := f.resolve(store, optimized)
	if resolved == "" {
		return Endpoint404
	}
	if !noauth && !Authorize(f) {
		return Endpoint403
	}
	return resolved
}

func (f *File) resolve(store storage.Store, optimized bool) string {
	path := f.Path
	if optimized {
		if derived := f.OptimizedPath(); derived != "" {
			path = derived
		}
	}

	if path != "" && store != nil {
		switch {
		case f.Disk == "local":
			return store.URL(path)
		case storage.IsRemote(f.Disk) && f.Visibility == storage.VisibilityPrivate:
			signed, err := store.TemporaryURL(path, time.Hour)
			if err != nil {
				return ""
			}
			return signed
		case storage.IsRemote(f.Disk):
			return store.URL(path)
		}
	}

	return f.URL
}

// FileResponse is the public representation returned by the API.
type FileResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Mime              string    `json:"mime"`
	Extension         string    `json:"extension"`
	Type              string    `json:"type"`
	KB                float64   `json:"kb"`
	Size              string    `json:"size"`
	Width             *int      `json:"width"`
	Height            *int      `json:"height"`
	Alt               string    `json:"alt"`
	Disk              string    `json:"disk"`
	Visibility        string    `json:"visibility"`
	IsImage           bool      `json:"isImage"`
	IsVideo           bool      `json:"isVideo"`
	IsAudio           bool      `json:"isAudio"`
	IsYoutube         bool      `json:"isYoutube"`
	IsFile            bool      `json:"isFile"`
	IsResized         bool      `json:"isResized"`
	IsConvertedToWebp bool      `json:"isConvertedToWebp"`
	Endpoint          string    `json:"endpoint"`
	OptimizedEndpoint string    `json:"optimizedEndpoint"`
	Data              FileData  `json:"data"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Response builds the public representation of the entity.
func (f *File) Response(store storage.Store) FileResponse {
	return FileResponse{
		ID:                f.ID,
		Name:              f.Name,
		Mime:              f.Mime,
		Extension:         f.Extension,
		Type:              f.Type(),
		KB:                f.KB,
		Size:              f.Size(),
		Width:             f.Width,
		Height:            f.Height,
		Alt:               f.Alt,
		Disk:              f.Disk,
		Visibility:        f.Visibility,
		IsImage:           f.IsImage(),
		IsVideo:           f.IsVideo(),
		IsAudio:           f.IsAudio(),
		IsYoutube:         f.IsYoutube(),
		IsFile:            f.IsFile(),
		IsResized:         f.IsResized,
		IsConvertedToWebp: f.IsConvertedToWebp,
		Endpoint:          f.Endpoint(store, false, false),
		OptimizedEndpoint: f.Endpoint(store, false, true),
		Data:              f.Data,
		CreatedAt:         f.CreatedAt,
	}
}
