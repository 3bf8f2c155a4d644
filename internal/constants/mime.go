package constants

// MIME registry keyed by canonical lowercase extension. Client-reported MIME
// types are unreliable (a renamed file carries whatever type the browser
// guesses), so uploads are resolved through this table first and fall back to
// the sniffed value only for unknown extensions.

type mimeEntry struct {
	Extension string
	Mime      string
}

// mimeRegistry is ordered so reverse lookups are deterministic: the first
// registered extension wins for a shared MIME type (image/jpeg -> "jpg",
// image/tiff -> "tif").
var mimeRegistry = []mimeEntry{
	{"txt", "text/plain"},
	{"html", "text/html"},
	{"htm", "text/html"},
	{"css", "text/css"},
	{"js", "text/javascript"},
	{"mjs", "text/javascript"},
	{"csv", "text/csv"},
	{"xml", "application/xml"},
	{"jpg", "image/jpeg"},
	{"jpeg", "image/jpeg"},
	{"png", "image/png"},
	{"gif", "image/gif"},
	{"svg", "image/svg+xml"},
	{"webp", "image/webp"},
	{"bmp", "image/bmp"},
	{"tif", "image/tiff"},
	{"tiff", "image/tiff"},
	{"ico", "image/x-icon"},
	{"mp3", "audio/mpeg"},
	{"ogg", "audio/ogg"},
	{"oga", "audio/ogg"},
	{"wav", "audio/wav"},
	{"aac", "audio/aac"},
	{"weba", "audio/webm"},
	{"mp4", "video/mp4"},
	{"mpeg", "video/mpeg"},
	{"mpg", "video/mpeg"},
	{"ogv", "video/ogg"},
	{"webm", "video/webm"},
	{"mov", "video/quicktime"},
	{"avi", "video/x-msvideo"},
	{"pdf", "application/pdf"},
	{"json", "application/json"},
	{"jsonld", "application/ld+json"},
	{"zip", "application/zip"},
	{"gz", "application/gzip"},
	{"rar", "application/vnd.rar"},
	{"tar", "application/x-tar"},
	{"7z", "application/x-7z-compressed"},
	{"bin", "application/octet-stream"},
	{"doc", "application/msword"},
	{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	{"xls", "application/vnd.ms-excel"},
	{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	{"ppt", "application/vnd.ms-powerpoint"},
	{"pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
	{"odt", "application/vnd.oasis.opendocument.text"},
	{"ods", "application/vnd.oasis.opendocument.spreadsheet"},
	{"odp", "application/vnd.oasis.opendocument.presentation"},
	{"woff", "font/woff"},
	{"woff2", "font/woff2"},
	{"ttf", "font/ttf"},
	{"otf", "font/otf"},
}

var mimeByExtension = func() map[string]string {
	m := make(map[string]string, len(mimeRegistry))
	for _, e := range mimeRegistry {
		m[e.Extension] = e.Mime
	}
	return m
}()

// LookupMime returns the canonical MIME type for a registered extension.
func LookupMime(extension string) (string, bool) {
	mime, ok := mimeByExtension[extension]
	return mime, ok
}

// LookupExtension returns the first registered extension for a MIME type.
func LookupExtension(mime string) (string, bool) {
	for _, e := range mimeRegistry {
		if e.Mime == mime {
			return e.Extension, true
		}
	}
	return "", false
}

// ResolveMime prefers the registry over a sniffed fallback so renamed files
// keep the type implied by their original extension.
func ResolveMime(extension, fallback string) string {
	if mime, ok := LookupMime(extension); ok {
		return mime
	}
	return fallback
}
