package mail

import (
	"mime"
	"path/filepath"
	"strings"
)

// DefaultMediaType is used when the extension is not recognised.
const DefaultMediaType = "application/octet-stream"

// The system MIME table is often missing video types on minimal hosts.
var knownMediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
}

// MediaType infers a media type from the file name, without parameters.
func MediaType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return DefaultMediaType
	}
	if t, ok := knownMediaTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
	}
	return DefaultMediaType
}

// attachmentContentType returns the Content-Type header value for a named part.
func attachmentContentType(path string) string {
	mediaType := MediaType(path)
	if v := mime.FormatMediaType(mediaType, map[string]string{"name": filepath.Base(path)}); v != "" {
		return v
	}
	return mediaType
}
