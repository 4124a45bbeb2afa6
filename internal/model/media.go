package model

import (
	"io"
	"strings"
	"time"
)

// Media is an uploaded attachment. Path is relative to the media root,
// e.g. "media/4f1c....png".
type Media struct {
	ID          int64     `db:"id" json:"id"`
	Path        string    `db:"path" json:"path"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MediaUpload is a single file handed to the media service.
type MediaUpload struct {
	Filename    string
	ContentType string // declared by the client, may carry parameters
	Body        io.Reader
}

// MediaUploadResponse is returned after a successful upload.
type MediaUploadResponse struct {
	Result  bool  `json:"result"`
	MediaID int64 `json:"media_id"`
}

// Supported content types for upload validation
const (
	ContentTypeJPEG   = "image/jpeg"
	ContentTypePNG    = "image/png"
	ContentTypeGIF    = "image/gif"
	ContentTypeWebP   = "image/webp"
	ContentTypeIcon   = "image/x-icon"
	ContentTypeMSIcon = "image/vnd.microsoft.icon"
	ContentTypeMP4    = "video/mp4"
)

// DefaultAllowedMediaTypes is the allow-list used when none is configured.
var DefaultAllowedMediaTypes = []string{
	ContentTypeJPEG,
	ContentTypePNG,
	ContentTypeWebP,
	ContentTypeGIF,
	ContentTypeIcon,
	ContentTypeMSIcon,
}

var mediaExtensions = map[string]string{
	ContentTypeJPEG:   ".jpg",
	ContentTypePNG:    ".png",
	ContentTypeGIF:    ".gif",
	ContentTypeWebP:   ".webp",
	ContentTypeIcon:   ".ico",
	ContentTypeMSIcon: ".ico",
	ContentTypeMP4:    ".mp4",
}

// ExtensionForType returns the canonical file extension for a content type.
func ExtensionForType(contentType string) string {
	return mediaExtensions[strings.ToLower(contentType)]
}

// Media errors
var (
	ErrMediaNotFound    = NewError(KindNotFound, "one or more media not found")
	ErrMediaEmpty       = Validation("uploaded file is empty")
	ErrMediaRequired    = Validation("file is required")
	ErrMediaTooLarge    = Validation("uploaded file is too large")
	ErrInvalidMediaType = Validation("unsupported media type")
	ErrUndecodableImage = Validation("uploaded image cannot be decoded")
)
