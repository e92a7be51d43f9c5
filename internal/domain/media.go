package domain

import "time"

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

type MediaAsset struct {
	ID        int64
	UserID    UserID
	FileURL   string
	FileType  MediaKind
	MimeType  string
	SizeBytes int64
	CreatedAt time.Time
}
