package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/cwrk-planet/kcd-platform/internal/domain"
	"github.com/cwrk-planet/kcd-platform/internal/errs"
	"github.com/cwrk-planet/kcd-platform/internal/repository"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	imageExt = map[string]struct{}{".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {}, ".gif": {}}
	videoExt = map[string]struct{}{".mp4": {}, ".mov": {}, ".webm": {}, ".m4v": {}}
)

// сколько байт читает mimetype для определения типа
const sniffLen = 3072

type BlobStore interface {
	Save(ctx context.Context, name string, r io.Reader, maxBytes int64) (int64, error)
	Remove(name string) error
	URL(name string) string
}

type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

type PortfolioService struct {
	media    repository.MediaRepository
	blobs    BlobStore
	maxBytes int64
	now      func() time.Time
}

func NewPortfolioService(media repository.MediaRepository, blobs BlobStore, maxBytes int64, now func() time.Time) *PortfolioService {
	if now == nil {
		now = time.Now
	}
	return &PortfolioService{media: media, blobs: blobs, maxBytes: maxBytes, now: now}
}

func (s *PortfolioService) List(ctx context.Context, userID domain.UserID) ([]domain.MediaAsset, error) {
	return s.media.ListByUser(ctx, userID)
}

// Upload принимает только изображения и видео, имя файла: <uid>_<unix>_<uuid8><ext>
func (s *PortfolioService) Upload(ctx context.Context, userID domain.UserID, up Upload) (*domain.MediaAsset, error) {
	if strings.TrimSpace(up.FileName) == "" {
		return nil, fmt.Errorf("%w: no file uploaded", errs.ErrValidation)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("portfolio.read: %w", err)
	}
	head = head[:n]
	sniffed := mimetype.Detect(head)

	kind, ext, err := classify(up.FileName, up.ContentType, sniffed)
	if err != nil {
		return nil, err
	}

	now := s.now()
	name := fmt.Sprintf("%d_%d_%s%s", int64(userID), now.Unix(), uuid.NewString()[:8], ext)
	size, err := s.blobs.Save(ctx, name, io.MultiReader(bytes.NewReader(head), up.Body), s.maxBytes)
	if err != nil {
		return nil, err
	}

	asset := &domain.MediaAsset{
		UserID:    userID,
		FileURL:   s.blobs.URL(name),
		FileType:  kind,
		MimeType:  baseMIME(sniffed.String()),
		SizeBytes: size,
		CreatedAt: now,
	}
	id, err := s.media.Create(ctx, asset)
	if err != nil {
		slog.Error("portfolio.upload.create failed", slog.String("file", name), slog.Any("err", err))
		// без записи в БД файл никому не виден
		if rerr := s.blobs.Remove(name); rerr != nil {
			slog.Error("portfolio.upload.cleanup failed", slog.String("file", name), slog.Any("err", rerr))
		}
		return nil, err
	}
	asset.ID = id

	return asset, nil
}

// classify решает, image это или video, по содержимому, расширению и заявленному типу.
// Содержимое, опознанное как не-медиа, отклоняется независимо от расширения.
func classify(fileName, declared string, sniffed *mimetype.MIME) (domain.MediaKind, string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	sniffedKind := kindOfMIME(sniffed.String())

	if sniffedKind == "" && !sniffed.Is("application/octet-stream") {
		return "", "", fmt.Errorf("%w: %s", errs.ErrUnsupportedMedia, baseMIME(sniffed.String()))
	}

	kind := sniffedKind
	if kind == "" {
		kind = kindOfExt(ext)
	}
	if kind == "" {
		kind = kindOfMIME(declared)
	}
	if kind == "" {
		return "", "", errs.ErrUnsupportedMedia
	}

	if kindOfExt(ext) != kind {
		ext = strings.ToLower(sniffed.Extension())
		if kindOfExt(ext) != kind {
			return "", "", fmt.Errorf("%w: extension does not match content", errs.ErrUnsupportedMedia)
		}
	}

	return kind, ext, nil
}

func kindOfExt(ext string) domain.MediaKind {
	if _, ok := videoExt[ext]; ok {
		return domain.MediaVideo
	}
	if _, ok := imageExt[ext]; ok {
		return domain.MediaImage
	}
	return ""
}

func kindOfMIME(m string) domain.MediaKind {
	m = strings.ToLower(strings.TrimSpace(m))
	switch {
	case strings.HasPrefix(m, "video/"):
		return domain.MediaVideo
	case strings.HasPrefix(m, "image/"):
		return domain.MediaImage
	default:
		return ""
	}
}

func baseMIME(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.TrimSpace(m)
}
