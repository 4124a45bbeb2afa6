package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"microblog/internal/metrics"
	"microblog/internal/model"
	"microblog/internal/repository"
	"microblog/internal/storage"
)

// MediaConfig holds the upload limits and naming settings.
type MediaConfig struct {
	AllowedTypes []string
	// MaxBytes rejects larger payloads; zero means unlimited.
	MaxBytes int64
	// MaxImageDimension downscales larger jpeg/png/gif images; zero disables it.
	MaxImageDimension int
	// URLPrefix is the first path segment of every stored media path.
	URLPrefix string
}

// MediaService validates uploads, stores their bytes and records Media rows.
type MediaService struct {
	repo    repository.MediaRepository
	store   storage.Store
	cfg     MediaConfig
	allowed map[string]bool
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewMediaService(repo repository.MediaRepository, store storage.Store, cfg MediaConfig, m *metrics.Metrics, log *zap.Logger) *MediaService {
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = model.DefaultAllowedMediaTypes
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "media"
	}
	cfg.URLPrefix = strings.Trim(cfg.URLPrefix, "/")

	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(t)] = true
	}

	return &MediaService{
		repo:    repo,
		store:   store,
		cfg:     cfg,
		allowed: allowed,
		metrics: m,
		log:     log,
	}
}

// Upload stores one file and returns its Media row. A rejected upload leaves
// neither a blob nor a row behind.
func (s *MediaService) Upload(ctx context.Context, upload model.MediaUpload) (*model.Media, error) {
	media, err := s.upload(ctx, upload)
	if err != nil {
		if _, ok := model.KindOf(err); ok {
			s.metrics.MediaUploaded("rejected")
		}
		return nil, err
	}
	s.metrics.MediaUploaded("stored")
	return media, nil
}

func (s *MediaService) upload(ctx context.Context, upload model.MediaUpload) (*model.Media, error) {
	if upload.Body == nil {
		return nil, model.ErrMediaRequired
	}

	contentType := normalizeContentType(upload.ContentType)
	if contentType != "" && !s.allowed[contentType] {
		return nil, model.ErrInvalidMediaType
	}

	data, err := s.readLimited(upload.Body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, model.ErrMediaEmpty
	}

	if contentType == "" {
		contentType = normalizeContentType(http.DetectContentType(data))
		if !s.allowed[contentType] {
			return nil, model.ErrInvalidMediaType
		}
	}

	data, err = s.normalizeImage(data, contentType)
	if err != nil {
		return nil, err
	}

	key := s.cfg.URLPrefix + "/" + uuid.NewString() + fileExtension(upload.Filename, contentType)
	if err := s.store.Put(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store media: %w", err)
	}

	media := &model.Media{
		Path:        key,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}
	if err := s.repo.Create(ctx, media); err != nil {
		if derr := s.store.Delete(ctx, key); derr != nil {
			s.log.Error("failed to remove blob after insert failure", zap.String("path", key), zap.Error(derr))
		}
		return nil, err
	}

	s.log.Info("media stored",
		zap.Int64("media_id", media.ID),
		zap.String("path", media.Path),
		zap.String("content_type", contentType),
		zap.Int64("size_bytes", media.SizeBytes))
	return media, nil
}

func (s *MediaService) readLimited(r io.Reader) ([]byte, error) {
	if s.cfg.MaxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return nil, model.ErrMediaTooLarge
	}
	return data, nil
}

// normalizeImage downscales raster images that exceed MaxImageDimension,
// keeping the aspect ratio and the original format.
func (s *MediaService) normalizeImage(data []byte, contentType string) ([]byte, error) {
	if s.cfg.MaxImageDimension <= 0 {
		return data, nil
	}

	var format imaging.Format
	switch contentType {
	case model.ContentTypeJPEG:
		format = imaging.JPEG
	case model.ContentTypePNG:
		format = imaging.PNG
	case model.ContentTypeGIF:
		format = imaging.GIF
	default:
		return data, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, model.ErrUndecodableImage
	}
	limit := s.cfg.MaxImageDimension
	if cfg.Width <= limit && cfg.Height <= limit {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.ErrUndecodableImage
	}
	resized := imaging.Fit(img, limit, limit, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// PruneOrphans deletes media that no tweet references and that were created
// more than olderThan ago. The row goes first and only if it is still
// unreferenced; a media attached in the meantime keeps both row and blob.
func (s *MediaService) PruneOrphans(ctx context.Context, olderThan time.Duration) (int, error) {
	orphans, err := s.repo.ListOrphans(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	pruned := 0
	for _, m := range orphans {
		deleted, err := s.repo.DeleteOrphan(ctx, m.ID)
		if err != nil {
			return pruned, err
		}
		if !deleted {
			s.log.Debug("media attached since listing, kept", zap.Int64("media_id", m.ID))
			continue
		}
		if err := s.store.Delete(ctx, m.Path); err != nil {
			return pruned, fmt.Errorf("failed to delete blob %q: %w", m.Path, err)
		}
		pruned++
		s.log.Debug("orphan media pruned", zap.Int64("media_id", m.ID), zap.String("path", m.Path))
	}

	s.log.Info("orphan media pruned", zap.Int("count", pruned), zap.Duration("older_than", olderThan))
	return pruned, nil
}

// normalizeContentType strips parameters and lower-cases the media type.
func normalizeContentType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		if idx := strings.Index(contentType, ";"); idx != -1 {
			contentType = contentType[:idx]
		}
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// fileExtension keeps the client's extension only when it maps to the
// validated content type, so the stored file is always served as that type.
// Anything else gets the extension registered for the content type.
func fileExtension(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, `\`, "/")))
	if extPattern.MatchString(ext) && normalizeContentType(mime.TypeByExtension(ext)) == contentType {
		return ext
	}
	return model.ExtensionForType(contentType)
}
