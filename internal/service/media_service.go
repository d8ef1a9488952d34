package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Himejjad/media-app/internal/apperr"
	"github.com/Himejjad/media-app/internal/config"
	"github.com/Himejjad/media-app/internal/domain"
	"github.com/Himejjad/media-app/internal/repository"
	"github.com/Himejjad/media-app/internal/storage"
	"github.com/Himejjad/media-app/internal/transcode"
)

const keyPrefix = "media/"

// AnonymousUploader is recorded when no identity accompanies a request.
const AnonymousUploader = "anonymous"

// UploadInput is one candidate file from a multipart request, already
// read into memory.
type UploadInput struct {
	OriginalName string
	ContentType  string
	Size         int64
	Data         []byte
}

// MediaService orchestrates the catalog and object store per operation.
type MediaService interface {
	List(ctx context.Context, opts domain.ListOptions) (*repository.ListResult, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.Media, error)
	Upload(ctx context.Context, files []UploadInput, uploadedBy string) ([]domain.Media, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Stats(ctx context.Context) (*domain.StatsSummary, error)
}

type mediaService struct {
	repo       repository.MediaRepository
	store      storage.ObjectStorage
	transcoder transcode.Transcoder
	uploadCfg  config.UploadConfig
	logger     *zap.Logger
}

// NewMediaService creates a new instance of mediaService.
func NewMediaService(
	repo repository.MediaRepository,
	store storage.ObjectStorage,
	transcoder transcode.Transcoder,
	uploadCfg config.UploadConfig,
	logger *zap.Logger,
) MediaService {
	return &mediaService{
		repo:       repo,
		store:      store,
		transcoder: transcoder,
		uploadCfg:  uploadCfg,
		logger:     logger,
	}
}

func (s *mediaService) List(ctx context.Context, opts domain.ListOptions) (*repository.ListResult, error) {
	result, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "Failed to fetch media files", err)
	}
	return result, nil
}

func (s *mediaService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Media, error) {
	media, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "Media file not found")
		}
		return nil, apperr.Wrap(apperr.KindStore, "Failed to fetch media file", err)
	}
	return media, nil
}

// Upload runs the per-file pipeline for every file concurrently, bounded
// by upload.max_concurrent. The result is all-or-nothing: the first
// failure aborts the aggregate, but objects already written for sibling
// files are not rolled back.
func (s *mediaService) Upload(ctx context.Context, files []UploadInput, uploadedBy string) ([]domain.Media, error) {
	if len(files) == 0 {
		return nil, apperr.New(apperr.KindValidation, "No files uploaded")
	}
	if len(files) > s.uploadCfg.MaxFiles {
		return nil, apperr.Newf(apperr.KindValidation,
			"Too many files. Maximum is %d files per request", s.uploadCfg.MaxFiles)
	}
	if uploadedBy == "" {
		uploadedBy = AnonymousUploader
	}

	results := make([]domain.Media, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.uploadCfg.MaxConcurrent)
	for i, file := range files {
		g.Go(func() error {
			media, err := s.uploadOne(gctx, file, uploadedBy)
			if err != nil {
				s.logger.Error("upload failed",
					zap.String("file", file.OriginalName), zap.Error(err))
				return err
			}
			results[i] = *media
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *mediaService) uploadOne(ctx context.Context, file UploadInput, uploadedBy string) (*domain.Media, error) {
	if err := ValidateFile(file.OriginalName, file.ContentType, file.Size, s.uploadCfg.MaxFileSize); err != nil {
		return nil, err
	}

	sanitized := SanitizeFilename(file.OriginalName)

	processed, err := s.transcoder.Transcode(file.Data, file.ContentType)
	if err != nil {
		return nil, err
	}

	mediaType, _ := MediaTypeOf(file.ContentType)

	key := fmt.Sprintf("%s%d-%s.%s",
		keyPrefix, time.Now().UnixMilli(), uuid.NewString(), FileExtension(processed.ContentType))

	put, err := s.store.Put(ctx, key, processed.Data, processed.ContentType, map[string]string{
		"original-name": sanitized,
		"upload-date":   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}

	media := &domain.Media{
		Name:         sanitized,
		OriginalName: file.OriginalName,
		URL:          put.URL,
		S3Key:        key,
		Type:         mediaType,
		MimeType:     processed.ContentType,
		Size:         int64(len(processed.Data)),
		Metadata: domain.MediaMetadata{
			ETag:       put.ETag,
			Bucket:     s.store.Bucket(),
			UploadedBy: uploadedBy,
		},
	}

	// Object write precedes the catalog insert. If the insert fails the
	// object is orphaned; there is no compensating cleanup.
	if _, err := s.repo.Create(ctx, media); err != nil {
		return nil, apperr.Wrap(apperr.KindStore,
			fmt.Sprintf("Failed to upload %s", file.OriginalName), err)
	}

	s.logger.Info("file uploaded",
		zap.String("key", key),
		zap.String("type", string(mediaType)),
		zap.Int64("size", media.Size))
	return media, nil
}

// Delete removes the stored object, then the catalog record. A hard
// store error keeps the record so the delete can be retried; an absent
// object does not block catalog deletion.
func (s *mediaService) Delete(ctx context.Context, id primitive.ObjectID) error {
	media, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if media.S3Key != "" {
		if err := s.store.Delete(ctx, media.S3Key); err != nil {
			return apperr.Wrap(apperr.KindStore, "Failed to delete media file", err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "Media file not found")
		}
		return apperr.Wrap(apperr.KindStore, "Failed to delete media file", err)
	}

	s.logger.Info("media deleted", zap.String("id", id.Hex()), zap.String("key", media.S3Key))
	return nil
}

func (s *mediaService) Stats(ctx context.Context) (*domain.StatsSummary, error) {
	summary, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStore, "Failed to fetch statistics", err)
	}
	return summary, nil
}
