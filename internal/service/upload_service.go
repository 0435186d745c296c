package service

import (
	"context"
	"io"
	"path"
	"time"

	"github.com/fjod/go_bookstore/internal/storage"
	"github.com/rs/zerolog"
)

type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

type UploadService struct {
	store storage.Store
	log   zerolog.Logger
	now   func() time.Time
}

func NewUploadService(store storage.Store, log zerolog.Logger) *UploadService {
	return &UploadService{
		store: store,
		log:   log.With().Str("component", "upload").Logger(),
		now:   time.Now,
	}
}

func (s *UploadService) Upload(ctx context.Context, uploadType, fileName, contentType string, body io.Reader) (UploadResult, error) {
	folder, err := storage.FolderFor(uploadType)
	if err != nil {
		return UploadResult{}, err
	}

	key := storage.ObjectKey(folder, path.Base(fileName), s.now())
	url, err := s.store.Upload(ctx, key, contentType, body)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("upload failed")
		return UploadResult{}, err
	}

	s.log.Info().Str("key", key).Str("type", uploadType).Msg("file uploaded")
	return UploadResult{URL: url, Key: key}, nil
}
