package service

import (
	"context"
	"strings"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/rs/zerolog"
)

// VideoService looks up related videos. Failures never propagate: an empty
// list is returned instead.
type VideoService struct {
	client integration.VideoClient
	logger zerolog.Logger
}

func NewVideoService(client integration.VideoClient, logger zerolog.Logger) *VideoService {
	return &VideoService{
		client: client,
		logger: logger,
	}
}

func (s *VideoService) DocumentVideos(ctx context.Context, documentID string, refresh bool, limit int) []models.Video {
	if documentID == "" {
		return []models.Video{}
	}

	videos, err := s.client.DocumentVideos(ctx, documentID, refresh, limit)
	if err != nil {
		s.logger.Warn().Err(err).Str("document_id", documentID).Msg("Failed to load related videos")
		return []models.Video{}
	}
	if videos == nil {
		return []models.Video{}
	}
	return videos
}

func (s *VideoService) Search(ctx context.Context, query string, maxResults int) []models.Video {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Video{}
	}

	videos, err := s.client.Search(ctx, query, maxResults)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("Video search failed")
		return []models.Video{}
	}
	if videos == nil {
		return []models.Video{}
	}
	return videos
}
