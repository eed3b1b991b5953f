package integration

import (
	"context"
	"net/url"
	"strconv"

	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/rs/zerolog"
)

type VideoClient interface {
	DocumentVideos(ctx context.Context, documentID string, refresh bool, limit int) ([]models.Video, error)
	Search(ctx context.Context, query string, maxResults int) ([]models.Video, error)
}

type videoClient struct {
	gw     *Gateway
	logger zerolog.Logger
}

func NewVideoClient(gw *Gateway, logger zerolog.Logger) VideoClient {
	return &videoClient{
		gw:     gw,
		logger: logger,
	}
}

func (c *videoClient) DocumentVideos(ctx context.Context, documentID string, refresh bool, limit int) ([]models.Video, error) {
	query := url.Values{}
	query.Set("refresh", strconv.FormatBool(refresh))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var list models.VideoList
	if err := c.gw.Get(ctx, "/youtube/"+url.PathEscape(documentID)+"/videos", query, &list); err != nil {
		return nil, err
	}
	return list.Videos, nil
}

func (c *videoClient) Search(ctx context.Context, q string, maxResults int) ([]models.Video, error) {
	query := url.Values{}
	query.Set("query", q)
	if maxResults > 0 {
		query.Set("maxResults", strconv.Itoa(maxResults))
	}

	var list models.VideoList
	if err := c.gw.Get(ctx, "/youtube/search", query, &list); err != nil {
		return nil, err
	}
	return list.Videos, nil
}
