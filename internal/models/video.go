package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Video struct {
	VideoID      string    `json:"videoId" validate:"required"`
	Title        string    `json:"title"`
	ChannelTitle string    `json:"channelTitle,omitempty"`
	ThumbnailURL string    `json:"thumbnail,omitempty"`
	Duration     string    `json:"duration,omitempty"`
	ViewCount    int64     `json:"viewCount,omitempty"`
	PublishedAt  time.Time `json:"publishedAt,omitempty"`
	URL          string    `json:"url,omitempty"`
}

type VideoList struct {
	Videos []Video `json:"videos" validate:"dive"`
}

// FormatDuration renders a duration given in seconds as M:SS. Values that
// are already formatted or unparsable are returned unchanged.
func FormatDuration(d string) string {
	if d == "" || strings.Contains(d, ":") {
		return d
	}
	total, err := strconv.Atoi(d)
	if err != nil {
		return d
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func FormatViewCount(n int64) string {
	switch {
	case n <= 0:
		return "0 views"
	case n < 1_000:
		return fmt.Sprintf("%d views", n)
	case n < 1_000_000:
		return fmt.Sprintf("%dK views", (n+500)/1_000)
	case n < 1_000_000_000:
		return fmt.Sprintf("%dM views", (n+500_000)/1_000_000)
	default:
		return fmt.Sprintf("%dB views", (n+500_000_000)/1_000_000_000)
	}
}
