// community/youtube.go
package community

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// VideoSource supplies external videos for the vault.
type VideoSource interface {
	Videos(ctx context.Context) ([]VaultItem, error)
}

const youtubePlaylistItemsURL = "https://www.googleapis.com/youtube/v3/playlistItems"

// YouTubeClient reads a fixed playlist through the YouTube Data API.
// A client with no API key or playlist is a valid no-op source.
type YouTubeClient struct {
	APIKey     string
	PlaylistID string
	BaseURL    string
	HTTPClient *http.Client
}

func NewYouTubeClient(apiKey, playlistID string) *YouTubeClient {
	return &YouTubeClient{
		APIKey:     apiKey,
		PlaylistID: playlistID,
		BaseURL:    youtubePlaylistItemsURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type playlistResponse struct {
	Items []struct {
		Snippet struct {
			Title       string    `json:"title"`
			PublishedAt time.Time `json:"publishedAt"`
			ResourceID  struct {
				VideoID string `json:"videoId"`
			} `json:"resourceId"`
			Thumbnails struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

func (c *YouTubeClient) Videos(ctx context.Context) ([]VaultItem, error) {
	if c.APIKey == "" || c.PlaylistID == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("playlistId", c.PlaylistID)
	params.Set("maxResults", "10")
	params.Set("key", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube playlistItems returned %s", resp.Status)
	}

	var payload playlistResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	items := make([]VaultItem, 0, len(payload.Items))
	for _, it := range payload.Items {
		items = append(items, VaultItem{
			ID:        "yt-" + it.Snippet.ResourceID.VideoID,
			Source:    "youtube",
			Title:     it.Snippet.Title,
			Type:      "video",
			Game:      "YouTube",
			Tags:      []string{"youtube"},
			Thumbnail: it.Snippet.Thumbnails.Medium.URL,
			YouTubeID: it.Snippet.ResourceID.VideoID,
			CreatedAt: it.Snippet.PublishedAt,
		})
	}
	return items, nil
}
