// feedclient/client.go
package feedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Comment mirrors the comment objects the feed API serves.
type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post mirrors the post objects the feed API serves.
type Post struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Avatar      *string   `json:"avatar"`
	Content     string    `json:"content"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"createdAt"`
	Likes       int       `json:"likes"`
	Comments    int       `json:"comments"`
	Liked       bool      `json:"liked"`
	CommentList []Comment `json:"commentList"`
}

type Page struct {
	Posts   []Post `json:"posts"`
	HasMore bool   `json:"hasMore"`
}

type LikeResult struct {
	Liked      bool `json:"liked"`
	TotalLikes int  `json:"totalLikes"`
}

type CommentResult struct {
	Comment       Comment `json:"comment"`
	TotalComments int     `json:"totalComments"`
}

// APIError is any non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to the feed endpoints. The cookie jar carries the
// session, so one Client is one logged-in identity.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
	}
}

func (c *Client) FetchPage(ctx context.Context, limit, offset int) (*Page, error) {
	var page Page
	path := fmt.Sprintf("/api/feedupdate?limit=%d&offset=%d", limit, offset)
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreatePost(ctx context.Context, text string) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodPost, "/api/feedupdate", map[string]string{"text": text}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) ToggleLike(ctx context.Context, postID string) (*LikeResult, error) {
	var result LikeResult
	if err := c.do(ctx, http.MethodPost, "/api/feedupdate/"+postID+"/like", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) AddComment(ctx context.Context, postID, text string) (*CommentResult, error) {
	var result CommentResult
	if err := c.do(ctx, http.MethodPost, "/api/feedupdate/"+postID+"/comment", map[string]string{"text": text}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
