// feedclient/feed.go
package feedclient

import (
	"context"
	"errors"
)

// State is where the feed view currently sits.
type State int

const (
	StateInitialLoading State = iota
	StateReady
	StateLoadingMore
	StateError
)

func (s State) String() string {
	switch s {
	case StateInitialLoading:
		return "initial-loading"
	case StateReady:
		return "ready"
	case StateLoadingMore:
		return "loading-more"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

var ErrNotReady = errors.New("feed is not ready")

// Feed maintains the client-side view of the community feed: an
// append-only list of fetched pages plus the paging cursor. Mutations
// patch the matching post in place with the server's canonical
// result instead of re-fetching the page.
//
// Feed models a single user's screen and is not safe for concurrent
// use.
type Feed struct {
	client   *Client
	pageSize int
	state    State
	posts    []Post
	offset   int
	hasMore  bool
	lastErr  error
}

func NewFeed(client *Client, pageSize int) *Feed {
	if pageSize <= 0 {
		pageSize = 5
	}
	return &Feed{client: client, pageSize: pageSize, state: StateInitialLoading}
}

func (f *Feed) State() State   { return f.state }
func (f *Feed) Posts() []Post  { return f.posts }
func (f *Feed) HasMore() bool  { return f.hasMore }
func (f *Feed) Offset() int    { return f.offset }
func (f *Feed) LastErr() error { return f.lastErr }

// Load fetches the first page. A failure here is the only one that
// leaves the feed in the error state; everything after keeps the
// posts already on screen.
func (f *Feed) Load(ctx context.Context) error {
	page, err := f.client.FetchPage(ctx, f.pageSize, 0)
	if err != nil {
		f.state = StateError
		f.lastErr = err
		return err
	}
	f.posts = page.Posts
	f.offset = len(page.Posts)
	f.hasMore = page.HasMore
	f.state = StateReady
	f.lastErr = nil
	return nil
}

// LoadMore appends the next page. Existing entries are never
// reordered. On failure the cursor stays put so the same request can
// be retried.
func (f *Feed) LoadMore(ctx context.Context) error {
	if f.state != StateReady {
		return ErrNotReady
	}
	if !f.hasMore {
		return nil
	}
	f.state = StateLoadingMore
	page, err := f.client.FetchPage(ctx, f.pageSize, f.offset)
	if err != nil {
		f.state = StateReady
		f.lastErr = err
		return err
	}
	f.posts = append(f.posts, page.Posts...)
	f.offset += len(page.Posts)
	f.hasMore = page.HasMore
	f.state = StateReady
	f.lastErr = nil
	return nil
}

// Post publishes a new status and prepends it to the view. The paging
// cursor does not move: the new post came from this client, not from
// a fetched page.
func (f *Feed) Post(ctx context.Context, text string) (*Post, error) {
	if f.state != StateReady {
		return nil, ErrNotReady
	}
	created, err := f.client.CreatePost(ctx, text)
	if err != nil {
		f.lastErr = err
		return nil, err
	}
	f.posts = append([]Post{*created}, f.posts...)
	return created, nil
}

// ToggleLike flips the like on one visible post and applies the
// server's recomputed total.
func (f *Feed) ToggleLike(ctx context.Context, postID string) error {
	if f.state != StateReady {
		return ErrNotReady
	}
	result, err := f.client.ToggleLike(ctx, postID)
	if err != nil {
		f.lastErr = err
		return err
	}
	for i := range f.posts {
		if f.posts[i].ID == postID {
			f.posts[i].Liked = result.Liked
			f.posts[i].Likes = result.TotalLikes
			break
		}
	}
	return nil
}

// Comment appends a comment to one visible post and applies the
// server's recomputed total.
func (f *Feed) Comment(ctx context.Context, postID, text string) error {
	if f.state != StateReady {
		return ErrNotReady
	}
	result, err := f.client.AddComment(ctx, postID, text)
	if err != nil {
		f.lastErr = err
		return err
	}
	for i := range f.posts {
		if f.posts[i].ID == postID {
			f.posts[i].CommentList = append(f.posts[i].CommentList, result.Comment)
			f.posts[i].Comments = result.TotalComments
			break
		}
	}
	return nil
}
