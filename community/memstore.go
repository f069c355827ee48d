// community/memstore.go
package community

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store used by the tests. It enforces the
// same invariants the Postgres schema does, in particular the one-
// like-per-(feed,user) rule.
type MemStore struct {
	mu       sync.Mutex
	users    map[string]*User
	feeds    map[string]*FeedPost
	likes    map[string]map[string]bool
	comments map[string][]Comment
	games    map[int64]*Game
	crew     map[int64]*CrewMember
	clips    []Clip
	nextID   int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[string]*User),
		feeds:    make(map[string]*FeedPost),
		likes:    make(map[string]map[string]bool),
		comments: make(map[string][]Comment),
		games:    make(map[int64]*Game),
		crew:     make(map[int64]*CrewMember),
	}
}

func (s *MemStore) sequence() int64 {
	s.nextID++
	return s.nextID
}

// --- FeedStore ---

func (s *MemStore) ListFeed(ctx context.Context, userID string, limit, offset int) ([]FeedPost, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ordered := make([]*FeedPost, 0, len(s.feeds))
	for _, f := range s.feeds {
		ordered = append(ordered, f)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
		}
		return ordered[i].ID > ordered[j].ID
	})

	if offset > len(ordered) {
		offset = len(ordered)
	}
	end := offset + limit
	if end > len(ordered) {
		end = len(ordered)
	}
	hasMore := end < len(ordered)

	posts := make([]FeedPost, 0, end-offset)
	for _, f := range ordered[offset:end] {
		p := *f
		p.Likes = len(s.likes[f.ID])
		p.Comments = len(s.comments[f.ID])
		p.Liked = s.likes[f.ID][userID]
		p.CommentList = append([]Comment{}, s.comments[f.ID]...)
		posts = append(posts, p)
	}
	return posts, hasMore, nil
}

func (s *MemStore) CreateFeedPost(ctx context.Context, post *FeedPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	stored := *post
	s.feeds[post.ID] = &stored
	return nil
}

func (s *MemStore) ToggleLike(ctx context.Context, feedID, userID string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.feeds[feedID]; !ok {
		return false, 0, fmt.Errorf("feed %s: %w", feedID, ErrNotFound)
	}
	set := s.likes[feedID]
	if set == nil {
		set = make(map[string]bool)
		s.likes[feedID] = set
	}
	liked := !set[userID]
	if liked {
		set[userID] = true
	} else {
		delete(set, userID)
	}
	return liked, len(set), nil
}

func (s *MemStore) AddComment(ctx context.Context, comment *Comment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.feeds[comment.FeedID]; !ok {
		return 0, fmt.Errorf("feed %s: %w", comment.FeedID, ErrNotFound)
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	s.comments[comment.FeedID] = append(s.comments[comment.FeedID], *comment)
	return len(s.comments[comment.FeedID]), nil
}

// CommentCount reports the stored comment cardinality for a post,
// bypassing the page query. Test helper.
func (s *MemStore) CommentCount(feedID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comments[feedID])
}

// LikeCount reports the stored like cardinality for a post. Test
// helper.
func (s *MemStore) LikeCount(feedID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.likes[feedID])
}

// --- UserStore ---

func (s *MemStore) SaveUser(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *u
	s.users[u.ID] = &stored
	return nil
}

func (s *MemStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (s *MemStore) GetUserByDiscordID(ctx context.Context, discordID string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.DiscordID != nil && *u.DiscordID == discordID && u.IsActive {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("discord user %s: %w", discordID, ErrNotFound)
}

func (s *MemStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username && u.IsActive {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
}

func (s *MemStore) UpdateDiscordProfile(ctx context.Context, discordID, username string, avatar *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.DiscordID != nil && *u.DiscordID == discordID {
			u.Username = username
			u.Avatar = avatar
			u.Updated = time.Now().UTC()
		}
	}
	return nil
}

// --- GameStore ---

func (s *MemStore) ListGames(ctx context.Context) ([]Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	games := make([]Game, 0, len(s.games))
	for _, g := range s.games {
		copied := *g
		copied.Quotes = nil
		copied.Notes = nil
		games = append(games, copied)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].CreatedAt.After(games[j].CreatedAt) })
	return games, nil
}

func (s *MemStore) GetGame(ctx context.Context, id int64) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("game %d: %w", id, ErrNotFound)
	}
	copied := *g
	copied.Quotes = append([]string{}, g.Quotes...)
	copied.Notes = append([]string{}, g.Notes...)
	return &copied, nil
}

func (s *MemStore) CreateGame(ctx context.Context, g *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.sequence()
	g.CreatedAt = time.Now().UTC()
	stored := *g
	s.games[g.ID] = &stored
	return nil
}

func (s *MemStore) UpdateGame(ctx context.Context, g *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; !ok {
		return fmt.Errorf("game %d: %w", g.ID, ErrNotFound)
	}
	g.CreatedAt = time.Now().UTC()
	stored := *g
	s.games[g.ID] = &stored
	return nil
}

func (s *MemStore) DeleteGame(ctx context.Context, id int64) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, fmt.Errorf("game %d: %w", id, ErrNotFound)
	}
	delete(s.games, id)
	copied := *g
	return &copied, nil
}

func (s *MemStore) ListQuotes(ctx context.Context) ([]Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var quotes []Quote
	var id int64
	ids := make([]int64, 0, len(s.games))
	for gid := range s.games {
		ids = append(ids, gid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, gid := range ids {
		for _, q := range s.games[gid].Quotes {
			id++
			quotes = append(quotes, Quote{ID: id, GameID: gid, Content: q})
		}
	}
	return quotes, nil
}

// --- CrewStore ---

func (s *MemStore) ListCrew(ctx context.Context) ([]CrewMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members := make([]CrewMember, 0, len(s.crew))
	for _, m := range s.crew {
		members = append(members, *m)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members, nil
}

func (s *MemStore) GetCrewMember(ctx context.Context, id int64) (*CrewMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.crew[id]
	if !ok {
		return nil, fmt.Errorf("crew member %d: %w", id, ErrNotFound)
	}
	copied := *m
	return &copied, nil
}

func (s *MemStore) CreateCrewMember(ctx context.Context, m *CrewMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.sequence()
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	stored := *m
	s.crew[m.ID] = &stored
	return nil
}

func (s *MemStore) UpdateCrewMember(ctx context.Context, m *CrewMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.crew[m.ID]
	if !ok {
		return fmt.Errorf("crew member %d: %w", m.ID, ErrNotFound)
	}
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = time.Now().UTC()
	stored := *m
	s.crew[m.ID] = &stored
	return nil
}

func (s *MemStore) DeleteCrewMember(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.crew[id]; !ok {
		return fmt.Errorf("crew member %d: %w", id, ErrNotFound)
	}
	delete(s.crew, id)
	return nil
}

// --- ClipStore ---

func (s *MemStore) CreateClip(ctx context.Context, c *Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.sequence()
	c.CreatedAt = time.Now().UTC()
	s.clips = append(s.clips, *c)
	return nil
}

func (s *MemStore) ListClips(ctx context.Context) ([]Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clips := append([]Clip{}, s.clips...)
	sort.Slice(clips, func(i, j int) bool { return clips[i].CreatedAt.After(clips[j].CreatedAt) })
	return clips, nil
}
