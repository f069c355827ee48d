package community

import "context"

// Store is what the handlers need from persistence. Database backs it
// with Postgres; MemStore backs the tests.
type Store interface {
	UserStore
	FeedStore
	GameStore
	CrewStore
	ClipStore
}

type UserStore interface {
	SaveUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	// GetUserByDiscordID only returns active accounts; a deactivated
	// member cannot log back in through Discord.
	GetUserByDiscordID(ctx context.Context, discordID string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateDiscordProfile(ctx context.Context, discordID, username string, avatar *string) error
}

type FeedStore interface {
	// ListFeed returns one page of the feed, newest first, annotated
	// for the requesting user. The second result reports whether more
	// rows exist past this page.
	ListFeed(ctx context.Context, userID string, limit, offset int) ([]FeedPost, bool, error)
	CreateFeedPost(ctx context.Context, post *FeedPost) error
	// ToggleLike flips the (feed, user) like pair and returns the new
	// liked state along with a freshly counted total.
	ToggleLike(ctx context.Context, feedID, userID string) (liked bool, total int, err error)
	// AddComment appends the comment and returns the recounted total
	// for its post.
	AddComment(ctx context.Context, comment *Comment) (total int, err error)
}

type GameStore interface {
	ListGames(ctx context.Context) ([]Game, error)
	GetGame(ctx context.Context, id int64) (*Game, error)
	CreateGame(ctx context.Context, g *Game) error
	UpdateGame(ctx context.Context, g *Game) error
	DeleteGame(ctx context.Context, id int64) (*Game, error)
	ListQuotes(ctx context.Context) ([]Quote, error)
}

type CrewStore interface {
	ListCrew(ctx context.Context) ([]CrewMember, error)
	GetCrewMember(ctx context.Context, id int64) (*CrewMember, error)
	CreateCrewMember(ctx context.Context, m *CrewMember) error
	UpdateCrewMember(ctx context.Context, m *CrewMember) error
	DeleteCrewMember(ctx context.Context, id int64) error
}

type ClipStore interface {
	CreateClip(ctx context.Context, c *Clip) error
	ListClips(ctx context.Context) ([]Clip, error)
}
