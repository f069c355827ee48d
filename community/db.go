// community/db.go
package community

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// The like-pair uniqueness constraint is load-bearing: ToggleLike
// relies on it to stay race-safe, so it lives here and not in the
// application code.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    discord_id TEXT UNIQUE,
    username TEXT NOT NULL,
    avatar TEXT,
    role TEXT NOT NULL DEFAULT 'member',
    hash BYTEA,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS feeds (
    id UUID PRIMARY KEY,
    author TEXT NOT NULL,
    avatar TEXT,
    content TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'status',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS feed_likes (
    id UUID PRIMARY KEY,
    feed_id UUID NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
    user_id UUID NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT feed_likes_pair UNIQUE (feed_id, user_id)
);
CREATE TABLE IF NOT EXISTS feed_comments (
    id UUID PRIMARY KEY,
    feed_id UUID NOT NULL REFERENCES feeds(id) ON DELETE CASCADE,
    user_id UUID NOT NULL,
    author TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS games (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    fun_fact TEXT NOT NULL DEFAULT '',
    image TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS quotes (
    id BIGSERIAL PRIMARY KEY,
    game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
    content TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS notes (
    id BIGSERIAL PRIMARY KEY,
    game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
    content TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS crew_members (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    nickname TEXT NOT NULL DEFAULT '',
    avatar TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL DEFAULT '',
    panic_level INTEGER NOT NULL DEFAULT 0,
    specialty TEXT NOT NULL DEFAULT '',
    famous_for TEXT NOT NULL DEFAULT '',
    fun_facts TEXT[] NOT NULL DEFAULT '{}',
    games_played INTEGER NOT NULL DEFAULT 0,
    deaths INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS clips (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    game TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL DEFAULT 'video',
    tags JSONB NOT NULL DEFAULT '[]',
    file_path TEXT NOT NULL,
    uploader_id UUID NOT NULL,
    uploader_username TEXT NOT NULL,
    uploader_avatar TEXT,
    views INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_feeds_created ON feeds(created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_feed_likes_on_feed_id ON feed_likes(feed_id);
CREATE INDEX IF NOT EXISTS idx_feed_comments_on_feed_id ON feed_comments(feed_id);
`

type Database struct {
	pool *pgxpool.Pool
}

func NewDatabase(connectionString string) (*Database, error) {
	pool, err := pgxpool.New(context.Background(), connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Database{pool: pool}, nil
}

func (d *Database) CreateTables() error {
	_, err := d.pool.Exec(context.Background(), schema)
	return err
}

func (d *Database) Close() {
	d.pool.Close()
}

// --- Feed Functions ---

// ListFeed builds one page of the feed for userID. Counts and the
// liked flag are computed per request; the comment list comes back as
// a JSON aggregate ordered by comment creation time. One extra row is
// fetched beyond limit so the caller learns whether more pages exist.
func (d *Database) ListFeed(ctx context.Context, userID string, limit, offset int) ([]FeedPost, bool, error) {
	query := `
        SELECT f.id, f.author, f.avatar, f.content, f.type, f.created_at,
            (SELECT COUNT(*) FROM feed_likes l WHERE l.feed_id = f.id) AS likes,
            (SELECT COUNT(*) FROM feed_comments c WHERE c.feed_id = f.id) AS comments,
            EXISTS (SELECT 1 FROM feed_likes l WHERE l.feed_id = f.id AND l.user_id = $1) AS liked,
            COALESCE((
                SELECT JSON_AGG(JSONB_BUILD_OBJECT(
                    'id', c.id,
                    'author', c.author,
                    'content', c.content,
                    'createdAt', c.created_at
                ) ORDER BY c.created_at, c.id)
                FROM feed_comments c WHERE c.feed_id = f.id
            ), '[]') AS comment_list
        FROM feeds f
        ORDER BY f.created_at DESC, f.id DESC
        LIMIT $2 OFFSET $3`
	rows, err := d.pool.Query(ctx, query, userID, limit+1, offset)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	var posts []FeedPost
	for rows.Next() {
		var p FeedPost
		var commentJSON []byte
		if err := rows.Scan(&p.ID, &p.Author, &p.Avatar, &p.Content, &p.Type, &p.CreatedAt,
			&p.Likes, &p.Comments, &p.Liked, &commentJSON); err != nil {
			return nil, false, err
		}
		p.CommentList = []Comment{}
		if err := json.Unmarshal(commentJSON, &p.CommentList); err != nil {
			return nil, false, fmt.Errorf("failed to unmarshal comment list: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}
	return posts, hasMore, nil
}

func (d *Database) CreateFeedPost(ctx context.Context, post *FeedPost) error {
	query := `INSERT INTO feeds (id, author, avatar, content, type) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	return d.pool.QueryRow(ctx, query, post.ID, post.Author, post.Avatar, post.Content, post.Type).Scan(&post.CreatedAt)
}

// ToggleLike flips the like pair for (feedID, userID). The insert goes
// through ON CONFLICT DO NOTHING against the feed_likes_pair unique
// constraint, so two racing toggles from the same user can never leave
// duplicate rows; the losing side simply observes the other outcome.
func (d *Database) ToggleLike(ctx context.Context, feedID, userID string) (bool, int, error) {
	exists, err := d.feedExists(ctx, feedID)
	if err != nil {
		return false, 0, err
	}
	if !exists {
		return false, 0, fmt.Errorf("feed %s: %w", feedID, ErrNotFound)
	}

	tag, err := d.pool.Exec(ctx,
		`INSERT INTO feed_likes (id, feed_id, user_id) VALUES (gen_random_uuid(), $1, $2)
         ON CONFLICT ON CONSTRAINT feed_likes_pair DO NOTHING`,
		feedID, userID)
	if err != nil {
		return false, 0, err
	}
	liked := tag.RowsAffected() > 0
	if !liked {
		if _, err := d.pool.Exec(ctx,
			`DELETE FROM feed_likes WHERE feed_id = $1 AND user_id = $2`,
			feedID, userID); err != nil {
			return false, 0, err
		}
	}

	// Always recount instead of adjusting a cached value.
	var total int
	err = d.pool.QueryRow(ctx, `SELECT COUNT(*) FROM feed_likes WHERE feed_id = $1`, feedID).Scan(&total)
	if err != nil {
		return false, 0, err
	}
	return liked, total, nil
}

func (d *Database) AddComment(ctx context.Context, comment *Comment) (int, error) {
	exists, err := d.feedExists(ctx, comment.FeedID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, fmt.Errorf("feed %s: %w", comment.FeedID, ErrNotFound)
	}

	query := `INSERT INTO feed_comments (id, feed_id, user_id, author, content) VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	err = d.pool.QueryRow(ctx, query, comment.ID, comment.FeedID, comment.UserID, comment.Author, comment.Content).Scan(&comment.CreatedAt)
	if err != nil {
		return 0, err
	}

	var total int
	err = d.pool.QueryRow(ctx, `SELECT COUNT(*) FROM feed_comments WHERE feed_id = $1`, comment.FeedID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (d *Database) feedExists(ctx context.Context, feedID string) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM feeds WHERE id = $1)`, feedID).Scan(&exists)
	return exists, err
}

// --- Game Functions ---

func (d *Database) ListGames(ctx context.Context) ([]Game, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT id, name, description, status, fun_fact, image, created_at FROM games ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var games []Game
	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Status, &g.FunFact, &g.Image, &g.CreatedAt); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (d *Database) GetGame(ctx context.Context, id int64) (*Game, error) {
	var g Game
	err := d.pool.QueryRow(ctx,
		`SELECT id, name, description, status, fun_fact, image, created_at FROM games WHERE id = $1`, id).
		Scan(&g.ID, &g.Name, &g.Description, &g.Status, &g.FunFact, &g.Image, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("game %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	g.Quotes, err = d.gameContent(ctx, "quotes", id)
	if err != nil {
		return nil, err
	}
	g.Notes, err = d.gameContent(ctx, "notes", id)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (d *Database) gameContent(ctx context.Context, table string, gameID int64) ([]string, error) {
	rows, err := d.pool.Query(ctx,
		fmt.Sprintf(`SELECT content FROM %s WHERE game_id = $1 ORDER BY id`, table), gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	content := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		content = append(content, s)
	}
	return content, rows.Err()
}

// CreateGame inserts the game and fans out to quotes and notes inside
// one transaction, so a failed fan-out leaves no orphaned game row.
func (d *Database) CreateGame(ctx context.Context, g *Game) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO games (name, description, status, fun_fact, image) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		g.Name, g.Description, g.Status, g.FunFact, g.Image).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return err
	}
	if err := insertGameContent(ctx, tx, "quotes", g.ID, g.Quotes); err != nil {
		return err
	}
	if err := insertGameContent(ctx, tx, "notes", g.ID, g.Notes); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateGame replaces quotes and notes wholesale: delete then insert,
// in the same transaction as the games row update.
func (d *Database) UpdateGame(ctx context.Context, g *Game) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`UPDATE games SET name = $1, description = $2, status = $3, fun_fact = $4, image = $5, created_at = NOW()
         WHERE id = $6 RETURNING created_at`,
		g.Name, g.Description, g.Status, g.FunFact, g.Image, g.ID).Scan(&g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("game %d: %w", g.ID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	for _, table := range []string{"quotes", "notes"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE game_id = $1`, table), g.ID); err != nil {
			return err
		}
	}
	if err := insertGameContent(ctx, tx, "quotes", g.ID, g.Quotes); err != nil {
		return err
	}
	if err := insertGameContent(ctx, tx, "notes", g.ID, g.Notes); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertGameContent(ctx context.Context, tx pgx.Tx, table string, gameID int64, content []string) error {
	for _, c := range content {
		if _, err := tx.Exec(ctx,
			fmt.Sprintf(`INSERT INTO %s (game_id, content) VALUES ($1, $2)`, table), gameID, c); err != nil {
			return err
		}
	}
	return nil
}

// DeleteGame removes the game and returns the deleted row. Quotes and
// notes go with it via ON DELETE CASCADE.
func (d *Database) DeleteGame(ctx context.Context, id int64) (*Game, error) {
	var g Game
	err := d.pool.QueryRow(ctx,
		`DELETE FROM games WHERE id = $1 RETURNING id, name, description, status, fun_fact, image, created_at`, id).
		Scan(&g.ID, &g.Name, &g.Description, &g.Status, &g.FunFact, &g.Image, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("game %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (d *Database) ListQuotes(ctx context.Context) ([]Quote, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, game_id, content FROM quotes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.ID, &q.GameID, &q.Content); err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// --- Crew Functions ---

func (d *Database) ListCrew(ctx context.Context) ([]CrewMember, error) {
	rows, err := d.pool.Query(ctx, crewSelect+` ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []CrewMember
	for rows.Next() {
		m, err := scanCrewMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

const crewSelect = `SELECT id, name, nickname, avatar, role, panic_level, specialty, famous_for, fun_facts, games_played, deaths, created_at, updated_at FROM crew_members`

func scanCrewMember(row pgx.Row) (*CrewMember, error) {
	var m CrewMember
	err := row.Scan(&m.ID, &m.Name, &m.Nickname, &m.Avatar, &m.Role, &m.PanicLevel, &m.Specialty,
		&m.FamousFor, &m.FunFacts, &m.GamesPlayed, &m.Deaths, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if m.FunFacts == nil {
		m.FunFacts = []string{}
	}
	return &m, nil
}

func (d *Database) GetCrewMember(ctx context.Context, id int64) (*CrewMember, error) {
	m, err := scanCrewMember(d.pool.QueryRow(ctx, crewSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("crew member %d: %w", id, ErrNotFound)
	}
	return m, err
}

func (d *Database) CreateCrewMember(ctx context.Context, m *CrewMember) error {
	query := `
        INSERT INTO crew_members (name, nickname, avatar, role, panic_level, specialty, famous_for, fun_facts, games_played, deaths)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at, updated_at`
	return d.pool.QueryRow(ctx, query,
		m.Name, m.Nickname, m.Avatar, m.Role, m.PanicLevel, m.Specialty, m.FamousFor, m.FunFacts, m.GamesPlayed, m.Deaths).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

func (d *Database) UpdateCrewMember(ctx context.Context, m *CrewMember) error {
	query := `
        UPDATE crew_members SET
            name = $1, nickname = $2, avatar = $3, role = $4, panic_level = $5, specialty = $6,
            famous_for = $7, fun_facts = $8, games_played = $9, deaths = $10, updated_at = NOW()
        WHERE id = $11 RETURNING created_at, updated_at`
	err := d.pool.QueryRow(ctx, query,
		m.Name, m.Nickname, m.Avatar, m.Role, m.PanicLevel, m.Specialty, m.FamousFor, m.FunFacts,
		m.GamesPlayed, m.Deaths, m.ID).Scan(&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("crew member %d: %w", m.ID, ErrNotFound)
	}
	return err
}

func (d *Database) DeleteCrewMember(ctx context.Context, id int64) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM crew_members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("crew member %d: %w", id, ErrNotFound)
	}
	return nil
}

// --- Clip Functions ---

func (d *Database) CreateClip(ctx context.Context, c *Clip) error {
	tagsJSON, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}
	query := `
        INSERT INTO clips (title, game, description, type, tags, file_path, uploader_id, uploader_username, uploader_avatar, views)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0)
        RETURNING id, created_at`
	return d.pool.QueryRow(ctx, query,
		c.Title, c.Game, c.Description, c.Type, tagsJSON, c.FilePath,
		c.UploaderID, c.UploaderUsername, c.UploaderAvatar).Scan(&c.ID, &c.CreatedAt)
}

func (d *Database) ListClips(ctx context.Context) ([]Clip, error) {
	query := `
        SELECT id, title, game, description, type, tags, file_path, uploader_id, uploader_username, uploader_avatar, views, created_at
        FROM clips ORDER BY created_at DESC`
	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var clips []Clip
	for rows.Next() {
		var c Clip
		var tagsJSON []byte
		if err := rows.Scan(&c.ID, &c.Title, &c.Game, &c.Description, &c.Type, &tagsJSON, &c.FilePath,
			&c.UploaderID, &c.UploaderUsername, &c.UploaderAvatar, &c.Views, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Tags = []string{}
		if err := json.Unmarshal(tagsJSON, &c.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
		clips = append(clips, c)
	}
	return clips, rows.Err()
}

// --- User Functions ---

func (d *Database) SaveUser(ctx context.Context, user *User) error {
	query := `
        INSERT INTO users (id, discord_id, username, avatar, role, hash, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO UPDATE SET
            discord_id = EXCLUDED.discord_id,
            username = EXCLUDED.username,
            avatar = EXCLUDED.avatar,
            role = EXCLUDED.role,
            hash = EXCLUDED.hash,
            is_active = EXCLUDED.is_active,
            updated_at = EXCLUDED.updated_at;
    `
	_, err := d.pool.Exec(ctx, query,
		user.ID,
		user.DiscordID,
		user.Username,
		user.Avatar,
		user.Role,
		user.Hash,
		user.IsActive,
		user.Created,
		user.Updated,
	)
	return err
}

const userSelect = `SELECT id, discord_id, username, avatar, role, hash, is_active, created_at, updated_at FROM users`

func scanUser(row pgx.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.DiscordID,
		&user.Username,
		&user.Avatar,
		&user.Role,
		&user.Hash,
		&user.IsActive,
		&user.Created,
		&user.Updated,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *Database) GetUserByID(ctx context.Context, id string) (*User, error) {
	user, err := scanUser(d.pool.QueryRow(ctx, userSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return user, err
}

func (d *Database) GetUserByDiscordID(ctx context.Context, discordID string) (*User, error) {
	user, err := scanUser(d.pool.QueryRow(ctx,
		userSelect+` WHERE discord_id = $1 AND is_active = TRUE`, discordID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("discord user %s: %w", discordID, ErrNotFound)
	}
	return user, err
}

func (d *Database) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	user, err := scanUser(d.pool.QueryRow(ctx,
		userSelect+` WHERE username = $1 AND is_active = TRUE`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	return user, err
}

// UpdateDiscordProfile refreshes the stored username and avatar hash
// after a successful Discord login.
func (d *Database) UpdateDiscordProfile(ctx context.Context, discordID, username string, avatar *string) error {
	_, err := d.pool.Exec(ctx,
		`UPDATE users SET username = $1, avatar = $2, updated_at = NOW() WHERE discord_id = $3`,
		username, avatar, discordID)
	return err
}
