// community/models.go
package community

import (
	"strconv"
	"time"
)

// Post categories. Everything created through the feed endpoint is a
// plain status update; the other values come in through seed data.
const (
	TypeStatus       = "status"
	TypeAchievement  = "achievement"
	TypeMeme         = "meme"
	TypeAnnouncement = "announcement"
)

// FeedPost is one feed entry plus the aggregates computed for the
// requesting user. Likes and Comments are always counted from their
// tables, never stored on the row.
type FeedPost struct {
	ID          string    `json:"id" db:"id"`
	Author      string    `json:"author" db:"author"`
	Avatar      *string   `json:"avatar" db:"avatar"`
	Content     string    `json:"content" db:"content"`
	Type        string    `json:"type" db:"type"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	Likes       int       `json:"likes"`
	Comments    int       `json:"comments"`
	Liked       bool      `json:"liked"`
	CommentList []Comment `json:"commentList"`
}

// Comment is append-only; there is no edit or delete.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	FeedID    string    `json:"-" db:"feed_id"`
	UserID    string    `json:"-" db:"user_id"`
	Author    string    `json:"author" db:"author"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Game is a games-hall entry. Quotes and Notes live in their own
// tables and are only populated on the detail view.
type Game struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Status      string    `json:"status" db:"status"`
	FunFact     string    `json:"fun_fact" db:"fun_fact"`
	Image       string    `json:"image" db:"image"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Quotes      []string  `json:"quotes,omitempty"`
	Notes       []string  `json:"notes,omitempty"`
}

type Quote struct {
	ID      int64  `json:"id" db:"id"`
	GameID  int64  `json:"game_id" db:"game_id"`
	Content string `json:"content" db:"content"`
}

type CrewMember struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Nickname    string    `json:"nickname" db:"nickname"`
	Avatar      string    `json:"avatar" db:"avatar"`
	Role        string    `json:"role" db:"role"`
	PanicLevel  int       `json:"panic_level" db:"panic_level"`
	Specialty   string    `json:"specialty" db:"specialty"`
	FamousFor   string    `json:"famous_for" db:"famous_for"`
	FunFacts    []string  `json:"fun_facts" db:"fun_facts"`
	GamesPlayed int       `json:"games_played" db:"games_played"`
	Deaths      int       `json:"deaths" db:"deaths"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Clip is a locally uploaded video or image held in the vault.
type Clip struct {
	ID               int64     `json:"id" db:"id"`
	Title            string    `json:"title" db:"title"`
	Game             string    `json:"game" db:"game"`
	Description      string    `json:"description" db:"description"`
	Type             string    `json:"type" db:"type"`
	Tags             []string  `json:"tags" db:"tags"`
	FilePath         string    `json:"file_path" db:"file_path"`
	UploaderID       string    `json:"uploader_id" db:"uploader_id"`
	UploaderUsername string    `json:"uploader_username" db:"uploader_username"`
	UploaderAvatar   *string   `json:"uploader_avatar" db:"uploader_avatar"`
	Views            int       `json:"views" db:"views"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// VaultItem is the shape the vault endpoint serves: local clips and
// YouTube playlist entries merged into one list.
type VaultItem struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Game      string    `json:"game"`
	Tags      []string  `json:"tags"`
	Views     int       `json:"views"`
	Uploader  string    `json:"uploader,omitempty"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	VideoURL  string    `json:"videoUrl,omitempty"`
	YouTubeID string    `json:"youtubeId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// VaultItem maps a clip to the vault shape. Only image clips get a
// thumbnail; the player fetches video frames itself.
func (c *Clip) VaultItem(baseURL string) VaultItem {
	item := VaultItem{
		ID:        "clip-" + strconv.FormatInt(c.ID, 10),
		Source:    "local",
		Title:     c.Title,
		Type:      c.Type,
		Game:      c.Game,
		Tags:      c.Tags,
		Views:     c.Views,
		Uploader:  c.UploaderUsername,
		VideoURL:  baseURL + "/uploads/" + c.FilePath,
		CreatedAt: c.CreatedAt,
	}
	if c.Type == "image" {
		item.Thumbnail = item.VideoURL
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	return item
}
