// community/handlers.go
package community

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPageSize is the feed page size used when the client does not
// ask for one.
const DefaultPageSize = 5

type Handlers struct {
	store   Store
	videos  VideoSource
	logger  *zap.Logger
	cfg     Config
	Session *scs.SessionManager
}

func NewHandlers(store Store, videos VideoSource, logger *zap.Logger, cfg Config) *Handlers {
	session := scs.New()
	session.Cookie.HttpOnly = true
	session.Cookie.SameSite = http.SameSiteLaxMode
	return &Handlers{
		store:   store,
		videos:  videos,
		logger:  logger,
		cfg:     cfg,
		Session: session,
	}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	// feed
	mux.HandleFunc("GET /api/feedupdate", h.ensureAuth(h.listFeed))
	mux.HandleFunc("POST /api/feedupdate", h.ensureAuth(h.createFeedPost))
	mux.HandleFunc("POST /api/feedupdate/{id}/like", h.ensureAuth(h.toggleLike))
	mux.HandleFunc("POST /api/feedupdate/{id}/comment", h.ensureAuth(h.addComment))

	// auth
	mux.HandleFunc("GET /api/auth/discord", h.discordLogin)
	mux.HandleFunc("GET /api/auth/discord/callback", h.discordCallback)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("GET /api/auth/logout", h.logout)
	mux.HandleFunc("GET /api/auth/check", h.check)

	// games hall
	mux.HandleFunc("GET /api/games", h.listGames)
	mux.HandleFunc("GET /api/games/{id}", h.getGame)
	mux.HandleFunc("POST /api/games", h.ensureAdmin(h.createGame))
	mux.HandleFunc("PUT /api/games/{id}", h.ensureAdmin(h.updateGame))
	mux.HandleFunc("DELETE /api/games/{id}", h.ensureAdmin(h.deleteGame))
	mux.HandleFunc("GET /api/quotes", h.listQuotes)

	// crew
	mux.HandleFunc("GET /api/crew", h.listCrew)
	mux.HandleFunc("GET /api/crew/{id}", h.getCrewMember)
	mux.HandleFunc("POST /api/crew", h.ensureAdmin(h.createCrewMember))
	mux.HandleFunc("PUT /api/crew/{id}", h.ensureAdmin(h.updateCrewMember))
	mux.HandleFunc("DELETE /api/crew/{id}", h.ensureAdmin(h.deleteCrewMember))

	// vault
	mux.HandleFunc("POST /api/upload/upload", h.ensureAuth(h.uploadClip))
	mux.HandleFunc("GET /api/upload/videos", h.listVideos)
	mux.HandleFunc("GET /api/vault/vault", h.ensureAuth(h.vault))
	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(h.cfg.UploadDir))))
}

// FeedPage is one page of the feed. HasMore is authoritative; a page
// shorter than the requested limit also means the feed is exhausted.
type FeedPage struct {
	Posts   []FeedPost `json:"posts"`
	HasMore bool       `json:"hasMore"`
}

func (h *Handlers) listFeed(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	limit := queryInt(r, "limit", DefaultPageSize)
	offset := queryInt(r, "offset", 0)

	posts, hasMore, err := h.store.ListFeed(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.serverError(w, "Failed to fetch feeds", err)
		return
	}
	if posts == nil {
		posts = []FeedPost{}
	}
	h.writeJSON(w, http.StatusOK, FeedPage{Posts: posts, HasMore: hasMore})
}

func (h *Handlers) createFeedPost(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		h.badRequest(w, "Text required")
		return
	}

	post := &FeedPost{
		ID:          uuid.New().String(),
		Author:      user.Username,
		Avatar:      user.AvatarURL(),
		Content:     text,
		Type:        TypeStatus,
		CommentList: []Comment{},
	}
	if err := h.store.CreateFeedPost(r.Context(), post); err != nil {
		h.serverError(w, "Failed to create feed", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, post)
}

func (h *Handlers) toggleLike(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	feedID := r.PathValue("id")

	liked, total, err := h.store.ToggleLike(r.Context(), feedID, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound(w, "Feed not found")
			return
		}
		h.serverError(w, "Like failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"liked":      liked,
		"totalLikes": total,
	})
}

func (h *Handlers) addComment(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	feedID := r.PathValue("id")
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		h.badRequest(w, "Comment text required")
		return
	}

	comment := &Comment{
		ID:      uuid.New().String(),
		FeedID:  feedID,
		UserID:  user.ID,
		Author:  user.Username,
		Content: text,
	}
	total, err := h.store.AddComment(r.Context(), comment)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound(w, "Feed not found")
			return
		}
		h.serverError(w, "Comment failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"comment":       comment,
		"totalComments": total,
	})
}

// --- helpers ---

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) badRequest(w http.ResponseWriter, msg string) {
	h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func (h *Handlers) notFound(w http.ResponseWriter, msg string) {
	h.writeJSON(w, http.StatusNotFound, errorResponse{Error: msg})
}

func (h *Handlers) unauthorized(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
}

func (h *Handlers) forbidden(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusForbidden, errorResponse{Error: "Forbidden"})
}

// serverError logs the real error and answers with an opaque message;
// persistence details never reach the client.
func (h *Handlers) serverError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msg})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
