// community/auth.go
package community

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	sessionUserKey  = "userID"
	sessionStateKey = "oauthState"
)

const discordAPIBase = "https://discord.com/api"

type contextKey int

const userContextKey contextKey = iota

// ensureAuth resolves the session to a user and puts it on the
// request context. Anything behind it can call userFrom safely.
func (h *Handlers) ensureAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := h.Session.GetString(r.Context(), sessionUserKey)
		if id == "" {
			h.unauthorized(w)
			return
		}
		user, err := h.store.GetUserByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				h.unauthorized(w)
				return
			}
			h.serverError(w, "Failed to load user", err)
			return
		}
		if !user.IsActive {
			h.unauthorized(w)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	}
}

func (h *Handlers) ensureAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.ensureAuth(func(w http.ResponseWriter, r *http.Request) {
		if !userFrom(r).IsAdmin() {
			h.forbidden(w)
			return
		}
		next(w, r)
	})
}

// userFrom is only valid behind ensureAuth.
func userFrom(r *http.Request) *User {
	return r.Context().Value(userContextKey).(*User)
}

func (h *Handlers) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.cfg.DiscordClientID,
		ClientSecret: h.cfg.DiscordClientSecret,
		RedirectURL:  h.cfg.DiscordCallbackURL,
		Scopes:       []string{"identify"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  discordAPIBase + "/oauth2/authorize",
			TokenURL: discordAPIBase + "/oauth2/token",
		},
	}
}

func (h *Handlers) discordLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.New().String()
	h.Session.Put(r.Context(), sessionStateKey, state)
	http.Redirect(w, r, h.oauthConfig().AuthCodeURL(state), http.StatusFound)
}

type discordProfile struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Avatar   *string `json:"avatar"`
}

// discordCallback finishes the OAuth dance. Only pre-provisioned,
// active accounts may log in; anyone else bounces back to the root.
func (h *Handlers) discordCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	saved := h.Session.PopString(r.Context(), sessionStateKey)
	if state == "" || state != saved {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	token, err := h.oauthConfig().Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.Warn("discord code exchange failed", zap.Error(err))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	profile, err := h.fetchDiscordProfile(r.Context(), token)
	if err != nil {
		h.logger.Warn("discord profile fetch failed", zap.Error(err))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	user, err := h.store.GetUserByDiscordID(r.Context(), profile.ID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Error("discord user lookup failed", zap.Error(err))
		}
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	// Keep the stored identity in sync with Discord.
	if err := h.store.UpdateDiscordProfile(r.Context(), profile.ID, profile.Username, profile.Avatar); err != nil {
		h.logger.Error("failed to refresh discord profile", zap.Error(err))
	}

	if err := h.Session.RenewToken(r.Context()); err != nil {
		h.serverError(w, "Login failed", err)
		return
	}
	h.Session.Put(r.Context(), sessionUserKey, user.ID)
	http.Redirect(w, r, h.cfg.FrontEndURL, http.StatusFound)
}

func (h *Handlers) fetchDiscordProfile(ctx context.Context, token *oauth2.Token) (*discordProfile, error) {
	client := h.oauthConfig().Client(ctx, token)
	client.Timeout = 10 * time.Second
	resp, err := client.Get(discordAPIBase + "/users/@me")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discord /users/@me returned %s", resp.Status)
	}
	var profile discordProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// login is the local password fallback for admin accounts.
func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.unauthorized(w)
			return
		}
		h.serverError(w, "Login failed", err)
		return
	}
	ok, err := user.PasswordMatches(req.Password)
	if err != nil {
		h.serverError(w, "Login failed", err)
		return
	}
	if !ok {
		h.unauthorized(w)
		return
	}

	if err := h.Session.RenewToken(r.Context()); err != nil {
		h.serverError(w, "Login failed", err)
		return
	}
	h.Session.Put(r.Context(), sessionUserKey, user.ID)
	h.writeJSON(w, http.StatusOK, map[string]any{"loggedIn": true, "user": user})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Destroy(r.Context()); err != nil {
		h.logger.Error("failed to destroy session", zap.Error(err))
	}
	http.Redirect(w, r, h.cfg.FrontEndURL, http.StatusFound)
}

// check reports the session state without erroring; the front end
// polls it on load.
func (h *Handlers) check(w http.ResponseWriter, r *http.Request) {
	id := h.Session.GetString(r.Context(), sessionUserKey)
	if id == "" {
		h.writeJSON(w, http.StatusOK, map[string]any{"loggedIn": false})
		return
	}
	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil || !user.IsActive {
		h.writeJSON(w, http.StatusOK, map[string]any{"loggedIn": false})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"loggedIn": true, "user": user})
}
