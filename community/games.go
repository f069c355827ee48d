// community/games.go
package community

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type gameRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	FunFact     string   `json:"fun_fact"`
	ImageURL    string   `json:"image_url"`
	Quotes      []string `json:"quotes"`
	Notes       []string `json:"notes"`
}

func (req *gameRequest) game() *Game {
	return &Game{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Status:      req.Status,
		FunFact:     req.FunFact,
		Image:       req.ImageURL,
		Quotes:      req.Quotes,
		Notes:       req.Notes,
	}
}

func (h *Handlers) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.store.ListGames(r.Context())
	if err != nil {
		h.serverError(w, "Failed to fetch games", err)
		return
	}
	if games == nil {
		games = []Game{}
	}
	h.writeJSON(w, http.StatusOK, games)
}

func (h *Handlers) getGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "Invalid game ID")
		return
	}
	game, err := h.store.GetGame(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound(w, "Game not found")
			return
		}
		h.serverError(w, "Failed to fetch game", err)
		return
	}
	h.writeJSON(w, http.StatusOK, game)
}

func (h *Handlers) createGame(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}
	game := req.game()
	if game.Name == "" {
		h.badRequest(w, "Name required")
		return
	}
	if err := h.store.CreateGame(r.Context(), game); err != nil {
		h.serverError(w, "Failed to create game", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"id": game.ID})
}

func (h *Handlers) updateGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "Invalid game ID")
		return
	}
	var req gameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}
	game := req.game()
	game.ID = id
	if game.Name == "" {
		h.badRequest(w, "Name required")
		return
	}
	if err := h.store.UpdateGame(r.Context(), game); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound(w, "Game not found")
			return
		}
		h.serverError(w, "Update failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, game)
}

func (h *Handlers) deleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "Invalid game ID")
		return
	}
	game, err := h.store.DeleteGame(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound(w, "Game not found")
			return
		}
		h.serverError(w, "Failed to delete game", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Game deleted successfully", "game": game})
}

func (h *Handlers) listQuotes(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.store.ListQuotes(r.Context())
	if err != nil {
		h.serverError(w, "Failed to fetch quotes", err)
		return
	}
	if quotes == nil {
		quotes = []Quote{}
	}
	h.writeJSON(w, http.StatusOK, quotes)
}
