// community/crew.go
package community

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

type crewRequest struct {
	Name        string   `json:"name"`
	Nickname    string   `json:"nickname"`
	Avatar      string   `json:"avatar"`
	Role        string   `json:"role"`
	PanicLevel  int      `json:"panic_level"`
	Specialty   string   `json:"specialty"`
	FamousFor   string   `json:"famous_for"`
	FunFacts    []string `json:"fun_facts"`
	GamesPlayed int      `json:"games_played"`
	Deaths      int      `json:"deaths"`
}

func (req *crewRequest) member() *CrewMember {
	facts := req.FunFacts
	if facts == nil {
		facts = []string{}
	}
	return &CrewMember{
		Name:        strings.TrimSpace(req.Name),
		Nickname:    req.Nickname,
		Avatar:      req.Avatar,
		Role:        req.Role,
		PanicLevel:  req.PanicLevel,
		Specialty:   req.Specialty,
		FamousFor:   req.FamousFor,
		FunFacts:    facts,
		GamesPlayed: req.GamesPlayed,
		Deaths:      req.Deaths,
	}
}

func (h *Handlers) listCrew(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.ListCrew(r.Context())
	if err != nil {
		h.serverError(w, "Failed to fetch crew", err)
		return
	}
	if members == nil {
		members = []CrewMember{}
	}
	h.writeJSON(w, http.StatusOK, members)
}

func (h *Handlers) getCrewMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "Invalid member ID")
		return
	}
	member, err := h.store.GetCrewMember(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound(w, "Member not found")
			return
		}
		h.serverError(w, "Failed to fetch member", err)
		return
	}
	h.writeJSON(w, http.StatusOK, member)
}

func (h *Handlers) createCrewMember(w http.ResponseWriter, r *http.Request) {
	var req crewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}
	member := req.member()
	if member.Name == "" {
		h.badRequest(w, "Name required")
		return
	}
	if err := h.store.CreateCrewMember(r.Context(), member); err != nil {
		h.serverError(w, "Failed to create member", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, member)
}

func (h *Handlers) updateCrewMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "Invalid member ID")
		return
	}
	var req crewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}
	member := req.member()
	member.ID = id
	if member.Name == "" {
		h.badRequest(w, "Name required")
		return
	}
	if err := h.store.UpdateCrewMember(r.Context(), member); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound(w, "Member not found")
			return
		}
		h.serverError(w, "Failed to update member", err)
		return
	}
	h.writeJSON(w, http.StatusOK, member)
}

func (h *Handlers) deleteCrewMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.badRequest(w, "Invalid member ID")
		return
	}
	if err := h.store.DeleteCrewMember(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.notFound(w, "Member not found")
			return
		}
		h.serverError(w, "Failed to delete member", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Deleted"})
}
