// community/vault.go
package community

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const maxUploadBytes = 512 << 20

// uploadClip stores the file on disk under a generated name and
// records the clip row. The upload field is called "video" even for
// images, a front-end quirk kept for compatibility.
func (h *Handlers) uploadClip(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.badRequest(w, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("video")
	if err != nil {
		h.badRequest(w, "No file uploaded")
		return
	}
	defer file.Close()

	tags := []string{}
	if raw := r.FormValue("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			h.badRequest(w, "Invalid tags")
			return
		}
	}

	if err := os.MkdirAll(h.cfg.UploadDir, 0o755); err != nil {
		h.serverError(w, "Upload failed", err)
		return
	}
	name := fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), rand.Int63n(1_000_000_000), filepath.Ext(header.Filename))
	dst, err := os.Create(filepath.Join(h.cfg.UploadDir, name))
	if err != nil {
		h.serverError(w, "Upload failed", err)
		return
	}
	defer dst.Close()
	if _, err := io.Copy(dst, file); err != nil {
		h.serverError(w, "Upload failed", err)
		return
	}

	clip := &Clip{
		Title:            r.FormValue("title"),
		Game:             r.FormValue("game"),
		Description:      r.FormValue("description"),
		Type:             r.FormValue("type"),
		Tags:             tags,
		FilePath:         name,
		UploaderID:       user.ID,
		UploaderUsername: user.Username,
		UploaderAvatar:   user.AvatarURL(),
	}
	if err := h.store.CreateClip(r.Context(), clip); err != nil {
		h.serverError(w, "Upload failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handlers) listVideos(w http.ResponseWriter, r *http.Request) {
	clips, err := h.store.ListClips(r.Context())
	if err != nil {
		h.serverError(w, "Failed to fetch videos", err)
		return
	}
	if clips == nil {
		clips = []Clip{}
	}
	h.writeJSON(w, http.StatusOK, clips)
}

// vault merges local clips with the YouTube playlist. A broken
// YouTube fetch degrades to local clips only; it never fails the
// whole vault.
func (h *Handlers) vault(w http.ResponseWriter, r *http.Request) {
	ytItems, err := h.videos.Videos(r.Context())
	if err != nil {
		h.logger.Warn("youtube fetch failed", zap.Error(err))
		ytItems = nil
	}

	clips, err := h.store.ListClips(r.Context())
	if err != nil {
		h.serverError(w, "Failed to fetch vault", err)
		return
	}

	items := make([]VaultItem, 0, len(clips)+len(ytItems))
	for i := range clips {
		items = append(items, clips[i].VaultItem(h.cfg.BaseURL))
	}
	items = append(items, ytItems...)
	h.writeJSON(w, http.StatusOK, items)
}
