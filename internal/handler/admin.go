package handler

import (
	"log/slog"
	"net/http"

	"github.com/pavelanni/florafauna/internal/catalog"
	"github.com/pavelanni/florafauna/internal/model"
	"github.com/pavelanni/florafauna/internal/store"
)

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	db := h.privileged(w, r, http.StatusInternalServerError)
	if db == nil {
		return
	}
	subs, err := db.ListSubmissions(r.Context(), store.ModerationSubmissionsLimit)
	if err != nil {
		writeStoreError(w, r, "list submissions", err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: subs})
}

func (h *Handler) handleModerate(w http.ResponseWriter, r *http.Request) {
	m, err := catalog.ParseModeration(r.Body)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	db := h.privileged(w, r, http.StatusInternalServerError)
	if db == nil {
		return
	}
	if err := db.UpdateSubmissionStatus(r.Context(), m.ID, m.Status); err != nil {
		writeStoreError(w, r, "moderate submission", err)
		return
	}
	slog.Info("submission moderated", "id", m.ID, "status", m.Status,
		"moderator", model.IdentityFromContext(r.Context()).UserID)
	writeJSON(w, http.StatusOK, successBody{Success: true})
}
