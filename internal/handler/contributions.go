package handler

import (
	"log/slog"
	"net/http"

	"github.com/pavelanni/florafauna/internal/catalog"
	"github.com/pavelanni/florafauna/internal/model"
	"github.com/pavelanni/florafauna/internal/store"
)

func (h *Handler) handleCreateContribution(w http.ResponseWriter, r *http.Request) {
	db := h.privileged(w, r, http.StatusInternalServerError)
	if db == nil {
		return
	}
	in, err := catalog.ParseContribution(r.Body)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	id := model.IdentityFromContext(r.Context())
	sub, err := db.CreateSubmission(r.Context(), model.Submission{
		UserID:  id.UserID,
		Title:   in.Title,
		Type:    in.Type,
		Content: in.Content,
		URL:     in.URL,
	})
	if err != nil {
		writeStoreError(w, r, "create submission", err)
		return
	}
	slog.Info("contribution submitted", "id", sub.ID, "user", id.UserID)
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

// handleListContributions returns the caller's latest submissions. Missing
// credentials or tables yield an empty list.
func (h *Handler) handleListContributions(w http.ResponseWriter, r *http.Request) {
	list := []model.Submission{}
	if h.writer == nil {
		writeJSON(w, http.StatusOK, dataBody{Data: list})
		return
	}
	id := model.IdentityFromContext(r.Context())
	subs, err := h.writer.ListSubmissionsByUser(r.Context(), id.UserID, store.UserSubmissionsLimit)
	switch {
	case store.IsMissingTable(err):
		slog.Warn("submissions table missing", "error", err)
	case err != nil:
		writeStoreError(w, r, "list submissions", err)
		return
	default:
		list = subs
	}
	writeJSON(w, http.StatusOK, dataBody{Data: list})
}
