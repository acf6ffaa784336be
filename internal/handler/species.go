package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/florafauna/internal/catalog"
	"github.com/pavelanni/florafauna/internal/model"
	"github.com/pavelanni/florafauna/internal/store"
)

type speciesFilters struct {
	Featured   bool   `json:"featured"`
	Kingdom    string `json:"kingdom,omitempty"`
	IUCNStatus string `json:"iucn_status,omitempty"`
	Search     string `json:"search,omitempty"`
}

type listMetadata struct {
	Count   int            `json:"count"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	Filters speciesFilters `json:"filters"`
}

type speciesList struct {
	Data     []model.Species `json:"data"`
	Metadata listMetadata    `json:"metadata"`
}

// parseSpeciesFilter reads the listing query. Malformed numbers fall back to
// their defaults.
func parseSpeciesFilter(r *http.Request) model.SpeciesFilter {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	featured, _ := strconv.ParseBool(q.Get("featured"))
	return model.SpeciesFilter{
		Limit:      store.ClampLimit(limit),
		Offset:     max(offset, 0),
		Featured:   featured,
		Kingdom:    strings.TrimSpace(q.Get("kingdom")),
		IUCNStatus: strings.ToUpper(strings.TrimSpace(q.Get("iucn_status"))),
		Search:     catalog.SanitizeSearchTerm(q.Get("search")),
	}
}

func (h *Handler) handleListSpecies(w http.ResponseWriter, r *http.Request) {
	f := parseSpeciesFilter(r)
	list, total, err := h.reader.ListSpecies(r.Context(), f)
	if store.IsMissingTable(err) {
		slog.Warn("species table missing, returning empty list", "error", err)
		list, total, err = []model.Species{}, 0, nil
	}
	if err != nil {
		slog.Error("failed to list species", "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	for i := range list {
		list[i] = catalog.Normalize(list[i])
	}
	writeJSON(w, http.StatusOK, speciesList{
		Data: list,
		Metadata: listMetadata{
			Count:  total,
			Limit:  f.Limit,
			Offset: f.Offset,
			Filters: speciesFilters{
				Featured:   f.Featured,
				Kingdom:    f.Kingdom,
				IUCNStatus: f.IUCNStatus,
				Search:     f.Search,
			},
		},
	})
}

func (h *Handler) handleGetSpecies(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	sp, err := h.reader.GetSpecies(r.Context(), catalog.IdentifierColumn(identifier), identifier)
	if err != nil {
		writeStoreError(w, r, "get species", err)
		return
	}
	details, err := h.reader.SpeciesDetails(r.Context(), catalog.Normalize(sp))
	if err != nil {
		writeStoreError(w, r, "species details", err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: details})
}

func (h *Handler) handleCreateSpecies(w http.ResponseWriter, r *http.Request) {
	db := h.privileged(w, r, http.StatusServiceUnavailable)
	if db == nil {
		return
	}
	sp, err := catalog.ParseSpeciesPayload(r.Body)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	created, err := db.CreateSpecies(r.Context(), sp)
	if err != nil {
		writeStoreError(w, r, "create species", err)
		return
	}
	slog.Info("species created", "id", created.ID, "slug", created.Slug)
	writeJSON(w, http.StatusCreated, dataBody{Data: created})
}

func (h *Handler) handleUpdateSpecies(w http.ResponseWriter, r *http.Request) {
	db := h.privileged(w, r, http.StatusServiceUnavailable)
	if db == nil {
		return
	}
	u, err := catalog.ParseSpeciesUpdate(r.Body)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	identifier := chi.URLParam(r, "identifier")
	updated, err := db.UpdateSpecies(r.Context(), catalog.IdentifierColumn(identifier), identifier, u)
	if err != nil {
		writeStoreError(w, r, "update species", err)
		return
	}
	details, err := db.SpeciesDetails(r.Context(), catalog.Normalize(updated))
	if err != nil {
		writeStoreError(w, r, "species details", err)
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: details})
}
