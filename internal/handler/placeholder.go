package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

const (
	minPlaceholder = 16
	maxPlaceholder = 2000
)

// clampDimension parses a requested dimension, floors it and bounds it to
// [minPlaceholder, maxPlaceholder].
func clampDimension(raw string) (int, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return int(min(max(math.Floor(v), minPlaceholder), maxPlaceholder)), true
}

// placeholderSVG renders a flat gradient tile with a centered label.
func placeholderSVG(width, height int, label string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		fontSize := max(float64(min(width, height))/8, 24)
		_, err := fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<defs><linearGradient id="bg" x1="0" y1="0" x2="1" y2="1">`+
			`<stop offset="0" stop-color="#0B2B26"/><stop offset="1" stop-color="#163832"/>`+
			`</linearGradient></defs>`+
			`<rect width="100%%" height="100%%" fill="url(#bg)"/>`+
			`<text x="50%%" y="50%%" fill="#DAF1DE" font-family="Inter, Arial, sans-serif" font-size="%g" `+
			`letter-spacing="0.05em" text-anchor="middle" dominant-baseline="middle">%s</text></svg>`,
			width, height, width, height, fontSize, templ.EscapeString(label))
		return err
	})
}

func (h *Handler) handlePlaceholder(w http.ResponseWriter, r *http.Request) {
	width, okW := clampDimension(chi.URLParam(r, "width"))
	height, okH := clampDimension(chi.URLParam(r, "height"))
	if !okW || !okH {
		writeError(w, r, http.StatusBadRequest, "ErrBadDimensions")
		return
	}

	label := fmt.Sprintf("%dx%d", width, height)
	if r.URL.Query().Has("text") {
		label = r.URL.Query().Get("text")
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if err := placeholderSVG(width, height, label).Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
