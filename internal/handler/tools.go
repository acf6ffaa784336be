package handler

import (
	"log/slog"
	"net/http"
)

const maxUploadBytes = 10 << 20

// Prediction is one simulated species match for an uploaded photo.
type Prediction struct {
	Species    string  `json:"species"`
	CommonName string  `json:"commonName"`
	Confidence float64 `json:"confidence"`
	Image      string  `json:"image"`
}

// simulatedPredictions stand in for a recognition model: every upload gets
// the same ranked matches.
var simulatedPredictions = []Prediction{
	{Species: "Panthera leo", CommonName: "Lion", Confidence: 0.93, Image: "/api/placeholder/600/400"},
	{Species: "Panthera pardus", CommonName: "Leopard", Confidence: 0.78, Image: "/api/placeholder/600/400"},
	{Species: "Acinonyx jubatus", CommonName: "Cheetah", Confidence: 0.64, Image: "/api/placeholder/600/400"},
}

func (h *Handler) handleRecognition(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "ErrImageRequired")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "ErrImageRequired")
		return
	}
	defer file.Close()

	slog.Info("recognition requested", "filename", header.Filename, "size", header.Size)
	out := make([]Prediction, len(simulatedPredictions))
	copy(out, simulatedPredictions)
	writeJSON(w, http.StatusOK, dataBody{Data: out})
}

// Article is a teaser in the articles listing.
type Article struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Date   string   `json:"date"`
	Author string   `json:"author"`
	Image  string   `json:"image"`
	Tags   []string `json:"tags"`
}

var demoArticles = []Article{
	{ID: "a1", Title: "The Secret Life of Oaks", Date: "2024-10-05", Author: "J. Howard", Image: "/api/placeholder/800/450", Tags: []string{"Botany", "Ecosystems"}},
	{ID: "a2", Title: "Understanding IUCN Categories", Date: "2024-09-18", Author: "L. Chen", Image: "/api/placeholder/800/450", Tags: []string{"Conservation"}},
	{ID: "a3", Title: "Migratory Patterns of Shorebirds", Date: "2024-08-10", Author: "A. Singh", Image: "/api/placeholder/800/450", Tags: []string{"Ornithology", "Migration"}},
	{ID: "a4", Title: "Coral Reefs: Cities Underwater", Date: "2024-07-22", Author: "M. Torres", Image: "/api/placeholder/800/450", Tags: []string{"Marine"}},
}

func (h *Handler) handleArticles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dataBody{Data: demoArticles})
}
