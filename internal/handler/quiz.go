package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pavelanni/florafauna/internal/catalog"
	appI18n "github.com/pavelanni/florafauna/internal/i18n"
	"github.com/pavelanni/florafauna/internal/llm"
	"github.com/pavelanni/florafauna/internal/model"
	"github.com/pavelanni/florafauna/internal/quiz"
	"github.com/pavelanni/florafauna/internal/store"
)

const (
	defaultQuizCount = 10
	maxQuizCount     = 50
)

type quizMetadata struct {
	Topic   quiz.Topic `json:"topic"`
	Count   int        `json:"count"`
	Message string     `json:"message"`
}

type quizResponse struct {
	Data     []quiz.Question `json:"data"`
	Metadata quizMetadata    `json:"metadata"`
}

func (h *Handler) handleQuiz(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	topic := quiz.TopicTaxonomy
	if v := q.Get("topic"); v != "" {
		t, ok := quiz.ParseTopic(v)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "ErrInvalidQuery")
			return
		}
		topic = t
	}

	count := defaultQuizCount
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "ErrInvalidQuery")
			return
		}
		count = min(max(n, 1), maxQuizCount)
	}

	images := true
	if v := q.Get("images"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "ErrInvalidQuery")
			return
		}
		images = b
	}

	// Distractors need more records than questions.
	poolSize := max(h.config.QuizPoolSize, count*4)
	pool, err := h.reader.QuizPool(r.Context(), topic, poolSize)
	if store.IsMissingTable(err) {
		slog.Warn("species table missing, quiz pool is empty", "error", err)
		pool, err = nil, nil
	}
	if err != nil {
		writeStoreError(w, r, "load quiz pool", err)
		return
	}

	gen := quiz.NewGenerator(h.newRand(), appI18n.PhrasebookFromContext(r.Context()))
	questions := gen.Build(pool, quiz.Options{Count: count, IncludeImages: images, Topic: topic})
	if questions == nil {
		questions = []quiz.Question{}
	}

	msg := appI18n.Tp(r.Context(), "QuizQuestionsReady", len(questions))
	if len(questions) == 0 {
		msg = appI18n.T(r.Context(), "QuizNoQuestions")
	}
	writeJSON(w, http.StatusOK, quizResponse{
		Data:     questions,
		Metadata: quizMetadata{Topic: topic, Count: len(questions), Message: msg},
	})
}

func (h *Handler) handleCreateQuizResult(w http.ResponseWriter, r *http.Request) {
	db := h.privileged(w, r, http.StatusInternalServerError)
	if db == nil {
		return
	}
	id := model.IdentityFromContext(r.Context())
	res, err := catalog.ParseQuizResult(r.Body, id.UserID)
	if err != nil {
		writeInvalid(w, err)
		return
	}
	saved, err := db.CreateQuizResult(r.Context(), res)
	if err != nil {
		writeStoreError(w, r, "save quiz result", err)
		return
	}
	slog.Info("quiz result saved", "id", saved.ID, "user", id.UserID,
		"correct", saved.CorrectCount, "questions", saved.QuestionsCount)
	writeJSON(w, http.StatusOK, successBody{Success: true})
}

// handleListQuizResults returns the caller's latest results. Missing
// credentials or a missing table produce an empty list.
func (h *Handler) handleListQuizResults(w http.ResponseWriter, r *http.Request) {
	list := []model.QuizResult{}
	if h.writer == nil {
		writeJSON(w, http.StatusOK, dataBody{Data: list})
		return
	}
	id := model.IdentityFromContext(r.Context())
	results, err := h.writer.ListQuizResults(r.Context(), id.UserID, store.QuizResultsLimit)
	switch {
	case store.IsMissingTable(err):
		slog.Warn("quiz results table missing", "error", err)
	case err != nil:
		writeStoreError(w, r, "list quiz results", err)
		return
	case results != nil:
		list = results
	}
	writeJSON(w, http.StatusOK, dataBody{Data: list})
}

type explainResponse struct {
	Explanation string `json:"explanation"`
	Correct     bool   `json:"correct"`
}

func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	if !h.llm.Configured() {
		writeError(w, r, http.StatusServiceUnavailable, "ErrExplainUnavailable")
		return
	}
	q, selected, err := catalog.ParseExplain(r.Body)
	if err != nil {
		writeInvalid(w, err)
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = h.config.Lang
	}
	text, err := h.llm.ExplainAnswer(r.Context(), q, selected, lang)
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			writeError(w, r, http.StatusServiceUnavailable, "ErrExplainUnavailable")
			return
		}
		slog.Error("explain answer", "error", err)
		writeError(w, r, http.StatusBadGateway, "ErrExplainUnavailable")
		return
	}
	writeJSON(w, http.StatusOK, dataBody{Data: explainResponse{
		Explanation: text,
		Correct:     selected == q.CorrectIndex,
	}})
}
