package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/florafauna/internal/auth"
	"github.com/pavelanni/florafauna/internal/model"
)

const defaultTokenTTL = 24 * time.Hour

// authenticate attaches the caller identity when the request carries a valid
// bearer token. Requests without one, or with an unusable one, continue
// anonymously; requireUser decides whether that is acceptable.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		id, err := h.verifier.Parse(token)
		if err != nil {
			slog.Debug("ignoring bearer token", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		ctx := model.ContextWithIdentity(r.Context(), &id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireUser rejects anonymous callers with 401.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if model.IdentityFromContext(r.Context()) == nil {
			writeError(w, r, http.StatusUnauthorized, "ErrUnauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin rejects anonymous callers with 401 and non-admins with 403.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := model.IdentityFromContext(r.Context())
		if id == nil {
			writeError(w, r, http.StatusUnauthorized, "ErrUnauthorized")
			return
		}
		if !h.access.IsAdmin(id) {
			slog.Warn("admin access denied", "user", id.UserID)
			writeError(w, r, http.StatusForbidden, "ErrForbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleToken exchanges local credentials for a signed identity token.
func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusUnauthorized, "ErrInvalidCredentials")
		return
	}

	user, err := h.reader.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeStoreError(w, r, "get user", err)
		return
	}
	if user == nil {
		writeError(w, r, http.StatusUnauthorized, "ErrInvalidCredentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			slog.Error("compare password hash", "error", err)
		}
		writeError(w, r, http.StatusUnauthorized, "ErrInvalidCredentials")
		return
	}

	ttl := h.config.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	token, err := h.verifier.Issue(model.Identity{
		UserID:        user.ID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		Metadata:      model.Metadata{"role": string(user.Role)},
	}, ttl)
	if err != nil {
		slog.Error("issue token", "error", err)
		writeError(w, r, http.StatusInternalServerError, "ErrInternal")
		return
	}
	slog.Info("issued local token", "user", user.ID)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: time.Now().Add(ttl).UTC()})
}
