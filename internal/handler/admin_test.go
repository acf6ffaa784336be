package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/pavelanni/florafauna/internal/model"
)

const contribution = `{"title":"Hornbill sighting","type":"text","content":"A pair nesting near the river bank"}`

func TestContributions(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, member)

	rec := e.do(t, http.MethodPost, "/api/contributions", contribution, tok)
	expectStatus(t, rec, http.StatusOK)
	if !decode[successBody](t, rec).Success {
		t.Error("expected success:true")
	}
	expectStatus(t, e.do(t, http.MethodPost, "/api/contributions", `{"title":"x"}`, tok), http.StatusBadRequest)

	rec = e.do(t, http.MethodGet, "/api/contributions", "", tok)
	expectStatus(t, rec, http.StatusOK)
	got := decode[struct {
		Data []model.Submission `json:"data"`
	}](t, rec)
	if len(got.Data) != 1 || got.Data[0].Status != model.StatusPending || got.Data[0].UserID != member.UserID {
		t.Errorf("contributions = %+v", got.Data)
	}

	other := e.token(t, model.Identity{UserID: "someone-else"})
	rec = e.do(t, http.MethodGet, "/api/contributions", "", other)
	if n := len(decode[struct {
		Data []model.Submission `json:"data"`
	}](t, rec).Data); n != 0 {
		t.Errorf("other user sees %d contributions", n)
	}
}

func TestContributionsWithoutWriter(t *testing.T) {
	e := newTestEnv(t, withoutWriter())
	tok := e.token(t, member)
	expectStatus(t, e.do(t, http.MethodPost, "/api/contributions", contribution, tok), http.StatusInternalServerError)

	rec := e.do(t, http.MethodGet, "/api/contributions", "", tok)
	expectStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "{\"data\":[]}\n" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestModerationAccess(t *testing.T) {
	e := newTestEnv(t, withAdmins("Boss@Example.org"))
	body := `{"id":"x","status":"approved"}`
	tests := []struct {
		name string
		id   *model.Identity
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"member", &member, http.StatusForbidden},
		{"role admin", &admin, http.StatusNotFound},
		{"verified allow-listed email", &model.Identity{UserID: "b", Email: "boss@example.org", EmailVerified: true}, http.StatusNotFound},
		{"unverified allow-listed email", &model.Identity{UserID: "b", Email: "boss@example.org"}, http.StatusForbidden},
		{"other role", &model.Identity{UserID: "c", Metadata: model.Metadata{"role": "editor"}}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := ""
			if tt.id != nil {
				tok = e.token(t, *tt.id)
			}
			expectStatus(t, e.do(t, http.MethodPatch, "/api/admin/moderate", body, tok), tt.want)
		})
	}
}

func TestModerate(t *testing.T) {
	e := newTestEnv(t)
	sub, err := e.db.CreateSubmission(context.Background(), model.Submission{
		UserID: member.UserID, Title: "Hornbill", Type: model.SubmissionText, Content: "A pair nesting by the river",
	})
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	tok := e.token(t, admin)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"archived is not a status", `{"id":"` + sub.ID + `","status":"archived"}`, http.StatusBadRequest},
		{"missing id", `{"status":"approved"}`, http.StatusBadRequest},
		{"unknown id", `{"id":"nope","status":"approved"}`, http.StatusNotFound},
		{"flag", `{"id":"` + sub.ID + `","status":"flagged"}`, http.StatusOK},
		{"approve", `{"id":"` + sub.ID + `","status":"approved"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectStatus(t, e.do(t, http.MethodPatch, "/api/admin/moderate", tt.body, tok), tt.want)
		})
	}

	rec := e.do(t, http.MethodGet, "/api/admin/submissions", "", tok)
	expectStatus(t, rec, http.StatusOK)
	got := decode[struct {
		Data []model.Submission `json:"data"`
	}](t, rec)
	if len(got.Data) != 1 || got.Data[0].Status != model.StatusApproved {
		t.Errorf("submissions = %+v", got.Data)
	}
}

func TestModerateWithoutWriter(t *testing.T) {
	e := newTestEnv(t, withoutWriter())
	tok := e.token(t, admin)
	expectStatus(t, e.do(t, http.MethodPatch, "/api/admin/moderate", `{"id":"s","status":"archived"}`, tok), http.StatusBadRequest)
	expectStatus(t, e.do(t, http.MethodPatch, "/api/admin/moderate", `{"id":"s","status":"rejected"}`, tok), http.StatusInternalServerError)
	expectStatus(t, e.do(t, http.MethodGet, "/api/admin/submissions", "", tok), http.StatusInternalServerError)
}
