package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/pavelanni/florafauna/internal/model"
)

func validationIssues(t *testing.T, err error) []string {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	return ve.Issues
}

func TestParseSpeciesPayload(t *testing.T) {
	body := `{"scientific_name":" Panthera leo ","common_name":"Lion","iucn_status":"vu",
		"image_urls":["https://example.org/lion.jpg"],"featured":true}`
	s, err := ParseSpeciesPayload(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseSpeciesPayload: %v", err)
	}
	if s.ScientificName != "Panthera leo" || s.Slug != "panthera-leo" {
		t.Errorf("got name %q slug %q", s.ScientificName, s.Slug)
	}
	if s.IUCNStatus != "VU" || !s.Featured || len(s.ImageURLs) != 1 {
		t.Errorf("unexpected species: %+v", s)
	}
}

func TestParseSpeciesPayloadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"common_name":"Lion"}`, "scientific_name is required"},
		{"short name", `{"scientific_name":"P"}`, "scientific_name must be at least 2 characters"},
		{"bad slug", `{"scientific_name":"Panthera leo","slug":"Panthera_Leo"}`, "slug must contain"},
		{"no slug letters", `{"scientific_name":"日本"}`, "slug could not be derived"},
		{"bad status", `{"scientific_name":"Panthera leo","iucn_status":"XX"}`, "iucn_status must be one of"},
		{"bad url", `{"scientific_name":"Panthera leo","image_urls":["ftp://x/y"]}`, "image_urls[0]"},
		{"unknown field", `{"scientific_name":"Panthera leo","legs":4}`, "unknown field"},
		{"wrong type", `{"scientific_name":12}`, "scientific_name must be a"},
		{"not json", `{scientific_name`, "not valid JSON"},
		{"empty", ``, "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpeciesPayload(strings.NewReader(tt.body))
			msg := strings.Join(validationIssues(t, err), ", ")
			if !strings.Contains(msg, tt.want) {
				t.Errorf("error %q does not contain %q", msg, tt.want)
			}
		})
	}
}

func TestValidationErrorJoinsIssues(t *testing.T) {
	_, err := ParseSpeciesPayload(strings.NewReader(`{"scientific_name":"P","iucn_status":"zz"}`))
	if got := len(validationIssues(t, err)); got != 2 {
		t.Fatalf("expected 2 issues, got %d", got)
	}
	if !strings.Contains(err.Error(), ", ") {
		t.Errorf("issues should be joined by comma: %q", err.Error())
	}
	if !IsValidation(err) {
		t.Error("IsValidation should be true")
	}
}

func TestParseSpeciesUpdate(t *testing.T) {
	u, err := ParseSpeciesUpdate(strings.NewReader(`{"scientific_name":"Panthera onca","iucn_status":"nt"}`))
	if err != nil {
		t.Fatalf("ParseSpeciesUpdate: %v", err)
	}
	if u.Slug == nil || *u.Slug != "panthera-onca" {
		t.Errorf("slug not derived: %v", u.Slug)
	}
	if *u.IUCNStatus != "NT" {
		t.Errorf("status = %q", *u.IUCNStatus)
	}

	u, err = ParseSpeciesUpdate(strings.NewReader(`{"scientific_name":"Panthera onca","slug":"jaguar"}`))
	if err != nil {
		t.Fatalf("ParseSpeciesUpdate: %v", err)
	}
	if *u.Slug != "jaguar" {
		t.Errorf("explicit slug replaced: %q", *u.Slug)
	}

	if _, err := ParseSpeciesUpdate(strings.NewReader(`{"scientific_name":"日本"}`)); !IsValidation(err) {
		t.Errorf("rename without a derivable slug should fail, got %v", err)
	}
	if _, err := ParseSpeciesUpdate(strings.NewReader(`{"scientific_name":"日本","slug":"nihon"}`)); err != nil {
		t.Errorf("explicit slug should be accepted: %v", err)
	}

	if _, err := ParseSpeciesUpdate(strings.NewReader(`{}`)); !IsValidation(err) {
		t.Errorf("empty update should fail validation, got %v", err)
	}
}

func TestParseContribution(t *testing.T) {
	c, err := ParseContribution(strings.NewReader(
		`{"title":"Hornbill","type":"image","content":"Seen near the river bank","url":""}`))
	if err != nil {
		t.Fatalf("ParseContribution: %v", err)
	}
	if c.URL != nil {
		t.Errorf("empty url should be dropped, got %q", *c.URL)
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"short title", `{"title":"H","type":"text","content":"long enough text"}`, "title"},
		{"bad type", `{"title":"Hornbill","type":"video","content":"long enough text"}`, "type must be"},
		{"short content", `{"title":"Hornbill","type":"text","content":"short"}`, "content"},
		{"bad url", `{"title":"Hornbill","type":"text","content":"long enough text","url":"nope"}`, "url must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseContribution(strings.NewReader(tt.body))
			if msg := strings.Join(validationIssues(t, err), ", "); !strings.Contains(msg, tt.want) {
				t.Errorf("error %q does not contain %q", msg, tt.want)
			}
		})
	}
}

func TestParseModeration(t *testing.T) {
	m, err := ParseModeration(strings.NewReader(`{"id":" s-1 ","status":"approved"}`))
	if err != nil {
		t.Fatalf("ParseModeration: %v", err)
	}
	if m.ID != "s-1" || m.Status != model.StatusApproved {
		t.Errorf("got %+v", m)
	}

	for _, body := range []string{
		`{"id":"s-1","status":"archived"}`,
		`{"id":"","status":"pending"}`,
		`{"status":"pending"}`,
	} {
		if _, err := ParseModeration(strings.NewReader(body)); !IsValidation(err) {
			t.Errorf("ParseModeration(%s) should fail, got %v", body, err)
		}
	}
}

func TestParseQuizResult(t *testing.T) {
	body := `{"quiz_id":"q1","topic":"Habitats","difficulty":"Beginner",
		"questions_count":10,"correct_count":7,"metadata":{"seconds":42}}`
	res, err := ParseQuizResult(strings.NewReader(body), "user-1")
	if err != nil {
		t.Fatalf("ParseQuizResult: %v", err)
	}
	if res.UserID != "user-1" || res.QuestionsCount != 10 || res.CorrectCount != 7 {
		t.Errorf("got %+v", res)
	}
	if string(res.Metadata) != `{"seconds":42}` {
		t.Errorf("metadata = %s", res.Metadata)
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad topic", `{"quiz_id":"q","topic":"Birds","difficulty":"Beginner","questions_count":1,"correct_count":1}`, "topic"},
		{"bad difficulty", `{"quiz_id":"q","topic":"Taxonomy","difficulty":"Easy","questions_count":1,"correct_count":1}`, "difficulty"},
		{"negative", `{"quiz_id":"q","topic":"Taxonomy","difficulty":"Advanced","questions_count":-1,"correct_count":0}`, "questions_count must be a non-negative integer"},
		{"fraction", `{"quiz_id":"q","topic":"Taxonomy","difficulty":"Advanced","questions_count":2,"correct_count":1.5}`, "correct_count must be a non-negative integer"},
		{"missing count", `{"quiz_id":"q","topic":"Taxonomy","difficulty":"Advanced","questions_count":2}`, "correct_count is required"},
		{"metadata array", `{"quiz_id":"q","topic":"Taxonomy","difficulty":"Advanced","questions_count":2,"correct_count":1,"metadata":[1]}`, "metadata must be an object"},
		{"missing quiz", `{"topic":"Taxonomy","difficulty":"Advanced","questions_count":2,"correct_count":1}`, "quiz_id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuizResult(strings.NewReader(tt.body), "u")
			if msg := strings.Join(validationIssues(t, err), ", "); !strings.Contains(msg, tt.want) {
				t.Errorf("error %q does not contain %q", msg, tt.want)
			}
		})
	}
}

func TestParseExplain(t *testing.T) {
	body := `{"question":{"id":"q1","prompt":"Which genus?","choices":["Panthera","Felis","Canis"],
		"correctIndex":0,"speciesId":"s1","kind":"genus","image":null},"selected":2}`
	q, sel, err := ParseExplain(strings.NewReader(body))
	if err != nil {
		t.Fatalf("ParseExplain: %v", err)
	}
	if sel != 2 || q.Choices[q.CorrectIndex] != "Panthera" {
		t.Errorf("got %+v selected %d", q, sel)
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"no selection", `{"question":{"prompt":"p","choices":["a","b"],"correctIndex":0}}`, "selected is required"},
		{"selection range", `{"question":{"prompt":"p","choices":["a","b"],"correctIndex":0},"selected":5}`, "selected is out of range"},
		{"one choice", `{"question":{"prompt":"p","choices":["a"],"correctIndex":0},"selected":0}`, "between 2 and 8"},
		{"correct range", `{"question":{"prompt":"p","choices":["a","b"],"correctIndex":3},"selected":0}`, "correctIndex"},
		{"no prompt", `{"question":{"choices":["a","b"],"correctIndex":0},"selected":0}`, "question.prompt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseExplain(strings.NewReader(tt.body))
			if msg := strings.Join(validationIssues(t, err), ", "); !strings.Contains(msg, tt.want) {
				t.Errorf("error %q does not contain %q", msg, tt.want)
			}
		})
	}
}
