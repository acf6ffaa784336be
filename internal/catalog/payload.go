package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"regexp"
	"strings"

	"github.com/pavelanni/florafauna/internal/model"
	"github.com/pavelanni/florafauna/internal/quiz"
)

// ValidationError lists every problem found in a request payload.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Issues, ", ")
}

type issues []string

func (is *issues) add(format string, args ...any) {
	*is = append(*is, fmt.Sprintf(format, args...))
}

func (is issues) err() error {
	if len(is) == 0 {
		return nil
	}
	return &ValidationError{Issues: is}
}

// IsValidation reports whether err carries payload validation issues.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var slugRE = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// speciesStatuses extends the quiz red-list codes with the two
// non-assessment categories a catalog row may carry.
var speciesStatuses = append(append([]string{}, quiz.IUCNCodes...), "DD", "NE")

func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return &ValidationError{Issues: []string{"request body is empty"}}
		case errors.As(err, &syn):
			return &ValidationError{Issues: []string{"request body is not valid JSON"}}
		case errors.As(err, &typ):
			return &ValidationError{Issues: []string{fmt.Sprintf("%s must be a %s", typ.Field, typ.Type)}}
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return &ValidationError{Issues: []string{"unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")}}
		}
		return &ValidationError{Issues: []string{err.Error()}}
	}
	return nil
}

func minLen(is *issues, field, v string, n int) {
	if len([]rune(strings.TrimSpace(v))) < n {
		is.add("%s must be at least %d characters", field, n)
	}
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// checkDerivedSlug rejects a scientific name that yields no slug when none
// was supplied.
func checkDerivedSlug(is *issues, slug, name *string) {
	if name == nil || (slug != nil && *slug != "") {
		return
	}
	if strings.TrimSpace(*name) != "" && Slugify(*name) == "" {
		is.add("slug could not be derived from scientific_name")
	}
}

func checkSpeciesFields(is *issues, slug, status *string, urls *[]string) {
	if slug != nil && *slug != "" && !slugRE.MatchString(*slug) {
		is.add("slug must contain lowercase letters, digits and single dashes")
	}
	if status != nil && *status != "" {
		code := strings.ToUpper(strings.TrimSpace(*status))
		ok := false
		for _, c := range speciesStatuses {
			if c == code {
				ok = true
				break
			}
		}
		if !ok {
			is.add("iucn_status must be one of %s", strings.Join(speciesStatuses, ", "))
		}
	}
	if urls != nil {
		for i, u := range *urls {
			if !isHTTPURL(strings.TrimSpace(u)) {
				is.add("image_urls[%d] must be an absolute http(s) URL", i)
			}
		}
	}
}

// ParseSpeciesPayload decodes and validates a new species. The result is normalized.
func ParseSpeciesPayload(r io.Reader) (model.Species, error) {
	var p model.SpeciesUpdate
	if err := decodeStrict(r, &p); err != nil {
		return model.Species{}, err
	}

	var is issues
	if p.ScientificName == nil {
		is.add("scientific_name is required")
	} else {
		minLen(&is, "scientific_name", *p.ScientificName, 2)
	}
	checkDerivedSlug(&is, p.Slug, p.ScientificName)
	checkSpeciesFields(&is, p.Slug, p.IUCNStatus, p.ImageURLs)
	if err := is.err(); err != nil {
		return model.Species{}, err
	}

	var s model.Species
	p.Apply(&s)
	return Normalize(s), nil
}

// ParseSpeciesUpdate decodes and validates a partial species change.
// An update that changes nothing is rejected.
func ParseSpeciesUpdate(r io.Reader) (model.SpeciesUpdate, error) {
	var p model.SpeciesUpdate
	if err := decodeStrict(r, &p); err != nil {
		return p, err
	}

	var is issues
	if p.Empty() {
		is.add("update must change at least one field")
	}
	if p.ScientificName != nil {
		minLen(&is, "scientific_name", *p.ScientificName, 2)
	}
	checkDerivedSlug(&is, p.Slug, p.ScientificName)
	checkSpeciesFields(&is, p.Slug, p.IUCNStatus, p.ImageURLs)
	if err := is.err(); err != nil {
		return p, err
	}

	// A renamed species gets a fresh slug unless one was supplied.
	if p.ScientificName != nil && p.Slug == nil {
		slug := Slugify(*p.ScientificName)
		p.Slug = &slug
	}
	if p.IUCNStatus != nil {
		code := strings.ToUpper(strings.TrimSpace(*p.IUCNStatus))
		p.IUCNStatus = &code
	}
	return p, nil
}

// ContributionInput is a validated contribution submission.
type ContributionInput struct {
	Title   string               `json:"title"`
	Type    model.SubmissionType `json:"type"`
	Content string               `json:"content"`
	URL     *string              `json:"url"`
}

// ParseContribution decodes and validates a contribution.
// An empty url is treated as absent.
func ParseContribution(r io.Reader) (ContributionInput, error) {
	var c ContributionInput
	if err := decodeStrict(r, &c); err != nil {
		return c, err
	}

	var is issues
	minLen(&is, "title", c.Title, 2)
	if c.Type != model.SubmissionText && c.Type != model.SubmissionImage {
		is.add("type must be text or image")
	}
	minLen(&is, "content", c.Content, 10)
	if c.URL != nil {
		if u := strings.TrimSpace(*c.URL); u == "" {
			c.URL = nil
		} else if !isHTTPURL(u) {
			is.add("url must be an absolute http(s) URL")
		} else {
			c.URL = &u
		}
	}
	if err := is.err(); err != nil {
		return c, err
	}
	c.Title = strings.TrimSpace(c.Title)
	c.Content = strings.TrimSpace(c.Content)
	return c, nil
}

// ModerationInput is a validated moderation decision.
type ModerationInput struct {
	ID     string                 `json:"id"`
	Status model.SubmissionStatus `json:"status"`
}

// ParseModeration decodes and validates a moderation decision.
func ParseModeration(r io.Reader) (ModerationInput, error) {
	var m ModerationInput
	if err := decodeStrict(r, &m); err != nil {
		return m, err
	}

	var is issues
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		is.add("id is required")
	}
	if !m.Status.Valid() {
		is.add("status must be one of pending, approved, rejected, flagged")
	}
	return m, is.err()
}

// QuizResultInput is a validated quiz result submission.
type QuizResultInput struct {
	QuizID         string           `json:"quiz_id"`
	Topic          string           `json:"topic"`
	Difficulty     model.Difficulty `json:"difficulty"`
	QuestionsCount *float64         `json:"questions_count"`
	CorrectCount   *float64         `json:"correct_count"`
	Metadata       json.RawMessage  `json:"metadata,omitempty"`
}

// ParseQuizResult decodes and validates a finished quiz and converts it to a
// result row for userID.
func ParseQuizResult(r io.Reader, userID string) (model.QuizResult, error) {
	var in QuizResultInput
	if err := decodeStrict(r, &in); err != nil {
		return model.QuizResult{}, err
	}

	var is issues
	if strings.TrimSpace(in.QuizID) == "" {
		is.add("quiz_id is required")
	}
	if _, ok := quiz.ParseTopic(in.Topic); !ok {
		is.add("topic must be a known quiz topic")
	}
	switch in.Difficulty {
	case model.DifficultyBeginner, model.DifficultyIntermediate, model.DifficultyAdvanced:
	default:
		is.add("difficulty must be Beginner, Intermediate or Advanced")
	}
	questions := count(&is, "questions_count", in.QuestionsCount)
	correct := count(&is, "correct_count", in.CorrectCount)
	meta := bytes.TrimSpace(in.Metadata)
	if len(meta) > 0 && !bytes.Equal(meta, []byte("null")) && meta[0] != '{' {
		is.add("metadata must be an object")
	}
	if err := is.err(); err != nil {
		return model.QuizResult{}, err
	}

	res := model.QuizResult{
		UserID:         userID,
		QuizID:         strings.TrimSpace(in.QuizID),
		Topic:          in.Topic,
		Difficulty:     in.Difficulty,
		QuestionsCount: questions,
		CorrectCount:   correct,
	}
	if len(meta) > 0 && !bytes.Equal(meta, []byte("null")) {
		res.Metadata = json.RawMessage(meta)
	}
	return res, nil
}

func count(is *issues, field string, v *float64) int {
	switch {
	case v == nil:
		is.add("%s is required", field)
	case *v < 0 || *v != math.Trunc(*v) || *v > math.MaxInt32:
		is.add("%s must be a non-negative integer", field)
	default:
		return int(*v)
	}
	return 0
}

// ExplainInput asks for an explanation of one answered quiz question.
type ExplainInput struct {
	Question quiz.Question `json:"question"`
	Selected *int          `json:"selected"`
}

// ParseExplain decodes and validates an explanation request.
func ParseExplain(r io.Reader) (quiz.Question, int, error) {
	var in ExplainInput
	if err := decodeStrict(r, &in); err != nil {
		return quiz.Question{}, 0, err
	}

	var is issues
	q := in.Question
	if strings.TrimSpace(q.Prompt) == "" {
		is.add("question.prompt is required")
	}
	if n := len(q.Choices); n < 2 || n > 8 {
		is.add("question.choices must hold between 2 and 8 entries")
	} else {
		if q.CorrectIndex < 0 || q.CorrectIndex >= n {
			is.add("question.correctIndex is out of range")
		}
		if in.Selected != nil && (*in.Selected < 0 || *in.Selected >= n) {
			is.add("selected is out of range")
		}
	}
	if in.Selected == nil {
		is.add("selected is required")
	}
	if err := is.err(); err != nil {
		return quiz.Question{}, 0, err
	}
	return q, *in.Selected, nil
}
