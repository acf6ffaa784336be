package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.txt
var templateFS embed.FS

var (
	learnerAnswerRegex      = regexp.MustCompile(`(?i)</?\s*learner-answer\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

const (
	maxAnswerRunes   = 2000
	maxQuestionRunes = 500
)

var (
	loadOnce        sync.Once
	loadErr         error
	explainTemplate *template.Template
)

// ExplainData holds template data for answer explanations.
type ExplainData struct {
	Question   string
	Choices    []string
	Correct    string
	Selected   string
	WasCorrect bool
	Lang       string
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

// Load parses the prompt templates from fsys, or from the embedded templates
// when fsys is nil. Only the first call has any effect.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		if fsys == nil {
			fsys = templateFS
		}
		const file = "templates/explain.txt"
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			loadErr = errors.New("failed to read prompt file " + file + ": " + err.Error())
			return
		}
		tmpl, err := template.New("explain").Funcs(funcs).Parse(string(content))
		if err != nil {
			loadErr = errors.New("failed to parse prompt template " + file + ": " + err.Error())
			return
		}
		explainTemplate = tmpl
	})
	return loadErr
}

// BuildExplainPrompt renders the explanation system prompt. Learner-supplied
// text is sanitized before it reaches the template.
func BuildExplainPrompt(data ExplainData) (string, error) {
	if err := Load(nil); err != nil {
		return "", fmt.Errorf("templates load failed: %w", err)
	}
	data.Question = truncate(stripTags(data.Question), maxQuestionRunes)
	choices := make([]string, len(data.Choices))
	for i, c := range data.Choices {
		choices[i] = stripTags(c)
	}
	data.Choices = choices
	data.Correct = stripTags(data.Correct)
	data.Selected = sanitizeAnswer(data.Selected)
	data.WasCorrect = data.Selected == data.Correct

	var buf bytes.Buffer
	if err := explainTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// stripTags removes the prompt's delimiter tags from request text.
func stripTags(s string) string {
	s = learnerAnswerRegex.ReplaceAllString(s, "")
	s = systemInstructionsRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func sanitizeAnswer(answer string) string {
	answer = stripTags(answer)

	if answer == "" {
		return "[No answer provided]"
	}
	if utf8.RuneCountInString(answer) > maxAnswerRunes {
		answer = truncate(answer, maxAnswerRunes) + "\n\n[Answer truncated due to length]"
	}
	return answer
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
