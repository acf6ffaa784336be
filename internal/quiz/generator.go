// Package quiz builds multiple-choice questions from species records.
package quiz

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/pavelanni/florafauna/internal/model"
)

// DefaultCount is the number of questions built when Options.Count is not positive.
const DefaultCount = 10

// choicesPerQuestion is the correct answer plus three distractors.
const choicesPerQuestion = 4

// Kind is the direction of a name question.
type Kind string

const (
	KindCommonToScientific Kind = "common_to_scientific"
	KindScientificToCommon Kind = "scientific_to_common"
)

// Question is one multiple-choice question.
type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Choices      []string `json:"choices"`
	CorrectIndex int      `json:"correctIndex"`
	SpeciesID    string   `json:"speciesId"`
	Kind         Kind     `json:"kind"`
	Image        *string  `json:"image"`
}

// Options controls a single Build call.
type Options struct {
	Count         int
	IncludeImages bool
	Topic         Topic
}

// Generator builds questions. It is not safe for concurrent use.
type Generator struct {
	rng     *rand.Rand
	phrases Phrasebook
}

// NewGenerator returns a generator drawing from rng and rendering text with phrases.
// A nil rng is replaced by a time-seeded source and a nil phrasebook by English.
func NewGenerator(rng *rand.Rand, phrases Phrasebook) *Generator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, rand.Uint64()))
	}
	if phrases == nil {
		phrases = English{}
	}
	return &Generator{rng: rng, phrases: phrases}
}

// Build produces up to opts.Count questions from records. It returns fewer
// when the pool runs out of records that fit the requested question kind.
// No two questions share a source species.
func (g *Generator) Build(records []model.Species, opts Options) []Question {
	count := opts.Count
	if count <= 0 {
		count = DefaultCount
	}

	pool := make([]*model.Species, 0, len(records))
	for i := range records {
		if strings.TrimSpace(records[i].ScientificName) != "" {
			pool = append(pool, &records[i])
		}
	}
	withCommon := filter(pool, hasCommonName)

	take := min(count, len(pool))
	questions := make([]Question, 0, take)
	used := make(map[string]bool, take)

	for i := 0; i < take; i++ {
		if q, ok := g.topicQuestion(opts, pool, used); ok {
			questions = append(questions, q)
			continue
		}

		if i%2 == 0 || len(withCommon) < choicesPerQuestion {
			q, ok := g.commonToScientific(pool, used, opts.IncludeImages)
			if !ok {
				break
			}
			questions = append(questions, q)
			continue
		}

		// Retrying this slot cannot find a record the previous attempt missed,
		// so an exhausted common-name pool ends generation here.
		q, ok := g.scientificToCommon(withCommon, used, opts.IncludeImages)
		if !ok {
			break
		}
		questions = append(questions, q)
	}
	return questions
}

func (g *Generator) topicQuestion(opts Options, pool []*model.Species, used map[string]bool) (Question, bool) {
	switch opts.Topic {
	case TopicHabitats:
		return g.habitatQuestion(pool, used, opts.IncludeImages)
	case TopicConservation:
		return g.conservationQuestion(pool, used)
	case TopicClassification:
		return g.rankQuestion(pool, used, familyOf, MsgFamilyOf)
	case TopicSpeciesSpec:
		return g.rankQuestion(pool, used, genusOf, MsgGenusOf)
	}
	return Question{}, false
}

func (g *Generator) commonToScientific(pool []*model.Species, used map[string]bool, includeImages bool) (Question, bool) {
	base, ok := g.pickUnused(pool, used)
	if !ok {
		return Question{}, false
	}
	correct := base.ScientificName
	prompt := g.phrases.Phrase(MsgPickScientificName, nil)
	if hasCommonName(base) {
		prompt = g.phrases.Phrase(MsgScientificNameOf, map[string]any{"Name": base.CommonName})
	}
	names := make([]string, 0, len(pool))
	for _, s := range pool {
		names = append(names, s.ScientificName)
	}
	q := g.finish(base, prompt, correct, g.pickDistractors(names, correct), KindCommonToScientific)
	if includeImages {
		q.Image = firstImage(base)
	}
	return q, true
}

func (g *Generator) scientificToCommon(withCommon []*model.Species, used map[string]bool, includeImages bool) (Question, bool) {
	base, ok := g.pickUnused(withCommon, used)
	if !ok {
		return Question{}, false
	}
	correct := base.CommonName
	prompt := g.phrases.Phrase(MsgCommonNameOf, map[string]any{"Name": base.ScientificName})
	names := make([]string, 0, len(withCommon))
	for _, s := range withCommon {
		if s.ID != base.ID {
			names = append(names, s.CommonName)
		}
	}
	q := g.finish(base, prompt, correct, g.pickDistractors(names, correct), KindScientificToCommon)
	if includeImages {
		q.Image = firstImage(base)
	}
	return q, true
}

func (g *Generator) habitatQuestion(pool []*model.Species, used map[string]bool, includeImages bool) (Question, bool) {
	candidates := filter(pool, func(s *model.Species) bool {
		_, ok := ClassifyHabitat(s.HabitatDescription)
		return ok
	})
	base, ok := g.pickUnused(candidates, used)
	if !ok {
		return Question{}, false
	}
	habitat, _ := ClassifyHabitat(base.HabitatDescription)
	correct := g.phrases.Phrase(string(habitat), nil)

	labels := make([]string, 0, len(habitatPatterns))
	for _, h := range Habitats() {
		if h != habitat {
			labels = append(labels, g.phrases.Phrase(string(h), nil))
		}
	}
	q := g.finish(base, g.namedPrompt(base, MsgHabitatOf, MsgHabitatGeneric), correct,
		g.pickDistractors(labels, correct), KindScientificToCommon)
	if includeImages {
		q.Image = firstImage(base)
	}
	return q, true
}

func (g *Generator) conservationQuestion(pool []*model.Species, used map[string]bool) (Question, bool) {
	candidates := filter(pool, func(s *model.Species) bool {
		_, ok := IUCNCode(s.IUCNStatus)
		return ok
	})
	base, ok := g.pickUnused(candidates, used)
	if !ok {
		return Question{}, false
	}
	code, _ := IUCNCode(base.IUCNStatus)
	correct := g.phrases.Phrase(statusMessageID(code), nil)

	labels := make([]string, 0, len(IUCNCodes))
	for _, c := range IUCNCodes {
		if c != code {
			labels = append(labels, g.phrases.Phrase(statusMessageID(c), nil))
		}
	}
	return g.finish(base, g.namedPrompt(base, MsgStatusOf, MsgStatusGeneric), correct,
		g.pickDistractors(labels, correct), KindCommonToScientific), true
}

// rankQuestion asks for a taxonomic rank value; distractors are other values of
// the same rank observed anywhere in the pool.
func (g *Generator) rankQuestion(pool []*model.Species, used map[string]bool, rank func(*model.Species) string, promptID string) (Question, bool) {
	candidates := filter(pool, func(s *model.Species) bool { return strings.TrimSpace(rank(s)) != "" })
	base, ok := g.pickUnused(candidates, used)
	if !ok {
		return Question{}, false
	}
	correct := rank(base)
	values := make([]string, 0, len(candidates))
	for _, s := range candidates {
		values = append(values, rank(s))
	}
	prompt := g.phrases.Phrase(promptID, map[string]any{"Name": base.ScientificName})
	return g.finish(base, prompt, correct, g.pickDistractors(values, correct), KindCommonToScientific), true
}

func (g *Generator) namedPrompt(s *model.Species, namedID, genericID string) string {
	if hasCommonName(s) {
		return g.phrases.Phrase(namedID, map[string]any{"Name": s.CommonName})
	}
	return g.phrases.Phrase(genericID, nil)
}

// finish shuffles the choices and locates the correct answer after shuffling.
func (g *Generator) finish(base *model.Species, prompt, correct string, distractors []string, kind Kind) Question {
	choices := make([]string, 0, len(distractors)+1)
	choices = append(choices, correct)
	choices = append(choices, distractors...)
	g.shuffle(choices)

	correctIndex := 0
	for i, c := range choices {
		if c == correct {
			correctIndex = i
			break
		}
	}
	return Question{
		ID:           base.ID,
		Prompt:       prompt,
		Choices:      choices,
		CorrectIndex: correctIndex,
		SpeciesID:    base.ID,
		Kind:         kind,
	}
}

// pickUnused draws a random record whose ID is not yet used and marks it used.
func (g *Generator) pickUnused(records []*model.Species, used map[string]bool) (*model.Species, bool) {
	candidates := filter(records, func(s *model.Species) bool { return !used[s.ID] })
	if len(candidates) == 0 {
		return nil, false
	}
	pick := candidates[g.rng.IntN(len(candidates))]
	used[pick.ID] = true
	return pick, true
}

// pickDistractors returns up to three distinct non-empty values other than
// correct, in random order.
func (g *Generator) pickDistractors(values []string, correct string) []string {
	seen := map[string]bool{correct: true}
	distinct := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) == "" || seen[v] {
			continue
		}
		seen[v] = true
		distinct = append(distinct, v)
	}
	g.shuffle(distinct)
	if len(distinct) > choicesPerQuestion-1 {
		distinct = distinct[:choicesPerQuestion-1]
	}
	return distinct
}

func (g *Generator) shuffle(s []string) {
	g.rng.Shuffle(len(s), func(i, j int) {
		s[i], s[j] = s[j], s[i]
	})
}

func filter(records []*model.Species, keep func(*model.Species) bool) []*model.Species {
	out := make([]*model.Species, 0, len(records))
	for _, s := range records {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

func hasCommonName(s *model.Species) bool { return strings.TrimSpace(s.CommonName) != "" }

func familyOf(s *model.Species) string { return s.Family }

func genusOf(s *model.Species) string { return s.Genus }

func firstImage(s *model.Species) *string {
	if len(s.ImageURLs) == 0 {
		return nil
	}
	url := s.ImageURLs[0]
	return &url
}
