package quiz

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/pavelanni/florafauna/internal/model"
)

func newTestGenerator(seed uint64) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed+1)), nil)
}

func testPool(n int) []model.Species {
	families := []string{"Felidae", "Canidae", "Ursidae", "Hominidae", "Fagaceae"}
	genera := []string{"Panthera", "Canis", "Ursus", "Pongo", "Quercus", "Acinonyx"}
	habitats := []string{"tropical rainforest", "hot desert dunes", "coral reef", "alpine meadow", ""}
	statuses := []string{"VU", "en", "LC", "", "xx"}
	var out []model.Species
	for i := 0; i < n; i++ {
		out = append(out, model.Species{
			ID:                 fmt.Sprintf("sp-%02d", i),
			ScientificName:     fmt.Sprintf("Genus%d species%d", i, i),
			CommonName:         fmt.Sprintf("Animal %d", i),
			Family:             families[i%len(families)],
			Genus:              genera[i%len(genera)],
			HabitatDescription: habitats[i%len(habitats)],
			IUCNStatus:         statuses[i%len(statuses)],
			ImageURLs:          []string{fmt.Sprintf("https://img.example/%d.jpg", i)},
		})
	}
	return out
}

// checkInvariants verifies the properties every generated set must satisfy.
func checkInvariants(t *testing.T, qs []Question) {
	t.Helper()
	seenSpecies := map[string]bool{}
	for _, q := range qs {
		if seenSpecies[q.SpeciesID] {
			t.Errorf("species %s used as the base of two questions", q.SpeciesID)
		}
		seenSpecies[q.SpeciesID] = true

		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Choices) {
			t.Fatalf("correctIndex %d out of range for %d choices", q.CorrectIndex, len(q.Choices))
		}
		seenChoice := map[string]bool{}
		for _, c := range q.Choices {
			if seenChoice[c] {
				t.Errorf("duplicate choice %q in %v", c, q.Choices)
			}
			seenChoice[c] = true
		}
		if len(q.Choices) > choicesPerQuestion {
			t.Errorf("expected at most %d choices, got %d", choicesPerQuestion, len(q.Choices))
		}
		if q.ID != q.SpeciesID {
			t.Errorf("question id %q should borrow species id %q", q.ID, q.SpeciesID)
		}
	}
}

func TestBuildInvariantsAllTopics(t *testing.T) {
	records := testPool(20)
	for _, topic := range Topics {
		for seed := uint64(0); seed < 25; seed++ {
			t.Run(fmt.Sprintf("%s/seed%d", topic, seed), func(t *testing.T) {
				g := newTestGenerator(seed)
				qs := g.Build(records, Options{Count: 10, IncludeImages: true, Topic: topic})
				if len(qs) > 10 {
					t.Fatalf("expected at most 10 questions, got %d", len(qs))
				}
				checkInvariants(t, qs)
			})
		}
	}
}

func TestBuildNamesCorrectAnswer(t *testing.T) {
	records := testPool(12)
	byID := map[string]model.Species{}
	for _, r := range records {
		byID[r.ID] = r
	}

	g := newTestGenerator(7)
	qs := g.Build(records, Options{Count: 12, Topic: TopicTaxonomy})
	if len(qs) != 12 {
		t.Fatalf("expected 12 questions, got %d", len(qs))
	}
	for _, q := range qs {
		src := byID[q.SpeciesID]
		var want string
		switch q.Kind {
		case KindCommonToScientific:
			want = src.ScientificName
		case KindScientificToCommon:
			want = src.CommonName
		default:
			t.Fatalf("unexpected kind %q", q.Kind)
		}
		if got := q.Choices[q.CorrectIndex]; got != want {
			t.Errorf("choices[correctIndex] = %q, want %q", got, want)
		}
		if q.Image != nil {
			t.Errorf("expected no image when IncludeImages is false, got %q", *q.Image)
		}
	}
}

func TestBuildAlternatesKinds(t *testing.T) {
	g := newTestGenerator(3)
	qs := g.Build(testPool(10), Options{Count: 6, Topic: TopicTaxonomy})
	if len(qs) != 6 {
		t.Fatalf("expected 6 questions, got %d", len(qs))
	}
	for i, q := range qs {
		want := KindCommonToScientific
		if i%2 == 1 {
			want = KindScientificToCommon
		}
		if q.Kind != want {
			t.Errorf("question %d: kind %q, want %q", i, q.Kind, want)
		}
	}
}

func TestBuildMissingCommonNames(t *testing.T) {
	records := []model.Species{
		{ID: "a", ScientificName: "Panthera leo"},
		{ID: "b", ScientificName: "Panthera pardus"},
		{ID: "c", ScientificName: "Acinonyx jubatus"},
	}
	g := newTestGenerator(1)
	qs := g.Build(records, Options{Count: 10, Topic: TopicTaxonomy})
	if len(qs) > 3 {
		t.Fatalf("expected at most 3 questions, got %d", len(qs))
	}
	if len(qs) == 0 {
		t.Fatal("expected some questions")
	}
	generic := English{}.Phrase(MsgPickScientificName, nil)
	for _, q := range qs {
		if q.Kind != KindCommonToScientific {
			t.Errorf("expected kind %q, got %q", KindCommonToScientific, q.Kind)
		}
		if q.Prompt != generic {
			t.Errorf("expected generic prompt, got %q", q.Prompt)
		}
	}
	checkInvariants(t, qs)
}

func TestBuildSkipsRecordsWithoutScientificName(t *testing.T) {
	records := []model.Species{
		{ID: "a", ScientificName: "Panthera leo"},
		{ID: "b", ScientificName: ""},
		{ID: "c", ScientificName: "   "},
	}
	qs := newTestGenerator(5).Build(records, Options{Count: 5})
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	if qs[0].SpeciesID != "a" {
		t.Errorf("expected species a, got %s", qs[0].SpeciesID)
	}
	if len(qs[0].Choices) != 1 {
		t.Errorf("expected a single choice without distractors, got %v", qs[0].Choices)
	}
}

func TestBuildStopsWhenCommonNamesRunOut(t *testing.T) {
	records := testPool(8)
	for i := 4; i < len(records); i++ {
		records[i].CommonName = ""
	}
	for seed := uint64(0); seed < 20; seed++ {
		qs := newTestGenerator(seed).Build(records, Options{Count: 8})
		checkInvariants(t, qs)
		for _, q := range qs {
			if q.Kind == KindScientificToCommon && q.Choices[q.CorrectIndex] == "" {
				t.Errorf("scientific_to_common question without a common name")
			}
		}
	}
}

func TestBuildConservationSingleEligible(t *testing.T) {
	records := []model.Species{
		{ID: "vu", ScientificName: "Ursus maritimus", CommonName: "Polar bear", IUCNStatus: "vu"},
		{ID: "b", ScientificName: "Canis lupus"},
		{ID: "c", ScientificName: "Vulpes vulpes"},
		{ID: "d", ScientificName: "Felis catus"},
	}
	for seed := uint64(0); seed < 10; seed++ {
		qs := newTestGenerator(seed).Build(records, Options{Count: 4, Topic: TopicConservation})
		if len(qs) == 0 {
			t.Fatal("expected at least one question")
		}
		first := qs[0]
		if first.SpeciesID != "vu" {
			t.Fatalf("expected first question about vu, got %s", first.SpeciesID)
		}
		if got := first.Choices[first.CorrectIndex]; got != "Vulnerable" {
			t.Errorf("expected correct label Vulnerable, got %q", got)
		}
		if len(first.Choices) != choicesPerQuestion {
			t.Errorf("expected %d choices, got %d", choicesPerQuestion, len(first.Choices))
		}
		conservation := 0
		for _, q := range qs {
			for _, c := range q.Choices {
				if c == "Vulnerable" || c == "Extinct" || c == "Least Concern" || c == "Endangered" {
					conservation++
					break
				}
			}
		}
		if conservation != 1 {
			t.Errorf("expected exactly one conservation question, got %d", conservation)
		}
		checkInvariants(t, qs)
	}
}

func TestBuildTopicWithNoEligibleRecords(t *testing.T) {
	records := []model.Species{
		{ID: "a", ScientificName: "Panthera leo"},
		{ID: "b", ScientificName: "Panthera pardus"},
	}
	for _, topic := range []Topic{TopicHabitats, TopicConservation, TopicClassification, TopicSpeciesSpec} {
		t.Run(string(topic), func(t *testing.T) {
			qs := newTestGenerator(9).Build(records, Options{Count: 2, Topic: topic})
			for _, q := range qs {
				if q.Kind != KindCommonToScientific {
					t.Errorf("expected generic fallback question, got kind %q", q.Kind)
				}
			}
			checkInvariants(t, qs)
		})
	}
	if qs := newTestGenerator(9).Build(nil, Options{Count: 5, Topic: TopicHabitats}); len(qs) != 0 {
		t.Errorf("expected no questions for an empty pool, got %d", len(qs))
	}
}

func TestBuildClassification(t *testing.T) {
	records := testPool(10)
	byID := map[string]model.Species{}
	for _, r := range records {
		byID[r.ID] = r
	}
	qs := newTestGenerator(11).Build(records, Options{Count: 5, Topic: TopicClassification})
	if len(qs) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(qs))
	}
	for _, q := range qs {
		if got, want := q.Choices[q.CorrectIndex], byID[q.SpeciesID].Family; got != want {
			t.Errorf("expected family %q, got %q", want, got)
		}
		if len(q.Choices) != choicesPerQuestion {
			t.Errorf("expected %d choices, got %v", choicesPerQuestion, q.Choices)
		}
		if q.Image != nil {
			t.Error("classification questions carry no image")
		}
	}
}

func TestBuildHabitatsAttachesImages(t *testing.T) {
	records := []model.Species{
		{ID: "a", ScientificName: "Panthera tigris", HabitatDescription: "Tropical Forest", ImageURLs: []string{"https://img/1.jpg", "https://img/2.jpg"}},
		{ID: "b", ScientificName: "Camelus dromedarius", HabitatDescription: "arid desert"},
	}
	qs := newTestGenerator(2).Build(records, Options{Count: 2, IncludeImages: true, Topic: TopicHabitats})
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(qs))
	}
	for _, q := range qs {
		if q.Kind != KindScientificToCommon {
			t.Errorf("expected habitat kind %q, got %q", KindScientificToCommon, q.Kind)
		}
		switch q.SpeciesID {
		case "a":
			if q.Image == nil || *q.Image != "https://img/1.jpg" {
				t.Errorf("expected first image URL, got %v", q.Image)
			}
			if q.Choices[q.CorrectIndex] != "Forest" {
				t.Errorf("expected Forest, got %q", q.Choices[q.CorrectIndex])
			}
		case "b":
			if q.Image != nil {
				t.Errorf("expected nil image, got %q", *q.Image)
			}
			if q.Choices[q.CorrectIndex] != "Desert" {
				t.Errorf("expected Desert, got %q", q.Choices[q.CorrectIndex])
			}
		}
		if len(q.Choices) != choicesPerQuestion {
			t.Errorf("expected %d choices, got %d", choicesPerQuestion, len(q.Choices))
		}
	}
}

func TestBuildDeterministicWithSeed(t *testing.T) {
	records := testPool(15)
	a := newTestGenerator(42).Build(records, Options{Count: 8, Topic: TopicTaxonomy})
	b := newTestGenerator(42).Build(records, Options{Count: 8, Topic: TopicTaxonomy})
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].SpeciesID != b[i].SpeciesID || a[i].CorrectIndex != b[i].CorrectIndex {
			t.Errorf("question %d differs between identical seeds", i)
		}
	}
}

type upperPhrases struct{}

func (upperPhrases) Phrase(id string, _ map[string]any) string { return "<" + id + ">" }

func TestBuildUsesPhrasebook(t *testing.T) {
	g := NewGenerator(rand.New(rand.NewPCG(1, 1)), upperPhrases{})
	qs := g.Build(testPool(5), Options{Count: 1, Topic: TopicSpeciesSpec})
	if len(qs) != 1 {
		t.Fatalf("expected 1 question, got %d", len(qs))
	}
	if qs[0].Prompt != "<"+MsgGenusOf+">" {
		t.Errorf("expected phrasebook prompt, got %q", qs[0].Prompt)
	}
}
