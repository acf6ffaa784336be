package quiz

import (
	"regexp"
	"strings"
)

// Topic selects which species field a quiz asks about.
type Topic string

const (
	TopicTaxonomy       Topic = "Taxonomy"
	TopicHabitats       Topic = "Habitats"
	TopicConservation   Topic = "Conservation"
	TopicClassification Topic = "Classification"
	TopicSpeciesSpec    Topic = "SpeciesSpec"
)

// Topics lists every quiz topic.
var Topics = []Topic{TopicTaxonomy, TopicHabitats, TopicConservation, TopicClassification, TopicSpeciesSpec}

// ParseTopic matches s against the known topics exactly.
func ParseTopic(s string) (Topic, bool) {
	for _, t := range Topics {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Habitat is one of the ten biome labels a habitat description can map to.
// The value doubles as the phrasebook message ID of its label.
type Habitat string

const (
	HabitatForest     Habitat = "HabitatForest"
	HabitatDesert     Habitat = "HabitatDesert"
	HabitatGrassland  Habitat = "HabitatGrassland"
	HabitatWetland    Habitat = "HabitatWetland"
	HabitatFreshwater Habitat = "HabitatFreshwater"
	HabitatMarine     Habitat = "HabitatMarine"
	HabitatTundra     Habitat = "HabitatTundra"
	HabitatMountain   Habitat = "HabitatMountain"
	HabitatSavanna    Habitat = "HabitatSavanna"
	HabitatCoastal    Habitat = "HabitatCoastal"
)

// habitatPatterns are tested in order; the first match wins.
var habitatPatterns = []struct {
	habitat Habitat
	re      *regexp.Regexp
}{
	{HabitatForest, regexp.MustCompile(`rain|tropical|temperate|forest|wood`)},
	{HabitatDesert, regexp.MustCompile(`desert|arid|dune|xeric`)},
	{HabitatGrassland, regexp.MustCompile(`grassland|prairie|steppe`)},
	{HabitatWetland, regexp.MustCompile(`wetland|swamp|bog|marsh`)},
	{HabitatFreshwater, regexp.MustCompile(`river|lake|freshwater|stream`)},
	{HabitatMarine, regexp.MustCompile(`ocean|marine|reef|sea|coral`)},
	{HabitatTundra, regexp.MustCompile(`tundra|permafrost`)},
	{HabitatMountain, regexp.MustCompile(`mountain|alpine`)},
	{HabitatSavanna, regexp.MustCompile(`savanna|savannah`)},
	{HabitatCoastal, regexp.MustCompile(`coast|coastal|shore`)},
}

// Habitats lists every habitat label in classification order.
func Habitats() []Habitat {
	out := make([]Habitat, len(habitatPatterns))
	for i, p := range habitatPatterns {
		out[i] = p.habitat
	}
	return out
}

// ClassifyHabitat maps a free-text habitat description to a biome label.
func ClassifyHabitat(desc string) (Habitat, bool) {
	if desc == "" {
		return "", false
	}
	d := strings.ToLower(desc)
	for _, p := range habitatPatterns {
		if p.re.MatchString(d) {
			return p.habitat, true
		}
	}
	return "", false
}

// IUCNCodes are the red-list categories a conservation question can use.
var IUCNCodes = []string{"CR", "EN", "VU", "NT", "LC", "EW", "EX"}

var iucnLabels = map[string]string{
	"CR": "Critically Endangered",
	"EN": "Endangered",
	"VU": "Vulnerable",
	"NT": "Near Threatened",
	"LC": "Least Concern",
	"EW": "Extinct in the Wild",
	"EX": "Extinct",
}

// IUCNCode normalizes code and reports whether it is one of IUCNCodes.
func IUCNCode(code string) (string, bool) {
	up := strings.ToUpper(strings.TrimSpace(code))
	_, ok := iucnLabels[up]
	return up, ok
}

// IUCNLabel returns the English label of a red-list code, case-insensitively.
func IUCNLabel(code string) (string, bool) {
	up, ok := IUCNCode(code)
	if !ok {
		return "", false
	}
	return iucnLabels[up], true
}

// statusMessageID is the phrasebook message ID of a red-list label.
func statusMessageID(code string) string {
	return "IUCN" + code
}
