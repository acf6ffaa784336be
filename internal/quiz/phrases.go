package quiz

import "fmt"

// Phrasebook renders prompt and label text by message ID.
// Prompts that mention a species receive it as data["Name"].
type Phrasebook interface {
	Phrase(id string, data map[string]any) string
}

// Message IDs used by the generator.
const (
	MsgScientificNameOf   = "QuizScientificNameOf"
	MsgPickScientificName = "QuizPickScientificName"
	MsgCommonNameOf       = "QuizCommonNameOf"
	MsgHabitatOf          = "QuizHabitatOf"
	MsgHabitatGeneric     = "QuizHabitatGeneric"
	MsgStatusOf           = "QuizStatusOf"
	MsgStatusGeneric      = "QuizStatusGeneric"
	MsgFamilyOf           = "QuizFamilyOf"
	MsgGenusOf            = "QuizGenusOf"
)

var englishPrompts = map[string]string{
	MsgScientificNameOf:   "What is the scientific name of %q?",
	MsgPickScientificName: "Choose the correct scientific name.",
	MsgCommonNameOf:       "What is the common name of %q?",
	MsgHabitatOf:          "Which habitat best fits %q?",
	MsgHabitatGeneric:     "Which habitat does this species live in?",
	MsgStatusOf:           "The IUCN status of %q is ...",
	MsgStatusGeneric:      "The IUCN status of this species is ...",
	MsgFamilyOf:           "%q belongs to the family ...",
	MsgGenusOf:            "%q belongs to the genus ...",
}

var englishLabels = map[string]string{
	string(HabitatForest):     "Forest",
	string(HabitatDesert):     "Desert",
	string(HabitatGrassland):  "Grassland",
	string(HabitatWetland):    "Wetland",
	string(HabitatFreshwater): "Freshwater",
	string(HabitatMarine):     "Marine",
	string(HabitatTundra):     "Tundra",
	string(HabitatMountain):   "Mountain",
	string(HabitatSavanna):    "Savanna",
	string(HabitatCoastal):    "Coastal",
}

// English is the built-in phrasebook used when none is supplied.
type English struct{}

// Phrase implements Phrasebook.
func (English) Phrase(id string, data map[string]any) string {
	if tmpl, ok := englishPrompts[id]; ok {
		if name, ok := data["Name"]; ok {
			return fmt.Sprintf(tmpl, name)
		}
		return tmpl
	}
	if label, ok := englishLabels[id]; ok {
		return label
	}
	if len(id) == len("IUCN")+2 {
		if label, ok := IUCNLabel(id[len("IUCN"):]); ok {
			return label
		}
	}
	return id
}
