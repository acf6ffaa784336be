package model

import "time"

// Species is a row of the species catalog.
type Species struct {
	ID                 string    `json:"id"`
	Slug               string    `json:"slug"`
	ScientificName     string    `json:"scientific_name"`
	CommonName         string    `json:"common_name"`
	Kingdom            string    `json:"kingdom"`
	Phylum             string    `json:"phylum"`
	Class              string    `json:"class"`
	Order              string    `json:"order"`
	Family             string    `json:"family"`
	Genus              string    `json:"genus"`
	Description        string    `json:"description"`
	HabitatDescription string    `json:"habitat_description"`
	IUCNStatus         string    `json:"iucn_status"`
	ImageURLs          []string  `json:"image_urls"`
	Featured           bool      `json:"featured"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Taxonomy is the full classification row for one species.
type Taxonomy struct {
	SpeciesID string `json:"species_id"`
	Kingdom   string `json:"kingdom"`
	Phylum    string `json:"phylum"`
	Class     string `json:"class"`
	Order     string `json:"order"`
	Family    string `json:"family"`
	Genus     string `json:"genus"`
	Species   string `json:"species"`
}

// Conservation holds the assessment details for one species.
type Conservation struct {
	SpeciesID           string     `json:"species_id"`
	IUCNStatus          string     `json:"iucn_status"`
	PopulationTrend     string     `json:"population_trend"`
	Threats             string     `json:"threats"`
	ConservationActions string     `json:"conservation_actions"`
	LastAssessed        *time.Time `json:"last_assessed,omitempty"`
}

// SpeciesImage is one gallery image of a species.
type SpeciesImage struct {
	ID        string `json:"id"`
	SpeciesID string `json:"species_id"`
	URL       string `json:"url"`
	Caption   string `json:"caption"`
	Credit    string `json:"credit"`
	SortOrder int    `json:"sort_order"`
}

// SpeciesDetails is a species merged with its related rows.
type SpeciesDetails struct {
	Species
	Taxonomy     *Taxonomy      `json:"taxonomy"`
	Conservation *Conservation  `json:"conservation"`
	Images       []SpeciesImage `json:"images"`
}

// SpeciesFilter narrows a catalog listing.
type SpeciesFilter struct {
	Limit      int
	Offset     int
	Featured   bool
	Kingdom    string
	IUCNStatus string
	Search     string
}

// SpeciesImport is used for loading species from JSON seed files.
type SpeciesImport struct {
	Species
	Taxonomy     *Taxonomy      `json:"taxonomy,omitempty"`
	Conservation *Conservation  `json:"conservation,omitempty"`
	Images       []SpeciesImage `json:"images,omitempty"`
}

// SpeciesUpdate is a partial species change; nil fields are left untouched.
type SpeciesUpdate struct {
	Slug               *string   `json:"slug,omitempty"`
	ScientificName     *string   `json:"scientific_name,omitempty"`
	CommonName         *string   `json:"common_name,omitempty"`
	Kingdom            *string   `json:"kingdom,omitempty"`
	Phylum             *string   `json:"phylum,omitempty"`
	Class              *string   `json:"class,omitempty"`
	Order              *string   `json:"order,omitempty"`
	Family             *string   `json:"family,omitempty"`
	Genus              *string   `json:"genus,omitempty"`
	Description        *string   `json:"description,omitempty"`
	HabitatDescription *string   `json:"habitat_description,omitempty"`
	IUCNStatus         *string   `json:"iucn_status,omitempty"`
	ImageURLs          *[]string `json:"image_urls,omitempty"`
	Featured           *bool     `json:"featured,omitempty"`
}

// Empty reports whether u changes nothing.
func (u SpeciesUpdate) Empty() bool {
	return u == SpeciesUpdate{}
}

// Apply copies the set fields of u onto s.
func (u SpeciesUpdate) Apply(s *Species) {
	set := func(dst, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.Slug, u.Slug)
	set(&s.ScientificName, u.ScientificName)
	set(&s.CommonName, u.CommonName)
	set(&s.Kingdom, u.Kingdom)
	set(&s.Phylum, u.Phylum)
	set(&s.Class, u.Class)
	set(&s.Order, u.Order)
	set(&s.Family, u.Family)
	set(&s.Genus, u.Genus)
	set(&s.Description, u.Description)
	set(&s.HabitatDescription, u.HabitatDescription)
	set(&s.IUCNStatus, u.IUCNStatus)
	if u.ImageURLs != nil {
		s.ImageURLs = append([]string(nil), (*u.ImageURLs)...)
	}
	if u.Featured != nil {
		s.Featured = *u.Featured
	}
}
