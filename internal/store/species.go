package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/pavelanni/florafauna/internal/model"
	"github.com/pavelanni/florafauna/internal/quiz"
)

const (
	DefaultSpeciesLimit = 24
	MaxSpeciesLimit     = 100
	DefaultQuizPool     = 40
)

const speciesColumns = `id, slug, scientific_name, common_name, kingdom, phylum, class, order_name,
	family, genus, description, habitat_description, iucn_status, image_urls, featured, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpecies(row rowScanner) (model.Species, error) {
	var sp model.Species
	var urls string
	var created, updated int64
	err := row.Scan(&sp.ID, &sp.Slug, &sp.ScientificName, &sp.CommonName, &sp.Kingdom, &sp.Phylum,
		&sp.Class, &sp.Order, &sp.Family, &sp.Genus, &sp.Description, &sp.HabitatDescription,
		&sp.IUCNStatus, &urls, &sp.Featured, &created, &updated)
	if err != nil {
		return sp, err
	}
	if err := json.Unmarshal([]byte(urls), &sp.ImageURLs); err != nil {
		return sp, fmt.Errorf("decode image_urls of %s: %w", sp.ID, err)
	}
	if sp.ImageURLs == nil {
		sp.ImageURLs = []string{}
	}
	sp.CreatedAt = fromMillis(created)
	sp.UpdatedAt = fromMillis(updated)
	return sp, nil
}

func encodeURLs(urls []string) (string, error) {
	if urls == nil {
		urls = []string{}
	}
	b, err := json.Marshal(urls)
	return string(b), err
}

// ClampLimit bounds a requested page size to [1, MaxSpeciesLimit].
// Zero or negative means the default.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSpeciesLimit
	case limit > MaxSpeciesLimit:
		return MaxSpeciesLimit
	}
	return limit
}

// ListSpecies returns one page of species matching f, featured first, and the
// total number of matching rows.
func (s *Store) ListSpecies(ctx context.Context, f model.SpeciesFilter) ([]model.Species, int, error) {
	where := []string{"1=1"}
	var args []any
	if f.Featured {
		where = append(where, "featured = ?")
		args = append(args, true)
	}
	if f.Kingdom != "" {
		where = append(where, "LOWER(kingdom) = LOWER(?)")
		args = append(args, f.Kingdom)
	}
	if f.IUCNStatus != "" {
		where = append(where, "iucn_status = ?")
		args = append(args, strings.ToUpper(f.IUCNStatus))
	}
	if f.Search != "" {
		where = append(where, "(LOWER(scientific_name) LIKE ? OR LOWER(common_name) LIKE ?)")
		pattern := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pattern, pattern)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM species WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, classify("count species", err)
	}

	limit := ClampLimit(f.Limit)
	offset := max(f.Offset, 0)
	rows, err := s.query(ctx,
		`SELECT `+speciesColumns+` FROM species WHERE `+cond+
			` ORDER BY featured DESC, scientific_name ASC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, classify("list species", err)
	}
	defer rows.Close()

	list := []model.Species{}
	for rows.Next() {
		sp, err := scanSpecies(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, sp)
	}
	return list, total, rows.Err()
}

// GetSpecies looks a species up by its id or slug column.
func (s *Store) GetSpecies(ctx context.Context, column, value string) (model.Species, error) {
	if column != "id" && column != "slug" {
		return model.Species{}, fmt.Errorf("get species: unsupported column %q", column)
	}
	sp, err := scanSpecies(s.queryRow(ctx,
		`SELECT `+speciesColumns+` FROM species WHERE `+column+` = ?`, value))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Species{}, ErrNotFound
	}
	if err != nil {
		return model.Species{}, classify("get species", err)
	}
	return sp, nil
}

// CreateSpecies inserts sp with a fresh id and returns the stored row.
func (s *Store) CreateSpecies(ctx context.Context, sp model.Species) (model.Species, error) {
	sp.ID = uuid.NewString()
	now := s.stamp()
	urls, err := encodeURLs(sp.ImageURLs)
	if err != nil {
		return model.Species{}, err
	}
	_, err = s.exec(ctx,
		`INSERT INTO species (`+speciesColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.Slug, sp.ScientificName, sp.CommonName, sp.Kingdom, sp.Phylum, sp.Class, sp.Order,
		sp.Family, sp.Genus, sp.Description, sp.HabitatDescription, sp.IUCNStatus, urls, sp.Featured, now, now,
	)
	if err != nil {
		return model.Species{}, classify("insert species", err)
	}
	sp.CreatedAt = fromMillis(now)
	sp.UpdatedAt = sp.CreatedAt
	if sp.ImageURLs == nil {
		sp.ImageURLs = []string{}
	}
	return sp, nil
}

// UpdateSpecies applies u to the species addressed by column and value and
// stamps updated_at.
func (s *Store) UpdateSpecies(ctx context.Context, column, value string, u model.SpeciesUpdate) (model.Species, error) {
	sp, err := s.GetSpecies(ctx, column, value)
	if err != nil {
		return model.Species{}, err
	}
	u.Apply(&sp)
	urls, err := encodeURLs(sp.ImageURLs)
	if err != nil {
		return model.Species{}, err
	}
	now := s.stamp()
	res, err := s.exec(ctx,
		`UPDATE species SET slug = ?, scientific_name = ?, common_name = ?, kingdom = ?, phylum = ?,
		 class = ?, order_name = ?, family = ?, genus = ?, description = ?, habitat_description = ?,
		 iucn_status = ?, image_urls = ?, featured = ?, updated_at = ? WHERE id = ?`,
		sp.Slug, sp.ScientificName, sp.CommonName, sp.Kingdom, sp.Phylum, sp.Class, sp.Order,
		sp.Family, sp.Genus, sp.Description, sp.HabitatDescription, sp.IUCNStatus, urls, sp.Featured, now, sp.ID,
	)
	if err != nil {
		return model.Species{}, classify("update species", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Species{}, ErrNotFound
	}
	sp.UpdatedAt = fromMillis(now)
	return sp, nil
}

// SpeciesDetails loads sp's taxonomy, conservation and image rows in parallel
// and merges them. Missing rows or tables leave the corresponding field empty.
func (s *Store) SpeciesDetails(ctx context.Context, sp model.Species) (model.SpeciesDetails, error) {
	details := model.SpeciesDetails{Species: sp, Images: []model.SpeciesImage{}}

	var (
		wg                      sync.WaitGroup
		taxErr, consErr, imgErr error
		taxonomy                *model.Taxonomy
		conservation            *model.Conservation
		images                  []model.SpeciesImage
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		taxonomy, taxErr = s.taxonomy(ctx, sp.ID)
	}()
	go func() {
		defer wg.Done()
		conservation, consErr = s.conservation(ctx, sp.ID)
	}()
	go func() {
		defer wg.Done()
		images, imgErr = s.images(ctx, sp.ID)
	}()
	wg.Wait()

	for _, err := range []error{taxErr, consErr, imgErr} {
		if err != nil && !IsMissingTable(err) {
			return details, err
		}
	}
	details.Taxonomy = taxonomy
	details.Conservation = conservation
	if images != nil {
		details.Images = images
	}
	return details, nil
}

func (s *Store) taxonomy(ctx context.Context, speciesID string) (*model.Taxonomy, error) {
	var t model.Taxonomy
	err := s.queryRow(ctx,
		`SELECT species_id, kingdom, phylum, class, order_name, family, genus, species_name
		 FROM taxonomy_hierarchy WHERE species_id = ?`, speciesID,
	).Scan(&t.SpeciesID, &t.Kingdom, &t.Phylum, &t.Class, &t.Order, &t.Family, &t.Genus, &t.Species)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get taxonomy", err)
	}
	return &t, nil
}

func (s *Store) conservation(ctx context.Context, speciesID string) (*model.Conservation, error) {
	var c model.Conservation
	var assessed sql.NullInt64
	err := s.queryRow(ctx,
		`SELECT species_id, iucn_status, population_trend, threats, conservation_actions, last_assessed
		 FROM conservation_data WHERE species_id = ?`, speciesID,
	).Scan(&c.SpeciesID, &c.IUCNStatus, &c.PopulationTrend, &c.Threats, &c.ConservationActions, &assessed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get conservation", err)
	}
	if assessed.Valid {
		t := fromMillis(assessed.Int64)
		c.LastAssessed = &t
	}
	return &c, nil
}

func (s *Store) images(ctx context.Context, speciesID string) ([]model.SpeciesImage, error) {
	rows, err := s.query(ctx,
		`SELECT id, species_id, url, caption, credit, sort_order
		 FROM species_images WHERE species_id = ? ORDER BY sort_order, id`, speciesID)
	if err != nil {
		return nil, classify("list images", err)
	}
	defer rows.Close()
	images := []model.SpeciesImage{}
	for rows.Next() {
		var img model.SpeciesImage
		if err := rows.Scan(&img.ID, &img.SpeciesID, &img.URL, &img.Caption, &img.Credit, &img.SortOrder); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// quizPoolColumn is the field a topic's questions depend on.
func quizPoolColumn(topic quiz.Topic) string {
	switch topic {
	case quiz.TopicHabitats:
		return "habitat_description"
	case quiz.TopicConservation:
		return "iucn_status"
	case quiz.TopicClassification:
		return "family"
	}
	return "genus"
}

// QuizPool loads a random sample of up to limit species that carry the field
// topic asks about. The sample is returned sorted by scientific name.
func (s *Store) QuizPool(ctx context.Context, topic quiz.Topic, limit int) ([]model.Species, error) {
	if limit <= 0 {
		limit = DefaultQuizPool
	}
	col := quizPoolColumn(topic)
	rows, err := s.query(ctx,
		`SELECT `+speciesColumns+` FROM (
		   SELECT `+speciesColumns+` FROM species WHERE `+col+` <> '' ORDER BY RANDOM() LIMIT ?
		 ) AS pool ORDER BY scientific_name`, limit)
	if err != nil {
		return nil, classify("quiz pool", err)
	}
	defer rows.Close()
	var list []model.Species
	for rows.Next() {
		sp, err := scanSpecies(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, sp)
	}
	return list, rows.Err()
}

// ImportSpecies inserts seed records with their related rows in one
// transaction. Records whose slug already exists are skipped. It returns the
// number of species inserted.
func (s *Store) ImportSpecies(ctx context.Context, records []model.SpeciesImport) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	now := s.stamp()
	inserted := 0
	for _, rec := range records {
		sp := rec.Species
		sp.ID = uuid.NewString()
		urls, err := encodeURLs(sp.ImageURLs)
		if err != nil {
			return 0, err
		}
		res, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO species (`+speciesColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (slug) DO NOTHING`),
			sp.ID, sp.Slug, sp.ScientificName, sp.CommonName, sp.Kingdom, sp.Phylum, sp.Class, sp.Order,
			sp.Family, sp.Genus, sp.Description, sp.HabitatDescription, sp.IUCNStatus, urls, sp.Featured, now, now,
		)
		if err != nil {
			return 0, classify("import species "+sp.Slug, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		inserted++

		if t := rec.Taxonomy; t != nil {
			if _, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO taxonomy_hierarchy (species_id, kingdom, phylum, class, order_name, family, genus, species_name)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
				sp.ID, t.Kingdom, t.Phylum, t.Class, t.Order, t.Family, t.Genus, t.Species,
			); err != nil {
				return 0, classify("import taxonomy "+sp.Slug, err)
			}
		}
		if c := rec.Conservation; c != nil {
			var assessed sql.NullInt64
			if c.LastAssessed != nil {
				assessed = sql.NullInt64{Int64: c.LastAssessed.UTC().UnixMilli(), Valid: true}
			}
			if _, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO conservation_data (species_id, iucn_status, population_trend, threats, conservation_actions, last_assessed)
				 VALUES (?, ?, ?, ?, ?, ?)`),
				sp.ID, strings.ToUpper(c.IUCNStatus), c.PopulationTrend, c.Threats, c.ConservationActions, assessed,
			); err != nil {
				return 0, classify("import conservation "+sp.Slug, err)
			}
		}
		for i, img := range rec.Images {
			order := img.SortOrder
			if order == 0 {
				order = i
			}
			if _, err := tx.ExecContext(ctx, s.rebind(
				`INSERT INTO species_images (id, species_id, url, caption, credit, sort_order)
				 VALUES (?, ?, ?, ?, ?, ?)`),
				uuid.NewString(), sp.ID, img.URL, img.Caption, img.Credit, order,
			); err != nil {
				return 0, classify("import image "+sp.Slug, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return inserted, nil
}
