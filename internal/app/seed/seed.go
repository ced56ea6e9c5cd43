// Package seed loads fixture spaces from YAML for local development and demos.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
	"github.com/FordLabs/PeopleMover/internal/service/assignment"
)

//go:embed local.yaml
var localFixture []byte

const fixtureVersion = 1

// Fixture is the root of a seed file.
type Fixture struct {
	Version int            `yaml:"version"`
	Spaces  []SpaceFixture `yaml:"spaces"`
}

// SpaceFixture describes one space and its contents.
type SpaceFixture struct {
	UUID              string           `yaml:"uuid"`
	Name              string           `yaml:"name"`
	Owner             string           `yaml:"owner"`
	Editors           []string         `yaml:"editors"`
	TodayViewIsPublic bool             `yaml:"todayViewIsPublic"`
	Roles             []RoleFixture    `yaml:"roles"`
	ProductTags       []string         `yaml:"productTags"`
	LocationTags      []string         `yaml:"locationTags"`
	PersonTags        []string         `yaml:"personTags"`
	Products          []ProductFixture `yaml:"products"`
	People            []PersonFixture  `yaml:"people"`
}

// RoleFixture names a role and, optionally, a palette color by hex value.
type RoleFixture struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// ProductFixture describes a product.
type ProductFixture struct {
	Name      string   `yaml:"name"`
	StartDate string   `yaml:"startDate"`
	EndDate   string   `yaml:"endDate"`
	Location  string   `yaml:"location"`
	Tags      []string `yaml:"tags"`
	Notes     string   `yaml:"notes"`
	URL       string   `yaml:"url"`
	Archived  bool     `yaml:"archived"`
}

// PersonFixture describes a person and their dated assignments.
type PersonFixture struct {
	Name        string              `yaml:"name"`
	Role        string              `yaml:"role"`
	NewPerson   bool                `yaml:"newPerson"`
	Notes       string              `yaml:"notes"`
	Tags        []string            `yaml:"tags"`
	Assignments []AssignmentFixture `yaml:"assignments"`
}

// AssignmentFixture places a person on products from Date on. Date accepts
// YYYY-MM-DD or "today"; no products means unassigned.
type AssignmentFixture struct {
	Date        string   `yaml:"date"`
	Products    []string `yaml:"products"`
	Placeholder bool     `yaml:"placeholder"`
}

// Store is the persistence a Seeder writes through.
type Store interface {
	repository.SpaceRepository
	repository.UserSpaceRepository
	repository.RoleRepository
	repository.ColorRepository
	repository.TagRepository
	repository.ProductRepository
	repository.PersonRepository
}

// Seeder writes fixtures into a Store.
type Seeder struct {
	store       Store
	assignments assignment.Service
	log         *slog.Logger
	now         func() time.Time
}

// New constructs a Seeder.
func New(store Store, assignments assignment.Service, log *slog.Logger) *Seeder {
	return &Seeder{store: store, assignments: assignments, log: log, now: time.Now}
}

// Default returns the built-in "Flipping Sweet" fixture.
func Default() (Fixture, error) {
	return Parse(bytes.NewReader(localFixture))
}

// LoadFile reads a fixture from path.
func LoadFile(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and checks a fixture.
func Parse(r io.Reader) (Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		return Fixture{}, fmt.Errorf("seed: decode: %w", err)
	}
	if fx.Version != fixtureVersion {
		return Fixture{}, fmt.Errorf("seed: unsupported version %d", fx.Version)
	}
	for i, sp := range fx.Spaces {
		if sp.UUID == "" || strings.TrimSpace(sp.Name) == "" || strings.TrimSpace(sp.Owner) == "" {
			return Fixture{}, fmt.Errorf("seed: space %d needs uuid, name and owner", i)
		}
	}
	return fx, nil
}

// Apply writes every space in fx. Existing spaces are skipped unless reset
// is set, in which case they are dropped and recreated.
func (s *Seeder) Apply(ctx context.Context, fx Fixture, reset bool) error {
	for _, sp := range fx.Spaces {
		existing, err := s.store.GetSpaceByUUID(ctx, sp.UUID)
		switch {
		case err == nil && !reset:
			s.log.Info("space already seeded", "space_uuid", sp.UUID, "space", existing.Name)
			continue
		case err == nil:
			if err := s.store.DeleteSpace(ctx, sp.UUID); err != nil {
				return fmt.Errorf("seed: reset %s: %w", sp.UUID, err)
			}
		case !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("seed: lookup %s: %w", sp.UUID, err)
		}
		if err := s.space(ctx, sp); err != nil {
			return fmt.Errorf("seed: space %q: %w", sp.Name, err)
		}
	}
	return nil
}

func (s *Seeder) space(ctx context.Context, sp SpaceFixture) error {
	owner := domain.NormalizeUserID(sp.Owner)
	space := &domain.Space{UUID: sp.UUID, Name: sp.Name, CreatedBy: owner, TodayViewIsPublic: sp.TodayViewIsPublic}
	if err := s.store.CreateSpace(ctx, space, owner); err != nil {
		return err
	}
	for _, editor := range sp.Editors {
		mapping := &domain.UserSpaceMapping{UserID: domain.NormalizeUserID(editor), SpaceUUID: sp.UUID, Permission: domain.PermissionEditor}
		if err := s.store.UpsertMapping(ctx, mapping); err != nil {
			return fmt.Errorf("editor %s: %w", editor, err)
		}
	}

	roles, err := s.roles(ctx, sp)
	if err != nil {
		return err
	}
	productTags, err := s.tags(ctx, domain.TagKindProduct, sp.UUID, sp.ProductTags)
	if err != nil {
		return err
	}
	locations, err := s.tags(ctx, domain.TagKindLocation, sp.UUID, sp.LocationTags)
	if err != nil {
		return err
	}
	personTags, err := s.tags(ctx, domain.TagKindPerson, sp.UUID, sp.PersonTags)
	if err != nil {
		return err
	}

	products := make(map[string]int64, len(sp.Products)+1)
	unassigned, err := s.store.GetProductByName(ctx, sp.UUID, domain.UnassignedProductName)
	if err != nil {
		return err
	}
	products[strings.ToLower(unassigned.Name)] = unassigned.ID
	for _, pf := range sp.Products {
		product, err := s.product(sp.UUID, pf, locations, productTags)
		if err != nil {
			return err
		}
		if err := s.store.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("product %q: %w", pf.Name, err)
		}
		products[strings.ToLower(product.Name)] = product.ID
	}

	for _, pf := range sp.People {
		person := &domain.Person{
			Name:      pf.Name,
			Notes:     pf.Notes,
			NewPerson: pf.NewPerson,
			SpaceUUID: sp.UUID,
		}
		if pf.Role != "" {
			role, ok := roles[strings.ToLower(pf.Role)]
			if !ok {
				return fmt.Errorf("person %q: unknown role %q", pf.Name, pf.Role)
			}
			person.SpaceRole = &role
		}
		if person.Tags, err = pick(personTags, pf.Tags, "person tag"); err != nil {
			return fmt.Errorf("person %q: %w", pf.Name, err)
		}
		if err := s.store.CreatePerson(ctx, person); err != nil {
			return fmt.Errorf("person %q: %w", pf.Name, err)
		}
		for _, af := range pf.Assignments {
			req, err := s.assignmentRequest(af, products)
			if err != nil {
				return fmt.Errorf("person %q: %w", pf.Name, err)
			}
			if _, err := s.assignments.CreateForDate(ctx, sp.UUID, person.ID, req); err != nil {
				return fmt.Errorf("person %q assignment %s: %w", pf.Name, af.Date, err)
			}
		}
	}
	s.log.Info("space seeded", "space_uuid", sp.UUID, "people", len(sp.People), "products", len(sp.Products))
	return nil
}

func (s *Seeder) roles(ctx context.Context, sp SpaceFixture) (map[string]domain.SpaceRole, error) {
	palette, err := s.store.ListColors(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.SpaceRole, len(sp.Roles))
	for _, rf := range sp.Roles {
		role := &domain.SpaceRole{Name: rf.Name, SpaceUUID: sp.UUID}
		for i := range palette {
			if rf.Color != "" && strings.EqualFold(palette[i].Color, rf.Color) {
				role.Color = &palette[i]
				break
			}
		}
		if rf.Color != "" && role.Color == nil {
			s.log.Warn("role color not in palette", "role", rf.Name, "color", rf.Color)
		}
		if err := s.store.CreateRole(ctx, role); err != nil {
			return nil, fmt.Errorf("role %q: %w", rf.Name, err)
		}
		out[strings.ToLower(role.Name)] = *role
	}
	return out, nil
}

func (s *Seeder) tags(ctx context.Context, kind domain.TagKind, spaceUUID string, names []string) (map[string]domain.Tag, error) {
	out := make(map[string]domain.Tag, len(names))
	for _, name := range names {
		tag := &domain.Tag{Name: name, SpaceUUID: spaceUUID}
		if err := s.store.CreateTag(ctx, kind, tag); err != nil {
			return nil, fmt.Errorf("%s tag %q: %w", kind, name, err)
		}
		out[strings.ToLower(name)] = *tag
	}
	return out, nil
}

func (s *Seeder) product(spaceUUID string, pf ProductFixture, locations, tags map[string]domain.Tag) (*domain.Product, error) {
	product := &domain.Product{
		Name:      pf.Name,
		SpaceUUID: spaceUUID,
		Archived:  pf.Archived,
		Notes:     pf.Notes,
		URL:       pf.URL,
	}
	var err error
	if product.StartDate, err = s.optionalDate(pf.StartDate); err != nil {
		return nil, fmt.Errorf("product %q start: %w", pf.Name, err)
	}
	if product.EndDate, err = s.optionalDate(pf.EndDate); err != nil {
		return nil, fmt.Errorf("product %q end: %w", pf.Name, err)
	}
	if pf.Location != "" {
		location, ok := locations[strings.ToLower(pf.Location)]
		if !ok {
			return nil, fmt.Errorf("product %q: unknown location %q", pf.Name, pf.Location)
		}
		product.Location = &location
	}
	if product.Tags, err = pick(tags, pf.Tags, "product tag"); err != nil {
		return nil, fmt.Errorf("product %q: %w", pf.Name, err)
	}
	return product, nil
}

func (s *Seeder) assignmentRequest(af AssignmentFixture, products map[string]int64) (domain.CreateAssignmentsRequest, error) {
	date, err := s.date(af.Date)
	if err != nil {
		return domain.CreateAssignmentsRequest{}, err
	}
	req := domain.CreateAssignmentsRequest{RequestedDate: date, Products: []domain.ProductPlaceholderPair{}}
	for _, name := range af.Products {
		id, ok := products[strings.ToLower(name)]
		if !ok {
			return domain.CreateAssignmentsRequest{}, fmt.Errorf("unknown product %q", name)
		}
		req.Products = append(req.Products, domain.ProductPlaceholderPair{ProductID: id, Placeholder: af.Placeholder})
	}
	return req, nil
}

func (s *Seeder) date(raw string) (domain.Date, error) {
	if strings.EqualFold(strings.TrimSpace(raw), "today") {
		return domain.DateOf(s.now()), nil
	}
	return domain.ParseDate(raw)
}

func (s *Seeder) optionalDate(raw string) (*domain.Date, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := s.date(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func pick(known map[string]domain.Tag, names []string, what string) ([]domain.Tag, error) {
	out := make([]domain.Tag, 0, len(names))
	for _, name := range names {
		tag, ok := known[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown %s %q", what, name)
		}
		out = append(out, tag)
	}
	return out, nil
}
