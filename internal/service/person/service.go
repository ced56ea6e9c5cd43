package person

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
	"github.com/FordLabs/PeopleMover/internal/validation"
	"github.com/FordLabs/PeopleMover/internal/ws"
)

// Request carries the editable fields of a person.
type Request struct {
	Name      string            `json:"name" validate:"required,max=255"`
	SpaceRole *domain.SpaceRole `json:"spaceRole"`
	Notes     string            `json:"notes" validate:"max=255"`
	NewPerson bool              `json:"newPerson"`
	Tags      []domain.Tag      `json:"tags"`
}

// Service manages the people of a space.
type Service struct {
	people repository.PersonRepository
	roles  repository.RoleRepository
	hub    *ws.Hub
	logger *slog.Logger
}

// New constructs a Service.
func New(people repository.PersonRepository, roles repository.RoleRepository, hub *ws.Hub, logger *slog.Logger) Service {
	return Service{people: people, roles: roles, hub: hub, logger: logger}
}

// EventPeopleChanged is published on every person mutation.
const EventPeopleChanged = "people.changed"

// List returns everyone in the space.
func (s Service) List(ctx context.Context, spaceUUID string) ([]domain.Person, error) {
	people, err := s.people.ListPeople(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	if people == nil {
		people = []domain.Person{}
	}
	return people, nil
}

// Search returns people whose names fuzzily match query, closest first.
func (s Service) Search(ctx context.Context, spaceUUID, query string) ([]domain.Person, error) {
	people, err := s.List(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return people, nil
	}
	names := make([]string, len(people))
	for i, p := range people {
		names[i] = p.Name
	}
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)
	out := make([]domain.Person, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, people[rank.OriginalIndex])
	}
	return out, nil
}

// Count returns the number of people in the space.
func (s Service) Count(ctx context.Context, spaceUUID string) (int, error) {
	return s.people.CountPeople(ctx, spaceUUID)
}

// Create adds a person to the space.
func (s Service) Create(ctx context.Context, spaceUUID string, req Request) (*domain.Person, error) {
	person, err := s.build(ctx, spaceUUID, req)
	if err != nil {
		return nil, err
	}
	if err := s.people.CreatePerson(ctx, person); err != nil {
		return nil, err
	}
	s.logger.Info("person created", "space_uuid", spaceUUID, "person_id", person.ID)
	s.hub.Publish(spaceUUID, EventPeopleChanged, "person", person.ID)
	return s.people.GetPerson(ctx, spaceUUID, person.ID)
}

// Update rewrites an existing person.
func (s Service) Update(ctx context.Context, spaceUUID string, id int64, req Request) (*domain.Person, error) {
	if _, err := s.people.GetPerson(ctx, spaceUUID, id); err != nil {
		return nil, err
	}
	person, err := s.build(ctx, spaceUUID, req)
	if err != nil {
		return nil, err
	}
	person.ID = id
	if err := s.people.UpdatePerson(ctx, person); err != nil {
		return nil, err
	}
	s.logger.Info("person updated", "space_uuid", spaceUUID, "person_id", id)
	s.hub.Publish(spaceUUID, EventPeopleChanged, "person", id)
	return s.people.GetPerson(ctx, spaceUUID, id)
}

// Delete removes a person together with their assignments.
func (s Service) Delete(ctx context.Context, spaceUUID string, id int64) error {
	if err := s.people.DeletePerson(ctx, spaceUUID, id); err != nil {
		return err
	}
	s.logger.Info("person deleted", "space_uuid", spaceUUID, "person_id", id)
	s.hub.Publish(spaceUUID, EventPeopleChanged, "person", id)
	return nil
}

func (s Service) build(ctx context.Context, spaceUUID string, req Request) (*domain.Person, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	person := &domain.Person{
		Name:      req.Name,
		Notes:     req.Notes,
		NewPerson: req.NewPerson,
		Tags:      req.Tags,
		SpaceUUID: spaceUUID,
	}
	if req.SpaceRole != nil && req.SpaceRole.ID != 0 {
		role, err := s.roles.GetRole(ctx, spaceUUID, req.SpaceRole.ID)
		if err != nil {
			return nil, fmt.Errorf("role %d: %w", req.SpaceRole.ID, err)
		}
		person.SpaceRole = role
	}
	if person.Tags == nil {
		person.Tags = []domain.Tag{}
	}
	return person, nil
}
