// Package memory keeps every repository in process memory. It backs unit
// tests and local tooling that should not need PostgreSQL.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
)

// Store implements the repository interfaces on maps.
type Store struct {
	mu          sync.Mutex
	nextID      int64
	spaces      map[string]*domain.Space
	mappings    []domain.UserSpaceMapping
	people      map[int64]*domain.Person
	products    map[int64]*domain.Product
	roles       map[int64]*domain.SpaceRole
	colors      []domain.Color
	tags        map[domain.TagKind]map[int64]*domain.Tag
	assignments map[int64]*domain.Assignment
	now         func() time.Time
}

var (
	_ repository.SpaceRepository      = (*Store)(nil)
	_ repository.UserSpaceRepository  = (*Store)(nil)
	_ repository.PersonRepository     = (*Store)(nil)
	_ repository.ProductRepository    = (*Store)(nil)
	_ repository.RoleRepository       = (*Store)(nil)
	_ repository.ColorRepository      = (*Store)(nil)
	_ repository.TagRepository        = (*Store)(nil)
	_ repository.AssignmentRepository = (*Store)(nil)
)

// New returns an empty store seeded with the given palette.
func New(colors ...string) *Store {
	s := &Store{
		spaces:      make(map[string]*domain.Space),
		people:      make(map[int64]*domain.Person),
		products:    make(map[int64]*domain.Product),
		roles:       make(map[int64]*domain.SpaceRole),
		tags:        make(map[domain.TagKind]map[int64]*domain.Tag),
		assignments: make(map[int64]*domain.Assignment),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, c := range colors {
		s.nextID++
		s.colors = append(s.colors, domain.Color{ID: s.nextID, Color: c})
	}
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) touch(spaceUUID string) error {
	space, ok := s.spaces[spaceUUID]
	if !ok {
		return repository.ErrNotFound
	}
	space.LastModifiedDate = s.now()
	return nil
}

// CreateSpace stores a space with its owner and unassigned product.
func (s *Store) CreateSpace(_ context.Context, space *domain.Space, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.spaces[space.UUID]; exists || s.spaceNameTaken(space.Name, "") {
		return repository.ErrConflict
	}
	space.ID = s.id()
	space.CreatedAt = s.now()
	space.LastModifiedDate = space.CreatedAt
	stored := *space
	s.spaces[space.UUID] = &stored
	s.mappings = append(s.mappings, domain.UserSpaceMapping{ID: s.id(), UserID: ownerID, SpaceUUID: space.UUID, Permission: domain.PermissionOwner})
	unassigned := &domain.Product{ID: s.id(), Name: domain.UnassignedProductName, SpaceUUID: space.UUID, Tags: []domain.Tag{}}
	s.products[unassigned.ID] = unassigned
	return nil
}

// GetSpaceByUUID fetches a space.
func (s *Store) GetSpaceByUUID(_ context.Context, uuid string) (*domain.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	space, ok := s.spaces[uuid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *space
	return &out, nil
}

// GetSpaceByName fetches a space by case-insensitive name.
func (s *Store) GetSpaceByName(_ context.Context, name string) (*domain.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, space := range s.sortedSpaces() {
		if strings.EqualFold(space.Name, name) {
			return &space, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) sortedSpaces() []domain.Space {
	out := make([]domain.Space, 0, len(s.spaces))
	for _, space := range s.spaces {
		out = append(out, *space)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListSpaces returns all spaces.
func (s *Store) ListSpaces(context.Context) ([]domain.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedSpaces(), nil
}

// ListSpacesByUser returns the spaces mapped to the user.
func (s *Store) ListSpacesByUser(_ context.Context, userID string) ([]domain.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	member := make(map[string]bool)
	for _, m := range s.mappings {
		if m.UserID == userID {
			member[m.SpaceUUID] = true
		}
	}
	var out []domain.Space
	for _, space := range s.sortedSpaces() {
		if member[space.UUID] {
			out = append(out, space)
		}
	}
	return out, nil
}

// UpdateSpace updates name and visibility.
func (s *Store) UpdateSpace(_ context.Context, space *domain.Space) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.spaces[space.UUID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.spaceNameTaken(space.Name, space.UUID) {
		return repository.ErrConflict
	}
	stored.Name = space.Name
	stored.TodayViewIsPublic = space.TodayViewIsPublic
	stored.LastModifiedDate = s.now()
	*space = *stored
	return nil
}

// DeleteSpace removes a space and everything scoped to it.
func (s *Store) DeleteSpace(_ context.Context, uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[uuid]; !ok {
		return repository.ErrNotFound
	}
	delete(s.spaces, uuid)
	kept := s.mappings[:0]
	for _, m := range s.mappings {
		if m.SpaceUUID != uuid {
			kept = append(kept, m)
		}
	}
	s.mappings = kept
	for id, p := range s.people {
		if p.SpaceUUID == uuid {
			delete(s.people, id)
		}
	}
	for id, p := range s.products {
		if p.SpaceUUID == uuid {
			delete(s.products, id)
		}
	}
	for id, r := range s.roles {
		if r.SpaceUUID == uuid {
			delete(s.roles, id)
		}
	}
	for _, byID := range s.tags {
		for id, t := range byID {
			if t.SpaceUUID == uuid {
				delete(byID, id)
			}
		}
	}
	for id, a := range s.assignments {
		if a.SpaceUUID == uuid {
			delete(s.assignments, id)
		}
	}
	return nil
}

// GetMapping returns a user's mapping on a space.
func (s *Store) GetMapping(_ context.Context, userID, spaceUUID string) (*domain.UserSpaceMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.mappings {
		if m.UserID == userID && m.SpaceUUID == spaceUUID {
			out := m
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ListMappingsBySpace returns the members of a space.
func (s *Store) ListMappingsBySpace(_ context.Context, spaceUUID string) ([]domain.UserSpaceMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.UserSpaceMapping
	for _, m := range s.mappings {
		if m.SpaceUUID == spaceUUID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListMappings returns every mapping.
func (s *Store) ListMappings(context.Context) ([]domain.UserSpaceMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.UserSpaceMapping(nil), s.mappings...), nil
}

// UpsertMapping grants or updates access.
func (s *Store) UpsertMapping(_ context.Context, mapping *domain.UserSpaceMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[mapping.SpaceUUID]; !ok {
		return repository.ErrNotFound
	}
	for i, m := range s.mappings {
		if m.UserID == mapping.UserID && m.SpaceUUID == mapping.SpaceUUID {
			s.mappings[i].Permission = mapping.Permission
			mapping.ID = m.ID
			return s.touch(mapping.SpaceUUID)
		}
	}
	mapping.ID = s.id()
	s.mappings = append(s.mappings, *mapping)
	return s.touch(mapping.SpaceUUID)
}

// DeleteMapping revokes access.
func (s *Store) DeleteMapping(_ context.Context, userID, spaceUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.mappings {
		if m.UserID == userID && m.SpaceUUID == spaceUUID {
			s.mappings = append(s.mappings[:i], s.mappings[i+1:]...)
			return s.touch(spaceUUID)
		}
	}
	return repository.ErrNotFound
}

func (s *Store) spaceNameTaken(name, skipUUID string) bool {
	for uuid, space := range s.spaces {
		if uuid != skipUUID && strings.EqualFold(space.Name, name) {
			return true
		}
	}
	return false
}

func nameTaken[T any](items map[int64]*T, spaceUUID, name string, skipID int64, get func(*T) (int64, string, string)) bool {
	for _, item := range items {
		id, itemSpace, itemName := get(item)
		if id != skipID && itemSpace == spaceUUID && strings.EqualFold(itemName, name) {
			return true
		}
	}
	return false
}

func sortedByID[T any](items map[int64]*T, keep func(*T) bool, id func(*T) int64) []T {
	var out []T
	for _, item := range items {
		if keep(item) {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return id(&out[i]) < id(&out[j]) })
	return out
}

func (s *Store) resolveRole(role *domain.SpaceRole) *domain.SpaceRole {
	if role == nil || role.ID == 0 {
		return nil
	}
	stored, ok := s.roles[role.ID]
	if !ok {
		return nil
	}
	out := *stored
	return &out
}

func (s *Store) personView(p *domain.Person) domain.Person {
	out := *p
	out.SpaceRole = s.resolveRole(p.SpaceRole)
	if out.Tags == nil {
		out.Tags = []domain.Tag{}
	}
	return out
}

// ListPeople returns the people of a space.
func (s *Store) ListPeople(_ context.Context, spaceUUID string) ([]domain.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	people := sortedByID(s.people, func(p *domain.Person) bool { return p.SpaceUUID == spaceUUID }, func(p *domain.Person) int64 { return p.ID })
	for i := range people {
		people[i] = s.personView(&people[i])
	}
	return people, nil
}

// GetPerson fetches one person.
func (s *Store) GetPerson(_ context.Context, spaceUUID string, id int64) (*domain.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[id]
	if !ok || p.SpaceUUID != spaceUUID {
		return nil, repository.ErrNotFound
	}
	out := s.personView(p)
	return &out, nil
}

// CountPeople counts the people of a space.
func (s *Store) CountPeople(_ context.Context, spaceUUID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, p := range s.people {
		if p.SpaceUUID == spaceUUID {
			count++
		}
	}
	return count, nil
}

// CreatePerson stores a person.
func (s *Store) CreatePerson(_ context.Context, person *domain.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[person.SpaceUUID]; !ok {
		return repository.ErrNotFound
	}
	person.ID = s.id()
	stored := *person
	s.people[person.ID] = &stored
	return s.touch(person.SpaceUUID)
}

// UpdatePerson rewrites a person.
func (s *Store) UpdatePerson(_ context.Context, person *domain.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.people[person.ID]
	if !ok || existing.SpaceUUID != person.SpaceUUID {
		return repository.ErrNotFound
	}
	stored := *person
	s.people[person.ID] = &stored
	return s.touch(person.SpaceUUID)
}

// DeletePerson removes a person and their assignments.
func (s *Store) DeletePerson(_ context.Context, spaceUUID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[id]
	if !ok || p.SpaceUUID != spaceUUID {
		return repository.ErrNotFound
	}
	delete(s.people, id)
	for aid, a := range s.assignments {
		if a.Person.ID == id {
			delete(s.assignments, aid)
		}
	}
	return s.touch(spaceUUID)
}

func productKey(p *domain.Product) (int64, string, string) { return p.ID, p.SpaceUUID, p.Name }

// ListProducts returns the products of a space.
func (s *Store) ListProducts(_ context.Context, spaceUUID string) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.products, func(p *domain.Product) bool { return p.SpaceUUID == spaceUUID }, func(p *domain.Product) int64 { return p.ID }), nil
}

// GetProduct fetches one product.
func (s *Store) GetProduct(_ context.Context, spaceUUID string, id int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.SpaceUUID != spaceUUID {
		return nil, repository.ErrNotFound
	}
	out := *p
	return &out, nil
}

// GetProductByName fetches a product by case-insensitive name.
func (s *Store) GetProductByName(_ context.Context, spaceUUID, name string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.SpaceUUID == spaceUUID && strings.EqualFold(p.Name, name) {
			out := *p
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

// CreateProduct stores a product.
func (s *Store) CreateProduct(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[product.SpaceUUID]; !ok {
		return repository.ErrNotFound
	}
	if nameTaken(s.products, product.SpaceUUID, product.Name, 0, productKey) {
		return repository.ErrConflict
	}
	product.ID = s.id()
	if product.Tags == nil {
		product.Tags = []domain.Tag{}
	}
	stored := *product
	s.products[product.ID] = &stored
	return s.touch(product.SpaceUUID)
}

// UpdateProduct rewrites a product.
func (s *Store) UpdateProduct(_ context.Context, product *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[product.ID]
	if !ok || existing.SpaceUUID != product.SpaceUUID {
		return repository.ErrNotFound
	}
	if nameTaken(s.products, product.SpaceUUID, product.Name, product.ID, productKey) {
		return repository.ErrConflict
	}
	stored := *product
	s.products[product.ID] = &stored
	return s.touch(product.SpaceUUID)
}

// DeleteProduct removes a product and its assignments.
func (s *Store) DeleteProduct(_ context.Context, spaceUUID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.SpaceUUID != spaceUUID {
		return repository.ErrNotFound
	}
	delete(s.products, id)
	for aid, a := range s.assignments {
		if a.ProductID == id {
			delete(s.assignments, aid)
		}
	}
	return s.touch(spaceUUID)
}

func roleKey(r *domain.SpaceRole) (int64, string, string) { return r.ID, r.SpaceUUID, r.Name }

// ListRoles returns the roles of a space.
func (s *Store) ListRoles(_ context.Context, spaceUUID string) ([]domain.SpaceRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.roles, func(r *domain.SpaceRole) bool { return r.SpaceUUID == spaceUUID }, func(r *domain.SpaceRole) int64 { return r.ID }), nil
}

// GetRole fetches a role.
func (s *Store) GetRole(_ context.Context, spaceUUID string, id int64) (*domain.SpaceRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok || r.SpaceUUID != spaceUUID {
		return nil, repository.ErrNotFound
	}
	out := *r
	return &out, nil
}

// CreateRole stores a role.
func (s *Store) CreateRole(_ context.Context, role *domain.SpaceRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[role.SpaceUUID]; !ok {
		return repository.ErrNotFound
	}
	if nameTaken(s.roles, role.SpaceUUID, role.Name, 0, roleKey) {
		return repository.ErrConflict
	}
	role.ID = s.id()
	stored := *role
	s.roles[role.ID] = &stored
	return s.touch(role.SpaceUUID)
}

// UpdateRole rewrites a role.
func (s *Store) UpdateRole(_ context.Context, role *domain.SpaceRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.roles[role.ID]
	if !ok || existing.SpaceUUID != role.SpaceUUID {
		return repository.ErrNotFound
	}
	if nameTaken(s.roles, role.SpaceUUID, role.Name, role.ID, roleKey) {
		return repository.ErrConflict
	}
	stored := *role
	s.roles[role.ID] = &stored
	return s.touch(role.SpaceUUID)
}

// DeleteRole removes a role and clears it from people.
func (s *Store) DeleteRole(_ context.Context, spaceUUID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[id]
	if !ok || r.SpaceUUID != spaceUUID {
		return repository.ErrNotFound
	}
	delete(s.roles, id)
	for _, p := range s.people {
		if p.SpaceRole != nil && p.SpaceRole.ID == id {
			p.SpaceRole = nil
		}
	}
	return s.touch(spaceUUID)
}

// ListColors returns the palette.
func (s *Store) ListColors(context.Context) ([]domain.Color, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Color(nil), s.colors...), nil
}

func tagKey(t *domain.Tag) (int64, string, string) { return t.ID, t.SpaceUUID, t.Name }

func (s *Store) tagTable(kind domain.TagKind) (map[int64]*domain.Tag, error) {
	if _, err := domain.ParseTagKind(string(kind)); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidArgument, err)
	}
	table, ok := s.tags[kind]
	if !ok {
		table = make(map[int64]*domain.Tag)
		s.tags[kind] = table
	}
	return table, nil
}

// ListTags returns tags of a kind.
func (s *Store) ListTags(_ context.Context, kind domain.TagKind, spaceUUID string) ([]domain.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, err := s.tagTable(kind)
	if err != nil {
		return nil, err
	}
	return sortedByID(table, func(t *domain.Tag) bool { return t.SpaceUUID == spaceUUID }, func(t *domain.Tag) int64 { return t.ID }), nil
}

// CreateTag stores a tag.
func (s *Store) CreateTag(_ context.Context, kind domain.TagKind, tag *domain.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, err := s.tagTable(kind)
	if err != nil {
		return err
	}
	if _, ok := s.spaces[tag.SpaceUUID]; !ok {
		return repository.ErrNotFound
	}
	if nameTaken(table, tag.SpaceUUID, tag.Name, 0, tagKey) {
		return repository.ErrConflict
	}
	tag.ID = s.id()
	stored := *tag
	table[tag.ID] = &stored
	return s.touch(tag.SpaceUUID)
}

// UpdateTag renames a tag.
func (s *Store) UpdateTag(_ context.Context, kind domain.TagKind, tag *domain.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, err := s.tagTable(kind)
	if err != nil {
		return err
	}
	existing, ok := table[tag.ID]
	if !ok || existing.SpaceUUID != tag.SpaceUUID {
		return repository.ErrNotFound
	}
	if nameTaken(table, tag.SpaceUUID, tag.Name, tag.ID, tagKey) {
		return repository.ErrConflict
	}
	existing.Name = tag.Name
	return s.touch(tag.SpaceUUID)
}

// DeleteTag removes a tag.
func (s *Store) DeleteTag(_ context.Context, kind domain.TagKind, spaceUUID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, err := s.tagTable(kind)
	if err != nil {
		return err
	}
	existing, ok := table[id]
	if !ok || existing.SpaceUUID != spaceUUID {
		return repository.ErrNotFound
	}
	delete(table, id)
	return s.touch(spaceUUID)
}

func (s *Store) assignmentView(a *domain.Assignment) domain.Assignment {
	out := *a
	if p, ok := s.people[a.Person.ID]; ok {
		out.Person = s.personView(p)
	}
	return out
}

func (s *Store) listAssignments(keep func(*domain.Assignment) bool) []domain.Assignment {
	var out []domain.Assignment
	for _, a := range s.assignments {
		if keep(a) {
			out = append(out, s.assignmentView(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].EffectiveDate, out[j].EffectiveDate
		switch {
		case di == nil && dj != nil:
			return true
		case di != nil && dj == nil:
			return false
		case di != nil && dj != nil && !di.Equal(*dj):
			return di.Before(*dj)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ListAssignmentsForPerson returns a person's history, baseline first.
func (s *Store) ListAssignmentsForPerson(_ context.Context, spaceUUID string, personID int64) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listAssignments(func(a *domain.Assignment) bool {
		return a.SpaceUUID == spaceUUID && a.Person.ID == personID
	}), nil
}

// ListAssignmentsByDate returns the batches recorded at date.
func (s *Store) ListAssignmentsByDate(_ context.Context, spaceUUID string, date domain.Date) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listAssignments(func(a *domain.Assignment) bool {
		return a.SpaceUUID == spaceUUID && a.OnDate(date)
	}), nil
}

// ListAssignmentsBySpace returns all assignments of a space.
func (s *Store) ListAssignmentsBySpace(_ context.Context, spaceUUID string) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listAssignments(func(a *domain.Assignment) bool { return a.SpaceUUID == spaceUUID }), nil
}

// GetAssignment fetches one assignment.
func (s *Store) GetAssignment(_ context.Context, spaceUUID string, id int64) (*domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok || a.SpaceUUID != spaceUUID {
		return nil, repository.ErrNotFound
	}
	out := s.assignmentView(a)
	return &out, nil
}

// ReplaceAssignmentsForDate swaps the person's batch at date.
func (s *Store) ReplaceAssignmentsForDate(_ context.Context, spaceUUID string, personID int64, date domain.Date, assignments []domain.Assignment) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, ok := s.people[personID]
	if !ok || person.SpaceUUID != spaceUUID {
		return nil, repository.ErrNotFound
	}
	for _, a := range assignments {
		if p, ok := s.products[a.ProductID]; !ok || p.SpaceUUID != spaceUUID {
			return nil, repository.ErrNotFound
		}
	}
	s.deleteBatch(spaceUUID, personID, date)
	var stored []domain.Assignment
	for _, a := range assignments {
		d := date
		record := &domain.Assignment{
			ID:            s.id(),
			Person:        domain.Person{ID: personID},
			ProductID:     a.ProductID,
			Placeholder:   a.Placeholder,
			SpaceUUID:     spaceUUID,
			EffectiveDate: &d,
		}
		s.assignments[record.ID] = record
		stored = append(stored, s.assignmentView(record))
	}
	return stored, s.touch(spaceUUID)
}

// Put stores an assignment as given, including baseline rows with no date.
func (s *Store) Put(a domain.Assignment) domain.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.id()
	} else if a.ID > s.nextID {
		s.nextID = a.ID
	}
	a.Person = domain.Person{ID: a.Person.ID}
	record := a
	s.assignments[a.ID] = &record
	return s.assignmentView(&record)
}

func (s *Store) deleteBatch(spaceUUID string, personID int64, date domain.Date) {
	for id, a := range s.assignments {
		if a.SpaceUUID == spaceUUID && a.Person.ID == personID && a.OnDate(date) {
			delete(s.assignments, id)
		}
	}
}

// DeleteAssignmentsForDate removes the person's batch at date.
func (s *Store) DeleteAssignmentsForDate(_ context.Context, spaceUUID string, personID int64, date domain.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteBatch(spaceUUID, personID, date)
	return s.touch(spaceUUID)
}

// DeleteAssignmentsForPerson removes a person's assignments.
func (s *Store) DeleteAssignmentsForPerson(_ context.Context, spaceUUID string, personID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.assignments {
		if a.SpaceUUID == spaceUUID && a.Person.ID == personID {
			delete(s.assignments, id)
		}
	}
	return s.touch(spaceUUID)
}

// UpdateAssignment rewrites an assignment.
func (s *Store) UpdateAssignment(_ context.Context, assignment *domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.assignments[assignment.ID]
	if !ok || existing.SpaceUUID != assignment.SpaceUUID {
		return repository.ErrNotFound
	}
	existing.ProductID = assignment.ProductID
	existing.Placeholder = assignment.Placeholder
	existing.EffectiveDate = assignment.EffectiveDate
	return s.touch(assignment.SpaceUUID)
}
