package assignment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
	"github.com/FordLabs/PeopleMover/internal/validation"
	"github.com/FordLabs/PeopleMover/internal/ws"
)

// Service answers time-scoped assignment queries and records assignment batches.
type Service struct {
	assignments repository.AssignmentRepository
	people      repository.PersonRepository
	products    repository.ProductRepository
	hub         *ws.Hub
	logger      *slog.Logger
}

// New constructs a Service. hub may be nil when no event stream is served.
func New(assignments repository.AssignmentRepository, people repository.PersonRepository, products repository.ProductRepository, hub *ws.Hub, logger *slog.Logger) Service {
	return Service{assignments: assignments, people: people, products: products, hub: hub, logger: logger}
}

var (
	errMissingDate       = fmt.Errorf("%w: requested date is required", repository.ErrInvalidArgument)
	errMissingAssignment = fmt.Errorf("%w: assignment id is required", repository.ErrInvalidArgument)
	errBaselineStart     = fmt.Errorf("%w: baseline assignments have no start date", repository.ErrInvalidArgument)
	errStartNotCovered   = fmt.Errorf("%w: assignment is not in effect on the new start date", repository.ErrInvalidArgument)
)

// EventAssignmentsChanged is published whenever a person's batches change.
const EventAssignmentsChanged = "assignments.changed"

// ForPersonOnDate resolves the person's assignments in effect on date.
func (s Service) ForPersonOnDate(ctx context.Context, spaceUUID string, personID int64, date domain.Date) ([]domain.Assignment, error) {
	history, err := s.assignments.ListAssignmentsForPerson(ctx, spaceUUID, personID)
	if err != nil {
		return nil, err
	}
	return resolve(history, date), nil
}

// ForSpaceOnDate resolves the assignments of every person in the space on date.
func (s Service) ForSpaceOnDate(ctx context.Context, spaceUUID string, date domain.Date) ([]domain.Assignment, error) {
	people, err := s.people.ListPeople(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	all, err := s.assignments.ListAssignmentsBySpace(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	histories := groupByPerson(all)

	out := []domain.Assignment{}
	for _, person := range people {
		out = append(out, resolve(histories[person.ID], date)...)
	}
	return out, nil
}

// ReassignmentsOnDate describes who moved between date-1 and date.
func (s Service) ReassignmentsOnDate(ctx context.Context, spaceUUID string, date domain.Date) ([]domain.Reassignment, error) {
	exact, err := s.assignments.ListAssignmentsByDate(ctx, spaceUUID, date)
	if err != nil {
		return nil, err
	}
	histories := make(map[int64][]domain.Assignment)
	for _, a := range exact {
		if _, seen := histories[a.Person.ID]; seen {
			continue
		}
		history, err := s.assignments.ListAssignmentsForPerson(ctx, spaceUUID, a.Person.ID)
		if err != nil {
			return nil, err
		}
		histories[a.Person.ID] = history
	}
	names, err := s.productNames(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	return reassignments(exact, histories, date, names), nil
}

// EffectiveDates lists the dated batches that carry at least one real reassignment.
func (s Service) EffectiveDates(ctx context.Context, spaceUUID string) ([]domain.Date, error) {
	all, err := s.assignments.ListAssignmentsBySpace(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	names, err := s.productNames(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	return effectiveDates(all, names), nil
}

// CreateForDate replaces the person's batch at the requested date.
func (s Service) CreateForDate(ctx context.Context, spaceUUID string, personID int64, req domain.CreateAssignmentsRequest) ([]domain.Assignment, error) {
	if req.RequestedDate.IsZero() {
		return nil, errMissingDate
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.people.GetPerson(ctx, spaceUUID, personID); err != nil {
		return nil, fmt.Errorf("person %d: %w", personID, err)
	}
	unassigned, err := s.products.GetProductByName(ctx, spaceUUID, domain.UnassignedProductName)
	if err != nil {
		return nil, fmt.Errorf("unassigned product: %w", err)
	}

	batch := make([]domain.Assignment, 0, len(req.Products))
	seen := make(map[int64]struct{}, len(req.Products))
	for _, requested := range req.Products {
		if _, err := s.products.GetProduct(ctx, spaceUUID, requested.ProductID); err != nil {
			return nil, fmt.Errorf("product %d: %w", requested.ProductID, err)
		}
		if requested.ProductID == unassigned.ID {
			continue
		}
		if _, dup := seen[requested.ProductID]; dup {
			continue
		}
		seen[requested.ProductID] = struct{}{}
		batch = append(batch, domain.Assignment{ProductID: requested.ProductID, Placeholder: requested.Placeholder, SpaceUUID: spaceUUID})
	}
	if len(batch) == 0 {
		batch = append(batch, domain.Assignment{ProductID: unassigned.ID, SpaceUUID: spaceUUID})
	}

	if _, err := s.assignments.ReplaceAssignmentsForDate(ctx, spaceUUID, personID, req.RequestedDate, batch); err != nil {
		return nil, err
	}
	created, err := s.withStartDates(ctx, spaceUUID, personID, req.RequestedDate)
	if err != nil {
		return nil, err
	}
	s.logger.Info("assignments created", "space_uuid", spaceUUID, "person_id", personID, "date", req.RequestedDate.String(), "count", len(created))
	s.hub.Publish(spaceUUID, EventAssignmentsChanged, "person", personID)
	return created, nil
}

// RevertForDate drops the person's batch at date, leaving them unassigned when
// no earlier batch remains.
func (s Service) RevertForDate(ctx context.Context, spaceUUID string, personID int64, date domain.Date) error {
	if date.IsZero() {
		return errMissingDate
	}
	if _, err := s.people.GetPerson(ctx, spaceUUID, personID); err != nil {
		return fmt.Errorf("person %d: %w", personID, err)
	}
	if err := s.assignments.DeleteAssignmentsForDate(ctx, spaceUUID, personID, date); err != nil {
		return err
	}
	history, err := s.assignments.ListAssignmentsForPerson(ctx, spaceUUID, personID)
	if err != nil {
		return err
	}
	if len(datedOnOrBefore(history, date)) == 0 {
		unassigned, err := s.products.GetProductByName(ctx, spaceUUID, domain.UnassignedProductName)
		if err != nil {
			return fmt.Errorf("unassigned product: %w", err)
		}
		batch := []domain.Assignment{{ProductID: unassigned.ID, SpaceUUID: spaceUUID}}
		if _, err := s.assignments.ReplaceAssignmentsForDate(ctx, spaceUUID, personID, date, batch); err != nil {
			return err
		}
	}
	s.logger.Info("assignments reverted", "space_uuid", spaceUUID, "person_id", personID, "date", date.String())
	s.hub.Publish(spaceUUID, EventAssignmentsChanged, "person", personID)
	return nil
}

// DeleteAllForPerson removes every assignment a person holds.
func (s Service) DeleteAllForPerson(ctx context.Context, spaceUUID string, personID int64) error {
	if err := s.assignments.DeleteAssignmentsForPerson(ctx, spaceUUID, personID); err != nil {
		return err
	}
	s.logger.Info("assignments deleted", "space_uuid", spaceUUID, "person_id", personID)
	s.hub.Publish(spaceUUID, EventAssignmentsChanged, "person", personID)
	return nil
}

// Update rewrites a single stored assignment.
func (s Service) Update(ctx context.Context, assignment domain.Assignment) (*domain.Assignment, error) {
	if assignment.ID == 0 {
		return nil, errMissingAssignment
	}
	existing, err := s.assignments.GetAssignment(ctx, assignment.SpaceUUID, assignment.ID)
	if err != nil {
		return nil, fmt.Errorf("assignment %d: %w", assignment.ID, err)
	}
	if _, err := s.products.GetProduct(ctx, assignment.SpaceUUID, assignment.ProductID); err != nil {
		return nil, fmt.Errorf("product %d: %w", assignment.ProductID, err)
	}
	existing.ProductID = assignment.ProductID
	existing.Placeholder = assignment.Placeholder
	if assignment.EffectiveDate != nil {
		existing.EffectiveDate = assignment.EffectiveDate
	}
	if err := s.assignments.UpdateAssignment(ctx, existing); err != nil {
		return nil, err
	}
	s.logger.Info("assignment updated", "space_uuid", existing.SpaceUUID, "assignment_id", existing.ID)
	s.hub.Publish(existing.SpaceUUID, EventAssignmentsChanged, "person", existing.Person.ID)
	return existing, nil
}

// ChangeStartDate delays one assignment's start to date. Its batch is copied
// to date in full while the earlier batch keeps only the other products. date
// must fall inside the span where the assignment's batch is in effect.
func (s Service) ChangeStartDate(ctx context.Context, spaceUUID string, assignmentID int64, date domain.Date) ([]domain.Assignment, error) {
	if date.IsZero() {
		return nil, errMissingDate
	}
	existing, err := s.assignments.GetAssignment(ctx, spaceUUID, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("assignment %d: %w", assignmentID, err)
	}
	if existing.EffectiveDate == nil {
		return nil, errBaselineStart
	}
	personID := existing.Person.ID
	from := *existing.EffectiveDate
	if from.Equal(date) {
		return s.withStartDates(ctx, spaceUUID, personID, date)
	}
	history, err := s.assignments.ListAssignmentsForPerson(ctx, spaceUUID, personID)
	if err != nil {
		return nil, err
	}
	if !containsAssignment(resolve(history, date), existing.ID) {
		return nil, errStartNotCovered
	}

	var moved, kept []domain.Assignment
	for _, a := range history {
		if a.EffectiveDate == nil || !a.EffectiveDate.Equal(from) {
			continue
		}
		copied := domain.Assignment{ProductID: a.ProductID, Placeholder: a.Placeholder, SpaceUUID: spaceUUID}
		moved = append(moved, copied)
		if a.ID != existing.ID {
			kept = append(kept, copied)
		}
	}
	if len(kept) == 0 && len(datedOnOrBefore(history, from.AddDays(-1))) == 0 {
		unassigned, err := s.products.GetProductByName(ctx, spaceUUID, domain.UnassignedProductName)
		if err != nil {
			return nil, fmt.Errorf("unassigned product: %w", err)
		}
		kept = []domain.Assignment{{ProductID: unassigned.ID, SpaceUUID: spaceUUID}}
	}

	if _, err := s.assignments.ReplaceAssignmentsForDate(ctx, spaceUUID, personID, date, moved); err != nil {
		return nil, err
	}
	if len(kept) == 0 {
		err = s.assignments.DeleteAssignmentsForDate(ctx, spaceUUID, personID, from)
	} else {
		_, err = s.assignments.ReplaceAssignmentsForDate(ctx, spaceUUID, personID, from, kept)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("assignment start date changed", "space_uuid", spaceUUID, "person_id", personID, "from", from.String(), "to", date.String())
	s.hub.Publish(spaceUUID, EventAssignmentsChanged, "person", personID)
	return s.withStartDates(ctx, spaceUUID, personID, date)
}

func containsAssignment(assignments []domain.Assignment, id int64) bool {
	for _, a := range assignments {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (s Service) withStartDates(ctx context.Context, spaceUUID string, personID int64, date domain.Date) ([]domain.Assignment, error) {
	history, err := s.assignments.ListAssignmentsForPerson(ctx, spaceUUID, personID)
	if err != nil {
		return nil, err
	}
	withStart := applyStartDates(history)
	out := []domain.Assignment{}
	for _, a := range withStart {
		if a.OnDate(date) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s Service) productNames(ctx context.Context, spaceUUID string) (map[int64]string, error) {
	products, err := s.products.ListProducts(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}
