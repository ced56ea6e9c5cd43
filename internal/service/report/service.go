package report

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/FordLabs/PeopleMover/internal/authz"
	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
)

// AssignmentResolver resolves a space's assignments on a date.
type AssignmentResolver interface {
	ForSpaceOnDate(ctx context.Context, spaceUUID string, date domain.Date) ([]domain.Assignment, error)
}

// ProductLister lists a space's products, optionally only those active on a date.
type ProductLister interface {
	List(ctx context.Context, spaceUUID string, date *domain.Date) ([]domain.Product, error)
}

// Service builds tabular reports.
type Service struct {
	spaces      repository.SpaceRepository
	mappings    repository.UserSpaceRepository
	assignments AssignmentResolver
	products    ProductLister
	authorized  map[string]struct{}
	logger      *slog.Logger
}

// New constructs a Service. authorizedUsers may read the cross-space reports.
func New(spaces repository.SpaceRepository, mappings repository.UserSpaceRepository, assignments AssignmentResolver, products ProductLister, authorizedUsers []string, logger *slog.Logger) Service {
	authorized := make(map[string]struct{}, len(authorizedUsers))
	for _, u := range authorizedUsers {
		if u = domain.NormalizeUserID(u); u != "" {
			authorized[u] = struct{}{}
		}
	}
	return Service{
		spaces:      spaces,
		mappings:    mappings,
		assignments: assignments,
		products:    products,
		authorized:  authorized,
		logger:      logger,
	}
}

// People lists who works on which product in a space on date, ordered by
// product name then person name, case-insensitively.
func (s Service) People(ctx context.Context, spaceUUID string, date domain.Date) ([]domain.PeopleReportRow, error) {
	if _, err := s.spaces.GetSpaceByUUID(ctx, spaceUUID); err != nil {
		return nil, fmt.Errorf("space %s: %w", spaceUUID, err)
	}
	assignments, err := s.assignments.ForSpaceOnDate(ctx, spaceUUID, date)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx, spaceUUID, &date)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	rows := make([]domain.PeopleReportRow, 0, len(assignments))
	for _, a := range assignments {
		productName, ok := names[a.ProductID]
		if !ok {
			s.logger.Warn("assignment references inactive product", "space_uuid", spaceUUID, "product_id", a.ProductID, "date", date.String())
			continue
		}
		rows = append(rows, domain.PeopleReportRow{
			ProductName: productName,
			PersonName:  a.Person.Name,
			PersonRole:  a.Person.RoleName(),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := strings.ToLower(rows[i].ProductName), strings.ToLower(rows[j].ProductName)
		if pi != pj {
			return pi < pj
		}
		return strings.ToLower(rows[i].PersonName) < strings.ToLower(rows[j].PersonName)
	})
	return rows, nil
}

// Authorize reports whether userID may read cross-space reports.
func (s Service) Authorize(userID string) error {
	if _, ok := s.authorized[domain.NormalizeUserID(userID)]; !ok {
		return fmt.Errorf("%w: %s may not read reports", authz.ErrForbidden, userID)
	}
	return nil
}

// Spaces summarizes every space with its members.
func (s Service) Spaces(ctx context.Context, userID string) ([]domain.SpaceReportRow, error) {
	if err := s.Authorize(userID); err != nil {
		return nil, err
	}
	spaces, err := s.spaces.ListSpaces(ctx)
	if err != nil {
		return nil, err
	}
	mappings, err := s.mappings.ListMappings(ctx)
	if err != nil {
		return nil, err
	}
	members := make(map[string][]string)
	for _, m := range mappings {
		members[m.SpaceUUID] = append(members[m.SpaceUUID], m.UserID)
	}
	rows := make([]domain.SpaceReportRow, 0, len(spaces))
	for _, space := range spaces {
		users := members[space.UUID]
		if users == nil {
			users = []string{}
		}
		rows = append(rows, domain.SpaceReportRow{SpaceName: space.Name, CreatedBy: space.CreatedBy, Users: users})
	}
	return rows, nil
}

// Users lists each user id mapped to any space once.
func (s Service) Users(ctx context.Context, userID string) ([]string, error) {
	if err := s.Authorize(userID); err != nil {
		return nil, err
	}
	mappings, err := s.mappings.ListMappings(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(mappings))
	users := []string{}
	for _, m := range mappings {
		if !seen[m.UserID] {
			seen[m.UserID] = true
			users = append(users, m.UserID)
		}
	}
	return users, nil
}
