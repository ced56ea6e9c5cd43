package repository

import (
	"context"

	"github.com/FordLabs/PeopleMover/internal/domain"
)

// SpaceRepository persists spaces.
type SpaceRepository interface {
	// CreateSpace stores the space, its owner mapping and its unassigned product.
	CreateSpace(ctx context.Context, space *domain.Space, ownerID string) error
	GetSpaceByUUID(ctx context.Context, uuid string) (*domain.Space, error)
	GetSpaceByName(ctx context.Context, name string) (*domain.Space, error)
	ListSpaces(ctx context.Context) ([]domain.Space, error)
	ListSpacesByUser(ctx context.Context, userID string) ([]domain.Space, error)
	UpdateSpace(ctx context.Context, space *domain.Space) error
	DeleteSpace(ctx context.Context, uuid string) error
}

// UserSpaceRepository manages user access to spaces.
type UserSpaceRepository interface {
	GetMapping(ctx context.Context, userID, spaceUUID string) (*domain.UserSpaceMapping, error)
	ListMappingsBySpace(ctx context.Context, spaceUUID string) ([]domain.UserSpaceMapping, error)
	ListMappings(ctx context.Context) ([]domain.UserSpaceMapping, error)
	UpsertMapping(ctx context.Context, mapping *domain.UserSpaceMapping) error
	DeleteMapping(ctx context.Context, userID, spaceUUID string) error
}

// PersonRepository persists people.
type PersonRepository interface {
	ListPeople(ctx context.Context, spaceUUID string) ([]domain.Person, error)
	GetPerson(ctx context.Context, spaceUUID string, id int64) (*domain.Person, error)
	CountPeople(ctx context.Context, spaceUUID string) (int, error)
	CreatePerson(ctx context.Context, person *domain.Person) error
	UpdatePerson(ctx context.Context, person *domain.Person) error
	// DeletePerson removes the person together with their assignments.
	DeletePerson(ctx context.Context, spaceUUID string, id int64) error
}

// ProductRepository persists products.
type ProductRepository interface {
	ListProducts(ctx context.Context, spaceUUID string) ([]domain.Product, error)
	GetProduct(ctx context.Context, spaceUUID string, id int64) (*domain.Product, error)
	GetProductByName(ctx context.Context, spaceUUID, name string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, spaceUUID string, id int64) error
}

// RoleRepository persists space roles.
type RoleRepository interface {
	ListRoles(ctx context.Context, spaceUUID string) ([]domain.SpaceRole, error)
	GetRole(ctx context.Context, spaceUUID string, id int64) (*domain.SpaceRole, error)
	CreateRole(ctx context.Context, role *domain.SpaceRole) error
	UpdateRole(ctx context.Context, role *domain.SpaceRole) error
	DeleteRole(ctx context.Context, spaceUUID string, id int64) error
}

// ColorRepository reads the role color palette.
type ColorRepository interface {
	ListColors(ctx context.Context) ([]domain.Color, error)
}

// TagRepository persists product, location and person tags.
type TagRepository interface {
	ListTags(ctx context.Context, kind domain.TagKind, spaceUUID string) ([]domain.Tag, error)
	CreateTag(ctx context.Context, kind domain.TagKind, tag *domain.Tag) error
	UpdateTag(ctx context.Context, kind domain.TagKind, tag *domain.Tag) error
	DeleteTag(ctx context.Context, kind domain.TagKind, spaceUUID string, id int64) error
}

// AssignmentRepository persists assignment batches.
type AssignmentRepository interface {
	// ListAssignmentsForPerson returns every assignment of the person ordered by
	// effective date ascending (baseline first) then id.
	ListAssignmentsForPerson(ctx context.Context, spaceUUID string, personID int64) ([]domain.Assignment, error)
	// ListAssignmentsByDate returns assignments whose effective date equals date.
	ListAssignmentsByDate(ctx context.Context, spaceUUID string, date domain.Date) ([]domain.Assignment, error)
	ListAssignmentsBySpace(ctx context.Context, spaceUUID string) ([]domain.Assignment, error)
	GetAssignment(ctx context.Context, spaceUUID string, id int64) (*domain.Assignment, error)
	// ReplaceAssignmentsForDate deletes the person's batch at date and stores
	// assignments in its place within one transaction.
	ReplaceAssignmentsForDate(ctx context.Context, spaceUUID string, personID int64, date domain.Date, assignments []domain.Assignment) ([]domain.Assignment, error)
	DeleteAssignmentsForDate(ctx context.Context, spaceUUID string, personID int64, date domain.Date) error
	DeleteAssignmentsForPerson(ctx context.Context, spaceUUID string, personID int64) error
	UpdateAssignment(ctx context.Context, assignment *domain.Assignment) error
}
