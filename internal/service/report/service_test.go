package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/FordLabs/PeopleMover/internal/authz"
	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
	"github.com/FordLabs/PeopleMover/internal/repository/memory"
	"github.com/FordLabs/PeopleMover/internal/service/assignment"
	"github.com/FordLabs/PeopleMover/internal/service/product"
	"github.com/FordLabs/PeopleMover/pkg/logger"
)

const spaceUUID = "space-1"

func newService(t *testing.T) (Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.CreateSpace(context.Background(), &domain.Space{UUID: spaceUUID, Name: "Flipping Sweet", CreatedBy: "OWNER"}, "OWNER"))
	log := logger.Discard()
	assignments := assignment.New(store, store, store, nil, log)
	products := product.New(store, nil, log)
	return New(store, store, assignments, products, []string{"reporter"}, log), store
}

func TestPeopleReportSortedByProductThenPerson(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	date := domain.MustParseDate("2021-06-06")

	role := domain.SpaceRole{Name: "THE BEST", SpaceUUID: spaceUUID}
	require.NoError(t, store.CreateRole(ctx, &role))
	bakery := domain.Product{Name: "baguette Bakery", SpaceUUID: spaceUUID}
	require.NoError(t, store.CreateProduct(ctx, &bakery))
	mine := domain.Product{Name: "My Product", SpaceUUID: spaceUUID}
	require.NoError(t, store.CreateProduct(ctx, &mine))

	people := map[string]*domain.Person{}
	for _, name := range []string{"jane Smith", "Bob Barker", "Adam Sandler"} {
		p := &domain.Person{Name: name, SpaceUUID: spaceUUID}
		if name == "Bob Barker" {
			p.SpaceRole = &role
		}
		require.NoError(t, store.CreatePerson(ctx, p))
		people[name] = p
	}
	store.Put(domain.Assignment{Person: *people["jane Smith"], ProductID: mine.ID, SpaceUUID: spaceUUID, EffectiveDate: &date})
	store.Put(domain.Assignment{Person: *people["Bob Barker"], ProductID: bakery.ID, SpaceUUID: spaceUUID, EffectiveDate: &date})
	store.Put(domain.Assignment{Person: *people["Adam Sandler"], ProductID: mine.ID, SpaceUUID: spaceUUID, EffectiveDate: &date})

	rows, err := svc.People(ctx, spaceUUID, date)
	require.NoError(t, err)
	assert.Equal(t, []domain.PeopleReportRow{
		{ProductName: "baguette Bakery", PersonName: "Bob Barker", PersonRole: "THE BEST"},
		{ProductName: "My Product", PersonName: "Adam Sandler"},
		{ProductName: "My Product", PersonName: "jane Smith"},
	}, rows)

	data, err := PeopleXLSX(rows)
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()
	sheetRows, err := book.GetRows(peopleSheet)
	require.NoError(t, err)
	require.Len(t, sheetRows, 4)
	assert.Equal(t, []string{"Product Name", "Person Name", "Person Role"}, sheetRows[0])
	assert.Equal(t, []string{"baguette Bakery", "Bob Barker", "THE BEST"}, sheetRows[1])
}

func TestPeopleReportRequiresSpace(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.People(context.Background(), "missing", domain.MustParseDate("2021-06-06"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSecuredReportsRequireAuthorizedUser(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertMapping(ctx, &domain.UserSpaceMapping{UserID: "EDITOR", SpaceUUID: spaceUUID, Permission: domain.PermissionEditor}))
	require.NoError(t, store.CreateSpace(ctx, &domain.Space{UUID: "space-2", Name: "Other", CreatedBy: "EDITOR"}, "EDITOR"))

	_, err := svc.Spaces(ctx, "someone")
	assert.ErrorIs(t, err, authz.ErrForbidden)
	_, err = svc.Users(ctx, "someone")
	assert.ErrorIs(t, err, authz.ErrForbidden)

	spaces, err := svc.Spaces(ctx, "Reporter")
	require.NoError(t, err)
	assert.Equal(t, []domain.SpaceReportRow{
		{SpaceName: "Flipping Sweet", CreatedBy: "OWNER", Users: []string{"OWNER", "EDITOR"}},
		{SpaceName: "Other", CreatedBy: "EDITOR", Users: []string{"EDITOR"}},
	}, spaces)

	users, err := svc.Users(ctx, "REPORTER")
	require.NoError(t, err)
	assert.Equal(t, []string{"OWNER", "EDITOR"}, users)
}
