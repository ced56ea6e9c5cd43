package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
	"github.com/FordLabs/PeopleMover/internal/repository/memory"
	"github.com/FordLabs/PeopleMover/pkg/logger"
)

const spaceUUID = "space-1"

func newService(t *testing.T) (Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.CreateSpace(context.Background(), &domain.Space{UUID: spaceUUID, Name: "Space"}, "OWNER"))
	return New(store, nil, logger.Discard()), store
}

func datePtr(raw string) *domain.Date {
	d := domain.MustParseDate(raw)
	return &d
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, spaceUUID, Request{Name: "Baguette Bakery"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, spaceUUID, Request{Name: "baguette bakery"})
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = svc.Create(ctx, spaceUUID, Request{Name: "Unassigned"})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestCreateRejectsInvertedDates(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Create(context.Background(), spaceUUID, Request{
		Name:      "Backwards",
		StartDate: datePtr("2021-02-01"),
		EndDate:   datePtr("2021-01-01"),
	})
	assert.ErrorIs(t, err, repository.ErrInvalidArgument)
}

func TestListFiltersByRequestedDate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, spaceUUID, Request{Name: "Old", StartDate: datePtr("2020-01-01"), EndDate: datePtr("2020-12-31")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, spaceUUID, Request{Name: "Current", StartDate: datePtr("2021-01-01")})
	require.NoError(t, err)

	all, err := svc.List(ctx, spaceUUID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := svc.List(ctx, spaceUUID, datePtr("2021-06-01"))
	require.NoError(t, err)
	var names []string
	for _, p := range active {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"unassigned", "Current"}, names)
}

func TestUnassignedProductIsProtected(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	unassigned, err := store.GetProductByName(ctx, spaceUUID, domain.UnassignedProductName)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, spaceUUID, unassigned.ID), repository.ErrInvalidArgument)
	_, err = svc.Update(ctx, spaceUUID, unassigned.ID, Request{Name: "renamed"})
	assert.ErrorIs(t, err, repository.ErrInvalidArgument)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, spaceUUID, Request{Name: "My Product"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, spaceUUID, created.ID, Request{Name: "My Product", Archived: true})
	require.NoError(t, err)
	assert.True(t, updated.Archived)

	require.NoError(t, svc.Delete(ctx, spaceUUID, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, spaceUUID, created.ID), repository.ErrNotFound)
}
