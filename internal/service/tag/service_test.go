package tag

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

func newService(t *testing.T) Service {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.CreateSpace(context.Background(), &domain.Space{UUID: spaceUUID, Name: "Space"}, "OWNER"))
	return New(store, nil, logger.Discard())
}

func TestListSortsCaseInsensitively(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	for _, name := range []string{"zeta", "Alpha", "beta"} {
		_, err := svc.Create(ctx, domain.TagKindLocation, spaceUUID, Request{Name: name})
		require.NoError(t, err)
	}

	tags, err := svc.List(ctx, domain.TagKindLocation, spaceUUID)
	require.NoError(t, err)
	var names []string
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"Alpha", "beta", "zeta"}, names)

	others, err := svc.List(ctx, domain.TagKindProduct, spaceUUID)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestDuplicateNamesConflictWithinKind(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, domain.TagKindPerson, spaceUUID, Request{Name: "Remote"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.TagKindPerson, spaceUUID, Request{Name: "remote"})
	assert.ErrorIs(t, err, repository.ErrConflict)
	_, err = svc.Create(ctx, domain.TagKindProduct, spaceUUID, Request{Name: "Remote"})
	assert.NoError(t, err)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, domain.TagKindProduct, spaceUUID, Request{Name: "AV"})
	require.NoError(t, err)

	renamed, err := svc.Update(ctx, domain.TagKindProduct, spaceUUID, created.ID, Request{Name: "EV"})
	require.NoError(t, err)
	assert.Equal(t, "EV", renamed.Name)

	_, err = svc.Update(ctx, domain.TagKindProduct, spaceUUID, 999, Request{Name: "x"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, domain.TagKindProduct, spaceUUID, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, domain.TagKindProduct, spaceUUID, created.ID), repository.ErrNotFound)
}
