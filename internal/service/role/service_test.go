package role

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

func newService(t *testing.T, colors ...string) Service {
	t.Helper()
	store := memory.New(colors...)
	require.NoError(t, store.CreateSpace(context.Background(), &domain.Space{UUID: spaceUUID, Name: "Space"}, "OWNER"))
	return New(store, store, nil, logger.Discard())
}

func TestCreatePicksUnusedColors(t *testing.T) {
	svc := newService(t, "#FFFF00", "#FF00FF")
	ctx := context.Background()

	first, err := svc.Create(ctx, spaceUUID, Request{Name: "THE BEST"})
	require.NoError(t, err)
	require.NotNil(t, first.Color)
	assert.Equal(t, "#FFFF00", first.Color.Color)

	second, err := svc.Create(ctx, spaceUUID, Request{Name: "THE SECOND BEST (UNDERSTUDY)"})
	require.NoError(t, err)
	require.NotNil(t, second.Color)
	assert.Equal(t, "#FF00FF", second.Color.Color)

	third, err := svc.Create(ctx, spaceUUID, Request{Name: "THE WURST"})
	require.NoError(t, err)
	assert.Nil(t, third.Color)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, spaceUUID, Request{Name: "Engineer"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, spaceUUID, Request{Name: "engineer"})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestUpdateWithUnknownColor(t *testing.T) {
	svc := newService(t, "#00FFFF")
	ctx := context.Background()
	role, err := svc.Create(ctx, spaceUUID, Request{Name: "Engineer"})
	require.NoError(t, err)

	missing := int64(999)
	_, err = svc.Update(ctx, spaceUUID, role.ID, Request{Name: "Engineer", ColorID: &missing})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	renamed, err := svc.Update(ctx, spaceUUID, role.ID, Request{Name: "Developer"})
	require.NoError(t, err)
	assert.Equal(t, "Developer", renamed.Name)

	require.NoError(t, svc.Delete(ctx, spaceUUID, role.ID))
	roles, err := svc.List(ctx, spaceUUID)
	require.NoError(t, err)
	assert.Empty(t, roles)
}
