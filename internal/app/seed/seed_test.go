package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository/memory"
	"github.com/FordLabs/PeopleMover/internal/service/assignment"
	"github.com/FordLabs/PeopleMover/pkg/logger"
)

const flippingSweet = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"

func newSeeder(t *testing.T) (*Seeder, *memory.Store, assignment.Service) {
	t.Helper()
	store := memory.New("#81C0FA", "#83DDC2", "#A7E9F2")
	assignments := assignment.New(store, store, store, nil, logger.Discard())
	s := New(store, assignments, logger.Discard())
	s.now = func() time.Time { return time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC) }
	return s, store, assignments
}

func productNameOn(t *testing.T, store *memory.Store, svc assignment.Service, personName, date string) (string, bool) {
	t.Helper()
	ctx := context.Background()
	people, err := store.ListPeople(ctx, flippingSweet)
	require.NoError(t, err)
	for _, p := range people {
		if p.Name != personName {
			continue
		}
		resolved, err := svc.ForPersonOnDate(ctx, flippingSweet, p.ID, domain.MustParseDate(date))
		require.NoError(t, err)
		require.Len(t, resolved, 1)
		product, err := store.GetProduct(ctx, flippingSweet, resolved[0].ProductID)
		require.NoError(t, err)
		return product.Name, resolved[0].Placeholder
	}
	t.Fatalf("person %q not seeded", personName)
	return "", false
}

func TestApplyDefaultFixture(t *testing.T) {
	s, store, svc := newSeeder(t)
	ctx := context.Background()
	fx, err := Default()
	require.NoError(t, err)

	require.NoError(t, s.Apply(ctx, fx, false))

	space, err := store.GetSpaceByUUID(ctx, flippingSweet)
	require.NoError(t, err)
	assert.Equal(t, "Flipping Sweet", space.Name)
	mapping, err := store.GetMapping(ctx, "AQ-866ED9FA-06CA-41E7-B256-30770B98195F", flippingSweet)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionOwner, mapping.Permission)

	roles, err := store.ListRoles(ctx, flippingSweet)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	for _, role := range roles {
		assert.NotNil(t, role.Color, role.Name)
	}

	bakery, err := store.GetProductByName(ctx, flippingSweet, "Baguette Bakery")
	require.NoError(t, err)
	require.NotNil(t, bakery.Location)
	assert.Equal(t, "Detroit", bakery.Location.Name)
	require.Len(t, bakery.Tags, 1)

	name, _ := productNameOn(t, store, svc, "Jane Smith", "2019-01-01")
	assert.Equal(t, "Baguette Bakery", name)
	name, placeholder := productNameOn(t, store, svc, "Bob Barker", "2026-10-16")
	assert.Equal(t, "Baguette Bakery", name)
	assert.True(t, placeholder)
	name, _ = productNameOn(t, store, svc, "Adam Sandler", "2020-06-01")
	assert.Equal(t, domain.UnassignedProductName, name)
}

func TestApplySkipsExistingUnlessReset(t *testing.T) {
	s, store, _ := newSeeder(t)
	ctx := context.Background()
	fx, err := Default()
	require.NoError(t, err)

	require.NoError(t, s.Apply(ctx, fx, false))
	require.NoError(t, s.Apply(ctx, fx, false))
	count, err := store.CountPeople(ctx, flippingSweet)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	extra := domain.Person{Name: "Extra", SpaceUUID: flippingSweet}
	require.NoError(t, store.CreatePerson(ctx, &extra))
	require.NoError(t, s.Apply(ctx, fx, true))
	count, err = store.CountPeople(ctx, flippingSweet)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestParseRejectsBadFixtures(t *testing.T) {
	_, err := Parse(strings.NewReader("version: 2\nspaces: []\n"))
	assert.ErrorContains(t, err, "unsupported version")

	_, err = Parse(strings.NewReader("version: 1\nspacez: []\n"))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("version: 1\nspaces:\n  - name: No UUID\n    owner: me\n"))
	assert.ErrorContains(t, err, "needs uuid")
}

func TestApplyReportsUnknownReferences(t *testing.T) {
	s, _, _ := newSeeder(t)
	fx := Fixture{Version: 1, Spaces: []SpaceFixture{{
		UUID:  "space-x",
		Name:  "Broken",
		Owner: "me",
		People: []PersonFixture{{
			Name:        "Jane",
			Assignments: []AssignmentFixture{{Date: "2020-01-01", Products: []string{"Nope"}}},
		}},
	}}}
	err := s.Apply(context.Background(), fx, false)
	assert.ErrorContains(t, err, `unknown product "Nope"`)
}
