package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FordLabs/PeopleMover/internal/domain"
)

func TestAuthorizeRoleHierarchy(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	cases := []struct {
		role    Role
		object  string
		action  string
		allowed bool
	}{
		{RoleOwner, ObjectSpace, ActionDelete, true},
		{RoleOwner, ObjectContent, ActionRead, true},
		{RoleEditor, ObjectContent, ActionWrite, true},
		{RoleEditor, ObjectMembers, ActionRead, true},
		{RoleEditor, ObjectMembers, ActionWrite, false},
		{RoleEditor, ObjectSpace, ActionDelete, false},
		{RoleViewer, ObjectContent, ActionRead, true},
		{RoleViewer, ObjectContent, ActionWrite, false},
		{RoleEditor, ObjectHistory, ActionRead, true},
		{RoleViewer, ObjectHistory, ActionRead, false},
		{RoleAnonymous, ObjectContent, ActionRead, false},
	}
	for _, tc := range cases {
		err := a.Authorize(tc.role, tc.object, tc.action)
		if tc.allowed {
			assert.NoError(t, err, "%s %s %s", tc.role, tc.action, tc.object)
		} else {
			assert.ErrorIs(t, err, ErrForbidden, "%s %s %s", tc.role, tc.action, tc.object)
		}
	}
}

func TestRoleFor(t *testing.T) {
	private := domain.Space{UUID: "s"}
	public := domain.Space{UUID: "s", TodayViewIsPublic: true}

	assert.Equal(t, RoleOwner, RoleFor(&domain.UserSpaceMapping{Permission: domain.PermissionOwner}, private))
	assert.Equal(t, RoleEditor, RoleFor(&domain.UserSpaceMapping{Permission: domain.PermissionEditor}, public))
	assert.Equal(t, RoleViewer, RoleFor(nil, public))
	assert.Equal(t, RoleAnonymous, RoleFor(nil, private))
}

func TestCheckReadOnlyDate(t *testing.T) {
	today := domain.MustParseDate("2021-06-06")
	assert.NoError(t, CheckReadOnlyDate(RoleViewer, today, today))
	assert.ErrorIs(t, CheckReadOnlyDate(RoleViewer, today.AddDays(-1), today), ErrForbidden)
	assert.NoError(t, CheckReadOnlyDate(RoleEditor, today.AddDays(-1), today))
}
