package authz

import (
	"errors"
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/FordLabs/PeopleMover/internal/domain"
)

// ErrForbidden reports that the caller lacks the permission for an action.
var ErrForbidden = errors.New("authz: forbidden")

// Role is the subject a caller acts as within one space.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleEditor    Role = "editor"
	RoleViewer    Role = "viewer"
	RoleAnonymous Role = "anonymous"
)

// Objects guarded inside a space.
const (
	ObjectSpace   = "space"
	ObjectMembers = "members"
	ObjectContent = "content"
	ObjectHistory = "history"
)

// Actions on objects.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var defaultPolicies = [][]string{
	{"role:viewer", ObjectSpace, ActionRead},
	{"role:viewer", ObjectContent, ActionRead},
	{"role:editor", ObjectContent, ActionWrite},
	{"role:editor", ObjectSpace, ActionWrite},
	{"role:editor", ObjectMembers, ActionRead},
	{"role:editor", ObjectHistory, ActionRead},
	{"role:owner", ObjectMembers, ActionWrite},
	{"role:owner", ObjectSpace, ActionDelete},
}

var defaultGroupings = [][]string{
	{"role:editor", "role:viewer"},
	{"role:owner", "role:editor"},
}

// Authorizer enforces space permissions with a casbin RBAC model.
type Authorizer struct {
	enforcer *casbin.Enforcer
}

// New builds an Authorizer loaded with the built-in policy.
func New() (*Authorizer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz: load model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: build enforcer: %w", err)
	}
	if _, err := enforcer.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("authz: add policies: %w", err)
	}
	if _, err := enforcer.AddGroupingPolicies(defaultGroupings); err != nil {
		return nil, fmt.Errorf("authz: add groupings: %w", err)
	}
	return &Authorizer{enforcer: enforcer}, nil
}

// Subject maps a role onto its casbin subject.
func Subject(role Role) string {
	if role == "" {
		role = RoleAnonymous
	}
	return "role:" + string(role)
}

// Authorize returns ErrForbidden when role may not perform action on object.
func (a *Authorizer) Authorize(role Role, object, action string) error {
	ok, err := a.enforcer.Enforce(Subject(role), object, action)
	if err != nil {
		return fmt.Errorf("authz: enforce: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s cannot %s %s", ErrForbidden, role, action, object)
	}
	return nil
}

// RoleFor derives the caller's role from their mapping and the space's visibility.
// mapping may be nil for non-members.
func RoleFor(mapping *domain.UserSpaceMapping, space domain.Space) Role {
	if mapping != nil {
		switch mapping.Permission {
		case domain.PermissionOwner:
			return RoleOwner
		case domain.PermissionEditor:
			return RoleEditor
		}
	}
	if space.TodayViewIsPublic {
		return RoleViewer
	}
	return RoleAnonymous
}

// CheckReadOnlyDate restricts viewers to today's date-scoped views.
func CheckReadOnlyDate(role Role, requested, today domain.Date) error {
	if role != RoleViewer {
		return nil
	}
	if !requested.Equal(today) {
		return fmt.Errorf("%w: read-only access is limited to %s", ErrForbidden, today)
	}
	return nil
}
