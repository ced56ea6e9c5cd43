package role

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
	"github.com/FordLabs/PeopleMover/internal/validation"
	"github.com/FordLabs/PeopleMover/internal/ws"
)

// Request carries a role name and optional palette color.
type Request struct {
	Name    string `json:"name" validate:"required,max=255"`
	ColorID *int64 `json:"colorId"`
}

// Service manages space roles and the color palette.
type Service struct {
	roles  repository.RoleRepository
	colors repository.ColorRepository
	hub    *ws.Hub
	logger *slog.Logger
}

// New constructs a Service.
func New(roles repository.RoleRepository, colors repository.ColorRepository, hub *ws.Hub, logger *slog.Logger) Service {
	return Service{roles: roles, colors: colors, hub: hub, logger: logger}
}

// EventRolesChanged is published on every role mutation.
const EventRolesChanged = "roles.changed"

// Colors returns the palette.
func (s Service) Colors(ctx context.Context) ([]domain.Color, error) {
	colors, err := s.colors.ListColors(ctx)
	if err != nil {
		return nil, err
	}
	if colors == nil {
		colors = []domain.Color{}
	}
	return colors, nil
}

// List returns the roles of a space.
func (s Service) List(ctx context.Context, spaceUUID string) ([]domain.SpaceRole, error) {
	roles, err := s.roles.ListRoles(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []domain.SpaceRole{}
	}
	return roles, nil
}

// Create adds a role. Without an explicit color it takes the first palette
// color not yet used in the space, or none when all are taken.
func (s Service) Create(ctx context.Context, spaceUUID string, req Request) (*domain.SpaceRole, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	palette, err := s.colors.ListColors(ctx)
	if err != nil {
		return nil, err
	}
	role := &domain.SpaceRole{Name: req.Name, SpaceUUID: spaceUUID}
	if req.ColorID != nil {
		color, err := findColor(palette, *req.ColorID)
		if err != nil {
			return nil, err
		}
		role.Color = color
	} else {
		existing, err := s.roles.ListRoles(ctx, spaceUUID)
		if err != nil {
			return nil, err
		}
		role.Color = unusedColor(palette, existing)
	}
	if err := s.roles.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info("role created", "space_uuid", spaceUUID, "role_id", role.ID)
	s.hub.Publish(spaceUUID, EventRolesChanged, "role", role.ID)
	return role, nil
}

// Update renames or recolors a role.
func (s Service) Update(ctx context.Context, spaceUUID string, id int64, req Request) (*domain.SpaceRole, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	role, err := s.roles.GetRole(ctx, spaceUUID, id)
	if err != nil {
		return nil, err
	}
	role.Name = req.Name
	if req.ColorID != nil {
		palette, err := s.colors.ListColors(ctx)
		if err != nil {
			return nil, err
		}
		if role.Color, err = findColor(palette, *req.ColorID); err != nil {
			return nil, err
		}
	}
	if err := s.roles.UpdateRole(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info("role updated", "space_uuid", spaceUUID, "role_id", id)
	s.hub.Publish(spaceUUID, EventRolesChanged, "role", id)
	return role, nil
}

// Delete removes a role; people holding it are left without one.
func (s Service) Delete(ctx context.Context, spaceUUID string, id int64) error {
	if err := s.roles.DeleteRole(ctx, spaceUUID, id); err != nil {
		return err
	}
	s.logger.Info("role deleted", "space_uuid", spaceUUID, "role_id", id)
	s.hub.Publish(spaceUUID, EventRolesChanged, "role", id)
	return nil
}

func findColor(palette []domain.Color, id int64) (*domain.Color, error) {
	for _, c := range palette {
		if c.ID == id {
			color := c
			return &color, nil
		}
	}
	return nil, fmt.Errorf("color %d: %w", id, repository.ErrNotFound)
}

func unusedColor(palette []domain.Color, roles []domain.SpaceRole) *domain.Color {
	used := make(map[int64]bool, len(roles))
	for _, r := range roles {
		if r.Color != nil {
			used[r.Color.ID] = true
		}
	}
	for _, c := range palette {
		if !used[c.ID] {
			color := c
			return &color
		}
	}
	return nil
}
