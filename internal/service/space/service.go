package space

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/FordLabs/PeopleMover/internal/authz"
	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
	"github.com/FordLabs/PeopleMover/internal/validation"
	"github.com/FordLabs/PeopleMover/internal/ws"
)

// Request carries the editable fields of a space.
type Request struct {
	Name              string `json:"name" validate:"required,max=255"`
	TodayViewIsPublic *bool  `json:"todayViewIsPublic"`
}

// InviteRequest lists the emails to grant editor access.
type InviteRequest struct {
	Emails []string `json:"emails" validate:"required,min=1,dive,email"`
}

// Service handles space lifecycle and membership.
type Service struct {
	spaces   repository.SpaceRepository
	mappings repository.UserSpaceRepository
	hub      *ws.Hub
	logger   *slog.Logger
}

// New constructs a Service.
func New(spaces repository.SpaceRepository, mappings repository.UserSpaceRepository, hub *ws.Hub, logger *slog.Logger) Service {
	return Service{spaces: spaces, mappings: mappings, hub: hub, logger: logger}
}

var errRemoveOwner = fmt.Errorf("%w: the space owner cannot be removed", authz.ErrForbidden)

// Create registers a space owned by userID.
func (s Service) Create(ctx context.Context, userID string, req Request) (*domain.Space, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	owner := domain.NormalizeUserID(userID)
	space := &domain.Space{
		UUID:      uuid.NewString(),
		Name:      req.Name,
		CreatedBy: owner,
	}
	if req.TodayViewIsPublic != nil {
		space.TodayViewIsPublic = *req.TodayViewIsPublic
	}
	if err := s.spaces.CreateSpace(ctx, space, owner); err != nil {
		return nil, err
	}
	s.logger.Info("space created", "space_uuid", space.UUID, "owner_id", owner)
	return space, nil
}

// ListForUser returns the spaces the user belongs to.
func (s Service) ListForUser(ctx context.Context, userID string) ([]domain.Space, error) {
	spaces, err := s.spaces.ListSpacesByUser(ctx, domain.NormalizeUserID(userID))
	if err != nil {
		return nil, err
	}
	if spaces == nil {
		spaces = []domain.Space{}
	}
	return spaces, nil
}

// Get returns a space by uuid.
func (s Service) Get(ctx context.Context, spaceUUID string) (*domain.Space, error) {
	return s.spaces.GetSpaceByUUID(ctx, spaceUUID)
}

// RoleFor resolves the caller's role on a space.
func (s Service) RoleFor(ctx context.Context, userID, spaceUUID string) (authz.Role, error) {
	space, err := s.spaces.GetSpaceByUUID(ctx, spaceUUID)
	if err != nil {
		return authz.RoleAnonymous, err
	}
	var mapping *domain.UserSpaceMapping
	if userID != "" {
		mapping, err = s.mappings.GetMapping(ctx, domain.NormalizeUserID(userID), spaceUUID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return authz.RoleAnonymous, err
		}
	}
	return authz.RoleFor(mapping, *space), nil
}

// Update renames a space or toggles its public read-only view.
func (s Service) Update(ctx context.Context, spaceUUID string, req Request) (*domain.Space, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	space, err := s.spaces.GetSpaceByUUID(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	space.Name = req.Name
	if req.TodayViewIsPublic != nil {
		space.TodayViewIsPublic = *req.TodayViewIsPublic
	}
	if err := s.spaces.UpdateSpace(ctx, space); err != nil {
		return nil, err
	}
	s.logger.Info("space updated", "space_uuid", spaceUUID)
	s.hub.Publish(spaceUUID, "space.updated", "space", space.ID)
	return space, nil
}

// Delete removes a space and everything in it.
func (s Service) Delete(ctx context.Context, spaceUUID string) error {
	if err := s.spaces.DeleteSpace(ctx, spaceUUID); err != nil {
		return err
	}
	s.logger.Info("space deleted", "space_uuid", spaceUUID)
	s.hub.Publish(spaceUUID, "space.deleted", "space", 0)
	return nil
}

// Users lists the members of a space.
func (s Service) Users(ctx context.Context, spaceUUID string) ([]domain.UserSpaceMapping, error) {
	if _, err := s.spaces.GetSpaceByUUID(ctx, spaceUUID); err != nil {
		return nil, err
	}
	mappings, err := s.mappings.ListMappingsBySpace(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	if mappings == nil {
		mappings = []domain.UserSpaceMapping{}
	}
	return mappings, nil
}

// Invite grants editor access to each email's user id; existing members keep
// their permission.
func (s Service) Invite(ctx context.Context, spaceUUID string, req InviteRequest) ([]domain.UserSpaceMapping, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if _, err := s.spaces.GetSpaceByUUID(ctx, spaceUUID); err != nil {
		return nil, err
	}
	added := []domain.UserSpaceMapping{}
	for _, email := range req.Emails {
		userID := domain.UserIDFromEmail(email)
		if _, err := s.mappings.GetMapping(ctx, userID, spaceUUID); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		mapping := &domain.UserSpaceMapping{UserID: userID, SpaceUUID: spaceUUID, Permission: domain.PermissionEditor}
		if err := s.mappings.UpsertMapping(ctx, mapping); err != nil {
			return nil, err
		}
		added = append(added, *mapping)
		s.logger.Info("user invited", "space_uuid", spaceUUID, "user_id", userID)
	}
	s.hub.Publish(spaceUUID, "members.changed", "space", 0)
	return added, nil
}

// RemoveUser revokes an editor's access.
func (s Service) RemoveUser(ctx context.Context, spaceUUID, userID string) error {
	userID = domain.NormalizeUserID(userID)
	mapping, err := s.mappings.GetMapping(ctx, userID, spaceUUID)
	if err != nil {
		return err
	}
	if mapping.Permission == domain.PermissionOwner {
		return errRemoveOwner
	}
	if err := s.mappings.DeleteMapping(ctx, userID, spaceUUID); err != nil {
		return err
	}
	s.logger.Info("user removed", "space_uuid", spaceUUID, "user_id", userID)
	s.hub.Publish(spaceUUID, "members.changed", "space", 0)
	return nil
}
