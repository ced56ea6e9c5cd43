package tag

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/FordLabs/PeopleMover/internal/domain"
	"github.com/FordLabs/PeopleMover/internal/repository"
	"github.com/FordLabs/PeopleMover/internal/validation"
	"github.com/FordLabs/PeopleMover/internal/ws"
)

// Request carries a tag name.
type Request struct {
	Name string `json:"name" validate:"required,max=255"`
}

// Service manages product, location and person tags.
type Service struct {
	tags   repository.TagRepository
	hub    *ws.Hub
	logger *slog.Logger
}

// New constructs a Service.
func New(tags repository.TagRepository, hub *ws.Hub, logger *slog.Logger) Service {
	return Service{tags: tags, hub: hub, logger: logger}
}

func event(kind domain.TagKind) string {
	return string(kind) + "_tags.changed"
}

// List returns the space's tags of one kind sorted case-insensitively.
func (s Service) List(ctx context.Context, kind domain.TagKind, spaceUUID string) ([]domain.Tag, error) {
	tags, err := s.tags.ListTags(ctx, kind, spaceUUID)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	sort.SliceStable(tags, func(i, j int) bool {
		return strings.ToLower(tags[i].Name) < strings.ToLower(tags[j].Name)
	})
	return tags, nil
}

// Create adds a tag; names are unique per kind and space.
func (s Service) Create(ctx context.Context, kind domain.TagKind, spaceUUID string, req Request) (*domain.Tag, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	tag := &domain.Tag{Name: req.Name, SpaceUUID: spaceUUID}
	if err := s.tags.CreateTag(ctx, kind, tag); err != nil {
		return nil, err
	}
	s.logger.Info("tag created", "space_uuid", spaceUUID, "kind", kind, "tag_id", tag.ID)
	s.hub.Publish(spaceUUID, event(kind), "tag", tag.ID)
	return tag, nil
}

// Update renames a tag.
func (s Service) Update(ctx context.Context, kind domain.TagKind, spaceUUID string, id int64, req Request) (*domain.Tag, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	tag := &domain.Tag{ID: id, Name: req.Name, SpaceUUID: spaceUUID}
	if err := s.tags.UpdateTag(ctx, kind, tag); err != nil {
		return nil, err
	}
	s.logger.Info("tag updated", "space_uuid", spaceUUID, "kind", kind, "tag_id", id)
	s.hub.Publish(spaceUUID, event(kind), "tag", id)
	return tag, nil
}

// Delete removes a tag.
func (s Service) Delete(ctx context.Context, kind domain.TagKind, spaceUUID string, id int64) error {
	if err := s.tags.DeleteTag(ctx, kind, spaceUUID, id); err != nil {
		return err
	}
	s.logger.Info("tag deleted", "space_uuid", spaceUUID, "kind", kind, "tag_id", id)
	s.hub.Publish(spaceUUID, event(kind), "tag", id)
	return nil
}
