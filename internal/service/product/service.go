package product

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

// Request carries the editable fields of a product.
type Request struct {
	Name      string       `json:"name" validate:"required,max=255"`
	StartDate *domain.Date `json:"startDate"`
	EndDate   *domain.Date `json:"endDate"`
	Archived  bool         `json:"archived"`
	Notes     string       `json:"notes" validate:"max=500"`
	URL       string       `json:"url" validate:"omitempty,max=255"`
	Location  *domain.Tag  `json:"spaceLocation"`
	Tags      []domain.Tag `json:"tags"`
}

// Service manages the products of a space.
type Service struct {
	products repository.ProductRepository
	hub      *ws.Hub
	logger   *slog.Logger
}

// New constructs a Service.
func New(products repository.ProductRepository, hub *ws.Hub, logger *slog.Logger) Service {
	return Service{products: products, hub: hub, logger: logger}
}

// EventProductsChanged is published on every product mutation.
const EventProductsChanged = "products.changed"

var (
	errDateRange          = fmt.Errorf("%w: endDate must not be before startDate", repository.ErrInvalidArgument)
	errUnassignedReserved = fmt.Errorf("%w: the unassigned product cannot be changed", repository.ErrInvalidArgument)
)

// List returns the space's products; a non-nil date keeps only those active on it.
func (s Service) List(ctx context.Context, spaceUUID string, date *domain.Date) ([]domain.Product, error) {
	products, err := s.products.ListProducts(ctx, spaceUUID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if date != nil && !p.ActiveOn(*date) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Create adds a product; names are unique per space.
func (s Service) Create(ctx context.Context, spaceUUID string, req Request) (*domain.Product, error) {
	product, err := build(spaceUUID, req)
	if err != nil {
		return nil, err
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("product created", "space_uuid", spaceUUID, "product_id", product.ID)
	s.hub.Publish(spaceUUID, EventProductsChanged, "product", product.ID)
	return s.products.GetProduct(ctx, spaceUUID, product.ID)
}

// Update rewrites an existing product.
func (s Service) Update(ctx context.Context, spaceUUID string, id int64, req Request) (*domain.Product, error) {
	existing, err := s.products.GetProduct(ctx, spaceUUID, id)
	if err != nil {
		return nil, err
	}
	if existing.IsUnassigned() {
		return nil, errUnassignedReserved
	}
	product, err := build(spaceUUID, req)
	if err != nil {
		return nil, err
	}
	product.ID = id
	if err := s.products.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	s.logger.Info("product updated", "space_uuid", spaceUUID, "product_id", id)
	s.hub.Publish(spaceUUID, EventProductsChanged, "product", id)
	return s.products.GetProduct(ctx, spaceUUID, id)
}

// Delete removes a product and its assignments.
func (s Service) Delete(ctx context.Context, spaceUUID string, id int64) error {
	existing, err := s.products.GetProduct(ctx, spaceUUID, id)
	if err != nil {
		return err
	}
	if existing.IsUnassigned() {
		return errUnassignedReserved
	}
	if err := s.products.DeleteProduct(ctx, spaceUUID, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", "space_uuid", spaceUUID, "product_id", id)
	s.hub.Publish(spaceUUID, EventProductsChanged, "product", id)
	return nil
}

func build(spaceUUID string, req Request) (*domain.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	if strings.EqualFold(req.Name, domain.UnassignedProductName) {
		return nil, fmt.Errorf("%w: product name %q", repository.ErrConflict, req.Name)
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, errDateRange
	}
	tags := req.Tags
	if tags == nil {
		tags = []domain.Tag{}
	}
	return &domain.Product{
		Name:      req.Name,
		SpaceUUID: spaceUUID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Archived:  req.Archived,
		Notes:     req.Notes,
		URL:       strings.TrimSpace(req.URL),
		Location:  req.Location,
		Tags:      tags,
	}, nil
}
