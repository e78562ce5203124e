package droplocations

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
	"github.com/mountemart/backend/pkg/geo"
)

// CreateInput is a new saved delivery address.
type CreateInput struct {
	UserID   uuid.UUID
	Label    string
	District string
	City     string
	Street   string
	Phone    string
}

// UpdateInput carries the mutable address fields.
type UpdateInput struct {
	Label    string
	District string
	City     string
	Street   string
	Phone    string
}

// Service manages a user's saved delivery addresses. Checkout resolves the
// shipping destination from one of these.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.DropLocation, error)
	Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*models.DropLocation, error)
	Remove(ctx context.Context, userID, id uuid.UUID) error
	Get(ctx context.Context, userID, id uuid.UUID) (*models.DropLocation, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.DropLocation, error)
}

type service struct {
	repo     Repository
	registry *geo.Registry
}

func NewService(repo Repository, registry *geo.Registry) (Service, error) {
	if registry == nil {
		return nil, errors.New("geo registry is required")
	}
	return &service{repo: repo, registry: registry}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.DropLocation, error) {
	district, city, err := s.validatePlace(input.District, input.City)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Street) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "street is required")
	}
	location := &models.DropLocation{
		ID:       uuid.New(),
		UserID:   input.UserID,
		Label:    strings.TrimSpace(input.Label),
		District: district,
		City:     city,
		Street:   strings.TrimSpace(input.Street),
		Phone:    strings.TrimSpace(input.Phone),
	}
	if location.Label == "" {
		location.Label = "Home"
	}
	if err := s.repo.Create(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, input UpdateInput) (*models.DropLocation, error) {
	location, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	district, city, err := s.validatePlace(input.District, input.City)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Street) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "street is required")
	}
	location.Label = strings.TrimSpace(input.Label)
	location.District = district
	location.City = city
	location.Street = strings.TrimSpace(input.Street)
	location.Phone = strings.TrimSpace(input.Phone)
	if err := s.repo.Save(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

func (s *service) Remove(ctx context.Context, userID, id uuid.UUID) error {
	location, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, location.ID)
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*models.DropLocation, error) {
	return s.owned(ctx, userID, id)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.DropLocation, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) owned(ctx context.Context, userID, id uuid.UUID) (*models.DropLocation, error) {
	location, err := s.repo.FindForUser(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "drop location not found")
	}
	if err != nil {
		return nil, err
	}
	return location, nil
}

func (s *service) validatePlace(district, city string) (string, string, error) {
	district = strings.TrimSpace(district)
	city = strings.TrimSpace(city)
	if !s.registry.ValidDistrict(district) {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "unknown district").
			WithDetails(map[string]any{"district": district})
	}
	if !s.registry.ValidCity(district, city) {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "unknown city for district").
			WithDetails(map[string]any{"district": district, "city": city})
	}
	return district, city, nil
}
