package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mountemart/backend/pkg/db/models"
	pkgerrors "github.com/mountemart/backend/pkg/errors"
)

// Service exposes profile reads and the cashback opt-in flag.
type Service interface {
	Profile(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	SetCashbackPreference(ctx context.Context, id uuid.UUID, enabled bool) error
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Profile(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(user), nil
}

func (s *service) SetCashbackPreference(ctx context.Context, id uuid.UUID, enabled bool) error {
	if _, err := s.FindUserByID(ctx, id); err != nil {
		return err
	}
	return s.repo.SetCashbackEnabled(ctx, id, enabled)
}

func (s *service) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
