package services

import (
	"context"
	"errors"

	"github.com/lorrc/cloudkitchen-backend/internal/core/domain"
	apperrors "github.com/lorrc/cloudkitchen-backend/internal/core/errors"
	"github.com/lorrc/cloudkitchen-backend/internal/core/ports"
)

// AdminAccountService maintains admin accounts for operators
type AdminAccountService struct {
	userRepo ports.UserRepository
}

var _ ports.AdminAccountService = (*AdminAccountService)(nil)

func NewAdminAccountService(userRepo ports.UserRepository) ports.AdminAccountService {
	return &AdminAccountService{userRepo: userRepo}
}

func (s *AdminAccountService) EnsureAdmin(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, bool, error) {
	params.Role = domain.RoleAdmin
	email := domain.NormalizeEmail(params.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.userRepo.UpdateRole(ctx, existing.ID, domain.RoleAdmin, true); err != nil {
			return nil, false, err
		}
		existing.Role = domain.RoleAdmin
		existing.IsActive = true
		return existing, false, nil
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return nil, false, err
	}

	user, err := domain.NewUser(params)
	if err != nil {
		return nil, false, err
	}
	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *AdminAccountService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
}

func (s *AdminAccountService) ResetPassword(ctx context.Context, email, password string) error {
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if user.Role != domain.RoleAdmin {
		return apperrors.ErrForbidden
	}
	if err := user.SetPassword(password); err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, user.PasswordHash)
}
