package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Alex1231123112/manager/models"
	"github.com/Alex1231123112/manager/repositories"
	"github.com/Alex1231123112/manager/utils"
)

type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (*models.Admin, error)
	// EnsureAdmin создает администратора или меняет ему пароль.
	EnsureAdmin(ctx context.Context, username, password string) (*models.Admin, error)
	GetAdmin(ctx context.Context, username string) (*models.Admin, error)
}

type authService struct {
	adminRepo repositories.AdminRepository
}

func NewAuthService(adminRepo repositories.AdminRepository) AuthService {
	return &authService{adminRepo: adminRepo}
}

func (s *authService) Login(ctx context.Context, creds models.Credentials) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, strings.TrimSpace(creds.Username))
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}

	if !utils.CheckPasswordHash(creds.Password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	admin.PasswordHash = ""
	return admin, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, username, password string) (*models.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidationFailed)
	}
	if len(password) < utils.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	admin := &models.Admin{Username: username, PasswordHash: hash}
	if err := s.adminRepo.Upsert(ctx, admin); err != nil {
		return nil, err
	}
	admin.PasswordHash = ""
	return admin, nil
}

func (s *authService) GetAdmin(ctx context.Context, username string) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	admin.PasswordHash = ""
	return admin, nil
}
