package service

import (
	"context"
	"strings"

	"foodshare/internal/auth"
	"foodshare/internal/models"
	"foodshare/internal/repository"
	"foodshare/internal/validation"
)

type UserService struct {
	users repository.UserRepository
}

type RegisterInput struct {
	Username    string   `json:"username" validate:"required"`
	Email       string   `json:"email" validate:"required,email,max=255"`
	Password    string   `json:"password" validate:"required"`
	DisplayName string   `json:"displayName" validate:"max=100"`
	Location    string   `json:"location" validate:"max=255"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

func NewUserService(users repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Register creates an account. The display name defaults to the username.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate(in); err != nil {
		return nil, err
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Username already taken")
	}
	existing, err = s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("Email already registered")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = in.Username
	}
	user := &models.User{
		Username:    in.Username,
		Email:       in.Email,
		Password:    hash,
		DisplayName: displayName,
		Location:    in.Location,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a password against the account named by username or
// email. Unknown accounts and wrong passwords are indistinguishable.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*models.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil && strings.Contains(identifier, "@") {
		user, err = s.users.GetByEmail(ctx, strings.ToLower(identifier))
		if err != nil {
			return nil, err
		}
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}

	ok, err := auth.CheckPassword(user.Password, password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies patch to the caller's own account. The patch type
// has no password field, so the stored hash is never rewritten here.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, patch models.UserPatch) (*models.User, error) {
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		patch.Email = &email
	}
	if err := validate(patch); err != nil {
		return nil, err
	}
	if patch.Email != nil {
		existing, err := s.users.GetByEmail(ctx, *patch.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != userID {
			return nil, models.NewValidationError("Email already registered")
		}
	}
	return s.users.Update(ctx, userID, patch)
}
