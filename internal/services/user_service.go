package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joshua-takyi/rsvpd/internal/helpers"
	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserService struct {
	userRepo models.UserRepo
}

func NewUserService(userRepo models.UserRepo) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

func (us *UserService) Register(ctx context.Context, in *RegisterInput) (*types.SignupResponse, error) {
	in.Name = helpers.SanitizeText(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := models.ValidateStruct(in); err != nil {
		return nil, err
	}

	if !helpers.IsPasswordStrong(in.Password) {
		return nil, models.ValidationError("password must be at least 8 characters with upper and lower case letters, a number and one of @$!%%*?&")
	}

	now := time.Now()
	user := &models.User{
		FullName:  in.Name,
		Email:     in.Email,
		Password:  in.Password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// Rejected signups come back as validation errors; anything else is a
	// provider failure.
	res, err := us.userRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (us *UserService) AuthenticateUser(ctx context.Context, email, password string) (*types.TokenResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := models.Validate.Var(email, "required,email"); err != nil {
		return nil, models.ValidationError("invalid email format")
	}
	if err := models.Validate.Var(password, "required"); err != nil {
		return nil, models.ValidationError("password is required")
	}

	response, err := us.userRepo.AuthenticateUser(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email or password", models.ErrUnauthorized)
	}
	return response, nil
}

func (us *UserService) RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", models.ErrUnauthorized)
	}
	response, err := us.userRepo.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: token refresh failed: %v", models.ErrUnauthorized, err)
	}
	return response, nil
}

func (us *UserService) GetUser(ctx context.Context, id string, accessToken string) (*models.User, error) {
	res, err := us.userRepo.GetUser(ctx, id, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	res.Password = ""
	return res, nil
}
