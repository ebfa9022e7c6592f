package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/nfcstore/internal/apperr"
	"github.com/tuanvumaihuynh/nfcstore/internal/auth"
	"github.com/tuanvumaihuynh/nfcstore/internal/model"
	"github.com/tuanvumaihuynh/nfcstore/internal/repository"
	"github.com/tuanvumaihuynh/nfcstore/internal/storage/db"
	"github.com/tuanvumaihuynh/nfcstore/pkg/validator"
)

const (
	emailTakenMsg      = "A user with this email already exists."
	passwordSimilarMsg = "The password is too similar to the email."
)

type RegisterParams struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=128,notnumeric,notcommon"`
	FullName string `json:"full_name" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=32"`
}

type CreateStaffParams struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=128,notnumeric,notcommon"`
	Name      string `json:"name" validate:"max=255"`
	Superuser bool   `json:"-"`
}

type LoginParams struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthService interface {
	Register(ctx context.Context, params RegisterParams) (model.User, error)
	// CreateStaff provisions a staff identity, optionally with superuser rights.
	CreateStaff(ctx context.Context, params CreateStaffParams) (model.User, error)
	// Login verifies credentials and issues a token pair. Every credential
	// failure returns apperr.InvalidCredentialsErr.
	Login(ctx context.Context, params LoginParams) (model.User, auth.TokenPair, error)
	// Refresh exchanges a refresh token for a new access token.
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

type authService struct {
	userRepo  repository.UserRepository
	tokens    *auth.TokenIssuer
	hasher    auth.PasswordHasher
	validator validator.Validator

	// dummyHash is compared against when the email is unknown.
	dummyHash func() (string, error)
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokens *auth.TokenIssuer,
	hasher auth.PasswordHasher,
	v validator.Validator,
) AuthService {
	return &authService{
		userRepo:  userRepo,
		tokens:    tokens,
		hasher:    hasher,
		validator: v,
		dummyHash: sync.OnceValues(func() (string, error) {
			return hasher.Hash(uuid.NewString())
		}),
	}
}

func (s *authService) Register(ctx context.Context, params RegisterParams) (model.User, error) {
	params.Email = normalizeEmail(params.Email)
	params.FullName = strings.TrimSpace(params.FullName)
	params.Phone = strings.TrimSpace(params.Phone)

	if err := s.validator.Validate(params); err != nil {
		return model.User{}, err
	}

	return s.createUser(ctx, model.User{
		Email: params.Email,
		Name:  params.FullName,
		Phone: params.Phone,
	}, params.Password)
}

func (s *authService) CreateStaff(ctx context.Context, params CreateStaffParams) (model.User, error) {
	params.Email = normalizeEmail(params.Email)
	params.Name = strings.TrimSpace(params.Name)

	if err := s.validator.Validate(params); err != nil {
		return model.User{}, err
	}

	return s.createUser(ctx, model.User{
		Email:       params.Email,
		Name:        params.Name,
		IsStaff:     true,
		IsSuperuser: params.Superuser,
	}, params.Password)
}

func (s *authService) createUser(ctx context.Context, user model.User, password string) (model.User, error) {
	if validator.IsSimilarPassword(password, user.Email, user.Name) {
		return model.User{}, apperr.FieldInvalid("password", passwordSimilarMsg)
	}

	exists, err := s.userRepo.ExistsUserByEmail(ctx, user.Email)
	if err != nil {
		return model.User{}, fmt.Errorf("user repository exists user by email: %w", err)
	}
	if exists {
		return model.User{}, apperr.FieldInvalid("email", emailTakenMsg)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.User{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.User{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	user.ID = id
	user.PasswordHash = hash
	user.IsActive = true
	user.CreatedAt = time.Now()

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if constraint, ok := db.UniqueViolation(err); ok && constraint == repository.UserEmailConstraint {
			return model.User{}, apperr.FieldInvalid("email", emailTakenMsg).WrapParent(err)
		}
		return model.User{}, fmt.Errorf("user repository create user: %w", err)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, params LoginParams) (model.User, auth.TokenPair, error) {
	params.Email = normalizeEmail(params.Email)
	if err := s.validator.Validate(params); err != nil {
		return model.User{}, auth.TokenPair{}, err
	}

	user, err := s.userRepo.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return model.User{}, auth.TokenPair{}, fmt.Errorf("user repository get user by email: %w", err)
		}

		hash, err := s.dummyHash()
		if err != nil {
			return model.User{}, auth.TokenPair{}, err
		}
		//nolint:errcheck
		s.hasher.Compare(hash, params.Password)
		return model.User{}, auth.TokenPair{}, apperr.InvalidCredentialsErr
	}

	ok, err := s.hasher.Compare(user.PasswordHash, params.Password)
	if err != nil {
		return model.User{}, auth.TokenPair{}, err
	}
	if !ok || !user.IsActive {
		return model.User{}, auth.TokenPair{}, apperr.InvalidCredentialsErr
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return model.User{}, auth.TokenPair{}, fmt.Errorf("issue token pair: %w", err)
	}

	return user, pair, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperr.NotAuthenticatedErr
	}

	userID, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return "", apperr.TokenNotValidErr.WrapParent(err)
	}

	user, err := auth.LoadActiveUser(ctx, s.userRepo, userID)
	if err != nil {
		return "", err
	}

	access, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}

	return access, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
