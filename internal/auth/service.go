package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aakashmid/Ecommerce-chatbot/internal/users"
	pkgauth "github.com/Aakashmid/Ecommerce-chatbot/pkg/auth"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/config"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/db/models"
	pkgerrors "github.com/Aakashmid/Ecommerce-chatbot/pkg/errors"
	"github.com/Aakashmid/Ecommerce-chatbot/pkg/security"
)

// RefreshTokenStore is the Redis surface the auth flow needs.
type RefreshTokenStore interface {
	StoreRefreshToken(ctx context.Context, userID, token string, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, userID string) (string, error)
	RevokeRefreshToken(ctx context.Context, userID string) error
}

// Service defines registration and credential operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*SessionDTO, error)
	Login(ctx context.Context, input LoginInput) (*SessionDTO, error)
	Refresh(ctx context.Context, input RefreshInput) (*TokenPairDTO, error)
	Logout(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo   users.Repository
	tokens RefreshTokenStore
	jwtCfg config.JWTConfig
	pwCfg  config.PasswordConfig
	now    func() time.Time
}

// NewService builds the auth service.
func NewService(repo users.Repository, tokens RefreshTokenStore, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("refresh token store required")
	}
	return &service{
		repo:   repo,
		tokens: tokens,
		jwtCfg: jwtCfg,
		pwCfg:  pwCfg,
		now:    time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*SessionDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.repo.FindUserByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	} else if !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking email")
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		IsActive:     true,
	}
	if input.Phone != "" {
		user.Phone = &input.Phone
	}
	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating user")
	}

	return s.issueSession(ctx, created)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*SessionDTO, error) {
	user, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	now := s.now().UTC()
	if err := s.repo.UpdateUser(ctx, user.ID, map[string]any{"last_login_at": now}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording login")
	}
	user.LastLoginAt = &now

	return s.issueSession(ctx, user)
}

// Refresh rotates the token pair. The expired access token proves which user
// the refresh token belongs to; the stored token must match exactly.
func (s *service) Refresh(ctx context.Context, input RefreshInput) (*TokenPairDTO, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, input.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	stored, err := s.tokens.GetRefreshToken(ctx, claims.UserID.String())
	if err != nil || stored == "" || stored != input.RefreshToken {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	user, err := s.repo.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *service) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.tokens.RevokeRefreshToken(ctx, userID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking refresh token")
	}
	return nil
}

func (s *service) issueSession(ctx context.Context, user *models.User) (*SessionDTO, error) {
	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	return &SessionDTO{
		User:   users.NewUserDTO(user),
		Tokens: *pair,
	}, nil
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (*TokenPairDTO, error) {
	access, err := pkgauth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgauth.AccessTokenPayload{
		UserID:  user.ID,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	refresh := uuid.NewString()
	if err := s.tokens.StoreRefreshToken(ctx, user.ID.String(), refresh, s.jwtCfg.RefreshTokenTTL()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing refresh token")
	}

	return &TokenPairDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.jwtCfg.ExpirationMinutes * 60,
		TokenType:    "Bearer",
	}, nil
}
