package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/carlajeanne/plantpal-backend/internal/auth"
	"github.com/carlajeanne/plantpal-backend/internal/domain"
	"github.com/carlajeanne/plantpal-backend/internal/mailer"
	"github.com/carlajeanne/plantpal-backend/internal/repository"
	apperrors "github.com/carlajeanne/plantpal-backend/pkg/errors"
)

const bcryptCost = 10

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitOrSymbol = regexp.MustCompile(`[0-9!@#$%^&*]`)
)

// AuthService implements account registration and the token lifecycle.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.JWTManager
	mail      mailer.Mailer
	clientURL string
	logger    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, tokens *auth.JWTManager, mail mailer.Mailer, clientURL string, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		mail:      mail,
		clientURL: strings.TrimRight(clientURL, "/"),
		logger:    logger,
	}
}

// Register creates a new account with the default user role. The email is
// stored exactly as presented; lookups are case-sensitive against the
// stored form.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*domain.User, error) {
	email = strings.TrimSpace(email)

	if !emailPattern.MatchString(email) {
		return nil, apperrors.InvalidInput("invalid email format")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, apperrors.InvalidInput("full name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login verifies credentials and issues a fresh access/refresh token pair.
// The refresh token replaces whatever token was stored before, so a login on
// a second device invalidates the first device's refresh token.
//
// Unknown email and wrong password both return the same generic error, which
// keeps the endpoint from leaking which addresses have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return nil, nil, fmt.Errorf("store refresh token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return user, &domain.Session{Token: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The
// presented token must match the one currently stored on the account
// byte-for-byte; a token superseded by a later login is rejected even though
// its signature and expiry are still good. The stored refresh token is not
// rotated here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.Unauthorized("invalid or expired refresh token")
		}
		return "", err
	}

	if user.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(*user.RefreshToken), []byte(refreshToken)) != 1 {
		return "", apperrors.Unauthorized("refresh token no longer valid")
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}

	return accessToken, nil
}

// VerifyAccessToken checks an access token's signature and expiry and returns
// the identity it carries. No store access is involved.
func (s *AuthService) VerifyAccessToken(tokenString string) (*domain.TokenClaims, error) {
	claims, err := s.tokens.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	return &domain.TokenClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// ForgotPassword issues a short-lived reset token for the account and emails
// a reset link. The mail is sent in the background so a slow SMTP server
// cannot stall the request; a delivery failure is logged, and the user can
// simply request another link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundMsg("no account found with that email")
		}
		return err
	}

	resetToken, err := s.tokens.GenerateResetToken(user.Email)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.clientURL, url.QueryEscape(resetToken))

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.mail.SendPasswordReset(sendCtx, user.Email, resetURL); err != nil {
			s.logger.Error("failed to send password reset email",
				slog.String("email", user.Email),
				slog.Any("error", err),
			)
		}
	}()

	s.logger.InfoContext(ctx, "password reset requested", slog.String("email", user.Email))

	return nil
}

// ResetPassword validates the reset token and overwrites the password for
// the email embedded in it. Reset tokens are single-purpose but not
// single-use: they stay usable until they expire an hour after issue.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.ValidateResetToken(token)
	if err != nil {
		return apperrors.Unauthorized("invalid or expired reset token")
	}

	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, claims.Email, string(hash)); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFoundMsg("no account found with that email")
		}
		return err
	}

	s.logger.InfoContext(ctx, "password reset completed", slog.String("email", claims.Email))

	return nil
}

// Profile returns the account for the given user ID with sensitive fields
// left for the JSON encoder to strip.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("user", userID)
		}
		return nil, err
	}
	return user, nil
}

// ListUsers returns every registered account, newest first.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// validatePassword enforces the minimum password policy: at least eight
// characters with at least one digit or special character.
func validatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.InvalidInput("password must be at least 8 characters long")
	}
	if !digitOrSymbol.MatchString(password) {
		return apperrors.InvalidInput("password must contain at least one number or special character")
	}
	return nil
}
