package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/carlajeanne/plantpal-backend/internal/auth"
	"github.com/carlajeanne/plantpal-backend/internal/domain"
	apperrors "github.com/carlajeanne/plantpal-backend/pkg/errors"
)

type authTestFixture struct {
	svc    *AuthService
	users  *mockUserRepository
	mail   *mockMailer
	tokens *auth.JWTManager
}

func newAuthTestFixture(t *testing.T) *authTestFixture {
	t.Helper()

	users := new(mockUserRepository)
	mail := new(mockMailer)
	tokens := auth.NewJWTManager(
		"test-access-secret", "test-refresh-secret",
		time.Hour, 720*time.Hour, time.Hour,
	)
	logger := slog.New(slog.DiscardHandler)

	return &authTestFixture{
		svc:    NewAuthService(users, tokens, mail, "http://localhost:5173", logger),
		users:  users,
		mail:   mail,
		tokens: tokens,
	}
}

func hashedUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           "u-1",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		FullName:     "Alice Smith",
		Role:         domain.RoleUser,
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthTestFixture(t)

	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "alice@example.com" &&
			u.Role == domain.RoleUser &&
			u.ID != "" &&
			u.PasswordHash != "secret1!"
	})).Return(nil)

	user, err := f.svc.Register(context.Background(), "alice@example.com", "secret1!", "Alice Smith")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1!")))
	f.users.AssertExpectations(t)
}

func TestAuthService_Register_PreservesEmailCase(t *testing.T) {
	f := newAuthTestFixture(t)

	f.users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "Alice@Example.com"
	})).Return(nil)

	user, err := f.svc.Register(context.Background(), "Alice@Example.com", "secret1!", "Alice Smith")
	require.NoError(t, err)
	assert.Equal(t, "Alice@Example.com", user.Email, "email must be stored exactly as presented")
	f.users.AssertExpectations(t)
}

func TestAuthService_Login_TokenClaimsCarryEmailAsStored(t *testing.T) {
	f := newAuthTestFixture(t)
	user := hashedUser(t, "secret1!")
	user.Email = "Alice@Example.com"

	f.users.On("GetByEmail", mock.Anything, "Alice@Example.com").Return(user, nil)
	f.users.On("UpdateRefreshToken", mock.Anything, "u-1", mock.AnythingOfType("string")).Return(nil)

	_, session, err := f.svc.Login(context.Background(), "Alice@Example.com", "secret1!")
	require.NoError(t, err)

	claims, err := f.tokens.ValidateAccessToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "Alice@Example.com", claims.Email, "claims must carry the stored email form, not a normalization")
}

func TestAuthService_Register_InvalidEmail(t *testing.T) {
	f := newAuthTestFixture(t)

	for _, email := range []string{"", "plainaddress", "no-at.example.com", "two@@example.com", "trailing@domain"} {
		_, err := f.svc.Register(context.Background(), email, "secret1!", "Alice")
		require.Error(t, err, "email %q should be rejected", email)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	}
	f.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	f := newAuthTestFixture(t)

	tests := []struct {
		name     string
		password string
	}{
		{"too short", "ab1!"},
		{"no digit or symbol", "onlyletters"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), "alice@example.com", tt.password, "Alice")
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
		})
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	f := newAuthTestFixture(t)

	f.users.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("user", "email", "alice@example.com"))

	_, err := f.svc.Register(context.Background(), "alice@example.com", "secret1!", "Alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	f := newAuthTestFixture(t)
	user := hashedUser(t, "secret1!")

	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)
	f.users.On("UpdateRefreshToken", mock.Anything, "u-1", mock.AnythingOfType("string")).Return(nil)

	got, session, err := f.svc.Login(context.Background(), "alice@example.com", "secret1!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	require.NotEmpty(t, session.Token)
	require.NotEmpty(t, session.RefreshToken)

	// Issued tokens must verify against the manager that signed them.
	claims, err := f.tokens.ValidateAccessToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)

	refreshClaims, err := f.tokens.ValidateRefreshToken(session.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", refreshClaims.UserID)

	f.users.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	f := newAuthTestFixture(t)
	user := hashedUser(t, "secret1!")

	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

	_, _, err := f.svc.Login(context.Background(), "alice@example.com", "wrong-pass1!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	f.users.AssertNotCalled(t, "UpdateRefreshToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login_UnknownEmail_SameErrorAsWrongPassword(t *testing.T) {
	f := newAuthTestFixture(t)
	user := hashedUser(t, "secret1!")

	f.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperrors.ErrNotFound)
	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

	_, _, errUnknown := f.svc.Login(context.Background(), "ghost@example.com", "secret1!")
	_, _, errWrongPass := f.svc.Login(context.Background(), "alice@example.com", "bad-pass1!")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPass)
	assert.Equal(t, errWrongPass.Error(), errUnknown.Error(),
		"unknown email and wrong password must be indistinguishable")
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func TestAuthService_Refresh_Success(t *testing.T) {
	f := newAuthTestFixture(t)

	refreshToken, err := f.tokens.GenerateRefreshToken("u-1", "alice@example.com")
	require.NoError(t, err)

	user := hashedUser(t, "secret1!")
	user.RefreshToken = &refreshToken

	f.users.On("GetByID", mock.Anything, "u-1").Return(user, nil)

	accessToken, err := f.svc.Refresh(context.Background(), refreshToken)
	require.NoError(t, err)

	claims, err := f.tokens.ValidateAccessToken(accessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
}

func TestAuthService_Refresh_GarbageToken(t *testing.T) {
	f := newAuthTestFixture(t)

	_, err := f.svc.Refresh(context.Background(), "not-a-jwt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	f.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAuthService_Refresh_SupersededToken(t *testing.T) {
	f := newAuthTestFixture(t)

	// A structurally valid token that is not the one currently stored: a
	// later login has overwritten it.
	oldToken, err := f.tokens.GenerateRefreshToken("u-1", "alice@example.com")
	require.NoError(t, err)

	stored := "a-different-stored-token"
	user := hashedUser(t, "secret1!")
	user.RefreshToken = &stored

	f.users.On("GetByID", mock.Anything, "u-1").Return(user, nil)

	_, err = f.svc.Refresh(context.Background(), oldToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthService_Refresh_NoStoredToken(t *testing.T) {
	f := newAuthTestFixture(t)

	token, err := f.tokens.GenerateRefreshToken("u-1", "alice@example.com")
	require.NoError(t, err)

	user := hashedUser(t, "secret1!")

	f.users.On("GetByID", mock.Anything, "u-1").Return(user, nil)

	_, err = f.svc.Refresh(context.Background(), token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthService_Refresh_AccessTokenRejected(t *testing.T) {
	f := newAuthTestFixture(t)

	// An access token signed with the access secret must not pass refresh
	// validation, which uses the refresh secret.
	accessToken, err := f.tokens.GenerateAccessToken("u-1", "alice@example.com", domain.RoleUser)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), accessToken)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

// ---------------------------------------------------------------------------
// VerifyAccessToken
// ---------------------------------------------------------------------------

func TestAuthService_VerifyAccessToken(t *testing.T) {
	f := newAuthTestFixture(t)

	token, err := f.tokens.GenerateAccessToken("u-1", "alice@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	claims, err := f.svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestAuthService_VerifyAccessToken_Expired(t *testing.T) {
	expired := auth.NewJWTManager(
		"test-access-secret", "test-refresh-secret",
		-time.Minute, 720*time.Hour, time.Hour,
	)
	token, err := expired.GenerateAccessToken("u-1", "alice@example.com", domain.RoleUser)
	require.NoError(t, err)

	f := newAuthTestFixture(t)
	_, err = f.svc.VerifyAccessToken(token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

// ---------------------------------------------------------------------------
// ForgotPassword / ResetPassword
// ---------------------------------------------------------------------------

func TestAuthService_ForgotPassword_SendsResetLink(t *testing.T) {
	f := newAuthTestFixture(t)
	user := hashedUser(t, "secret1!")

	f.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	f.mail.On("SendPasswordReset", mock.Anything, "alice@example.com",
		mock.MatchedBy(func(u string) bool {
			return strings.HasPrefix(u, "http://localhost:5173/reset-password?token=")
		})).
		Run(func(mock.Arguments) { wg.Done() }).
		Return(nil)

	err := f.svc.ForgotPassword(context.Background(), "alice@example.com")
	require.NoError(t, err)

	wg.Wait()
	f.mail.AssertExpectations(t)
}

func TestAuthService_ForgotPassword_UnknownEmail(t *testing.T) {
	f := newAuthTestFixture(t)

	f.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	err := f.svc.ForgotPassword(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	f.mail.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ResetPassword_Success(t *testing.T) {
	f := newAuthTestFixture(t)

	token, err := f.tokens.GenerateResetToken("alice@example.com")
	require.NoError(t, err)

	f.users.On("UpdatePassword", mock.Anything, "alice@example.com",
		mock.MatchedBy(func(hash string) bool {
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-pass1!")) == nil
		})).Return(nil)

	err = f.svc.ResetPassword(context.Background(), token, "new-pass1!")
	require.NoError(t, err)
	f.users.AssertExpectations(t)
}

func TestAuthService_ResetPassword_InvalidToken(t *testing.T) {
	f := newAuthTestFixture(t)

	err := f.svc.ResetPassword(context.Background(), "garbage", "new-pass1!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ResetPassword_RefreshTokenRejected(t *testing.T) {
	f := newAuthTestFixture(t)

	// Refresh tokens are signed with a different secret; they must not be
	// usable as reset tokens.
	token, err := f.tokens.GenerateRefreshToken("u-1", "alice@example.com")
	require.NoError(t, err)

	err = f.svc.ResetPassword(context.Background(), token, "new-pass1!")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthService_ResetPassword_WeakPassword(t *testing.T) {
	f := newAuthTestFixture(t)

	token, err := f.tokens.GenerateResetToken("alice@example.com")
	require.NoError(t, err)

	err = f.svc.ResetPassword(context.Background(), token, "short")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

// ---------------------------------------------------------------------------
// Profile / ListUsers
// ---------------------------------------------------------------------------

func TestAuthService_Profile(t *testing.T) {
	f := newAuthTestFixture(t)
	user := hashedUser(t, "secret1!")

	f.users.On("GetByID", mock.Anything, "u-1").Return(user, nil)

	got, err := f.svc.Profile(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestAuthService_Profile_NotFound(t *testing.T) {
	f := newAuthTestFixture(t)

	f.users.On("GetByID", mock.Anything, "ghost").Return(nil, apperrors.ErrNotFound)

	_, err := f.svc.Profile(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAuthService_ListUsers(t *testing.T) {
	f := newAuthTestFixture(t)

	f.users.On("List", mock.Anything).Return([]domain.User{*hashedUser(t, "secret1!")}, nil)

	users, err := f.svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
