package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/carlajeanne/plantpal-backend/internal/domain"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error {
	args := m.Called(ctx, userID, refreshToken)
	return args.Error(0)
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	args := m.Called(ctx, email, passwordHash)
	return args.Error(0)
}

type mockReadingRepository struct {
	mock.Mock
}

func (m *mockReadingRepository) Insert(ctx context.Context, moistureLevel float64) (*domain.Reading, error) {
	args := m.Called(ctx, moistureLevel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reading), args.Error(1)
}

func (m *mockReadingRepository) ListSince(ctx context.Context, hours, limit int) ([]domain.Reading, error) {
	args := m.Called(ctx, hours, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Reading), args.Error(1)
}

func (m *mockReadingRepository) Latest(ctx context.Context) (*domain.Reading, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reading), args.Error(1)
}

func (m *mockReadingRepository) Stats(ctx context.Context, hours int) (*domain.Statistics, error) {
	args := m.Called(ctx, hours)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Statistics), args.Error(1)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, toEmail, resetURL string) error {
	args := m.Called(ctx, toEmail, resetURL)
	return args.Error(0)
}
