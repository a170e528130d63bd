package auth

import (
	"context"
	"testing"

	"elearn/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if u != nil {
		u.ID = 42
	}
	return args.Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type fakeIssuer struct{}

func (fakeIssuer) GenerateToken(userID int64, role, name string, allowManualPrice bool) (string, error) {
	return "token-for-" + role, nil
}

func TestRegister(t *testing.T) {
	t.Run("creates a student with a hashed password", func(t *testing.T) {
		users := &MockUserStore{}
		svc := NewService(users, fakeIssuer{})

		users.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, gorm.ErrRecordNotFound)
		users.On("Create", mock.Anything, mock.Anything).Return(nil)

		user, err := svc.Register(context.Background(), RegisterRequest{
			Email: "New@Example.com ", Password: "s3cret-pass", FirstName: "Nina",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleStudent, user.Role)
		assert.Equal(t, "new@example.com", user.Email)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pass")))
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		users := &MockUserStore{}
		svc := NewService(users, fakeIssuer{})

		users.On("GetByEmail", mock.Anything, "taken@example.com").Return(&domain.User{ID: 1}, nil)

		_, err := svc.Register(context.Background(), RegisterRequest{
			Email: "taken@example.com", Password: "s3cret-pass", FirstName: "Nina",
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
		users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestLogin(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.DefaultCost)
	seller := &domain.User{
		ID: 10, Email: "sam@example.com", PasswordHash: string(hash),
		Role: domain.RoleSeller, FirstName: "Sam", AllowManualPrice: true,
	}

	t.Run("valid credentials issue a token", func(t *testing.T) {
		users := &MockUserStore{}
		svc := NewService(users, fakeIssuer{})
		users.On("GetByEmail", mock.Anything, "sam@example.com").Return(seller, nil)

		resp, err := svc.Login(context.Background(), LoginRequest{Email: "Sam@Example.com", Password: "s3cret-pass"})
		require.NoError(t, err)
		assert.Equal(t, "token-for-seller", resp.Token)
		assert.Equal(t, seller, resp.User)
	})

	t.Run("wrong password", func(t *testing.T) {
		users := &MockUserStore{}
		svc := NewService(users, fakeIssuer{})
		users.On("GetByEmail", mock.Anything, "sam@example.com").Return(seller, nil)

		_, err := svc.Login(context.Background(), LoginRequest{Email: "sam@example.com", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email gets the same error as a wrong password", func(t *testing.T) {
		users := &MockUserStore{}
		svc := NewService(users, fakeIssuer{})
		users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "whatever"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
