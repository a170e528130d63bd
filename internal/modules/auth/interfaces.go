package auth

import (
	"context"

	"elearn/internal/domain"
)

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type tokenIssuer interface {
	GenerateToken(userID int64, role, name string, allowManualPrice bool) (string, error)
}
