package repository

import (
	"context"

	"github.com/confera/auth-service/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	// CreateWithAccount inserts the user and its account link in a
	// single transaction. Registration relies on this atomicity.
	CreateWithAccount(ctx context.Context, user *domain.User, account *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// Delete removes a user row. Used as the compensating action when
	// a post-persistence step of registration fails.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

// AccountRepository defines methods for account link operations
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByUserAndType(ctx context.Context, userID, accountType string) (*domain.Account, error)
	GetByProvider(ctx context.Context, provider, providerAccountID string) (*domain.Account, error)
	GetByUserID(ctx context.Context, userID string) ([]*domain.Account, error)
}
