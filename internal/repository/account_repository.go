package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/confera/auth-service/internal/domain"
	"github.com/confera/auth-service/pkg/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *database.Postgres
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.Postgres) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new account link
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, type, provider, provider_account_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		account.ID,
		account.UserID,
		account.Type,
		account.Provider,
		account.ProviderAccountID,
		account.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return fmt.Errorf("account link for user %s already exists: %w", account.UserID, ErrDuplicateAccount)
		}
		return fmt.Errorf("failed to create account link: %w", err)
	}

	return nil
}

// GetByUserAndType retrieves an account link by user and credential type
func (r *accountRepository) GetByUserAndType(ctx context.Context, userID, accountType string) (*domain.Account, error) {
	query := `
		SELECT id, user_id, type, provider, provider_account_id, created_at
		FROM accounts
		WHERE user_id = $1 AND type = $2
	`

	account := &domain.Account{}
	err := r.db.DB.QueryRowContext(ctx, query, userID, accountType).Scan(
		&account.ID,
		&account.UserID,
		&account.Type,
		&account.Provider,
		&account.ProviderAccountID,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account link for user %s not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account link: %w", err)
	}

	return account, nil
}

// GetByProvider retrieves an account link by provider and provider account id
func (r *accountRepository) GetByProvider(ctx context.Context, provider, providerAccountID string) (*domain.Account, error) {
	query := `
		SELECT id, user_id, type, provider, provider_account_id, created_at
		FROM accounts
		WHERE provider = $1 AND provider_account_id = $2
	`

	account := &domain.Account{}
	err := r.db.DB.QueryRowContext(ctx, query, provider, providerAccountID).Scan(
		&account.ID,
		&account.UserID,
		&account.Type,
		&account.Provider,
		&account.ProviderAccountID,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account for provider %s not found: %w", provider, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get account by provider: %w", err)
	}

	return account, nil
}

// GetByUserID retrieves all account links for a user
func (r *accountRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Account, error) {
	query := `
		SELECT id, user_id, type, provider, provider_account_id, created_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account links: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account := &domain.Account{}
		err := rows.Scan(
			&account.ID,
			&account.UserID,
			&account.Type,
			&account.Provider,
			&account.ProviderAccountID,
			&account.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account link: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account links: %w", err)
	}

	return accounts, nil
}
