package repository

import (
	"github.com/confera/auth-service/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User    UserRepository
	Account AccountRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Account: NewAccountRepository(db),
	}
}
