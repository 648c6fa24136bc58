package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/confera/auth-service/internal/domain"
	"github.com/confera/auth-service/internal/messaging"
	"github.com/confera/auth-service/internal/repository"
	"github.com/google/uuid"
)

// fakeStore is an in-memory stand-in for the credential store,
// implementing both repository interfaces so CreateWithAccount can stay
// atomic.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*domain.User
	accounts map[string]*domain.Account

	failCreate error
	failUpdate error
	failDelete error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*domain.User),
		accounts: make(map[string]*domain.Account),
	}
}

func copyUser(u *domain.User) *domain.User {
	cp := *u
	if u.PasswordHash != nil {
		hash := *u.PasswordHash
		cp.PasswordHash = &hash
	}
	if u.EmailVerifiedAt != nil {
		at := *u.EmailVerifiedAt
		cp.EmailVerifiedAt = &at
	}
	return &cp
}

func (s *fakeStore) CreateWithAccount(ctx context.Context, user *domain.User, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCreate != nil {
		return s.failCreate
	}

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return fmt.Errorf("duplicate: %w", repository.ErrDuplicateEmail)
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	s.users[user.ID] = copyUser(user)

	if account != nil {
		if account.ID == "" {
			account.ID = uuid.New().String()
		}
		account.UserID = user.ID
		cp := *account
		s.accounts[account.ID] = &cp
	}

	return nil
}

func (s *fakeStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, repository.ErrNotFound)
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, ok := s.users[id]; ok {
		return copyUser(user), nil
	}
	return nil, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
}

func (s *fakeStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failUpdate != nil {
		return s.failUpdate
	}
	if _, ok := s.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, repository.ErrNotFound)
	}
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failDelete != nil {
		return s.failDelete
	}
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	delete(s.users, id)
	return nil
}

func (s *fakeStore) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		all = append(all, copyUser(user))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *fakeStore) Create(ctx context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	cp := *account
	s.accounts[account.ID] = &cp
	return nil
}

func (s *fakeStore) GetByUserAndType(ctx context.Context, userID, accountType string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.UserID == userID && account.Type == accountType {
			cp := *account
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("account for %s: %w", userID, repository.ErrNotFound)
}

func (s *fakeStore) GetByProvider(ctx context.Context, provider, providerAccountID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.Provider == provider && account.ProviderAccountID == providerAccountID {
			cp := *account
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("account for %s: %w", provider, repository.ErrNotFound)
}

func (s *fakeStore) GetByUserID(ctx context.Context, userID string) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var accounts []*domain.Account
	for _, account := range s.accounts {
		if account.UserID == userID {
			cp := *account
			accounts = append(accounts, &cp)
		}
	}
	return accounts, nil
}

func (s *fakeStore) userCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func (s *fakeStore) accountCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accounts)
}

// fakeDispatcher records published envelopes and can be told to fail.
type fakeDispatcher struct {
	mu         sync.Mutex
	emails     []messaging.EmailEnvelope
	profiles   []messaging.SpeakerEnvelope
	emailErr   error
	profileErr error
}

func (d *fakeDispatcher) PublishEmail(ctx context.Context, msgType string, msg messaging.EmailMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.emailErr != nil {
		return d.emailErr
	}
	d.emails = append(d.emails, messaging.EmailEnvelope{Type: msgType, Message: msg})
	return nil
}

func (d *fakeDispatcher) PublishSpeakerProfile(ctx context.Context, profile messaging.SpeakerProfile) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.profileErr != nil {
		return d.profileErr
	}
	d.profiles = append(d.profiles, messaging.SpeakerEnvelope{Type: "speaker.profile.create", Data: profile})
	return nil
}

func (d *fakeDispatcher) sentEmails() []messaging.EmailEnvelope {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]messaging.EmailEnvelope(nil), d.emails...)
}

func (d *fakeDispatcher) sentProfiles() []messaging.SpeakerEnvelope {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]messaging.SpeakerEnvelope(nil), d.profiles...)
}
