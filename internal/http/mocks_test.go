package http

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/zaibaki/auth-backend/internal/domain"
	"github.com/zaibaki/auth-backend/internal/repository"
)

type mockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]domain.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return domain.User{}, repository.ErrDuplicateEmail
		}
	}
	m.nextID++
	user.ID = m.nextID
	m.users[user.ID] = user
	return user, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (m *mockUserRepo) Update(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = stored.PasswordHash
	user.Roles = stored.Roles
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = passwordHash
	m.users[id] = user
	return nil
}

func (m *mockUserRepo) SetEmailVerified(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.EmailVerified = true
	m.users[id] = user
	return nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var users []domain.User
	for id := int64(1); id <= m.nextID; id++ {
		if u, ok := m.users[id]; ok {
			users = append(users, u)
		}
	}
	if offset >= len(users) {
		return nil, nil
	}
	users = users[offset:]
	if limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (m *mockUserRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.users, id)
	return nil
}

type mockTokenRepo struct {
	mu     sync.Mutex
	nextID int64
	tokens map[int64]domain.EmailVerificationToken
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[int64]domain.EmailVerificationToken)}
}

func (m *mockTokenRepo) Replace(_ context.Context, token domain.EmailVerificationToken) (domain.EmailVerificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tokens {
		if t.UserID == token.UserID {
			delete(m.tokens, id)
		}
	}
	m.nextID++
	token.ID = m.nextID
	m.tokens[token.ID] = token
	return token, nil
}

func (m *mockTokenRepo) GetByToken(_ context.Context, tokenString string) (domain.EmailVerificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Token == tokenString {
			return t, nil
		}
	}
	return domain.EmailVerificationToken{}, pgx.ErrNoRows
}

func (m *mockTokenRepo) GetByUserID(_ context.Context, userID int64) (domain.EmailVerificationToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == userID {
			return t, nil
		}
	}
	return domain.EmailVerificationToken{}, pgx.ErrNoRows
}

func (m *mockTokenRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.tokens, id)
	return nil
}

type mockEmailSender struct{}

func (mockEmailSender) SendVerification(_ context.Context, _ domain.User, _ string) error {
	return nil
}

func (mockEmailSender) SendWelcome(_ context.Context, _ domain.User) error { return nil }

func (mockEmailSender) SendPasswordReset(_ context.Context, _ domain.User, _ string) error {
	return nil
}
