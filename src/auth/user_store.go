package auth

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"tabledb/src/helpers"
)

// UserStore keeps connection credentials in memory.
type UserStore struct {
	mu     sync.RWMutex
	users  map[string]User
	params Params
}

func NewUserStore(params Params) *UserStore {
	return &UserStore{
		users:  make(map[string]User),
		params: params,
	}
}

// AddUser hashes password and stores a new user.
func (s *UserStore) AddUser(username, password string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	hash, err := HashPassword(password, s.params)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return fmt.Errorf("%w: %s", ErrUserAlreadyExists, username)
	}
	s.users[username] = User{
		ID:           helpers.GenerateUUID(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	return nil
}

// VerifyCredentials checks username and password. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (s *UserStore) VerifyCredentials(username, password string) (*User, error) {
	s.mu.RLock()
	user, exists := s.users[username]
	s.mu.RUnlock()

	if !exists || !user.PasswordHash.Matches(password) {
		return nil, ErrInvalidCredentials
	}

	return &User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		// Don't include password
	}, nil
}

// ListUsers returns all usernames, sorted.
func (s *UserStore) ListUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usernames := make([]string, 0, len(s.users))
	for name := range s.users {
		usernames = append(usernames, name)
	}
	sort.Strings(usernames)
	return usernames
}
