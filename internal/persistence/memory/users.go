package memory

import (
	"context"
	"fmt"

	"github.com/tarushsinha/ATHOS/internal/domain"
	"github.com/tarushsinha/ATHOS/internal/identity"
)

// CreateUser implements identity.UserStore.
func (s *Store) CreateUser(ctx context.Context, user identity.User) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.st.users {
		if existing.Email == user.Email {
			return nil, &domain.ConstraintViolation{Constraint: domain.ConstraintUserEmail, Err: fmt.Errorf("email %s exists", user.Email)}
		}
	}
	s.st.nextUserID++
	user.ID = s.st.nextUserID
	s.st.users[user.ID] = user
	return &user, nil
}

// FindUserByEmail implements identity.UserStore.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.st.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, nil
}

// GetUser implements identity.UserStore.
func (s *Store) GetUser(ctx context.Context, userID int64) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.st.users[userID]
	if !ok {
		return nil, nil
	}
	return &user, nil
}
