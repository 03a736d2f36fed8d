package store

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"library-streaming-api/internal/models"
)

// CreateUser registers a member. Emails are unique, case-insensitively.
// An empty role resolves to member, except for the very first account,
// which becomes the admin.
func (s *Store) CreateUser(name, email, passwordHash, role string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if role == "" {
		role = models.RoleMember
		if len(s.users) == 0 {
			role = models.RoleAdmin
		}
	}

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return models.User{}, ErrEmailTaken
		}
	}

	u := models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}
	s.users[u.ID] = u

	if err := s.saveUsersLocked(); err != nil {
		return models.User{}, err
	}
	return u, nil
}

// User returns one member by id.
func (s *Store) User(id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

// UserByEmail returns one member by email, for login.
func (s *Store) UserByEmail(email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

// Users returns all members, oldest first.
func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersLocked()
}

func (s *Store) usersLocked() []models.User {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) saveUsersLocked() error {
	return s.saveLocked(usersFile, s.usersLocked())
}
