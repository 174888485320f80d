// Package memory is a process-local storage.Storage. Nothing survives a
// restart; it is meant for development and tests.
package memory

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
)

type Memory struct {
	mu    sync.RWMutex
	users *storage.Users
}

func New() *Memory {
	return &Memory{users: storage.NewUsers()}
}

func (m *Memory) CreateUser(user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.ID = uuid.NewString()
	if err := storage.Put(m.users, user); err != nil {
		return types.User{}, fmt.Errorf("CreateUser: %w", err)
	}
	return user, nil
}

func (m *Memory) GetUserByID(id string) (types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users.Get(id)
	if !ok {
		return types.User{}, fmt.Errorf("GetUserByID %s: %w", id, storage.ErrNotFound)
	}
	return user, nil
}

func (m *Memory) GetUsers() ([]types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return storage.Values(m.users), nil
}

func (m *Memory) UpdateUserByID(id string, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users.Get(id); !ok {
		return types.User{}, fmt.Errorf("UpdateUserByID %s: %w", id, storage.ErrNotFound)
	}

	user.ID = id
	if err := storage.Put(m.users, user); err != nil {
		return types.User{}, fmt.Errorf("UpdateUserByID: %w", err)
	}
	return user, nil
}

func (m *Memory) DeleteUserByID(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users.Delete(id); !ok {
		return fmt.Errorf("DeleteUserByID %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
