// Package storagetest holds the behavioural tests every storage.Storage
// backend must pass. Backends call Run from their own _test.go files.
package storagetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
)

// Factory returns a new, empty backend for a single test.
type Factory func(t *testing.T) storage.Storage

// Run executes the whole suite against backends produced by newStorage.
func Run(t *testing.T, newStorage Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Storage)
	}{
		{"CreateThenGet", testCreateThenGet},
		{"CreateAssignsUniqueIDs", testCreateAssignsUniqueIDs},
		{"UpdateThenGet", testUpdateThenGet},
		{"DeleteThenGet", testDeleteThenGet},
		{"Ordering", testOrdering},
		{"ReadsDoNotReorder", testReadsDoNotReorder},
		{"UnknownID", testUnknownID},
		{"EmptyList", testEmptyList},
		{"OptionalFieldsRoundTrip", testOptionalFieldsRoundTrip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStorage(t))
		})
	}
}

// NewUser returns a valid user without an id.
func NewUser(name string) types.User {
	return types.User{
		Name:   name,
		Email:  name + "@example.com",
		Age:    30,
		Gender: types.GenderFemale,
	}
}

func ids(users []types.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func testCreateThenGet(t *testing.T, s storage.Storage) {
	in := NewUser("alice")

	created, err := s.CreateUser(in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := s.GetUserByID(created.ID)
	require.NoError(t, err)

	in.ID = created.ID
	assert.Equal(t, in, got)
	assert.Equal(t, created, got)
}

func testCreateAssignsUniqueIDs(t *testing.T, s storage.Storage) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		u, err := s.CreateUser(NewUser("user"))
		require.NoError(t, err)
		require.False(t, seen[u.ID], "duplicate id %s", u.ID)
		seen[u.ID] = true
	}

	users, err := s.GetUsers()
	require.NoError(t, err)
	assert.Len(t, users, 20)
}

func testUpdateThenGet(t *testing.T, s storage.Storage) {
	created, err := s.CreateUser(NewUser("bob"))
	require.NoError(t, err)

	addr := "Hauptstraße 5, Köln"
	change := types.User{
		ID:      "ignored",
		Name:    "Robert",
		Email:   "robert@example.com",
		Age:     41,
		Gender:  types.GenderMale,
		Address: &addr,
	}

	updated, err := s.UpdateUserByID(created.ID, change)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "id is immutable")

	got, err := s.GetUserByID(created.ID)
	require.NoError(t, err)

	change.ID = created.ID
	assert.Equal(t, change, got)
}

func testDeleteThenGet(t *testing.T, s storage.Storage) {
	keep, err := s.CreateUser(NewUser("keep"))
	require.NoError(t, err)
	gone, err := s.CreateUser(NewUser("gone"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteUserByID(gone.ID))

	_, err = s.GetUserByID(gone.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	users, err := s.GetUsers()
	require.NoError(t, err)
	assert.Equal(t, []string{keep.ID}, ids(users))
}

func testOrdering(t *testing.T, s storage.Storage) {
	a, err := s.CreateUser(NewUser("a"))
	require.NoError(t, err)
	b, err := s.CreateUser(NewUser("b"))
	require.NoError(t, err)
	c, err := s.CreateUser(NewUser("c"))
	require.NoError(t, err)

	users, err := s.GetUsers()
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids(users))

	_, err = s.UpdateUserByID(a.ID, NewUser("a2"))
	require.NoError(t, err)

	users, err = s.GetUsers()
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, ids(users))

	require.NoError(t, s.DeleteUserByID(c.ID))

	users, err = s.GetUsers()
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, ids(users))
}

func testReadsDoNotReorder(t *testing.T, s storage.Storage) {
	a, err := s.CreateUser(NewUser("a"))
	require.NoError(t, err)
	b, err := s.CreateUser(NewUser("b"))
	require.NoError(t, err)

	_, err = s.GetUserByID(a.ID)
	require.NoError(t, err)

	users, err := s.GetUsers()
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, a.ID}, ids(users))
}

func testUnknownID(t *testing.T, s storage.Storage) {
	_, err := s.CreateUser(NewUser("someone"))
	require.NoError(t, err)

	const missing = "00000000-0000-4000-8000-000000000000"

	_, err = s.GetUserByID(missing)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.UpdateUserByID(missing, NewUser("x"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.DeleteUserByID(missing)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	users, err := s.GetUsers()
	require.NoError(t, err)
	assert.Len(t, users, 1, "failed operations must not change the collection")
}

func testEmptyList(t *testing.T, s storage.Storage) {
	users, err := s.GetUsers()
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func testOptionalFieldsRoundTrip(t *testing.T, s storage.Storage) {
	phone := "+81 3-1234-5678"
	addr := "東京都千代田区 <1> & \"2\""
	in := NewUser("kenji")
	in.PhoneNumber = &phone
	in.Address = &addr

	created, err := s.CreateUser(in)
	require.NoError(t, err)

	got, err := s.GetUserByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PhoneNumber)
	require.NotNil(t, got.Address)
	assert.Equal(t, phone, *got.PhoneNumber)
	assert.Equal(t, addr, *got.Address)

	bare, err := s.CreateUser(NewUser("bare"))
	require.NoError(t, err)
	got, err = s.GetUserByID(bare.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PhoneNumber)
	assert.Nil(t, got.Address)
}
