package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/users-api/internal/types"
)

func TestPut_MovesWrittenUserToFront(t *testing.T) {
	users := NewUsers()

	require.NoError(t, Put(users, types.User{ID: "a", Name: "A"}))
	require.NoError(t, Put(users, types.User{ID: "b", Name: "B"}))
	require.NoError(t, Put(users, types.User{ID: "c", Name: "C"}))
	assert.Equal(t, []string{"c", "b", "a"}, Keys(users))

	require.NoError(t, Put(users, types.User{ID: "a", Name: "A2"}))
	assert.Equal(t, []string{"a", "c", "b"}, Keys(users))

	got, ok := users.Get("a")
	require.True(t, ok)
	assert.Equal(t, "A2", got.Name)

	users.Delete("c")
	assert.Equal(t, []string{"a", "b"}, Keys(users))
}

func TestValues_EmptyIsNotNil(t *testing.T) {
	values := Values(NewUsers())
	assert.NotNil(t, values)
	assert.Empty(t, values)
}
