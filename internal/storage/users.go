package storage

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/aanand-mishra/users-api/internal/types"
)

// Users is an ordered id -> User mapping backed by a doubly-linked list
// plus a hash index. The oldest end of the list is the front: iteration
// starts with the most recently written user.
type Users = orderedmap.OrderedMap[string, types.User]

// NewUsers returns an empty collection.
func NewUsers() *Users {
	return orderedmap.New[string, types.User]()
}

// Put stores user under its id and moves it to the front.
func Put(users *Users, user types.User) error {
	users.Set(user.ID, user)
	if err := users.MoveToFront(user.ID); err != nil {
		return fmt.Errorf("Put: move to front: %w", err)
	}
	return nil
}

// Values returns the users in collection order. The slice is never nil.
func Values(users *Users) []types.User {
	out := make([]types.User, 0, users.Len())
	for pair := users.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Keys returns the ids in collection order.
func Keys(users *Users) []string {
	out := make([]string, 0, users.Len())
	for pair := users.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}
