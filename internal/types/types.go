// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, and utils can all import types without depending
// on each other.
package types

import (
	"encoding/json"
	"fmt"
)

// Gender is a closed enumeration. Only the constants below are valid.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// UnmarshalJSON rejects anything outside the enumeration, so a User
// decoded from a request body or the storage file never carries an
// unknown gender.
func (g *Gender) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("gender must be a string: %w", err)
	}

	v := Gender(s)
	if !v.Valid() {
		return fmt.Errorf("gender must be one of %q or %q, got %q",
			GenderMale, GenderFemale, s)
	}

	*g = v
	return nil
}

// User represents a user record in our system.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  — controls how the field appears when encoded to JSON,
//     both in HTTP responses and in the storage file.
//
//  2. validate:"..." — rules checked by the go-playground/validator
//     package when the user arrives in a request body.
//
// PhoneNumber and Address are pointers so that "absent" encodes as null
// and survives a round trip through storage.
type User struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Age         int     `json:"age"`
	Gender      Gender  `json:"gender"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
}

// UserInput is the request payload for create and update. It carries
// every User field except the server-assigned id.
//
// Age is a pointer so that a missing age is caught by "required" instead
// of silently becoming 0.
type UserInput struct {
	Name        string  `json:"name"         validate:"required"`
	Email       string  `json:"email"        validate:"required,email"`
	Age         *int    `json:"age"          validate:"required,gte=0"`
	Gender      Gender  `json:"gender"       validate:"required,oneof=male female"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
}

// User converts a validated input into a User without an id.
func (in UserInput) User() User {
	u := User{
		Name:        in.Name,
		Email:       in.Email,
		Gender:      in.Gender,
		PhoneNumber: in.PhoneNumber,
		Address:     in.Address,
	}
	if in.Age != nil {
		u.Age = *in.Age
	}
	return u
}
