// Package user contains all HTTP handlers related to the User resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Each exported function accepts the storage dependency once, at route
// registration, and returns the func(http.ResponseWriter, *http.Request)
// the router calls on every request:
//
//	router.HandleFunc("POST /users/{$}", user.New(storage))
package user

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/types"
	"github.com/aanand-mishra/users-api/internal/utils/response"
)

const notFoundMessage = "User not found"

// validate is shared by all handlers; validator caches struct metadata,
// so one instance is cheaper than validator.New() per request.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names ("phone_number") instead of Go names
	// ("PhoneNumber") in validation messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Register wires every user route into router.
//
// Route table:
//
//	POST   /users/      → create a user
//	GET    /users/      → list users, most recently written first
//	GET    /users/{id}  → get one user
//	PUT    /users/{id}  → replace a user
//	DELETE /users/{id}  → delete a user
func Register(router *http.ServeMux, storage storage.Storage) {
	router.HandleFunc("POST /users/{$}", New(storage))
	router.HandleFunc("GET /users/{$}", GetList(storage))
	router.HandleFunc("GET /users/{id}", GetByID(storage))
	router.HandleFunc("PUT /users/{id}", Update(storage))
	router.HandleFunc("DELETE /users/{id}", Delete(storage))
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /users/
//
// Request body (JSON):
//
//	{ "name": "Ann", "email": "ann@example.com", "age": 35, "gender": "female" }
//
// Success response (200 OK): the created user, id included.
//
// Error responses:
//
//	422 Unprocessable Entity — empty body, malformed JSON or failed validation
//	500 Internal             — storage error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a user")

		input, ok := decodeInput(w, r)
		if !ok {
			return
		}

		created, err := storage.CreateUser(input.User())
		if err != nil {
			slog.Error("error creating user", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("user created", slog.String("id", created.ID))
		response.WriteJSON(w, http.StatusOK, created)
	}
}

// GetByID handles GET /users/{id}
func GetByID(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("getting a user", slog.String("id", id))

		user, err := storage.GetUserByID(id)
		if err != nil {
			writeStorageError(w, "error getting user", id, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, user)
	}
}

// GetList handles GET /users/
// Returns [] (not null) when there are no users.
func GetList(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all users")

		users, err := storage.GetUsers()
		if err != nil {
			slog.Error("error getting users", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, users)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /users/{id}
// Replaces ALL fields of an existing user except the id, and moves the
// user to the front of the list.
//
// The payload is validated before the user is looked up, so an invalid
// body for an unknown id is a 422, not a 404.
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("updating a user", slog.String("id", id))

		input, ok := decodeInput(w, r)
		if !ok {
			return
		}

		updated, err := storage.UpdateUserByID(id, input.User())
		if err != nil {
			writeStorageError(w, "error updating user", id, err)
			return
		}

		slog.Info("user updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /users/{id}
func Delete(storage storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		slog.Info("deleting a user", slog.String("id", id))

		if err := storage.DeleteUserByID(id); err != nil {
			writeStorageError(w, "error deleting user", id, err)
			return
		}

		slog.Info("user deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK,
			response.Message{Message: "User deleted successfully"})
	}
}

// decodeInput reads and validates the request body. On failure it has
// already written the 422 response and returns false.
func decodeInput(w http.ResponseWriter, r *http.Request) (types.UserInput, bool) {
	var input types.UserInput

	err := json.NewDecoder(r.Body).Decode(&input)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusUnprocessableEntity,
			response.GeneralError(errors.New("request body is empty")))
		return input, false
	}
	if err != nil {
		// Malformed JSON, wrong types, unknown gender.
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
		return input, false
	}

	if err := validate.Struct(input); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			response.WriteJSON(w, http.StatusUnprocessableEntity,
				response.ValidationError(validateErrs))
			return input, false
		}
		response.WriteJSON(w, http.StatusUnprocessableEntity, response.GeneralError(err))
		return input, false
	}

	return input, true
}

// writeStorageError maps storage.ErrNotFound to 404 and anything else to 500.
func writeStorageError(w http.ResponseWriter, msg, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		response.WriteJSON(w, http.StatusNotFound, response.ErrorMessage(notFoundMessage))
		return
	}

	slog.Error(msg,
		slog.String("id", id),
		slog.String("error", err.Error()))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(err))
}
