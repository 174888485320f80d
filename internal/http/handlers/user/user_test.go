package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/users-api/internal/config"
	"github.com/aanand-mishra/users-api/internal/storage"
	"github.com/aanand-mishra/users-api/internal/storage/jsonfile"
	"github.com/aanand-mishra/users-api/internal/storage/memory"
	"github.com/aanand-mishra/users-api/internal/types"
	"github.com/aanand-mishra/users-api/internal/utils/response"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newRouter(s storage.Storage) *http.ServeMux {
	router := http.NewServeMux()
	Register(router, s)
	return router
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createUser(t *testing.T, h http.Handler, body string) types.User {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/users/", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeBody[types.User](t, rec)
}

const annBody = `{"name":"Ann","email":"ann@example.com","age":35,"gender":"female"}`

// ---------------------------------------------------------------------------
// Happy paths
// ---------------------------------------------------------------------------

func TestCreateThenGet(t *testing.T) {
	h := newRouter(memory.New())

	created := createUser(t, h,
		`{"id":"client-chosen","name":"Zoë","email":"zoe@example.com","age":0,"gender":"female","phone_number":"555-0100"}`)
	require.NotEmpty(t, created.ID)
	assert.NotEqual(t, "client-chosen", created.ID, "the server assigns ids")
	assert.Equal(t, "Zoë", created.Name)
	assert.Equal(t, 0, created.Age)
	require.NotNil(t, created.PhoneNumber)
	assert.Equal(t, "555-0100", *created.PhoneNumber)
	assert.Nil(t, created.Address)

	rec := do(t, h, http.MethodGet, "/users/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decodeBody[types.User](t, rec))
}

func TestUpdateThenGet(t *testing.T) {
	h := newRouter(memory.New())
	created := createUser(t, h, annBody)

	rec := do(t, h, http.MethodPut, "/users/"+created.ID,
		`{"name":"Annie","email":"annie@example.com","age":36,"gender":"female","address":"Main St 1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[types.User](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Annie", updated.Name)

	rec = do(t, h, http.MethodGet, "/users/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[types.User](t, rec)
	assert.Equal(t, updated, got)
	require.NotNil(t, got.Address)
	assert.Equal(t, "Main St 1", *got.Address)
}

func TestDeleteThenGet(t *testing.T) {
	h := newRouter(memory.New())
	created := createUser(t, h, annBody)

	rec := do(t, h, http.MethodDelete, "/users/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, response.Message{Message: "User deleted successfully"},
		decodeBody[response.Message](t, rec))

	rec = do(t, h, http.MethodGet, "/users/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/users/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[[]types.User](t, rec))
}

func TestListIsEmptyArray(t *testing.T) {
	h := newRouter(memory.New())

	rec := do(t, h, http.MethodGet, "/users/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestListOrdering(t *testing.T) {
	s, err := jsonfile.New(&config.Config{StoragePath: filepath.Join(t.TempDir(), "users.json")})
	require.NoError(t, err)
	h := newRouter(s)

	a := createUser(t, h, `{"name":"A","email":"a@example.com","age":1,"gender":"male"}`)
	b := createUser(t, h, `{"name":"B","email":"b@example.com","age":2,"gender":"male"}`)
	c := createUser(t, h, `{"name":"C","email":"c@example.com","age":3,"gender":"male"}`)

	listIDs := func() []string {
		rec := do(t, h, http.MethodGet, "/users/", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var ids []string
		for _, u := range decodeBody[[]types.User](t, rec) {
			ids = append(ids, u.ID)
		}
		return ids
	}

	assert.Equal(t, []string{c.ID, b.ID, a.ID}, listIDs())

	rec := do(t, h, http.MethodPut, "/users/"+a.ID, `{"name":"A2","email":"a@example.com","age":1,"gender":"male"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, listIDs())

	rec = do(t, h, http.MethodDelete, "/users/"+c.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{a.ID, b.ID}, listIDs())
}

// ---------------------------------------------------------------------------
// Failure paths
// ---------------------------------------------------------------------------

func TestUnknownIDIsNotFound(t *testing.T) {
	h := newRouter(memory.New())
	const path = "/users/does-not-exist"

	for _, tc := range []struct {
		method, body string
	}{
		{http.MethodGet, ""},
		{http.MethodPut, annBody},
		{http.MethodDelete, ""},
	} {
		t.Run(tc.method, func(t *testing.T) {
			rec := do(t, h, tc.method, path, tc.body)
			require.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t,
				response.Response{Status: response.StatusError, Error: "User not found"},
				decodeBody[response.Response](t, rec))
		})
	}
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "request body is empty"},
		{"malformed json", `{"name":`, "unexpected EOF"},
		{"mistyped age", `{"name":"A","email":"a@example.com","age":"old","gender":"male"}`, "age"},
		{"missing name", `{"email":"a@example.com","age":1,"gender":"male"}`, "field name is required"},
		{"missing age", `{"name":"A","email":"a@example.com","gender":"male"}`, "field age is required"},
		{"negative age", `{"name":"A","email":"a@example.com","age":-1,"gender":"male"}`, "field age must be at least 0"},
		{"bad email", `{"name":"A","email":"nope","age":1,"gender":"male"}`, "field email must be a valid email address"},
		{"missing gender", `{"name":"A","email":"a@example.com","age":1}`, "field gender is required"},
		{"unknown gender", `{"name":"A","email":"a@example.com","age":1,"gender":"robot"}`, "gender must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := memory.New()
			h := newRouter(s)

			rec := do(t, h, http.MethodPost, "/users/", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

			got := decodeBody[response.Response](t, rec)
			assert.Equal(t, response.StatusError, got.Status)
			assert.Contains(t, got.Error, tt.want)

			users, err := s.GetUsers()
			require.NoError(t, err)
			assert.Empty(t, users, "nothing is stored on validation failure")
		})
	}
}

func TestUpdateValidatesBeforeLookup(t *testing.T) {
	h := newRouter(memory.New())

	rec := do(t, h, http.MethodPut, "/users/does-not-exist", `{"name":"A"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

// failingStorage returns err from every operation.
type failingStorage struct {
	err error
}

func (f failingStorage) CreateUser(types.User) (types.User, error) {
	return types.User{}, f.err
}

func (f failingStorage) GetUserByID(string) (types.User, error) {
	return types.User{}, f.err
}

func (f failingStorage) GetUsers() ([]types.User, error) {
	return nil, f.err
}

func (f failingStorage) UpdateUserByID(string, types.User) (types.User, error) {
	return types.User{}, f.err
}

func (f failingStorage) DeleteUserByID(string) error {
	return f.err
}

func TestStorageErrorsAreInternal(t *testing.T) {
	h := newRouter(failingStorage{err: errors.New("disk on fire")})

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodPost, "/users/", annBody},
		{http.MethodGet, "/users/", ""},
		{http.MethodGet, "/users/x", ""},
		{http.MethodPut, "/users/x", annBody},
		{http.MethodDelete, "/users/x", ""},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := do(t, h, tc.method, tc.path, tc.body)
			require.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "disk on fire", decodeBody[response.Response](t, rec).Error)
		})
	}
}
