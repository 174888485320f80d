package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	require.NoError(t, WriteJSON(rec, http.StatusTeapot, map[string]string{"name": "Ann & Zoë"}))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "{\"name\":\"Ann & Zoë\"}\n", rec.Body.String())
}

func TestGeneralError(t *testing.T) {
	got := GeneralError(errors.New("boom"))
	assert.Equal(t, Response{Status: StatusError, Error: "boom"}, got)
}

func TestValidationError(t *testing.T) {
	type payload struct {
		Name   string `validate:"required"`
		Email  string `validate:"email"`
		Gender string `validate:"oneof=male female"`
		Age    int    `validate:"gte=0"`
		Code   string `validate:"len=2"`
	}

	err := validator.New().Struct(payload{Email: "nope", Gender: "x", Age: -1, Code: "abc"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	got := ValidationError(verrs)
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t,
		"field Name is required, "+
			"field Email must be a valid email address, "+
			"field Gender must be one of [male female], "+
			"field Age must be at least 0, "+
			"field Code is invalid",
		got.Error)
}
