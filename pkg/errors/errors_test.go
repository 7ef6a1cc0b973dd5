package errors

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	err := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestCloneKeepsCodeForErrorsIs(t *testing.T) {
	cloned := Clone(ErrNotFound, "semester not found")
	assert.Equal(t, "semester not found", cloned.Message)
	assert.True(t, errors.Is(cloned, ErrNotFound))
	assert.False(t, errors.Is(cloned, ErrConflict))
}

func TestValidationHelper(t *testing.T) {
	err := Validation(errors.New("bad weekday"), "invalid subject payload")
	assert.Equal(t, ErrValidation.Code, err.Code)
	assert.Equal(t, "invalid subject payload: bad weekday", err.Error())
}

func TestValidationListsFieldFailures(t *testing.T) {
	type slot struct {
		Day string `validate:"required"`
	}
	type payload struct {
		Name  string `validate:"required"`
		Slots []slot `validate:"dive"`
	}
	verr := validator.New().Struct(payload{Slots: []slot{{}}})
	require.Error(t, verr)

	err := Validation(verr, "invalid subject payload")
	assert.Equal(t, []FieldError{
		{Field: "Name", Rule: "required"},
		{Field: "Slots[0].Day", Rule: "required"},
	}, err.Details)
}

func TestValidationUsesRegisteredTranslations(t *testing.T) {
	v := validator.New()
	require.NoError(t, entranslations.RegisterDefaultTranslations(v, Translator()))
	type payload struct {
		Email string `validate:"required,email"`
	}

	err := Validation(v.Struct(payload{Email: "nope"}), "invalid payload")
	require.Len(t, err.Details, 1)
	assert.Equal(t, "email", err.Details[0].Rule)
	assert.Equal(t, "Email must be a valid email address", err.Details[0].Message)
}
