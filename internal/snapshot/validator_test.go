package snapshot

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatorRegistersPeriod(t *testing.T) {
	v, err := newValidator(customTags)
	require.NoError(t, err)

	type doc struct {
		Period string `validate:"period"`
	}
	assert.NoError(t, v.Struct(doc{Period: "25.12"}))
	assert.Error(t, v.Struct(doc{Period: "2025-13"}))
}

func TestNewValidatorReportsRegistrationFailure(t *testing.T) {
	_, err := newValidator(map[string]validator.Func{"": func(validator.FieldLevel) bool { return true }})
	assert.ErrorContains(t, err, `register "" validation`)
}
