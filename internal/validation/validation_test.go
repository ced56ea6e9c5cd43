package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FordLabs/PeopleMover/internal/repository"
)

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{})
	assert.ErrorIs(t, err, repository.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "name is required")

	err = Struct(sample{Name: strings.Repeat("x", 6), Email: "nope"})
	assert.ErrorIs(t, err, repository.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "name must be at most 5 characters")
	assert.Contains(t, err.Error(), "email must be a valid email")

	assert.NoError(t, Struct(sample{Name: "ok", Email: "a@b.co"}))
}
