package validation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/restaurant-console/internal/validation"
)

type request struct {
	Name   string `json:"name" validate:"required"`
	Guests int    `json:"numberOfGuests" validate:"min=1"`
	Email  string `json:"email,omitempty" validate:"omitempty,email"`
	Status string `json:"status" validate:"oneof=PENDING CONFIRMED"`
}

func TestStruct_Valid(t *testing.T) {
	require.NoError(t, validation.Struct(request{Name: "Ana", Guests: 2, Status: "PENDING"}))
}

func TestStruct_ReportsEveryField(t *testing.T) {
	err := validation.Struct(request{Email: "nope", Status: "SEATED"})

	var ve *validation.Error
	require.ErrorAs(t, err, &ve)
	require.Equal(t, []string{
		"name is required",
		"numberOfGuests must be at least 1",
		"email must be a valid email",
		"status must be one of: PENDING CONFIRMED",
	}, ve.Fields)
	require.Contains(t, err.Error(), "name is required; numberOfGuests")
}

func TestStruct_NonStruct(t *testing.T) {
	require.Error(t, validation.Struct("not a struct"))
}
