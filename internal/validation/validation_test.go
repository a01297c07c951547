package validation

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidZipcode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"12345", true},
		{"00000", true},
		{"1234", false},
		{"123456", false},
		{"12a45", false},
		{"", false},
		{" 1234", false},
		{"１２３４５", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidZipcode(tt.code))
		})
	}
}

type zipRequest struct {
	Zipcode string `json:"zip_code" binding:"required,zipcode"`
}

func TestRegisterZipcodeRule(t *testing.T) {
	Register()
	Register()

	err := binding.Validator.ValidateStruct(&zipRequest{Zipcode: "94107"})
	assert.NoError(t, err)

	err = binding.Validator.ValidateStruct(&zipRequest{Zipcode: "9410"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "zip_code", verrs[0].Field())
	assert.Equal(t, "zipcode", verrs[0].Tag())
}
