package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		wantCode string
	}{
		{"record not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), "get meal", ResourceNotFound},
		{"postgres duplicate email", stderrors.New(`ERROR: duplicate key value violates unique constraint "idx_users_email"`), "create user", AuthEmailAlreadyExists},
		{"sqlite duplicate nickname", stderrors.New("UNIQUE constraint failed: users.nickname"), "create user", AuthNicknameExists},
		{"mysql duplicate", stderrors.New("Error 1062: Duplicate entry 'x' for key 'PRIMARY'"), "create", ResourceAlreadyExists},
		{"foreign key", stderrors.New("FOREIGN KEY constraint failed"), "delete meal", ResourceConflict},
		{"timeout", stderrors.New("dial tcp: i/o timeout"), "send", InternalExternalAPI},
		{"unknown", stderrors.New("boom"), "update order", InternalServerError},
		{"nil", nil, "", InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseErrorNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Meal not found", ParseError(gorm.ErrRecordNotFound, "get meal").Message)
	assert.Equal(t, "Order not found", ParseError(gorm.ErrRecordNotFound, "view order").Message)
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "begin_date", toSnake("BeginDate"))
	assert.Equal(t, "address", toSnake("Address"))
}
