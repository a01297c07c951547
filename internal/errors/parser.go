package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a code plus a user facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts a storage level error into a safe code and message.
// context names the operation, e.g. "create meal".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicateKey(err.Error())
	}

	lower := strings.ToLower(err.Error())
	switch {
	// postgres 23505, mysql 1062, sqlite UNIQUE
	case strings.Contains(lower, "duplicate key"),
		strings.Contains(lower, "duplicate entry"),
		strings.Contains(lower, "unique constraint"):
		return duplicateKey(lower)
	case strings.Contains(lower, "foreign key constraint"):
		return ErrorInfo{Code: ResourceConflict, Message: "Referenced data is missing or still in use"}
	case strings.Contains(lower, "not-null constraint"), strings.Contains(lower, "not null constraint"):
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	case strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "no such host"),
		strings.Contains(lower, "timeout"):
		return ErrorInfo{Code: InternalExternalAPI, Message: "An upstream service is unavailable, please try again later"}
	}

	return ErrorInfo{Code: InternalServerError, Message: defaultMessage(context)}
}

func duplicateKey(errStr string) ErrorInfo {
	lower := strings.ToLower(errStr)
	switch {
	case strings.Contains(lower, "email"):
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Email already registered"}
	case strings.Contains(lower, "nickname"):
		return ErrorInfo{Code: AuthNicknameExists, Message: "Nickname already in use"}
	case strings.Contains(lower, "zipcodes"), strings.Contains(lower, "code"):
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "Zip code already exists"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "Already exists"}
}

func notFoundMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "meal"):
		return "Meal not found"
	case strings.Contains(lower, "order"):
		return "Order not found"
	case strings.Contains(lower, "apply"), strings.Contains(lower, "application"):
		return "Application not found"
	case strings.Contains(lower, "user"):
		return "User not found"
	case strings.Contains(lower, "zip"):
		return "Zip code not found"
	}
	return "Not found"
}

func defaultMessage(context string) string {
	lower := strings.ToLower(context)
	switch {
	case strings.Contains(lower, "create"):
		return "Failed to create, please try again later"
	case strings.Contains(lower, "update"):
		return "Failed to update, please try again later"
	case strings.Contains(lower, "delete"):
		return "Failed to delete, please try again later"
	}
	return "Something went wrong, please try again later"
}

// ParseAndRespond parses err and writes it with statusCode
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
