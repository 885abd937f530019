package model

import "strings"

const (
	// APIKeyPrefix is the prefix every Anthropic API key carries.
	APIKeyPrefix = "sk-ant-"
	// MinAPIKeyLength is the shortest accepted key after trimming.
	MinAPIKeyLength = 10
)

// ValidationError reports a malformed request field. Message is safe to show
// to the caller and never contains the rejected value.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError returns a *ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// ValidateAPIKey performs the syntactic check applied before a key is
// encrypted. Surrounding whitespace is ignored.
func ValidateAPIKey(candidate string) error {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return NewValidationError("API key is required")
	}
	if len(trimmed) < MinAPIKeyLength {
		return NewValidationError("API key is too short")
	}
	if !strings.HasPrefix(trimmed, APIKeyPrefix) {
		return NewValidationError("Invalid API key format. Must start with " + APIKeyPrefix)
	}
	return nil
}
