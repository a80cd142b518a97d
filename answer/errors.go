package answer

import "errors"

var (
	// ErrChatModelRequired is returned when a chat model is not provided.
	ErrChatModelRequired = errors.New("chat model required")

	// ErrInvalidContextLimit is returned when the context limit is not positive.
	ErrInvalidContextLimit = errors.New("context limit must be positive")
)
