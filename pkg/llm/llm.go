package llm

import (
	"context"
	"errors"
)

// ChatModel is a minimal abstraction for chat-based LLMs used by the domain.
// It intentionally hides concrete providers to preserve dependency direction.
type ChatModel interface {
	Ask(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ErrTimeout reports that the model did not answer within the caller's
// deadline. Callers may retry the same request; other failures require a
// different prompt or a fixed provider and are not wrapped in this error.
var ErrTimeout = errors.New("llm request timed out")
