// Package interfaces defines the service contracts shared across packages.
package interfaces

import "context"

// Message represents a single message in a chat conversation
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

// LLMService defines the interface for chat completion providers.
// Implementations wrap a single provider (Claude, Gemini); callers hold one
// service per pipeline stage so each stage can use a different model.
type LLMService interface {
	// Chat generates a completion for the conversation history. Blocking;
	// honors ctx cancellation and the provider's configured timeout.
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the provider is reachable and responding.
	HealthCheck(ctx context.Context) error

	// Close releases provider resources.
	Close() error
}
