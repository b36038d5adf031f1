package driven

import "context"

// LLMService is the language model collaborator. Calls are fallible
// (network, auth, rate limits) and may block for several seconds.
//
// Implementations may include:
//   - OpenAI (gpt-4o, gpt-4o-mini)
//   - Ollama (local models)
type LLMService interface {
	// Complete answers Input under SystemPrompt, after any History turns.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest is a single model call.
type CompletionRequest struct {
	// SystemPrompt sets the task for the model.
	SystemPrompt string

	// Input is the human turn being answered.
	Input string

	// History holds earlier turns, oldest first.
	History []ChatMessage

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens caps the response length; zero means provider default.
	MaxTokens int
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}
