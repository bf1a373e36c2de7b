package llm

import "context"

// Provider defines the interface for text-generation providers.
// Both providers flatten the conversation upstream of this interface;
// a request carries one already-assembled prompt string.
type Provider interface {
	// GenerateText runs a single non-streaming generation
	GenerateText(ctx context.Context, request *TextRequest) (*TextResponse, error)

	// GenerateTextStream runs a streaming generation, invoking callback for
	// each incremental text fragment in arrival order. A callback error
	// aborts the stream (the downstream writer is gone).
	GenerateTextStream(ctx context.Context, request *TextRequest, callback StreamCallback) (*TextResponse, error)

	// Name returns the provider name (e.g. "gemini", "openai")
	Name() string
}

// TextRequest contains all parameters needed for one generation call
type TextRequest struct {
	Model        string
	Prompt       string
	SystemPrompt string
	// JSONOutput asks the provider for a JSON response body (mood/song calls)
	JSONOutput bool
}

// TextResponse contains the result from the provider
type TextResponse struct {
	Text  string
	Usage *TokenUsage
}

// TokenUsage is a provider-neutral view of token counts
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// StreamCallback is called once per incremental text fragment
type StreamCallback func(fragment string) error
