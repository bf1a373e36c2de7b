package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	mimeTypeJSON       = "application/json"
	maxLogChunkCount   = 5
	geminiUserRole     = "user"
)

// GeminiProvider implements the Provider interface using Google's Gemini API.
// Providers are short-lived: one is constructed per request from the
// process-wide API key and discarded when the call finishes.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// GenerateText implements non-streaming generation using Gemini's API
func (p *GeminiProvider) GenerateText(ctx context.Context, request *TextRequest) (*TextResponse, error) {
	startTime := time.Now()
	log.Printf("🎧 GEMINI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "gemini.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)

	contents := p.buildGeminiContents(request.Prompt)
	config := p.buildGenerateConfig(request)

	span := transaction.StartChild("gemini.api_call")
	apiStartTime := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, request.Model, contents, config)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	log.Printf("⏱️  GEMINI API CALL COMPLETED in %v", apiDuration)

	textOutput, err := extractGeminiText(result)
	if err != nil {
		transaction.SetTag("success", "false")
		return nil, err
	}

	response := &TextResponse{
		Text:  textOutput,
		Usage: convertGeminiUsage(result.UsageMetadata),
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ GEMINI GENERATION COMPLETED in %v (output: %d chars)",
		time.Since(startTime), len(textOutput))

	return response, nil
}

// GenerateTextStream implements streaming generation for Gemini
func (p *GeminiProvider) GenerateTextStream(
	ctx context.Context, request *TextRequest, callback StreamCallback,
) (*TextResponse, error) {
	startTime := time.Now()
	log.Printf("🎧 GEMINI STREAMING GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "gemini.generate_stream")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameGemini)
	transaction.SetTag("streaming", "true")

	contents := p.buildGeminiContents(request.Prompt)
	config := p.buildGenerateConfig(request)

	iter := p.client.Models.GenerateContentStream(ctx, request.Model, contents, config)

	var accumulated string
	var finalUsage *genai.GenerateContentResponseUsageMetadata
	chunkCount := 0

	// Iterate over stream using Go 1.23+ iterator pattern
	for chunk, err := range iter {
		if err != nil {
			log.Printf("❌ GEMINI STREAMING ERROR: %v", err)
			transaction.SetTag("success", "false")
			sentry.CaptureException(err)
			return nil, fmt.Errorf("gemini stream error: %w", err)
		}

		chunkCount++

		if len(chunk.Candidates) > 0 && len(chunk.Candidates[0].Content.Parts) > 0 {
			text := chunk.Candidates[0].Content.Parts[0].Text
			if text != "" {
				accumulated += text
				if chunkCount <= maxLogChunkCount {
					log.Printf("✅ Gemini chunk #%d: +%d chars (total: %d)", chunkCount, len(text), len(accumulated))
				}
				if cbErr := callback(text); cbErr != nil {
					// Downstream writer is gone; abandon the upstream call
					transaction.SetTag("success", "false")
					return nil, fmt.Errorf("stream callback failed: %w", cbErr)
				}
			}
		}

		if chunk.UsageMetadata != nil {
			finalUsage = chunk.UsageMetadata
		}
	}

	log.Printf("📦 Gemini stream complete - %d chunks, %d chars in %v",
		chunkCount, len(accumulated), time.Since(startTime))

	transaction.SetTag("success", "true")
	return &TextResponse{
		Text:  accumulated,
		Usage: convertGeminiUsage(finalUsage),
	}, nil
}

// buildGeminiContents wraps the flattened prompt as a single user content
func (p *GeminiProvider) buildGeminiContents(prompt string) []*genai.Content {
	return []*genai.Content{
		{
			Role:  geminiUserRole,
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
}

func (p *GeminiProvider) buildGenerateConfig(request *TextRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if request.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: request.SystemPrompt}},
		}
	}

	if request.JSONOutput {
		config.ResponseMIMEType = mimeTypeJSON
	}

	return config
}

func extractGeminiText(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in Gemini response")
	}

	candidate := result.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no parts in Gemini response")
	}

	textOutput := candidate.Content.Parts[0].Text
	if textOutput == "" {
		return "", fmt.Errorf("gemini response did not include any output text")
	}

	return textOutput, nil
}

func convertGeminiUsage(usage *genai.GenerateContentResponseUsageMetadata) *TokenUsage {
	if usage == nil {
		return nil
	}

	log.Printf("📊 GEMINI USAGE: input=%d, output=%d, total=%d",
		usage.PromptTokenCount, usage.CandidatesTokenCount, usage.TotalTokenCount)

	return &TokenUsage{
		InputTokens:  int(usage.PromptTokenCount),
		OutputTokens: int(usage.CandidatesTokenCount),
		TotalTokens:  int(usage.TotalTokenCount),
	}
}
