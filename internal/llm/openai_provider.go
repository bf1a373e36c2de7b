package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const (
	providerNameOpenAI     = "openai"
	maxLogEventCountOpenAI = 5
)

// OpenAIProvider implements the Provider interface using OpenAI's Responses API
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client: &client,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// GenerateText implements non-streaming generation using OpenAI's Responses API
func (p *OpenAIProvider) GenerateText(ctx context.Context, request *TextRequest) (*TextResponse, error) {
	startTime := time.Now()
	log.Printf("🎧 OPENAI GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_call")
	apiStartTime := time.Now()
	resp, err := p.client.Responses.New(ctx, params)
	apiDuration := time.Since(apiStartTime)
	span.Finish()

	if err != nil {
		log.Printf("❌ OPENAI REQUEST FAILED after %v: %v", apiDuration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("openai request failed: %w", err)
	}

	log.Printf("⏱️  OPENAI API CALL COMPLETED in %v", apiDuration)

	textOutput := resp.OutputText()
	if textOutput == "" {
		transaction.SetTag("success", "false")
		return nil, fmt.Errorf("openai response did not include any output text")
	}

	transaction.SetTag("success", "true")
	log.Printf("✅ OPENAI GENERATION COMPLETED in %v (output: %d chars, tokens: %d)",
		time.Since(startTime), len(textOutput), resp.Usage.TotalTokens)

	return &TextResponse{
		Text:  textOutput,
		Usage: convertOpenAIUsage(resp.Usage),
	}, nil
}

// GenerateTextStream implements streaming generation using OpenAI's Responses API.
// It calls the callback for each text delta as it arrives from the model.
func (p *OpenAIProvider) GenerateTextStream(
	ctx context.Context,
	request *TextRequest,
	callback StreamCallback,
) (*TextResponse, error) {
	startTime := time.Now()
	log.Printf("🎧 OPENAI STREAMING GENERATION REQUEST STARTED (Model: %s)", request.Model)

	transaction := sentry.StartTransaction(ctx, "openai.generate_stream")
	defer transaction.Finish()

	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)
	transaction.SetTag("streaming", "true")

	params := p.buildRequestParams(request)

	span := transaction.StartChild("openai.api_stream")
	stream := p.client.Responses.NewStreaming(ctx, params)
	defer stream.Close()

	var accumulated string
	var finalResponse *responses.Response
	eventCount := 0

	for stream.Next() {
		event := stream.Current()
		eventCount++

		if eventCount <= maxLogEventCountOpenAI {
			log.Printf("📥 Stream event #%d: type=%s", eventCount, event.Type)
		}

		switch event.Type {
		case "response.output_text.delta":
			textDelta := event.AsResponseOutputTextDelta()
			delta := textDelta.Delta
			if delta != "" {
				accumulated += delta
				if cbErr := callback(delta); cbErr != nil {
					span.Finish()
					transaction.SetTag("success", "false")
					return nil, fmt.Errorf("stream callback failed: %w", cbErr)
				}
			}

		case "response.completed":
			completedEvent := event.AsResponseCompleted()
			finalResponse = &completedEvent.Response

		case "response.failed":
			failedEvent := event.AsResponseFailed()
			span.Finish()
			transaction.SetTag("success", "false")
			return nil, fmt.Errorf("streaming failed: %s", failedEvent.Response.Error.Message)

		case "error":
			errorEvent := event.AsError()
			span.Finish()
			transaction.SetTag("success", "false")
			return nil, fmt.Errorf("stream error: %s", errorEvent.Message)
		}
	}

	span.Finish()

	if err := stream.Err(); err != nil {
		log.Printf("❌ Stream error: %v", err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, fmt.Errorf("stream error: %w", err)
	}

	log.Printf("✅ OPENAI STREAMING COMPLETE: %d events, %d chars, %v duration",
		eventCount, len(accumulated), time.Since(startTime))

	response := &TextResponse{Text: accumulated}
	if finalResponse != nil {
		response.Usage = convertOpenAIUsage(finalResponse.Usage)
	}

	transaction.SetTag("success", "true")
	return response, nil
}

// buildRequestParams converts a TextRequest to OpenAI Responses API parameters
func (p *OpenAIProvider) buildRequestParams(request *TextRequest) responses.ResponseNewParams {
	inputItems := responses.ResponseInputParam{
		responses.ResponseInputItemParamOfMessage(request.Prompt, responses.EasyInputMessageRoleUser),
	}

	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
	}

	if request.SystemPrompt != "" {
		params.Instructions = openai.String(request.SystemPrompt)
	}

	return params
}

func convertOpenAIUsage(usage responses.ResponseUsage) *TokenUsage {
	log.Printf("📊 OPENAI USAGE: input=%d, output=%d, total=%d",
		usage.InputTokens, usage.OutputTokens, usage.TotalTokens)

	return &TokenUsage{
		InputTokens:  int(usage.InputTokens),
		OutputTokens: int(usage.OutputTokens),
		TotalTokens:  int(usage.TotalTokens),
	}
}
