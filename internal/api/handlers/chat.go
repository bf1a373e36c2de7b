package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/moodtunes/moodtunes-api/internal/config"
	"github.com/moodtunes/moodtunes-api/internal/llm"
	"github.com/moodtunes/moodtunes-api/internal/metrics"
	"github.com/moodtunes/moodtunes-api/internal/models"
	"github.com/moodtunes/moodtunes-api/internal/observability"
	"github.com/moodtunes/moodtunes-api/internal/prompt"
)

// streamErrorMarker is appended in-band when the upstream fails after the
// response has already started; at that point the 200 is committed and the
// partial output must be preserved.
const streamErrorMarker = "\n[Streaming error]"

// providerSource abstracts provider lookup so handlers can be exercised
// without live API keys
type providerSource interface {
	GetProvider(ctx context.Context, model, providerName string) (llm.Provider, error)
}

// ChatHandler serves the chat endpoints (streaming and non-streaming)
type ChatHandler struct {
	cfg       *config.Config
	factory   providerSource
	builder   *prompt.Builder
	cwMetrics *metrics.Client
}

// NewChatHandler creates a new chat handler
func NewChatHandler(cfg *config.Config, cwMetrics *metrics.Client) *ChatHandler {
	return &ChatHandler{
		cfg:       cfg,
		factory:   llm.NewProviderFactory(cfg.GeminiAPIKey, cfg.OpenAIAPIKey),
		builder:   prompt.NewBuilder(),
		cwMetrics: cwMetrics,
	}
}

// Chat handles non-streaming chat requests
// POST /api/chat-bot/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Messages are required"})
		return
	}

	ctx := c.Request.Context()
	startTime := time.Now()

	provider, err := h.factory.GetProvider(ctx, h.cfg.ChatModel, "")
	if err != nil {
		log.Printf("❌ Chat: provider setup failed: %v", err)
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	chatPrompt := h.builder.ChatPrompt(prompt.ChatSystemPrompt, req.Messages)

	trace := observability.GetClient().StartTrace(ctx, "chat", map[string]interface{}{
		"request_id": c.GetString("request_id"),
		"turns":      len(req.Messages),
	})
	defer trace.Finish()

	gen := trace.Generation("chat.generate", map[string]interface{}{"provider": provider.Name()})
	gen.Input(req.Messages)

	resp, err := provider.GenerateText(ctx, &llm.TextRequest{
		Model:  h.cfg.ChatModel,
		Prompt: chatPrompt,
	})
	if err != nil {
		gen.SetLevel("ERROR")
		gen.Finish()
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	gen.Output(resp.Text)
	gen.LogUsage(h.cfg.ChatModel, resp.Usage)
	gen.Finish()

	h.recordUsage(ctx, resp.Usage, startTime, true)

	c.JSON(http.StatusOK, models.ChatResponse{
		Success: true,
		Data:    resp.Text,
	})
}

// ChatStream handles streaming chat requests. Each upstream fragment is
// written and flushed immediately; the response body is a raw UTF-8 text
// stream with no framing.
// POST /api/chat-bot/chat-stream
func (h *ChatHandler) ChatStream(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Messages are required"})
		return
	}

	ctx := c.Request.Context()
	startTime := time.Now()

	provider, err := h.factory.GetProvider(ctx, h.cfg.ChatModel, "")
	if err != nil {
		log.Printf("❌ ChatStream: provider setup failed: %v", err)
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	chatPrompt := h.builder.ChatPrompt(prompt.ChatStreamSystemPrompt, req.Messages)

	log.Printf("📨 ChatStream: %d turns, prompt length=%d", len(req.Messages), len(chatPrompt))

	// Headers are committed lazily on the first fragment so that a provider
	// failure before any output can still produce a JSON 500.
	var bytesSent int64
	wroteHeader := false

	writeFragment := func(fragment string) error {
		if !wroteHeader {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Accel-Buffering", "no") // Disable nginx buffering
			c.Writer.WriteHeader(http.StatusOK)
			wroteHeader = true
		}

		if _, werr := c.Writer.WriteString(fragment); werr != nil {
			return werr
		}
		c.Writer.Flush()
		bytesSent += int64(len(fragment))
		return nil
	}

	resp, err := provider.GenerateTextStream(ctx, &llm.TextRequest{
		Model:  h.cfg.ChatModel,
		Prompt: chatPrompt,
	}, writeFragment)

	if err != nil {
		log.Printf("❌ ChatStream: stream failed after %d bytes: %v", bytesSent, err)
		sentry.CaptureException(err)

		if !wroteHeader {
			// Setup failure: nothing was streamed, a JSON error is still possible
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}

		// Mid-stream failure: the 200 is committed, surface the error in-band
		_, _ = c.Writer.WriteString(streamErrorMarker)
		c.Writer.Flush()
		h.recordStream(c, bytesSent, startTime, false)
		return
	}

	if !wroteHeader {
		// Empty generation: still deliver a well-formed (empty) stream
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Cache-Control", "no-cache")
		c.Writer.WriteHeader(http.StatusOK)
		c.Writer.Flush()
	}

	log.Printf("✅ ChatStream: relayed %d bytes in %v", bytesSent, time.Since(startTime))

	h.recordStream(c, bytesSent, startTime, true)
	if resp != nil {
		h.recordUsage(ctx, resp.Usage, startTime, true)
	}
}

func (h *ChatHandler) recordUsage(ctx context.Context, usage *llm.TokenUsage, startTime time.Time, success bool) {
	if h.cwMetrics != nil {
		h.cwMetrics.RecordGenerationDuration(time.Since(startTime), success)
	}
	if usage != nil {
		if h.cwMetrics != nil {
			h.cwMetrics.RecordTokenUsage(h.cfg.ChatModel, usage.TotalTokens, usage.InputTokens, usage.OutputTokens)
		}
		sentryMetrics.RecordTokenUsage(ctx, h.cfg.ChatModel, usage.TotalTokens, usage.InputTokens, usage.OutputTokens)
	}
}

func (h *ChatHandler) recordStream(c *gin.Context, bytesSent int64, startTime time.Time, completed bool) {
	if h.cwMetrics != nil {
		h.cwMetrics.RecordStreamDelivery(bytesSent, completed)
	}
	sentryMetrics.RecordStreamDelivery(
		c.Request.Context(), "/api/chat-bot/chat-stream", bytesSent, time.Since(startTime))
}

// Package-level Sentry metrics recorder, shared by the chat handlers
var sentryMetrics = metrics.NewSentryMetrics()
