package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/moodtunes/moodtunes-api/internal/config"
	"github.com/moodtunes/moodtunes-api/internal/llm"
	"github.com/moodtunes/moodtunes-api/internal/models"
	"github.com/moodtunes/moodtunes-api/internal/prompt"
	"github.com/moodtunes/moodtunes-api/internal/tools"
)

const actionRecommendSongs = "recommendSongs"

// AgentHandler lets the model pick an action and dispatches it to the
// static song lookup tool
type AgentHandler struct {
	cfg     *config.Config
	factory providerSource
	builder *prompt.Builder
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(cfg *config.Config) *AgentHandler {
	return &AgentHandler{
		cfg:     cfg,
		factory: llm.NewProviderFactory(cfg.GeminiAPIKey, cfg.OpenAIAPIKey),
		builder: prompt.NewBuilder(),
	}
}

// Dispatch asks the model which action to take for the user text, then runs
// the tool if one was chosen. Unparseable decisions fall back to no action.
// POST /api/agent
func (h *AgentHandler) Dispatch(c *gin.Context) {
	var req models.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()

	provider, err := h.factory.GetProvider(ctx, h.cfg.ChatModel, "")
	if err != nil {
		log.Printf("❌ Agent: provider setup failed: %v", err)
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	resp, err := provider.GenerateText(ctx, &llm.TextRequest{
		Model:      h.cfg.ChatModel,
		Prompt:     h.builder.DecisionPrompt(req.UserText),
		JSONOutput: true,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	// A decision the model failed to phrase as JSON means no action
	var decision models.AgentDecision
	if err := json.Unmarshal([]byte(resp.Text), &decision); err != nil {
		log.Printf("⚠️  Agent: unparseable decision, defaulting to none: %v", err)
		decision = models.AgentDecision{Action: "none"}
	}

	log.Printf("🤖 Agent decision: action=%s params=%v", decision.Action, decision.Params)

	if decision.Action == actionRecommendSongs {
		result := tools.RecommendSongs(decision.Params["mood"])
		c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  gin.H{"message": "No action needed."},
	})
}
