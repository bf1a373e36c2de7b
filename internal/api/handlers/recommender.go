package handlers

import (
	"encoding/json"
	"fmt"
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

// Defaults used when the caller supplies the mood and detection is skipped
const (
	defaultSecondaryMood = "null"
	defaultEnergyLevel   = "medium"
	defaultLanguage      = "English"
)

// RecommenderHandler serves mood detection + song recommendations
type RecommenderHandler struct {
	cfg       *config.Config
	factory   providerSource
	builder   *prompt.Builder
	cwMetrics *metrics.Client
}

// NewRecommenderHandler creates a new recommender handler
func NewRecommenderHandler(cfg *config.Config, cwMetrics *metrics.Client) *RecommenderHandler {
	return &RecommenderHandler{
		cfg:       cfg,
		factory:   llm.NewProviderFactory(cfg.GeminiAPIKey, cfg.OpenAIAPIKey),
		builder:   prompt.NewBuilder(),
		cwMetrics: cwMetrics,
	}
}

// Recommend handles song recommendation requests. Two sequential model
// calls: mood detection (skipped when the caller provides a mood), then
// song selection. Both expect strict JSON from the model; unparseable
// output propagates as a 500 with no repair pass.
// POST /api/song-recommender-agent
func (h *RecommenderHandler) Recommend(c *gin.Context) {
	var req models.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	startTime := time.Now()

	provider, err := h.factory.GetProvider(ctx, h.cfg.ChatModel, "")
	if err != nil {
		log.Printf("❌ Recommend: provider setup failed: %v", err)
		sentry.CaptureException(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	trace := observability.GetClient().StartTrace(ctx, "song_recommender", map[string]interface{}{
		"request_id":    c.GetString("request_id"),
		"mood_provided": req.Mood != "",
	})
	defer trace.Finish()

	// Mood detection (only if mood not provided)
	var mood models.MoodProfile
	if req.Mood != "" {
		mood = models.MoodProfile{
			PrimaryMood:   req.Mood,
			SecondaryMood: defaultSecondaryMood,
			EnergyLevel:   defaultEnergyLevel,
			Language:      defaultLanguage,
		}
	} else {
		mood, err = h.detectMood(c, provider, trace, req.Text)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
			return
		}
	}

	songs, err := h.recommendSongs(c, provider, trace, req.Text, mood)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}

	if h.cwMetrics != nil {
		h.cwMetrics.RecordGenerationDuration(time.Since(startTime), true)
	}

	c.JSON(http.StatusOK, models.RecommendResponse{
		Success: true,
		Mood:    mood,
		Songs:   songs,
	})
}

// detectMood runs the mood-analysis model call and parses its JSON output
func (h *RecommenderHandler) detectMood(
	c *gin.Context, provider llm.Provider, trace *observability.Trace, text string,
) (models.MoodProfile, error) {
	gen := trace.Generation("mood.detect", map[string]interface{}{"provider": provider.Name()})
	gen.Input(text)
	defer gen.Finish()

	resp, err := provider.GenerateText(c.Request.Context(), &llm.TextRequest{
		Model:      h.cfg.ChatModel,
		Prompt:     h.builder.MoodPrompt(text),
		JSONOutput: true,
	})
	if err != nil {
		gen.SetLevel("ERROR")
		return models.MoodProfile{}, err
	}

	var mood models.MoodProfile
	if err := json.Unmarshal([]byte(resp.Text), &mood); err != nil {
		log.Printf("❌ Recommend: unparseable mood output: %v", err)
		gen.SetLevel("ERROR")
		return models.MoodProfile{}, fmt.Errorf("failed to parse mood output: %w", err)
	}

	gen.Output(mood)
	gen.LogUsage(h.cfg.ChatModel, resp.Usage)
	return mood, nil
}

// recommendSongs runs the song-selection model call and parses its JSON output
func (h *RecommenderHandler) recommendSongs(
	c *gin.Context, provider llm.Provider, trace *observability.Trace,
	text string, mood models.MoodProfile,
) ([]models.Song, error) {
	gen := trace.Generation("songs.recommend", map[string]interface{}{"provider": provider.Name()})
	gen.Input(mood)
	defer gen.Finish()

	resp, err := provider.GenerateText(c.Request.Context(), &llm.TextRequest{
		Model:      h.cfg.ChatModel,
		Prompt:     h.builder.SongPrompt(text, mood),
		JSONOutput: true,
	})
	if err != nil {
		gen.SetLevel("ERROR")
		return nil, err
	}

	var list models.SongList
	if err := json.Unmarshal([]byte(resp.Text), &list); err != nil {
		log.Printf("❌ Recommend: unparseable song output: %v", err)
		gen.SetLevel("ERROR")
		return nil, fmt.Errorf("failed to parse song output: %w", err)
	}

	gen.Output(list.Songs)
	gen.LogUsage(h.cfg.ChatModel, resp.Usage)

	if list.Songs == nil {
		list.Songs = []models.Song{}
	}
	return list.Songs, nil
}
