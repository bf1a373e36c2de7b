package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodtunes/moodtunes-api/internal/llm"
	"github.com/moodtunes/moodtunes-api/internal/models"
	"github.com/moodtunes/moodtunes-api/internal/prompt"
)

const (
	moodJSON = `{"primaryMood":"happy","secondaryMood":"null","energyLevel":"high","language":"English"}`
	songJSON = `{"songs":[
		{"title":"Happy","artist":"Pharrell Williams","reason":"upbeat","spotifyQuery":"Happy Pharrell Williams","youtubeQuery":"Happy Pharrell Williams official audio"},
		{"title":"Walking on Sunshine","artist":"Katrina and the Waves","reason":"pure joy","spotifyQuery":"Walking on Sunshine Katrina","youtubeQuery":"Walking on Sunshine official audio"}
	]}`
)

func newRecommenderTestRouter(source providerSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &RecommenderHandler{
		cfg:     testConfig(),
		factory: source,
		builder: prompt.NewBuilder(),
	}
	router := gin.New()
	router.POST("/api/song-recommender-agent", h.Recommend)
	return router
}

func TestRecommendDetectsMoodThenPicksSongs(t *testing.T) {
	var prompts []string
	source := &mockSource{provider: &MockProvider{
		generateFunc: func(_ context.Context, req *llm.TextRequest) (*llm.TextResponse, error) {
			prompts = append(prompts, req.Prompt)
			assert.True(t, req.JSONOutput)
			if len(prompts) == 1 {
				return &llm.TextResponse{Text: moodJSON}, nil
			}
			return &llm.TextResponse{Text: songJSON}, nil
		},
	}}
	router := newRecommenderTestRouter(source)

	w := postJSON(router, "/api/song-recommender-agent", `{"text":"best day ever!"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.RecommendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "happy", resp.Mood.PrimaryMood)
	assert.Equal(t, "high", resp.Mood.EnergyLevel)
	require.Len(t, resp.Songs, 2)
	assert.Equal(t, "Happy", resp.Songs[0].Title)

	// Two sequential model calls: mood analysis, then song selection
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "mood analyzer")
	assert.Contains(t, prompts[0], "best day ever!")
	assert.Contains(t, prompts[1], "music recommendation assistant")
	assert.Contains(t, prompts[1], "Primary: happy")
}

func TestRecommendSkipsDetectionWhenMoodProvided(t *testing.T) {
	var prompts []string
	source := &mockSource{provider: &MockProvider{
		generateFunc: func(_ context.Context, req *llm.TextRequest) (*llm.TextResponse, error) {
			prompts = append(prompts, req.Prompt)
			return &llm.TextResponse{Text: songJSON}, nil
		},
	}}
	router := newRecommenderTestRouter(source)

	w := postJSON(router, "/api/song-recommender-agent", `{"text":"whatever","mood":"romantic"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.RecommendResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.MoodProfile{
		PrimaryMood:   "romantic",
		SecondaryMood: "null",
		EnergyLevel:   "medium",
		Language:      "English",
	}, resp.Mood)

	// Only the song call ran
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Primary: romantic")
}

func TestRecommendUnparseableMoodOutput(t *testing.T) {
	source := &mockSource{provider: &MockProvider{
		generateFunc: func(_ context.Context, _ *llm.TextRequest) (*llm.TextResponse, error) {
			return &llm.TextResponse{Text: "sorry, I cannot do that"}, nil
		},
	}}
	router := newRecommenderTestRouter(source)

	w := postJSON(router, "/api/song-recommender-agent", `{"text":"hmm"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to parse mood output")
}

func TestRecommendUnparseableSongOutput(t *testing.T) {
	calls := 0
	source := &mockSource{provider: &MockProvider{
		generateFunc: func(_ context.Context, _ *llm.TextRequest) (*llm.TextResponse, error) {
			calls++
			if calls == 1 {
				return &llm.TextResponse{Text: moodJSON}, nil
			}
			return &llm.TextResponse{Text: "not json"}, nil
		},
	}}
	router := newRecommenderTestRouter(source)

	w := postJSON(router, "/api/song-recommender-agent", `{"text":"hmm"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to parse song output")
}

func TestRecommendInvalidBody(t *testing.T) {
	source := &mockSource{provider: &MockProvider{}}
	router := newRecommenderTestRouter(source)

	w := postJSON(router, "/api/song-recommender-agent", `{"text":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
	assert.Equal(t, 0, source.calls)
}

func TestRecommendGenerationFailure(t *testing.T) {
	source := &mockSource{provider: &MockProvider{
		generateFunc: func(_ context.Context, _ *llm.TextRequest) (*llm.TextResponse, error) {
			return nil, errors.New("quota exceeded")
		},
	}}
	router := newRecommenderTestRouter(source)

	w := postJSON(router, "/api/song-recommender-agent", `{"text":"hi"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "quota exceeded")
}
