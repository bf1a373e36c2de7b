package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodtunes/moodtunes-api/internal/config"
	"github.com/moodtunes/moodtunes-api/internal/llm"
	"github.com/moodtunes/moodtunes-api/internal/prompt"
)

// MockProvider is a test implementation of the llm.Provider interface
type MockProvider struct {
	name               string
	generateFunc       func(ctx context.Context, request *llm.TextRequest) (*llm.TextResponse, error)
	generateStreamFunc func(ctx context.Context, request *llm.TextRequest, callback llm.StreamCallback) (*llm.TextResponse, error)
}

func (m *MockProvider) Name() string {
	if m.name != "" {
		return m.name
	}
	return "mock"
}

func (m *MockProvider) GenerateText(ctx context.Context, request *llm.TextRequest) (*llm.TextResponse, error) {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, request)
	}
	return &llm.TextResponse{}, nil
}

func (m *MockProvider) GenerateTextStream(
	ctx context.Context, request *llm.TextRequest, callback llm.StreamCallback,
) (*llm.TextResponse, error) {
	if m.generateStreamFunc != nil {
		return m.generateStreamFunc(ctx, request, callback)
	}
	return &llm.TextResponse{}, nil
}

// mockSource hands out a fixed provider and counts lookups
type mockSource struct {
	provider llm.Provider
	err      error
	calls    int
}

func (s *mockSource) GetProvider(_ context.Context, _, _ string) (llm.Provider, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.provider, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		ChatModel:   config.DefaultChatModel,
	}
}

func newChatTestRouter(source providerSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &ChatHandler{
		cfg:     testConfig(),
		factory: source,
		builder: prompt.NewBuilder(),
	}
	router := gin.New()
	router.POST("/api/chat-bot/chat", h.Chat)
	router.POST("/api/chat-bot/chat-stream", h.ChatStream)
	return router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestChatStreamRelaysFragmentsInOrder(t *testing.T) {
	source := &mockSource{provider: &MockProvider{
		generateStreamFunc: func(_ context.Context, _ *llm.TextRequest, cb llm.StreamCallback) (*llm.TextResponse, error) {
			for _, frag := range []string{"Hel", "lo ", "🎧 ", "world"} {
				if err := cb(frag); err != nil {
					return nil, err
				}
			}
			return &llm.TextResponse{Text: "Hello 🎧 world"}, nil
		},
	}}
	router := newChatTestRouter(source)

	w := postJSON(router, "/api/chat-bot/chat-stream",
		`{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "Hello 🎧 world", w.Body.String())
	assert.Equal(t, 1, source.calls)
}

func TestChatStreamValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty messages", `{"messages":[]}`},
		{"missing messages", `{}`},
		{"malformed json", `{"messages":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &mockSource{provider: &MockProvider{}}
			router := newChatTestRouter(source)

			w := postJSON(router, "/api/chat-bot/chat-stream", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, false, resp["success"])
			assert.Equal(t, "Messages are required", resp["message"])

			// Rejected before any provider work
			assert.Equal(t, 0, source.calls)
		})
	}
}

func TestChatStreamSetupFailureReturnsJSONError(t *testing.T) {
	source := &mockSource{provider: &MockProvider{
		generateStreamFunc: func(_ context.Context, _ *llm.TextRequest, _ llm.StreamCallback) (*llm.TextResponse, error) {
			return nil, errors.New("model unavailable")
		},
	}}
	router := newChatTestRouter(source)

	w := postJSON(router, "/api/chat-bot/chat-stream",
		`{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "model unavailable", resp["message"])
}

func TestChatStreamProviderLookupFailure(t *testing.T) {
	source := &mockSource{err: errors.New("gemini API key not configured")}
	router := newChatTestRouter(source)

	w := postJSON(router, "/api/chat-bot/chat-stream",
		`{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "gemini API key not configured")
}

func TestChatStreamMidStreamFailureUsesInBandMarker(t *testing.T) {
	source := &mockSource{provider: &MockProvider{
		generateStreamFunc: func(_ context.Context, _ *llm.TextRequest, cb llm.StreamCallback) (*llm.TextResponse, error) {
			if err := cb("partial answer"); err != nil {
				return nil, err
			}
			return nil, errors.New("upstream reset")
		},
	}}
	router := newChatTestRouter(source)

	w := postJSON(router, "/api/chat-bot/chat-stream",
		`{"messages":[{"role":"user","content":"hi"}]}`)

	// The 200 was committed with the first fragment; the failure is in-band
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "partial answer\n[Streaming error]", w.Body.String())
}

func TestChatStreamEmptyGenerationDeliversEmptyStream(t *testing.T) {
	source := &mockSource{provider: &MockProvider{
		generateStreamFunc: func(_ context.Context, _ *llm.TextRequest, _ llm.StreamCallback) (*llm.TextResponse, error) {
			return &llm.TextResponse{}, nil
		},
	}}
	router := newChatTestRouter(source)

	w := postJSON(router, "/api/chat-bot/chat-stream",
		`{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Empty(t, w.Body.String())
}

func TestChatStreamFlattensConversation(t *testing.T) {
	var captured string
	source := &mockSource{provider: &MockProvider{
		generateStreamFunc: func(_ context.Context, req *llm.TextRequest, cb llm.StreamCallback) (*llm.TextResponse, error) {
			captured = req.Prompt
			_ = cb("ok")
			return &llm.TextResponse{Text: "ok"}, nil
		},
	}}
	router := newChatTestRouter(source)

	w := postJSON(router, "/api/chat-bot/chat-stream",
		`{"messages":[
			{"role":"user","content":"hello"},
			{"role":"assistant","content":"hi there"},
			{"role":"user","content":"how are you?"}
		]}`)

	require.Equal(t, http.StatusOK, w.Code)

	lines := strings.Split(captured, "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "System: "))
	assert.Equal(t, "User: hello", lines[1])
	assert.Equal(t, "Assistant: hi there", lines[2])
	assert.Equal(t, "User: how are you?", lines[3])
}

func TestChatReturnsGeneratedText(t *testing.T) {
	source := &mockSource{provider: &MockProvider{
		generateFunc: func(_ context.Context, req *llm.TextRequest) (*llm.TextResponse, error) {
			assert.Equal(t, config.DefaultChatModel, req.Model)
			return &llm.TextResponse{
				Text:  "the full answer",
				Usage: &llm.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
			}, nil
		},
	}}
	router := newChatTestRouter(source)

	w := postJSON(router, "/api/chat-bot/chat",
		`{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "the full answer", resp["data"])
}

func TestChatValidation(t *testing.T) {
	source := &mockSource{provider: &MockProvider{}}
	router := newChatTestRouter(source)

	w := postJSON(router, "/api/chat-bot/chat", `{"messages":[]}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Messages are required")
	assert.Equal(t, 0, source.calls)
}

func TestChatGenerationFailure(t *testing.T) {
	source := &mockSource{provider: &MockProvider{
		generateFunc: func(_ context.Context, _ *llm.TextRequest) (*llm.TextResponse, error) {
			return nil, errors.New("quota exceeded")
		},
	}}
	router := newChatTestRouter(source)

	w := postJSON(router, "/api/chat-bot/chat",
		`{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "quota exceeded")
}
