package handlers

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	"github.com/moodtunes/moodtunes-api/pkg/embedded"
)

// WebHandler renders the embedded browser pages
type WebHandler struct{}

func NewWebHandler() *WebHandler {
	return &WebHandler{}
}

// Home renders the landing page
func (h *WebHandler) Home(c *gin.Context) {
	h.renderPage(c, embedded.HomePageHTML)
}

// ChatBot renders the streaming chat page
func (h *WebHandler) ChatBot(c *gin.Context) {
	h.renderPage(c, embedded.ChatPageHTML)
}

// SongRecommender renders the song recommender page
func (h *WebHandler) SongRecommender(c *gin.Context) {
	h.renderPage(c, embedded.RecommenderPageHTML)
}

func (h *WebHandler) renderPage(c *gin.Context, page []byte) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	component := templ.Raw(string(page))
	if err := component.Render(c.Request.Context(), c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render template"})
	}
}
