package prompt

import (
	"fmt"
	"strings"

	"github.com/moodtunes/moodtunes-api/internal/models"
)

// System instructions for the chat endpoints
const (
	ChatSystemPrompt = "You are a helpful assistant. Reply in simple English. " +
		"Do not use markdown symbols like ** or #. Use plain text only."
	ChatStreamSystemPrompt = "You are a helpful assistant. Reply in simple English. Use plain text only."
)

// Role labels used when flattening a conversation into a single prompt
const (
	labelUser      = "User"
	labelAssistant = "Assistant"
)

// Builder assembles prompt text for the chat, mood and song model calls
type Builder struct{}

// NewBuilder creates a new prompt builder
func NewBuilder() *Builder {
	return &Builder{}
}

// ChatPrompt flattens the conversation into a single Gemini-friendly prompt:
// one "System:" line followed by one "<Role>: <content>" line per message,
// newline-joined, preserving input order.
func (b *Builder) ChatPrompt(systemPrompt string, messages []models.Message) string {
	lines := make([]string, 0, len(messages)+1)
	lines = append(lines, "System: "+systemPrompt)

	for _, m := range messages {
		lines = append(lines, roleLabel(m.Role)+": "+m.Content)
	}

	return strings.Join(lines, "\n")
}

func roleLabel(role string) string {
	if role == models.RoleUser {
		return labelUser
	}
	return labelAssistant
}

// MoodPrompt builds the mood-detection prompt for the song recommender
func (b *Builder) MoodPrompt(text string) string {
	return fmt.Sprintf(`You are an advanced mood analyzer.

Return ONLY valid JSON:
{
  "primaryMood": "romantic|happy|sad|angry|chill",
  "secondaryMood": "romantic|happy|sad|angry|chill|null",
  "energyLevel": "low|medium|high",
  "language": "Hindi|English"
}

Rules:
- Detect compound moods if present (e.g. romantic + sad)
- Detect song language preference from text
- If unsure, default language to English

User text:
%s`, text)
}

// SongPrompt builds the song-recommendation prompt for a detected mood profile
func (b *Builder) SongPrompt(text string, mood models.MoodProfile) string {
	return fmt.Sprintf(`You are a music recommendation assistant.

Return ONLY valid JSON:
{
  "songs": [
    {
      "title": "string",
      "artist": "string",
      "reason": "string",
      "spotifyQuery": "string",
      "youtubeQuery": "string"
    }
  ]
}

Rules:
- Return EXACTLY 5 songs
- Songs MUST be in %s
- Match the mood blend:
  Primary: %s
  Secondary: %s
- Energy: %s
- Avoid repeating previous songs
- Give fresh recommendations every time

spotifyQuery format:
"title artist"

youtubeQuery format:
"title artist official audio"

User text:
%s`, mood.Language, mood.PrimaryMood, mood.SecondaryMood, mood.EnergyLevel, text)
}

// DecisionPrompt builds the agent action-decision prompt
func (b *Builder) DecisionPrompt(userText string) string {
	return fmt.Sprintf(`You are an AI agent.
Decide which action to take based on user text.

Return ONLY valid JSON:
{
  "action": "recommendSongs | none",
  "params": { "mood": "romantic|sad|happy|angry" }
}

User text:
%s`, userText)
}
