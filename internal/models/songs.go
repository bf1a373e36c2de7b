package models

// MoodProfile describes the detected (or caller-provided) mood of a text
type MoodProfile struct {
	PrimaryMood   string `json:"primaryMood"`
	SecondaryMood string `json:"secondaryMood"`
	EnergyLevel   string `json:"energyLevel"`
	Language      string `json:"language"`
}

// Song is one recommendation returned by the song recommender
type Song struct {
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Reason       string `json:"reason"`
	SpotifyQuery string `json:"spotifyQuery"`
	YoutubeQuery string `json:"youtubeQuery"`
}

// SongList is the JSON shape the model returns for the song prompt
type SongList struct {
	Songs []Song `json:"songs"`
}

// RecommendRequest is the request body for the song recommender endpoint
type RecommendRequest struct {
	Text string `json:"text"`
	Mood string `json:"mood,omitempty"`
}

// RecommendResponse is the success response for the song recommender endpoint
type RecommendResponse struct {
	Success bool        `json:"success"`
	Mood    MoodProfile `json:"mood"`
	Songs   []Song      `json:"songs"`
}

// AgentRequest is the request body for the agent dispatch endpoint
type AgentRequest struct {
	UserText string `json:"userText"`
}

// AgentDecision is the JSON shape the model returns for the decision prompt
type AgentDecision struct {
	Action string            `json:"action"`
	Params map[string]string `json:"params"`
}
