package tools

// SongResult is the output of the static song lookup
type SongResult struct {
	Mood  string   `json:"mood"`
	Songs []string `json:"songs"`
}

// songsByMood is the static keyword-to-song table used by the agent tool
var songsByMood = map[string][]string{
	"romantic": {"Perfect - Ed Sheeran", "Raabta - Arijit Singh", "Tum Hi Ho"},
	"sad":      {"Fix You - Coldplay", "Let Her Go - Passenger"},
	"happy":    {"Happy - Pharrell Williams", "Can't Stop the Feeling"},
}

// defaultSongs is returned for moods outside the table
var defaultSongs = []string{"Believer - Imagine Dragons"}

// RecommendSongs looks up songs for the given mood, falling back to a
// default entry for unknown moods
func RecommendSongs(mood string) SongResult {
	songs, ok := songsByMood[mood]
	if !ok {
		songs = defaultSongs
	}

	return SongResult{
		Mood:  mood,
		Songs: songs,
	}
}
