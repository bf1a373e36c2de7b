package embedded

import (
	_ "embed"
)

// Embedded web UI pages

//go:embed data/home.html
var HomePageHTML []byte

//go:embed data/chat.html
var ChatPageHTML []byte

//go:embed data/recommender.html
var RecommenderPageHTML []byte
