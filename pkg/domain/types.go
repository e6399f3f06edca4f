package domain

import "time"

// AnalysisResult is the structured exegesis returned by the AI provider.
// The five core fields plus the term list must all be present for the
// result to be considered valid.
type AnalysisResult struct {
	Verse               string   `json:"verse"`
	Context             string   `json:"context"`
	HistoricalAnalysis  string   `json:"historicalAnalysis"`
	TheologicalInsights string   `json:"theologicalInsights"`
	OriginalLanguages   []Term   `json:"originalLanguages"`
	ImagePrompt         string   `json:"imagePrompt"`
	Sources             []Source `json:"sources,omitempty"`
}

// Term is an original-language term surfaced by the analysis.
type Term struct {
	Term            string `json:"term"`
	Transliteration string `json:"transliteration"`
	Meaning         string `json:"meaning"`
}

// Source is a grounding citation attached by the provider.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// HistoryEntry records one successful query. Entries are immutable and
// kept most-recent-first per user.
type HistoryEntry struct {
	ID        string         `json:"id"`
	Query     string         `json:"query"`
	Timestamp time.Time      `json:"timestamp"`
	Result    AnalysisResult `json:"result"`
	ImageURL  string         `json:"imageUrl,omitempty"`
}

// User is a registered account. The account system exists to key per-user
// history, not as a security boundary.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
