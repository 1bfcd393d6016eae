package models

import "time"

// NewsEntry is a single feed item as returned by the news aggregator.
// PublishedAt keeps the feed's own formatting.
type NewsEntry struct {
	Title       string `json:"title"`
	PublishedAt string `json:"published_at"`
	Summary     string `json:"summary"`
	Link        string `json:"link"`
}

// Entity is a named span produced by an entity recognizer.
type Entity struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ClassifiedEntry is a NewsEntry labeled with the state it mentions.
// An empty DetectedState means no state matched.
type ClassifiedEntry struct {
	NewsEntry
	DetectedState string `json:"detected_state,omitempty"`
}

// StateCount is one row of the per-state tally.
type StateCount struct {
	State string `json:"state"`
	Count int    `json:"count"`
}

// Report bundles the outcome of one search.
type Report struct {
	ID        string            `json:"id"`
	Query     string            `json:"query"`
	FetchedAt time.Time         `json:"fetched_at"`
	Fetched   int               `json:"fetched"`
	Entries   []ClassifiedEntry `json:"entries"`
	Tally     []StateCount      `json:"tally"`
}

// Empty reports whether no entry matched a state.
func (r *Report) Empty() bool {
	return r == nil || len(r.Entries) == 0
}
