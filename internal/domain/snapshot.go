package domain

import "time"

// kstOffset is the platform's local day boundary. Date keys are always
// derived in UTC+9 regardless of where the process runs.
var kstOffset = time.FixedZone("UTC+9", 9*60*60)

// ArticleSection is one heading/body block inside an article.
type ArticleSection struct {
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

// Article is one per-game news piece, AI-generated or fallback-assembled.
// Both paths produce the same shape so readers never branch on origin.
type Article struct {
	UniverseID int64            `json:"universeId"`
	GameName   string           `json:"gameName"`
	Title      string           `json:"title"`
	Deck       string           `json:"deck"`
	Lede       string           `json:"lede"`
	Sections   []ArticleSection `json:"sections"`
	WhyNow     string           `json:"whyNow"`
	Numbers    []string         `json:"numbers"`
	WhatToDo   string           `json:"whatToDo"`
}

// ArticleBundle is what the generator hands back for one edition.
type ArticleBundle struct {
	Headlines []string
	Articles  []Article
}

// SnapshotMeta records which ranking list the edition was built from.
type SnapshotMeta struct {
	SortName string `json:"sortName"`
	SortID   string `json:"sortId"`
}

// Snapshot is the persisted unit: one weekly edition.
type Snapshot struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Meta        SnapshotMeta   `json:"meta"`
	Headlines   []string       `json:"headlines"`
	Articles    []Article      `json:"articles"`
	Top5        []EnrichedGame `json:"top5"`
	Top100      []EnrichedGame `json:"top100"`
}

// RunRecord is the operability trail of one refresh attempt.
type RunRecord struct {
	ID            string
	DateKey       string
	SortID        string
	SortName      string
	ArticleSource string
	Duration      time.Duration
	Err           string
	StartedAt     time.Time
}

// Article sources recorded per run. Coverage is all-or-nothing, so a single
// value describes the whole edition.
const (
	ArticleSourceAI       = "ai"
	ArticleSourceFallback = "fallback"
)

// DateKey maps a timestamp to the platform-local calendar date.
func DateKey(t time.Time) string {
	return t.In(kstOffset).Format("2006-01-02")
}
