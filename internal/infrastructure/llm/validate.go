package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"robopress/internal/domain"
)

const (
	minSections  = 3
	maxSections  = 4
	maxHeadlines = 3
)

// ParseBundle parses raw model output and validates it against the expected
// schema. Coverage is all-or-nothing: a bundle missing even one of the input
// universeIds is rejected entirely, so an edition never mixes AI and
// fallback voices. The second return value names the rejection reason for
// diagnostics.
func ParseBundle(rawText string, games []domain.EnrichedGame) (*domain.ArticleBundle, string) {
	var envelope struct {
		Headlines []json.RawMessage `json:"headlines"`
		Articles  []json.RawMessage `json:"articles"`
	}

	if err := json.Unmarshal([]byte(rawText), &envelope); err != nil {
		return nil, "response is not valid JSON"
	}
	if envelope.Articles == nil {
		return nil, "response has no articles array"
	}

	byID := make(map[int64]domain.Article, len(envelope.Articles))
	for _, raw := range envelope.Articles {
		article, ok := validateArticle(raw)
		if !ok {
			continue
		}
		byID[article.UniverseID] = article
	}

	ordered := make([]domain.Article, 0, len(games))
	for _, game := range games {
		article, ok := byID[game.UniverseID]
		if !ok {
			return nil, fmt.Sprintf("missing article for universe %d", game.UniverseID)
		}
		if article.GameName == "" {
			article.GameName = game.Name
		}
		ordered = append(ordered, article)
	}

	return &domain.ArticleBundle{
		Headlines: validateHeadlines(envelope.Headlines),
		Articles:  ordered,
	}, ""
}

type rawArticle struct {
	UniverseID idValue      `json:"universeId"`
	GameName   string       `json:"gameName"`
	Title      string       `json:"title"`
	Deck       string       `json:"deck"`
	Lede       string       `json:"lede"`
	Sections   []rawSection `json:"sections"`
	WhyNow     string       `json:"whyNow"`
	Numbers    []flexString `json:"numbers"`
	WhatToDo   string       `json:"whatToDo"`
}

type rawSection struct {
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

func validateArticle(raw json.RawMessage) (domain.Article, bool) {
	var a rawArticle
	if err := json.Unmarshal(raw, &a); err != nil {
		return domain.Article{}, false
	}

	if a.UniverseID == 0 {
		return domain.Article{}, false
	}
	for _, field := range []string{a.Title, a.Deck, a.Lede, a.WhyNow, a.WhatToDo} {
		if strings.TrimSpace(field) == "" {
			return domain.Article{}, false
		}
	}
	if len(a.Sections) < minSections || len(a.Sections) > maxSections {
		return domain.Article{}, false
	}
	for _, s := range a.Sections {
		if strings.TrimSpace(s.Heading) == "" || strings.TrimSpace(s.Text) == "" {
			return domain.Article{}, false
		}
	}
	if a.Numbers == nil {
		return domain.Article{}, false
	}

	sections := make([]domain.ArticleSection, 0, len(a.Sections))
	for _, s := range a.Sections {
		sections = append(sections, domain.ArticleSection{Heading: s.Heading, Text: s.Text})
	}

	numbers := make([]string, 0, len(a.Numbers))
	for _, n := range a.Numbers {
		numbers = append(numbers, string(n))
	}

	return domain.Article{
		UniverseID: int64(a.UniverseID),
		GameName:   strings.TrimSpace(a.GameName),
		Title:      a.Title,
		Deck:       a.Deck,
		Lede:       a.Lede,
		Sections:   sections,
		WhyNow:     a.WhyNow,
		Numbers:    numbers,
		WhatToDo:   a.WhatToDo,
	}, true
}

func validateHeadlines(raw []json.RawMessage) []string {
	headlines := make([]string, 0, maxHeadlines)
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			continue
		}
		if strings.TrimSpace(s) == "" {
			continue
		}
		headlines = append(headlines, s)
		if len(headlines) == maxHeadlines {
			break
		}
	}
	return headlines
}

// idValue accepts a universe id encoded as a JSON number or string.
type idValue int64

func (v *idValue) UnmarshalJSON(b []byte) error {
	var n int64
	if err := json.Unmarshal(b, &n); err == nil {
		*v = idValue(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			*v = idValue(parsed)
		}
		return nil
	}

	*v = 0
	return nil
}

// flexString tolerates metric lines the model emits as bare numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = flexString(n.String())
		return nil
	}

	return fmt.Errorf("numbers entry is neither string nor number")
}
