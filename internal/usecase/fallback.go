package usecase

import (
	"fmt"

	"robopress/internal/domain"
)

// noDescriptionPlaceholder stands in for games whose description is absent.
const noDescriptionPlaceholder = "설명이 없습니다."

const (
	deckBudget    = 120
	ledeBudget    = 200
	sectionBudget = 300
)

// FallbackArticle deterministically builds an article from enriched data
// alone. It is used for the whole edition whenever the generated bundle is
// unavailable or fails validation.
func FallbackArticle(game domain.EnrichedGame) domain.Article {
	name := game.Name
	if name == "" {
		name = fmt.Sprintf("유니버스 %d", game.UniverseID)
	}

	desc := domain.SanitizeDescription(game.Description)
	if desc == "" {
		desc = noDescriptionPlaceholder
	}

	return domain.Article{
		UniverseID: game.UniverseID,
		GameName:   name,
		Title:      name,
		Deck:       domain.TruncateRunes(desc, deckBudget),
		Lede:       domain.TruncateRunes(desc, ledeBudget),
		Sections: []domain.ArticleSection{
			{
				Heading: "어떤 게임인가",
				Text:    domain.TruncateRunes(desc, sectionBudget),
			},
			{
				Heading: "지금 해볼 포인트",
				Text: fmt.Sprintf("%s에는 지금 %s명이 접속해 있습니다. 친구와 함께 들어가 핵심 콘텐츠부터 차례로 둘러보세요.",
					name, domain.CompactCount(game.Playing)),
			},
			{
				Heading: "숫자로 보는 인기",
				Text: fmt.Sprintf("누적 방문 %s회, 즐겨찾기 %s개, 좋아요 비율 %s를 기록하고 있습니다.",
					domain.CompactCount(game.Visits),
					domain.CompactCount(game.Favorites),
					domain.RatioPercent(game.LikeRatio)),
			},
		},
		WhyNow:   "이번 주 인기 차트 상위권에 오른 게임입니다. 동시 접속과 즐겨찾기 추이가 순위를 뒷받침합니다.",
		Numbers:  fallbackNumbers(game),
		WhatToDo: fmt.Sprintf("로블록스에서 %q를 검색해 바로 플레이해 보세요.", name),
	}
}

// fallbackNumbers lists the six core metrics as literal strings, with the
// em-dash placeholder for anything the enrichment could not resolve.
func fallbackNumbers(game domain.EnrichedGame) []string {
	return []string{
		"동시 접속 " + domain.CompactCount(game.Playing),
		"누적 방문 " + domain.CompactCount(game.Visits),
		"즐겨찾기 " + domain.CompactCount(game.Favorites),
		"좋아요 " + domain.CompactCount(game.UpVotes),
		"싫어요 " + domain.CompactCount(game.DownVotes),
		"좋아요 비율 " + domain.RatioPercent(game.LikeRatio),
	}
}

// FallbackHeadlines builds edition headlines when the generator supplied
// none.
func FallbackHeadlines(meta domain.SnapshotMeta, top []domain.EnrichedGame) []string {
	headlines := []string{
		fmt.Sprintf("이번 주 로블록스 인기 게임 Top %d", len(top)),
	}
	if len(top) > 0 && top[0].Name != "" {
		headlines = append(headlines, fmt.Sprintf("%s 차트 1위는 %s", meta.SortName, top[0].Name))
	}
	headlines = append(headlines, "동시 접속과 즐겨찾기로 본 이번 주 트렌드")
	if len(headlines) > 3 {
		headlines = headlines[:3]
	}
	return headlines
}
