package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"robopress/internal/config"
	"robopress/internal/domain"
	"robopress/internal/ports"
)

const defaultDescriptionBudget = 600

// systemPrompt pins the output contract: one JSON object, Korean copy, and
// only the facts supplied in the user payload.
const systemPrompt = `당신은 로블록스 주간 뉴스 데스크의 편집자입니다. 제공된 JSON의 수치와 텍스트만 사용해 기사를 작성하세요. 제공되지 않은 속성, 업데이트 내용, 개발자 발언을 지어내지 마세요.
응답은 산문 없이 아래 스키마의 JSON 객체 하나여야 합니다:
{"headlines":["전체 에디션 헤드라인 최대 3개"],"articles":[{"universeId":123,"gameName":"...","title":"...","deck":"...","lede":"...","sections":[{"heading":"...","text":"..."}],"whyNow":"...","numbers":["..."],"whatToDo":"..."}]}
articles 배열은 입력된 다섯 게임 모두를 포함해야 하고, 각 기사의 sections는 3~4개여야 합니다. 모든 텍스트는 한국어로 작성하세요.`

// OpenAIGenerator implements ports.ArticleGenerator over the OpenAI
// chat-completions API. One request per edition, no retry: any failure is
// reported as "no bundle" and the caller assembles fallback articles.
type OpenAIGenerator struct {
	client     *openai.Client
	model      string
	descBudget int
	logger     *slog.Logger
}

var _ ports.ArticleGenerator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator builds a generator from configuration.
func NewOpenAIGenerator(cfg config.OpenAIConfig, logger *slog.Logger) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	budget := cfg.DescriptionBudget
	if budget <= 0 {
		budget = defaultDescriptionBudget
	}

	return &OpenAIGenerator{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		descBudget: budget,
		logger:     logger,
	}
}

// Generate sends the slimmed top-5 facts and validates the response. It
// returns (nil, nil) whenever the model output cannot be used in full;
// generation problems never become pipeline errors.
func (g *OpenAIGenerator) Generate(ctx context.Context, meta domain.SnapshotMeta, games []domain.EnrichedGame) (*domain.ArticleBundle, error) {
	payload, err := json.Marshal(g.buildFacts(meta, games))
	if err != nil {
		return nil, fmt.Errorf("marshal facts payload: %w", err)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
	})
	if err != nil {
		g.logger.Warn("article generation failed", "error", err)
		return nil, nil
	}

	content := ""
	finishReason := ""
	if len(resp.Choices) > 0 {
		content = strings.TrimSpace(resp.Choices[0].Message.Content)
		finishReason = string(resp.Choices[0].FinishReason)
	}

	if content == "" {
		g.logger.Warn("article generation returned empty text",
			"finish_reason", finishReason,
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens)
		return nil, nil
	}

	bundle, reason := ParseBundle(content, games)
	if bundle == nil {
		g.logger.Warn("article generation rejected", "reason", reason, "finish_reason", finishReason)
		return nil, nil
	}

	return bundle, nil
}

// factGame is the size-bounded projection sent to the model.
type factGame struct {
	UniverseID  int64    `json:"universeId"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Playing     *int64   `json:"playing"`
	Visits      *int64   `json:"visits"`
	Favorites   *int64   `json:"favorites"`
	UpVotes     *int64   `json:"upVotes"`
	DownVotes   *int64   `json:"downVotes"`
	LikeRatio   *float64 `json:"likeRatio"`
	Genre       *string  `json:"genre"`
	MaxPlayers  *int     `json:"maxPlayers"`
	Created     *string  `json:"created"`
	Updated     *string  `json:"updated"`
}

func (g *OpenAIGenerator) buildFacts(meta domain.SnapshotMeta, games []domain.EnrichedGame) map[string]any {
	facts := make([]factGame, 0, len(games))
	for _, game := range games {
		facts = append(facts, factGame{
			UniverseID:  game.UniverseID,
			Name:        game.Name,
			Description: domain.TruncateRunes(domain.SanitizeDescription(game.Description), g.descBudget),
			Playing:     game.Playing,
			Visits:      game.Visits,
			Favorites:   game.Favorites,
			UpVotes:     game.UpVotes,
			DownVotes:   game.DownVotes,
			LikeRatio:   game.LikeRatio,
			Genre:       game.Genre,
			MaxPlayers:  game.MaxPlayers,
			Created:     game.Created,
			Updated:     game.Updated,
		})
	}

	return map[string]any{
		"sortName": meta.SortName,
		"sortId":   meta.SortID,
		"games":    facts,
	}
}
