package roblox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"robopress/internal/config"
	"robopress/internal/domain"
	"robopress/internal/ports"
	"robopress/internal/ratelimit"
)

// Client talks to the platform's public game APIs. One instance is shared by
// the pipeline and the thumbnail proxy; every call goes through a common rate
// limiter to stay under third-party limits.
type Client struct {
	apisBase      string
	gamesBase     string
	thumbsBase    string
	sessionID     string
	maxSortsTried int
	httpClient    *http.Client
	limiter       *ratelimit.Limiter
	logger        *slog.Logger
}

var _ ports.ExploreSource = (*Client)(nil)
var _ ports.GameCatalog = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.RobloxConfig, logger *slog.Logger) *Client {
	return &Client{
		apisBase:      strings.TrimRight(cfg.APIsBaseURL, "/"),
		gamesBase:     strings.TrimRight(cfg.GamesBaseURL, "/"),
		thumbsBase:    strings.TrimRight(cfg.ThumbnailsBaseURL, "/"),
		sessionID:     cfg.SessionID,
		maxSortsTried: cfg.MaxSortsTried,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		limiter:       ratelimit.New("roblox", cfg.RequestsPerSecond),
		logger:        logger,
	}
}

// GameDetails fetches the batched details endpoint for the given universe
// ids. The caller is responsible for keeping batches within the API's limit.
func (c *Client) GameDetails(ctx context.Context, universeIDs []int64) (map[int64]domain.GameDetail, error) {
	if len(universeIDs) == 0 {
		return map[int64]domain.GameDetail{}, nil
	}

	var payload struct {
		Data []struct {
			ID          int64   `json:"id"`
			RootPlaceID *int64  `json:"rootPlaceId"`
			Name        string  `json:"name"`
			Description string  `json:"description"`
			Creator     *struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"creator"`
			Playing    *int64  `json:"playing"`
			Visits     *int64  `json:"visits"`
			MaxPlayers *int    `json:"maxPlayers"`
			Created    *string `json:"created"`
			Updated    *string `json:"updated"`
			Genre      *string `json:"genre"`
		} `json:"data"`
	}

	endpoint := c.gamesBase + "/v1/games?universeIds=" + joinIDs(universeIDs)
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch game details: %w", err)
	}

	result := make(map[int64]domain.GameDetail, len(payload.Data))
	for _, d := range payload.Data {
		detail := domain.GameDetail{
			UniverseID:  d.ID,
			PlaceID:     d.RootPlaceID,
			Name:        d.Name,
			Description: d.Description,
			Playing:     d.Playing,
			Visits:      d.Visits,
			MaxPlayers:  d.MaxPlayers,
			Created:     d.Created,
			Updated:     d.Updated,
			Genre:       d.Genre,
		}
		if d.Creator != nil {
			detail.Creator = &domain.Creator{ID: d.Creator.ID, Name: d.Creator.Name, Type: d.Creator.Type}
		}
		result[d.ID] = detail
	}

	return result, nil
}

// GameVotes fetches the batched votes endpoint.
func (c *Client) GameVotes(ctx context.Context, universeIDs []int64) (map[int64]domain.VoteCounts, error) {
	if len(universeIDs) == 0 {
		return map[int64]domain.VoteCounts{}, nil
	}

	var payload struct {
		Data []struct {
			ID        int64 `json:"id"`
			UpVotes   int64 `json:"upVotes"`
			DownVotes int64 `json:"downVotes"`
		} `json:"data"`
	}

	endpoint := c.gamesBase + "/v1/games/votes?universeIds=" + joinIDs(universeIDs)
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("fetch game votes: %w", err)
	}

	result := make(map[int64]domain.VoteCounts, len(payload.Data))
	for _, d := range payload.Data {
		result[d.ID] = domain.VoteCounts{UpVotes: d.UpVotes, DownVotes: d.DownVotes}
	}

	return result, nil
}

// FavoriteCount fetches the favorites counter for a single universe.
func (c *Client) FavoriteCount(ctx context.Context, universeID int64) (int64, error) {
	var payload struct {
		FavoritesCount int64 `json:"favoritesCount"`
	}

	endpoint := fmt.Sprintf("%s/v1/games/%d/favorites/count", c.gamesBase, universeID)
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return 0, fmt.Errorf("fetch favorites for %d: %w", universeID, err)
	}

	return payload.FavoritesCount, nil
}

// Thumbnails fetches the batched icon endpoint and returns the raw upstream
// JSON for proxying, without reinterpreting the shape.
func (c *Client) Thumbnails(ctx context.Context, universeIDs string) ([]byte, error) {
	query := url.Values{}
	query.Set("universeIds", universeIDs)
	query.Set("size", "512x512")
	query.Set("format", "Png")
	query.Set("returnPolicy", "PlaceHolder")

	endpoint := c.thumbsBase + "/v1/games/icons?" + query.Encode()

	body, err := c.getRaw(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch thumbnails: %w", err)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("fetch thumbnails: upstream returned malformed JSON")
	}

	return body, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	body, err := c.getRaw(ctx, endpoint)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) getRaw(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return body, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
