package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"robopress/internal/domain"
)

// ErrNoUsableSort signals that no ranking category yielded items. The whole
// pipeline run fails on it; no snapshot is produced that cycle.
var ErrNoUsableSort = errors.New("no usable sort")

// defaultMaxSortsTried bounds worst-case discovery latency when the config
// leaves the knob unset.
const defaultMaxSortsTried = 30

// entryShapeKeys is the ordered shape probe for the sort-content payload:
// the explore API has shipped item lists under each of these names, so the
// first key holding a non-empty list wins.
var entryShapeKeys = []string{"games", "items", "entries"}

// DiscoverSort walks ranking categories in priority order and returns the
// first one whose content yields candidates. Per-sort content failures are
// skipped, not fatal.
func (c *Client) DiscoverSort(ctx context.Context) (domain.Sort, []domain.Candidate, error) {
	sorts, err := c.getSorts(ctx)
	if err != nil {
		return domain.Sort{}, nil, fmt.Errorf("get sorts: %w", err)
	}

	ranked := rankSorts(sorts)

	limit := c.maxSortsTried
	if limit <= 0 {
		limit = defaultMaxSortsTried
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	for _, s := range ranked {
		content, err := c.getSortContent(ctx, s.id())
		if err != nil {
			c.logger.Warn("sort content failed, skipping", "sort", s.id(), "error", err)
			continue
		}
		if strings.EqualFold(content.ContentType, "filters") {
			continue
		}

		candidates := ExtractCandidates(content.Entries)
		if len(candidates) == 0 {
			continue
		}

		c.logger.Info("sort discovered", "sort", s.id(), "name", s.displayName(), "candidates", len(candidates))
		return domain.Sort{ID: s.id(), Name: s.displayName()}, candidates, nil
	}

	return domain.Sort{}, nil, ErrNoUsableSort
}

func (c *Client) getSorts(ctx context.Context) ([]rawSort, error) {
	query := url.Values{}
	if c.sessionID != "" {
		query.Set("sessionId", c.sessionID)
	}

	var payload struct {
		Sorts []rawSort `json:"sorts"`
	}

	endpoint := c.apisBase + "/explore-api/v1/get-sorts?" + query.Encode()
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	return payload.Sorts, nil
}

func (c *Client) getSortContent(ctx context.Context, sortID string) (sortContent, error) {
	query := url.Values{}
	query.Set("sortId", sortID)
	if c.sessionID != "" {
		query.Set("sessionId", c.sessionID)
	}

	endpoint := c.apisBase + "/explore-api/v1/get-sort-content?" + query.Encode()
	body, err := c.getRaw(ctx, endpoint)
	if err != nil {
		return sortContent{}, err
	}

	return parseSortContent(body)
}

// rawSort tolerates the id and display-name fields moving between payload
// revisions.
type rawSort struct {
	SortID          string `json:"sortId"`
	ID              string `json:"id"`
	Token           string `json:"token"`
	SortDisplayName string `json:"sortDisplayName"`
	DisplayName     string `json:"displayName"`
	Name            string `json:"name"`
	ContentType     string `json:"contentType"`
}

func (s rawSort) id() string {
	for _, v := range []string{s.SortID, s.ID, s.Token} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s rawSort) displayName() string {
	for _, v := range []string{s.SortDisplayName, s.DisplayName, s.Name} {
		if v != "" {
			return v
		}
	}
	return s.id()
}

// rankSorts orders candidates highest priority first: names containing
// "popular", then "trending", then "top", then the rest, keeping the
// upstream order within each tier. Sorts without a resolvable id are
// dropped.
func rankSorts(sorts []rawSort) []rawSort {
	ranked := make([]rawSort, 0, len(sorts))
	for _, s := range sorts {
		if s.id() != "" {
			ranked = append(ranked, s)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return sortPriority(ranked[i]) < sortPriority(ranked[j])
	})

	return ranked
}

func sortPriority(s rawSort) int {
	name := strings.ToLower(s.displayName() + " " + s.id())
	switch {
	case strings.Contains(name, "popular"):
		return 0
	case strings.Contains(name, "trending"):
		return 1
	case strings.Contains(name, "top"):
		return 2
	default:
		return 3
	}
}

// sortContent is the probed view of one get-sort-content response.
type sortContent struct {
	ContentType string
	Entries     []rawEntry
}

// parseSortContent locates the item list via the ordered shape probe. Each
// candidate key may hold the list directly or wrap it in a "data" object.
func parseSortContent(body []byte) (sortContent, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return sortContent{}, fmt.Errorf("decode sort content: %w", err)
	}

	content := sortContent{}
	if raw, ok := envelope["contentType"]; ok {
		_ = json.Unmarshal(raw, &content.ContentType)
	}

	for _, key := range entryShapeKeys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		entries := decodeEntryList(raw)
		if len(entries) > 0 {
			content.Entries = entries
			break
		}
	}

	return content, nil
}

func decodeEntryList(raw json.RawMessage) []rawEntry {
	var direct []rawEntry
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct
	}

	var wrapped struct {
		Data []rawEntry `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return wrapped.Data
	}

	return nil
}

// rawEntry is one listing item. Ids arrive as numbers or strings depending
// on the payload revision; metric names drift similarly.
type rawEntry struct {
	UniverseID  flexID `json:"universeId"`
	AltID       flexID `json:"id"`
	Name        string `json:"name"`
	Playing     *int64 `json:"playing"`
	PlayerCount *int64 `json:"playerCount"`
	Visits      *int64 `json:"totalVisits"`
	VisitCount  *int64 `json:"visitCount"`
}

// ExtractCandidates converts raw entries into the uniform candidate shape,
// dropping anything without a resolvable universe id.
func ExtractCandidates(entries []rawEntry) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(entries))
	for _, e := range entries {
		id := int64(e.UniverseID)
		if id == 0 {
			id = int64(e.AltID)
		}
		if id == 0 {
			continue
		}

		cand := domain.Candidate{UniverseID: id}
		if name := strings.TrimSpace(e.Name); name != "" {
			cand.ExploreName = &name
		}
		cand.ExplorePlaying = firstInt(e.Playing, e.PlayerCount)
		cand.ExploreVisits = firstInt(e.Visits, e.VisitCount)

		candidates = append(candidates, cand)
	}
	return candidates
}

func firstInt(values ...*int64) *int64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

// flexID accepts a numeric id encoded as a JSON number or string. Anything
// unparsable decodes to zero and the entry gets dropped downstream.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexID(n)
		return nil
	}

	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		*f = 0
		return nil
	}
	*f = flexID(n)
	return nil
}
