package domain

import "time"

// Delta holds week-over-week movement for one game. All fields are nil when
// there is no prior edition or the game was not ranked last time; nil means
// "no prior data", which is distinct from a zero delta.
type Delta struct {
	Playing      *int64   `json:"playing"`
	Visits       *int64   `json:"visits"`
	Favorites    *int64   `json:"favorites"`
	LikeRatio    *float64 `json:"likeRatio"`
	PlayingPct   *float64 `json:"playingPct"`
	FavoritesPct *float64 `json:"favoritesPct"`
	PrevUpdated  *string  `json:"prevUpdated"`
}

// DeltaGame is an enriched game annotated with its movement.
type DeltaGame struct {
	EnrichedGame
	Delta Delta `json:"delta"`
}

// DeltaSnapshot is the read-time view served to the page. It is derived on
// demand and never written to disk.
type DeltaSnapshot struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Meta        SnapshotMeta   `json:"meta"`
	Headlines   []string       `json:"headlines"`
	Articles    []Article      `json:"articles"`
	Top5        []DeltaGame    `json:"top5"`
	Top100      []EnrichedGame `json:"top100"`
}

// ComputeDelta overlays movement onto the latest snapshot's top5 by matching
// universeIds against the previous edition. previous may be nil.
func ComputeDelta(latest, previous *Snapshot) *DeltaSnapshot {
	if latest == nil {
		return nil
	}

	prevByID := map[int64]EnrichedGame{}
	if previous != nil {
		for _, g := range previous.Top5 {
			prevByID[g.UniverseID] = g
		}
	}

	view := &DeltaSnapshot{
		GeneratedAt: latest.GeneratedAt,
		Meta:        latest.Meta,
		Headlines:   latest.Headlines,
		Articles:    latest.Articles,
		Top100:      latest.Top100,
		Top5:        make([]DeltaGame, 0, len(latest.Top5)),
	}

	for _, game := range latest.Top5 {
		dg := DeltaGame{EnrichedGame: game}
		if prev, ok := prevByID[game.UniverseID]; ok {
			dg.Delta = Delta{
				Playing:      diffInt(game.Playing, prev.Playing),
				Visits:       diffInt(game.Visits, prev.Visits),
				Favorites:    diffInt(game.Favorites, prev.Favorites),
				LikeRatio:    diffFloat(game.LikeRatio, prev.LikeRatio),
				PlayingPct:   pctChange(game.Playing, prev.Playing),
				FavoritesPct: pctChange(game.Favorites, prev.Favorites),
				PrevUpdated:  prev.Updated,
			}
		}
		view.Top5 = append(view.Top5, dg)
	}

	return view
}

func diffInt(cur, prev *int64) *int64 {
	if cur == nil || prev == nil {
		return nil
	}
	d := *cur - *prev
	return &d
}

func diffFloat(cur, prev *float64) *float64 {
	if cur == nil || prev == nil {
		return nil
	}
	d := *cur - *prev
	return &d
}

func pctChange(cur, prev *int64) *float64 {
	if cur == nil || prev == nil || *prev == 0 {
		return nil
	}
	p := float64(*cur-*prev) / float64(*prev)
	return &p
}
