package domain

// Candidate is a raw listing entry resolved from the explore API.
// It only lives between discovery and enrichment and is never persisted.
type Candidate struct {
	UniverseID     int64
	ExploreName    *string
	ExplorePlaying *int64
	ExploreVisits  *int64
}

// Creator identifies the account or group that owns a game.
type Creator struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// EnrichedGame merges discovery, detail, vote and favorite data for one game.
// Built fresh each pipeline run and immutable afterwards; fields the upstream
// could not provide stay nil.
type EnrichedGame struct {
	UniverseID       int64    `json:"universeId"`
	PlaceID          *int64   `json:"placeId"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Creator          *Creator `json:"creator"`
	Playing          *int64   `json:"playing"`
	Visits           *int64   `json:"visits"`
	Favorites        *int64   `json:"favorites"`
	UpVotes          *int64   `json:"upVotes"`
	DownVotes        *int64   `json:"downVotes"`
	LikeRatio        *float64 `json:"likeRatio"`
	Created          *string  `json:"created"`
	Updated          *string  `json:"updated"`
	MaxPlayers       *int     `json:"maxPlayers"`
	Genre            *string  `json:"genre"`
	PlayingCompact   string   `json:"playing_compact"`
	VisitsCompact    string   `json:"visits_compact"`
	FavoritesCompact string   `json:"favorites_compact"`
}

// GameDetail is the per-game slice of the batched details endpoint.
type GameDetail struct {
	UniverseID  int64
	PlaceID     *int64
	Name        string
	Description string
	Creator     *Creator
	Playing     *int64
	Visits      *int64
	Created     *string
	Updated     *string
	MaxPlayers  *int
	Genre       *string
}

// VoteCounts is the per-game slice of the batched votes endpoint.
type VoteCounts struct {
	UpVotes   int64
	DownVotes int64
}

// Sort is one ranking category exposed by the explore API.
type Sort struct {
	ID   string `json:"sortId"`
	Name string `json:"sortName"`
}
