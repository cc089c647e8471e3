package models

// BullseyePayload is the document posted by the browser extension after a
// Bullseye match. Every field is optional; older extension versions omit
// most of them. The raw document is stored verbatim and re-decoded on read.
type BullseyePayload struct {
	Code          *string       `json:"code,omitempty"`
	GameID        *string       `json:"gameId,omitempty"`
	PlayerID      *string       `json:"playerId,omitempty"`
	Timestamp     *string       `json:"timestamp,omitempty"`
	Bullseye      *BullseyeData `json:"bullseye,omitempty"`
	TotalDuration *int64        `json:"totalDuration,omitempty"`
}

type BullseyeData struct {
	State             *BullseyeState `json:"state,omitempty"`
	Guess             *Guess         `json:"guess,omitempty"`
	RecipientPlayerID *string        `json:"recipientPlayerId,omitempty"`
	PlayerID          *string        `json:"playerId,omitempty"`
}

type BullseyeState struct {
	GameID             *string      `json:"gameId,omitempty"`
	Status             *string      `json:"status,omitempty"`
	Options            *GameOptions `json:"options,omitempty"`
	Version            *int         `json:"version,omitempty"`
	CurrentRoundNumber *int         `json:"currentRoundNumber,omitempty"`
	Rounds             []Round      `json:"rounds,omitempty"`
	Players            []Player     `json:"players,omitempty"`
	HostPlayerID       *string      `json:"hostPlayerId,omitempty"`
	MapName            *string      `json:"mapName,omitempty"`
}

type GameOptions struct {
	RoundCount   *int    `json:"roundCount,omitempty"`
	MapSlug      *string `json:"mapSlug,omitempty"`
	RoundTime    *int64  `json:"roundTime,omitempty"`
	GuessMapType *string `json:"guessMapType,omitempty"`
}

type Round struct {
	RoundNumber *int      `json:"roundNumber,omitempty"`
	Panorama    *Panorama `json:"panorama,omitempty"`
	StartTime   *string   `json:"startTime,omitempty"`
	EndTime     *string   `json:"endTime,omitempty"`
	State       *string   `json:"state,omitempty"`
	Score       *Score    `json:"score,omitempty"`
}

type Panorama struct {
	PanoID      *string  `json:"panoId,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	CountryCode *string  `json:"countryCode,omitempty"`
}

type Player struct {
	PlayerID *string `json:"playerId,omitempty"`
	Nick     *string `json:"nick,omitempty"`
	Guesses  []Guess `json:"guesses,omitempty"`
}

type Guess struct {
	RoundNumber *int     `json:"roundNumber,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	IsDraft     *bool    `json:"isDraft,omitempty"`
	Score       *Score   `json:"score,omitempty"`
}

type Score struct {
	IsAnswerWithinRadius *bool    `json:"isAnswerWithinRadius,omitempty"`
	Points               *int     `json:"points,omitempty"`
	MaxPoints            *int     `json:"maxPoints,omitempty"`
	Distance             *float64 `json:"distance,omitempty"`
}

func (p *BullseyePayload) UnmarshalJSON(data []byte) error {
	type alias BullseyePayload
	return flexUnmarshal(data, (*alias)(p))
}

func (d *BullseyeData) UnmarshalJSON(data []byte) error {
	type alias BullseyeData
	return flexUnmarshal(data, (*alias)(d))
}

func (s *BullseyeState) UnmarshalJSON(data []byte) error {
	type alias BullseyeState
	return flexUnmarshal(data, (*alias)(s))
}

func (o *GameOptions) UnmarshalJSON(data []byte) error {
	type alias GameOptions
	return flexUnmarshal(data, (*alias)(o))
}

func (r *Round) UnmarshalJSON(data []byte) error {
	type alias Round
	return flexUnmarshal(data, (*alias)(r))
}

func (p *Panorama) UnmarshalJSON(data []byte) error {
	type alias Panorama
	return flexUnmarshal(data, (*alias)(p))
}

func (p *Player) UnmarshalJSON(data []byte) error {
	type alias Player
	return flexUnmarshal(data, (*alias)(p))
}

func (g *Guess) UnmarshalJSON(data []byte) error {
	type alias Guess
	return flexUnmarshal(data, (*alias)(g))
}

func (s *Score) UnmarshalJSON(data []byte) error {
	type alias Score
	return flexUnmarshal(data, (*alias)(s))
}

// State returns the nested game state, or nil when any level is missing.
func (p *BullseyePayload) State() *BullseyeState {
	if p == nil || p.Bullseye == nil {
		return nil
	}
	return p.Bullseye.State
}

// PointsOrZero returns the awarded points, treating a missing score as zero.
func (s *Score) PointsOrZero() int {
	if s == nil || s.Points == nil {
		return 0
	}
	return *s.Points
}
