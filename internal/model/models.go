// Package model defines the persisted state for the hangout game bot.
package model

import "hangout-game-bot/internal/pkg/text"

// DefaultBankroll is the starting chip count for a new user.
const DefaultBankroll = 1000

// UserRecord holds everything tracked per chat user. Records are created
// lazily on first reference and never deleted.
type UserRecord struct {
	Name         string         `json:"name"`
	Bankroll     int64          `json:"bankroll"`
	Wins         int64          `json:"wins"`
	Losses       int64          `json:"losses"`
	Up           int64          `json:"up"`
	Down         int64          `json:"down"`
	Star         int64          `json:"star"`
	ArtistCounts map[string]int `json:"artistCounts"`
}

// NewUserRecord returns a UserRecord with default fields.
func NewUserRecord(name string) *UserRecord {
	return &UserRecord{
		Name:         text.CleanName(name),
		Bankroll:     DefaultBankroll,
		ArtistCounts: make(map[string]int),
	}
}

// Heal backfills missing fields and clamps malformed numeric fields to
// their defaults. Safe to call every time a record is touched.
func (u *UserRecord) Heal() {
	if u.Name == "" {
		u.Name = "Unknown"
	}
	if u.Bankroll < 0 {
		u.Bankroll = DefaultBankroll
	}
	if u.Wins < 0 {
		u.Wins = 0
	}
	if u.Losses < 0 {
		u.Losses = 0
	}
	if u.Up < 0 {
		u.Up = 0
	}
	if u.Down < 0 {
		u.Down = 0
	}
	if u.Star < 0 {
		u.Star = 0
	}
	if u.ArtistCounts == nil {
		u.ArtistCounts = make(map[string]int)
	}
}

// SongRecord tracks cumulative plays of one song, keyed by a stable song
// identifier (explicit id, or "artist — title" when none is supplied).
type SongRecord struct {
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	FirstDJUID  string `json:"firstDjUid"`
	FirstDJName string `json:"firstDjName"`
	Plays       int64  `json:"plays"`
}

// LastTrack is a snapshot of the most recently observed "now playing"
// event. It is overwritten on every new play, not a history.
type LastTrack struct {
	SongKey string `json:"songKey"`
	Artist  string `json:"artist"`
	Title   string `json:"title"`
	DJUID   string `json:"djUid"`
	DJName  string `json:"djName"`
}

// Watermark marks the most recently processed message as a
// (sent-time, id) pair. Messages at or before it are never re-dispatched.
type Watermark struct {
	SentAt int64 `json:"sentAt"`
	ID     int64 `json:"id"`
}

// AIState holds the LLM callout toggle and its send rate limiter.
type AIState struct {
	Enabled    bool  `json:"enabled"`
	LastSentAt int64 `json:"lastSentAt"`
}

// RowGameState tracks participants of the hidden /ro chain.
type RowGameState struct {
	UIDs []string `json:"uids"`
}

// GreeterState tracks per-user greeting cooldowns and presence.
type GreeterState struct {
	LastGreet map[string]int64 `json:"lastGreet"`
	Present   map[string]bool  `json:"present"`
}

// RoundPhase is the lifecycle phase of a poker round.
type RoundPhase string

// Poker round phases. Only the betting phase is durable; the window
// between player reveal and dealer reveal is held in memory by the
// round's timers.
const (
	PhaseBetting RoundPhase = "betting"
	PhaseDone    RoundPhase = "done"
)

// RoundState is the nullable singleton for the active poker round.
// Order records participants in bet order for fair-order payout
// reporting; StartedAt doubles as the round's identity token so stale
// timers can be detected.
type RoundState struct {
	Phase     RoundPhase       `json:"phase"`
	StartedAt int64            `json:"startedAt"`
	Bets      map[string]int64 `json:"bets"`
	Order     []string         `json:"order"`
}

// State is the full persisted state of the bot.
type State struct {
	Users      map[string]*UserRecord `json:"users"`
	Songs      map[string]*SongRecord `json:"songs"`
	LastTrack  *LastTrack             `json:"lastTrack"`
	AI         AIState                `json:"ai"`
	RowGame    RowGameState           `json:"rowGame"`
	Greeter    GreeterState           `json:"greeter"`
	Watermark  Watermark              `json:"watermark"`
	PokerRound *RoundState            `json:"pokerRound"`
}

// NewState returns a fresh default state.
func NewState() *State {
	return &State{
		Users:   make(map[string]*UserRecord),
		Songs:   make(map[string]*SongRecord),
		AI:      AIState{Enabled: true},
		RowGame: RowGameState{UIDs: []string{}},
		Greeter: GreeterState{
			LastGreet: make(map[string]int64),
			Present:   make(map[string]bool),
		},
	}
}

// Heal backfills any containers a partially written or older state file
// may be missing, and heals every user record. A persisted poker round is
// discarded: its timers did not survive the restart, so keeping it would
// leave the table stuck rejecting /p forever.
func (s *State) Heal() {
	s.PokerRound = nil
	if s.Users == nil {
		s.Users = make(map[string]*UserRecord)
	}
	if s.Songs == nil {
		s.Songs = make(map[string]*SongRecord)
	}
	if s.RowGame.UIDs == nil {
		s.RowGame.UIDs = []string{}
	}
	if s.Greeter.LastGreet == nil {
		s.Greeter.LastGreet = make(map[string]int64)
	}
	if s.Greeter.Present == nil {
		s.Greeter.Present = make(map[string]bool)
	}
	for _, u := range s.Users {
		u.Heal()
	}
}
