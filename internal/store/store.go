// Package store owns the bot's persisted state: a single JSON snapshot
// file loaded at startup and rewritten after every mutation. Durability
// is best effort; a crash between mutation and save loses the mutation.
package store

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"hangout-game-bot/internal/model"
	"hangout-game-bot/internal/pkg/text"
)

// Store holds the in-memory state and its snapshot file. All access goes
// through Update or View so that every mutation plus its save is a single
// uninterrupted unit of work.
type Store struct {
	path  string
	mu    sync.Mutex
	state *model.State
}

// New creates a Store backed by the given snapshot file. Call Load before
// first use.
func New(path string) *Store {
	return &Store{
		path:  path,
		state: model.NewState(),
	}
}

// Load restores state from the snapshot file. A missing or corrupt file
// initializes a fresh default state and persists it immediately.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err == nil {
		st := model.NewState()
		if jerr := json.Unmarshal(data, st); jerr == nil {
			st.Heal()
			s.state = st
			log.Info().Str("file", s.path).Msg("📦 state ready")
			return nil
		}
		log.Warn().Str("file", s.path).Msg("state file corrupt, starting fresh")
	}

	s.state = model.NewState()
	s.saveLocked()
	log.Info().Str("file", s.path).Msg("📦 state ready")
	return nil
}

// Update runs fn against the state under the store lock and persists the
// result before returning. Phase checks and bankroll mutations inside fn
// therefore cannot interleave with other writers.
func (s *Store) Update(fn func(st *model.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
	s.saveLocked()
}

// View runs fn against the state under the store lock without persisting.
// fn must not retain references past its return.
func (s *Store) View(fn func(st *model.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// Save persists the current state. Exposed for callers that mutate via
// View-style reads of returned values; Update is preferred.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked()
}

// saveLocked serializes the full state and writes it to the snapshot
// file. Write failures are logged and never propagated.
func (s *Store) saveLocked() {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		log.Warn().Err(err).Msg("state save failed")
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		log.Warn().Err(err).Msg("state save failed")
	}
}

// EnsureUser returns the record for uid, creating it with defaults on
// first reference and healing it on every touch. The caller must already
// hold the store lock (call it inside Update or View).
func EnsureUser(st *model.State, uid, name string) *model.UserRecord {
	nm := text.CleanName(name)
	u, ok := st.Users[uid]
	if !ok {
		u = model.NewUserRecord(nm)
		st.Users[uid] = u
		return u
	}
	u.Heal()
	if nm != "Unknown" {
		u.Name = nm
	}
	return u
}
