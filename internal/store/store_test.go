package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hangout-game-bot/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, s.Load())
	return s
}

func TestLoad_MissingFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New(path)
	require.NoError(t, s.Load())

	// A fresh snapshot is persisted immediately.
	_, err := os.Stat(path)
	require.NoError(t, err)

	s.View(func(st *model.State) {
		assert.Empty(t, st.Users)
		assert.True(t, st.AI.Enabled)
	})
}

func TestLoad_CorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(path)
	require.NoError(t, s.Load())
	s.View(func(st *model.State) {
		assert.Empty(t, st.Users)
	})
}

func TestUpdate_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := New(path)
	require.NoError(t, s.Load())

	s.Update(func(st *model.State) {
		u := EnsureUser(st, "u1", "Karen")
		u.Bankroll = 1234
		st.Watermark = model.Watermark{SentAt: 100, ID: 5}
	})

	reloaded := New(path)
	require.NoError(t, reloaded.Load())
	reloaded.View(func(st *model.State) {
		require.Contains(t, st.Users, "u1")
		assert.Equal(t, "Karen", st.Users["u1"].Name)
		assert.Equal(t, int64(1234), st.Users["u1"].Bankroll)
		assert.Equal(t, model.Watermark{SentAt: 100, ID: 5}, st.Watermark)
	})
}

func TestLoad_HealsMalformedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	blob := `{"users":{"u1":{"name":"","bankroll":-50,"wins":-1}}}`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0o644))

	s := New(path)
	require.NoError(t, s.Load())
	s.View(func(st *model.State) {
		u := st.Users["u1"]
		require.NotNil(t, u)
		assert.Equal(t, "Unknown", u.Name)
		assert.Equal(t, int64(model.DefaultBankroll), u.Bankroll)
		assert.Equal(t, int64(0), u.Wins)
		assert.NotNil(t, u.ArtistCounts)
		assert.NotNil(t, st.Songs)
		assert.NotNil(t, st.Greeter.LastGreet)
	})
}

// A betting round persisted by a crash has no timers after restart; Load
// must discard it so a fresh round can open.
func TestLoad_DiscardsPersistedRound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	blob := `{"pokerRound":{"phase":"betting","startedAt":123,"bets":{"u1":50},"order":["u1"]}}`
	require.NoError(t, os.WriteFile(path, []byte(blob), 0o644))

	s := New(path)
	require.NoError(t, s.Load())
	s.View(func(st *model.State) {
		assert.Nil(t, st.PokerRound)
	})
}

func TestEnsureUser(t *testing.T) {
	s := newTestStore(t)

	t.Run("creates with defaults", func(t *testing.T) {
		s.Update(func(st *model.State) {
			u := EnsureUser(st, "u1", "*Karen*")
			assert.Equal(t, "Karen", u.Name)
			assert.Equal(t, int64(model.DefaultBankroll), u.Bankroll)
		})
	})

	t.Run("same record on re-reference", func(t *testing.T) {
		s.Update(func(st *model.State) {
			EnsureUser(st, "u1", "Karen").Bankroll = 42
			assert.Equal(t, int64(42), EnsureUser(st, "u1", "Karen").Bankroll)
		})
	})

	t.Run("keeps existing name when caller has none", func(t *testing.T) {
		s.Update(func(st *model.State) {
			u := EnsureUser(st, "u1", "")
			assert.Equal(t, "Karen", u.Name)
		})
	})

	t.Run("updates name on a better one", func(t *testing.T) {
		s.Update(func(st *model.State) {
			u := EnsureUser(st, "u1", "Karen V2")
			assert.Equal(t, "Karen V2", u.Name)
		})
	})
}
