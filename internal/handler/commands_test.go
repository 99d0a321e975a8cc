package handler

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hangout-game-bot/internal/ai"
	"hangout-game-bot/internal/game"
	"hangout-game-bot/internal/model"
	"hangout-game-bot/internal/store"
	"hangout-game-bot/internal/weather"
	"hangout-game-bot/internal/wiki"
)

func newTestBuiltins(t *testing.T) (*Builtins, *store.Store, *fakeNotifier) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, st.Load())
	notify := &fakeNotifier{}
	aiClient := ai.New(st, notify, ai.Config{})
	return NewBuiltins(st, notify, aiClient, wiki.New(aiClient, 900), weather.New("")), st, notify
}

var karen = game.Sender{UID: "u1", Name: "Karen"}

func TestToggleAI(t *testing.T) {
	b, st, notify := newTestBuiltins(t)
	ctx := context.Background()

	b.Handle(ctx, karen, "ai", "off", true)
	assert.Equal(t, "🧠 AI: OFF", notify.last())
	st.View(func(s *model.State) {
		assert.False(t, s.AI.Enabled)
	})

	b.Handle(ctx, karen, "ai", "on", true)
	assert.Equal(t, "🧠 AI: ON", notify.last())
	st.View(func(s *model.State) {
		assert.True(t, s.AI.Enabled)
	})

	b.Handle(ctx, karen, "ai", "sideways", true)
	assert.Contains(t, notify.last(), "AI is ON")
}

func TestStats_OwnCard(t *testing.T) {
	b, st, notify := newTestBuiltins(t)

	st.Update(func(s *model.State) {
		u := store.EnsureUser(s, "u1", "Karen")
		u.Bankroll = 1500
		u.Wins, u.Losses = 3, 1
		u.Up, u.Star = 7, 2
		u.ArtistCounts = map[string]int{"Autechre": 5, "Orbital": 9, "Plaid": 5, "Aphex Twin": 1}
	})

	b.Handle(context.Background(), karen, "stats", "", false)
	out := notify.last()
	assert.Contains(t, out, "📊 Karen")
	assert.Contains(t, out, "Bankroll: 1500 chips")
	assert.Contains(t, out, "3W / 1L (75%)")
	assert.Contains(t, out, "👍 7")
	assert.Contains(t, out, "⭐ 2")
	// Top three by plays, ties by name, fourth artist dropped.
	assert.Contains(t, out, "Orbital (9), Autechre (5), Plaid (5)")
	assert.NotContains(t, out, "Aphex Twin")
}

func TestStats_ZeroGamesAvoidsDivideByZero(t *testing.T) {
	b, _, notify := newTestBuiltins(t)
	b.Handle(context.Background(), karen, "stats", "", false)
	assert.Contains(t, notify.last(), "0W / 0L (0%)")
}

func TestStats_ByName(t *testing.T) {
	b, st, notify := newTestBuiltins(t)
	st.Update(func(s *model.State) {
		store.EnsureUser(s, "u2", "Bob").Bankroll = 77
	})

	b.Handle(context.Background(), karen, "stats", "bob", false)
	assert.Contains(t, notify.last(), "📊 Bob")
	assert.Contains(t, notify.last(), "Bankroll: 77")

	b.Handle(context.Background(), karen, "stats", "nobody", false)
	assert.Contains(t, notify.last(), `No stats for "nobody"`)
}

func TestStats_DJTarget(t *testing.T) {
	b, st, notify := newTestBuiltins(t)
	st.Update(func(s *model.State) {
		s.LastTrack = &model.LastTrack{DJUID: "dj1", DJName: "Spinner"}
		store.EnsureUser(s, "dj1", "Spinner").Bankroll = 2000
	})

	b.Handle(context.Background(), karen, "stats", "dj", false)
	assert.Contains(t, notify.last(), "📊 Spinner")
	assert.Contains(t, notify.last(), "Bankroll: 2000")
}

func TestSongStats(t *testing.T) {
	b, st, notify := newTestBuiltins(t)
	ctx := context.Background()

	b.Handle(ctx, karen, "songstats", "", false)
	assert.Contains(t, notify.last(), "No track observed yet")

	st.Update(func(s *model.State) {
		s.LastTrack = &model.LastTrack{SongKey: "k1", Artist: "Boards of Canada", Title: "Roygbiv", DJName: "Spinner"}
		s.Songs["k1"] = &model.SongRecord{Artist: "Boards of Canada", Title: "Roygbiv", FirstDJName: "OG", Plays: 4}
	})

	b.Handle(ctx, karen, "songstats", "", false)
	out := notify.last()
	assert.Contains(t, out, "Boards of Canada — Roygbiv")
	assert.Contains(t, out, "DJ: Spinner")
	assert.Contains(t, out, "Plays here: 4")
	assert.Contains(t, out, "first spun by OG")
}

func TestWeatherUsage(t *testing.T) {
	b, _, notify := newTestBuiltins(t)
	b.Handle(context.Background(), karen, "w", "", false)
	assert.Contains(t, notify.last(), "Usage")
}

func TestHandle_UnknownCommand(t *testing.T) {
	b, _, notify := newTestBuiltins(t)
	assert.False(t, b.Handle(context.Background(), karen, "nope", "", false))
	assert.Empty(t, notify.msgs)
}

func TestTopArtists(t *testing.T) {
	assert.Empty(t, topArtists(nil, 3))
	got := topArtists(map[string]int{"b": 2, "a": 2, "c": 9}, 2)
	assert.Equal(t, []string{"c (9)", "a (2)"}, got)
}
