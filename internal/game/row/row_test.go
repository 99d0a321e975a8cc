package row

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hangout-game-bot/internal/game"
	"hangout-game-bot/internal/model"
	"hangout-game-bot/internal/store"
)

type fakeNotifier struct {
	msgs []string
}

func (f *fakeNotifier) Send(_ context.Context, body string) {
	f.msgs = append(f.msgs, body)
}

func newTestChain(t *testing.T) (*Chain, *store.Store, *fakeNotifier) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, st.Load())
	notify := &fakeNotifier{}
	return New(st, notify), st, notify
}

func sender(uid string) game.Sender { return game.Sender{UID: uid, Name: uid} }

func TestChain_ThreeDistinctUsersCompleteTheBoat(t *testing.T) {
	chain, st, notify := newTestChain(t)
	ctx := context.Background()

	chain.Handle(ctx, sender("u1"), "ro", "")
	chain.Handle(ctx, sender("u2"), "ro", "")
	chain.Handle(ctx, sender("u3"), "ro", "")

	assert.Equal(t, []string{"ro", "ro ro", "row row row 🚤"}, notify.msgs)
	st.View(func(s *model.State) {
		assert.Empty(t, s.RowGame.UIDs)
	})
}

func TestChain_SameUserDoesNotAdvance(t *testing.T) {
	chain, st, notify := newTestChain(t)
	ctx := context.Background()

	chain.Handle(ctx, sender("u1"), "ro", "")
	chain.Handle(ctx, sender("u1"), "ro", "")

	assert.Equal(t, []string{"ro", "ro"}, notify.msgs)
	st.View(func(s *model.State) {
		assert.Equal(t, []string{"u1"}, s.RowGame.UIDs)
	})
}

func TestChain_SurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	st := store.New(path)
	require.NoError(t, st.Load())
	chain := New(st, &fakeNotifier{})
	ctx := context.Background()

	chain.Handle(ctx, sender("u1"), "ro", "")
	chain.Handle(ctx, sender("u2"), "ro", "")

	reloaded := store.New(path)
	require.NoError(t, reloaded.Load())
	notify := &fakeNotifier{}
	chain2 := New(reloaded, notify)
	chain2.Handle(ctx, sender("u3"), "ro", "")

	assert.Equal(t, []string{"row row row 🚤"}, notify.msgs)
}

func TestChain_IgnoresOtherCommands(t *testing.T) {
	chain, _, notify := newTestChain(t)
	assert.False(t, chain.Handle(context.Background(), sender("u1"), "row", ""))
	assert.Empty(t, notify.msgs)
}
