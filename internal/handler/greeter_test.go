package handler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hangout-game-bot/internal/config"
	"hangout-game-bot/internal/model"
	"hangout-game-bot/internal/store"
)

func newTestGreeter(t *testing.T, cfg config.GreetConfig) (*Greeter, *store.Store, *fakeNotifier) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, st.Load())
	notify := &fakeNotifier{}
	g := NewGreeter(st, notify, cfg, func() string { return "bot-uid" })
	// The boot-suppression window has long passed.
	g.bootAt = time.Now().Add(-time.Hour)
	return g, st, notify
}

func enabledGreet() config.GreetConfig {
	return config.GreetConfig{
		Enabled:      true,
		Message:      "👋 Welcome, {name}!",
		BootSuppress: 3 * time.Second,
		Cooldown:     10 * time.Minute,
	}
}

func TestHandleJoin_Greets(t *testing.T) {
	g, st, notify := newTestGreeter(t, enabledGreet())

	g.HandleJoin(context.Background(), "u1", "*Karen*")
	require.Len(t, notify.msgs, 1)
	assert.Equal(t, "👋 Welcome, Karen!", notify.msgs[0])

	st.View(func(s *model.State) {
		assert.True(t, s.Greeter.Present["u1"])
		assert.NotZero(t, s.Greeter.LastGreet["u1"])
	})
}

func TestHandleJoin_CooldownSuppressesRepeat(t *testing.T) {
	g, _, notify := newTestGreeter(t, enabledGreet())
	ctx := context.Background()

	g.HandleJoin(ctx, "u1", "Karen")
	g.HandleJoin(ctx, "u1", "Karen")
	assert.Len(t, notify.msgs, 1)

	// A different user is greeted independently.
	g.HandleJoin(ctx, "u2", "Bob")
	assert.Len(t, notify.msgs, 2)
}

func TestHandleJoin_GreetsAgainAfterCooldown(t *testing.T) {
	g, _, notify := newTestGreeter(t, enabledGreet())
	ctx := context.Background()

	base := time.Now()
	g.now = func() time.Time { return base }
	g.HandleJoin(ctx, "u1", "Karen")

	g.now = func() time.Time { return base.Add(11 * time.Minute) }
	g.HandleJoin(ctx, "u1", "Karen")
	assert.Len(t, notify.msgs, 2)
}

func TestHandleJoin_BootSuppression(t *testing.T) {
	g, _, notify := newTestGreeter(t, enabledGreet())
	g.bootAt = time.Now()

	g.HandleJoin(context.Background(), "u1", "Karen")
	assert.Empty(t, notify.msgs)
}

func TestStart_RearmsBootSuppression(t *testing.T) {
	g, _, notify := newTestGreeter(t, enabledGreet())
	ctx := context.Background()

	// Construction happened long ago; Start opens the window now, so a
	// join right after startup stays quiet.
	base := time.Now()
	g.now = func() time.Time { return base }
	g.Start()
	g.HandleJoin(ctx, "u1", "Karen")
	assert.Empty(t, notify.msgs)

	g.now = func() time.Time { return base.Add(5 * time.Second) }
	g.HandleJoin(ctx, "u1", "Karen")
	assert.Len(t, notify.msgs, 1)
}

func TestHandleJoin_NeverGreetsSelf(t *testing.T) {
	g, _, notify := newTestGreeter(t, enabledGreet())
	g.HandleJoin(context.Background(), "bot-uid", "BOT")
	assert.Empty(t, notify.msgs)
}

func TestHandleJoin_Disabled(t *testing.T) {
	cfg := enabledGreet()
	cfg.Enabled = false
	g, _, notify := newTestGreeter(t, cfg)

	g.HandleJoin(context.Background(), "u1", "Karen")
	assert.Empty(t, notify.msgs)
}

func TestHandleJoin_EmptyUIDIgnored(t *testing.T) {
	g, _, notify := newTestGreeter(t, enabledGreet())
	g.HandleJoin(context.Background(), "", "Ghost")
	assert.Empty(t, notify.msgs)
}
