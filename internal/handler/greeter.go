package handler

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hangout-game-bot/internal/config"
	"hangout-game-bot/internal/game"
	"hangout-game-bot/internal/model"
	"hangout-game-bot/internal/pkg/text"
	"hangout-game-bot/internal/store"
)

// Greeter welcomes users on join events, rate limited per user. Joins
// observed right after boot are suppressed so a watermark prime racing a
// stale join blob cannot re-greet the whole room.
type Greeter struct {
	store   *store.Store
	notify  game.Notifier
	cfg     config.GreetConfig
	selfUID func() string
	bootAt  time.Time
	now     func() time.Time
}

// NewGreeter creates a Greeter. selfUID is resolved per join so the bot
// identity can be learned after construction.
func NewGreeter(st *store.Store, notify game.Notifier, cfg config.GreetConfig, selfUID func() string) *Greeter {
	return &Greeter{
		store:   st,
		notify:  notify,
		cfg:     cfg,
		selfUID: selfUID,
		bootAt:  time.Now(),
		now:     time.Now,
	}
}

// Start resets the boot-suppression window. Call it once startup work
// (watermark priming included) is done and the poll loop is about to run,
// so the window covers the first polls rather than construction time.
func (g *Greeter) Start() {
	g.bootAt = g.now()
}

// HandleJoin greets the joining user unless greeting is disabled, the
// join is the bot itself, the boot-suppression window is still open, or
// the user was greeted within the cooldown.
func (g *Greeter) HandleJoin(ctx context.Context, uid, name string) {
	if !g.cfg.Enabled || uid == "" {
		return
	}
	if self := g.selfUID(); self != "" && uid == self {
		return
	}
	now := g.now()
	if now.Sub(g.bootAt) < g.cfg.BootSuppress {
		return
	}

	greet := false
	g.store.Update(func(st *model.State) {
		st.Greeter.Present[uid] = true
		last := st.Greeter.LastGreet[uid]
		if now.UnixMilli()-last < g.cfg.Cooldown.Milliseconds() {
			return
		}
		st.Greeter.LastGreet[uid] = now.UnixMilli()
		greet = true
	})
	if !greet {
		return
	}

	msg := strings.ReplaceAll(g.cfg.Message, "{name}", text.CleanName(name))
	g.notify.Send(ctx, msg)
	log.Info().Str("uid", uid).Msg("greeted join")
}
