// Package slots implements the casino slot machine: a stateless weighted
// three-reel draw whose outcome mutates the player's bankroll.
package slots

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"hangout-game-bot/internal/game"
	"hangout-game-bot/internal/model"
	"hangout-game-bot/internal/store"
)

// Reel symbols and their draw weights (out of 100).
var (
	symbols = []string{"🍒", "🍋", "🔔", "⭐", "7️⃣"}
	weights = []int{40, 30, 15, 10, 5}
)

// tripleMultipliers is the payout multiplier for three of a symbol.
var tripleMultipliers = map[string]float64{
	"🍒": 3,
	"🍋": 4,
	"🔔": 6,
	"⭐":  10,
	"7️⃣": 20,
}

// pairMultiplier is the payout multiplier for any two matching reels.
const pairMultiplier = 1.5

// Machine implements the slot game.
type Machine struct {
	store      *store.Store
	notify     game.Notifier
	title      string
	defaultBet int64

	// pick draws one symbol; swapped out by tests.
	pick func() string
}

// Config holds the machine's tuning.
type Config struct {
	Title      string
	DefaultBet int64
}

// New creates the slot machine.
func New(st *store.Store, notify game.Notifier, cfg Config) *Machine {
	title := cfg.Title
	if title == "" {
		title = "Karens Club Casino"
	}
	defaultBet := cfg.DefaultBet
	if defaultBet < 1 {
		defaultBet = 10
	}
	return &Machine{
		store:      st,
		notify:     notify,
		title:      title,
		defaultBet: defaultBet,
		pick:       pickWeighted,
	}
}

// Name returns the game's display name.
func (m *Machine) Name() string { return m.title }

// Commands returns the commands the machine claims.
func (m *Machine) Commands() []string { return []string{"s"} }

// Description returns a brief description of the game.
func (m *Machine) Description() string {
	return "Spin three reels: triples pay big, a pair pays 1.5x, anything else loses the stake."
}

// Handle spins the reels for /s.
func (m *Machine) Handle(ctx context.Context, from game.Sender, cmd, arg string) bool {
	if cmd != "s" {
		return false
	}
	m.Spin(ctx, from, arg)
	return true
}

// Spin draws three reels, settles the bankroll, and announces the result.
// A missing or unparseable amount falls back to the default stake.
func (m *Machine) Spin(ctx context.Context, from game.Sender, arg string) {
	amount, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || amount < 1 {
		amount = m.defaultBet
	}

	r1, r2, r3 := m.pick(), m.pick(), m.pick()
	mult := multiplierFor(r1, r2, r3)

	var resultLine string
	var bankroll int64
	m.store.Update(func(st *model.State) {
		u := store.EnsureUser(st, from.UID, from.Name)
		if mult > 0 {
			win := int64(float64(amount) * mult)
			u.Bankroll += win
			resultLine = fmt.Sprintf("• Result: WIN +%d (x%g)", win, mult)
		} else {
			u.Bankroll -= amount
			if u.Bankroll < 0 {
				u.Bankroll = 0
			}
			resultLine = fmt.Sprintf("• Result: lost %d", amount)
		}
		bankroll = u.Bankroll
	})

	m.notify.Send(ctx, strings.Join([]string{
		fmt.Sprintf("🎰 %s", m.title),
		fmt.Sprintf("• Reels: [%s | %s | %s]", r1, r2, r3),
		resultLine,
		fmt.Sprintf("• Bankroll: %d", bankroll),
	}, "\n"))
}

// multiplierFor returns the payout multiplier for a reel combination:
// triple multipliers by symbol, 1.5 for any pair, 0 for a loss.
func multiplierFor(r1, r2, r3 string) float64 {
	if r1 == r2 && r2 == r3 {
		return tripleMultipliers[r1]
	}
	if r1 == r2 || r2 == r3 || r1 == r3 {
		return pairMultiplier
	}
	return 0
}

// pickWeighted draws one symbol according to the reel weights.
func pickWeighted() string {
	r := rand.Intn(100)
	acc := 0
	for i, w := range weights {
		acc += w
		if r < acc {
			return symbols[i]
		}
	}
	return symbols[0]
}
