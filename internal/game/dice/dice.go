// Package dice implements the hidden /roll command: a single d6 with no
// stakes.
package dice

import (
	"context"
	"fmt"
	"math/rand"

	"hangout-game-bot/internal/game"
)

// Roller implements the /roll game.
type Roller struct {
	notify game.Notifier

	// roll produces the die value; swapped out by tests.
	roll func() int
}

// New creates the roller.
func New(notify game.Notifier) *Roller {
	return &Roller{
		notify: notify,
		roll:   func() int { return 1 + rand.Intn(6) },
	}
}

// Name returns the game's display name.
func (r *Roller) Name() string { return "Roll" }

// Commands returns the commands the roller claims.
func (r *Roller) Commands() []string { return []string{"roll"} }

// Description returns a brief description of the game.
func (r *Roller) Description() string { return "Roll a d6." }

// Handle rolls the die.
func (r *Roller) Handle(ctx context.Context, from game.Sender, cmd, arg string) bool {
	if cmd != "roll" {
		return false
	}
	r.notify.Send(ctx, fmt.Sprintf("🎲 You rolled a %d", r.roll()))
	return true
}
