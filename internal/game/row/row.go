// Package row implements the hidden /ro chain: three distinct users in a
// row complete the boat.
package row

import (
	"context"

	"hangout-game-bot/internal/game"
	"hangout-game-bot/internal/model"
	"hangout-game-bot/internal/store"
)

// Chain implements the /ro game over the persisted participant list.
type Chain struct {
	store  *store.Store
	notify game.Notifier
}

// New creates the chain.
func New(st *store.Store, notify game.Notifier) *Chain {
	return &Chain{store: st, notify: notify}
}

// Name returns the game's display name.
func (c *Chain) Name() string { return "Row" }

// Commands returns the commands the chain claims.
func (c *Chain) Commands() []string { return []string{"ro"} }

// Description returns a brief description of the game.
func (c *Chain) Description() string { return "Row the boat." }

// Handle advances the chain. Each distinct user joins once; the third
// participant completes the boat and resets the chain.
func (c *Chain) Handle(ctx context.Context, from game.Sender, cmd, arg string) bool {
	if cmd != "ro" {
		return false
	}

	var reply string
	c.store.Update(func(st *model.State) {
		uids := st.RowGame.UIDs
		joined := false
		for _, uid := range uids {
			if uid == from.UID {
				joined = true
				break
			}
		}
		if !joined {
			uids = append(uids, from.UID)
		}
		switch len(uids) {
		case 1:
			reply = "ro"
		case 2:
			reply = "ro ro"
		default:
			reply = "row row row 🚤"
			uids = []string{}
		}
		st.RowGame.UIDs = uids
	})
	c.notify.Send(ctx, reply)
	return true
}
