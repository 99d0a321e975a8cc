// Package handler routes prefixed chat commands: registered games first,
// then the built-in commands, with admin gating for the hidden ones.
package handler

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"hangout-game-bot/internal/game"
)

// Admins answers the admin allow-list check.
type Admins interface {
	IsAdmin(uid string) bool
}

// Router implements the dispatcher: it parses "<prefix><cmd> [arg]",
// offers the command to the game registry, then falls through to the
// built-ins. Unknown commands are ignored without a reply.
type Router struct {
	prefix   string
	registry *game.Registry
	builtins *Builtins
	admins   Admins
}

// NewRouter creates a Router.
func NewRouter(prefix string, registry *game.Registry, builtins *Builtins, admins Admins) *Router {
	if prefix == "" {
		prefix = "/"
	}
	return &Router{
		prefix:   prefix,
		registry: registry,
		builtins: builtins,
		admins:   admins,
	}
}

// Dispatch routes one prefixed message. It reports whether anything
// claimed the command.
func (r *Router) Dispatch(ctx context.Context, uid, name, body string) bool {
	if !strings.HasPrefix(body, r.prefix) {
		return false
	}
	fields := strings.Fields(body[len(r.prefix):])
	if len(fields) == 0 {
		return false
	}
	cmd := strings.ToLower(fields[0])
	arg := strings.TrimSpace(strings.Join(fields[1:], " "))
	from := game.Sender{UID: uid, Name: name}

	if r.registry.Handle(ctx, from, cmd, arg) {
		return true
	}

	handled := r.builtins.Handle(ctx, from, cmd, arg, r.admins.IsAdmin(uid))
	if handled {
		log.Debug().Str("uid", uid).Str("cmd", cmd).Msg("command handled")
	}
	return handled
}
