package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry manages game registration and lookup by command.
// It is the delegation boundary the dispatcher tries before its own
// built-in commands.
type Registry struct {
	games map[string]Game
	mu    sync.RWMutex
}

// NewRegistry creates a new game registry.
func NewRegistry() *Registry {
	return &Registry{
		games: make(map[string]Game),
	}
}

// Register adds a game under every command it claims.
// A later registration for the same command replaces the earlier one.
func (r *Registry) Register(g Game) error {
	if g == nil {
		return fmt.Errorf("cannot register nil game")
	}
	cmds := g.Commands()
	if len(cmds) == 0 {
		return fmt.Errorf("game %q claims no commands", g.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cmd := range cmds {
		if cmd == "" {
			return fmt.Errorf("game %q claims an empty command", g.Name())
		}
		r.games[cmd] = g
	}
	return nil
}

// Get retrieves the game claiming a command.
func (r *Registry) Get(command string) (Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[command]
	return g, ok
}

// Handle routes a command to its game, if any game claims it.
func (r *Registry) Handle(ctx context.Context, from Sender, cmd, arg string) bool {
	g, ok := r.Get(cmd)
	if !ok {
		return false
	}
	return g.Handle(ctx, from, cmd, arg)
}

// Commands returns all registered commands, sorted.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands := make([]string, 0, len(r.games))
	for cmd := range r.games {
		commands = append(commands, cmd)
	}
	sort.Strings(commands)
	return commands
}

// Count returns the number of registered commands.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
