// Package game defines the game interface and registry for the hangout
// bot. The dispatcher delegates to registered games before its own
// built-in commands.
package game

import "context"

// Sender identifies the chat user issuing a command.
type Sender struct {
	UID  string
	Name string
}

// Notifier posts a message to the hangout chat. Sends are fire-and-forget
// from a game's perspective; delivery failures are logged by the
// transport and never block settlement.
type Notifier interface {
	Send(ctx context.Context, body string)
}

// Game is a text-command game. Handle receives the parsed command (prefix
// stripped, lowercased) and the remaining argument string, and reports
// whether it claimed the command.
type Game interface {
	// Name returns the game's display name (e.g., "jirf poker")
	Name() string

	// Commands returns the commands this game claims (e.g., "p", "bet")
	Commands() []string

	// Description returns a brief description of the game
	Description() string

	// Handle executes the command for the sender. It returns true when
	// the command belongs to this game, even if the input was invalid.
	Handle(ctx context.Context, from Sender, cmd, arg string) bool
}
