package handler

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"hangout-game-bot/internal/ai"
	"hangout-game-bot/internal/game"
	"hangout-game-bot/internal/model"
	"hangout-game-bot/internal/pkg/text"
	"hangout-game-bot/internal/store"
	"hangout-game-bot/internal/weather"
	"hangout-game-bot/internal/wiki"
)

// visibleCommands is the public command card, games included.
var visibleCommands = []string{
	"📊 /stats",
	"🎧 /songstats",
	"🌦️ /w",
	"📚 /wiki",
	"🃏 /p",
	"💰 /bet",
	"🎰 /s",
}

// hiddenCommands only shows to admins.
var hiddenCommands = []string{"/.commands", "/ai on|off", "/roll", "/ro"}

// Builtins implements the commands that are not games.
type Builtins struct {
	store   *store.Store
	notify  game.Notifier
	ai      *ai.Client
	wiki    *wiki.Service
	weather *weather.Service
}

// NewBuiltins creates the built-in command set.
func NewBuiltins(st *store.Store, notify game.Notifier, aiClient *ai.Client, wikiSvc *wiki.Service, weatherSvc *weather.Service) *Builtins {
	return &Builtins{
		store:   st,
		notify:  notify,
		ai:      aiClient,
		wiki:    wikiSvc,
		weather: weatherSvc,
	}
}

// Handle runs one built-in command. It reports whether the command was
// recognized; admin-only commands from non-admins count as handled but
// stay silent.
func (b *Builtins) Handle(ctx context.Context, from game.Sender, cmd, arg string, admin bool) bool {
	switch cmd {
	case "commands":
		b.notify.Send(ctx, "🤖 Commands\n"+text.ThreeColumns(visibleCommands))
	case ".commands":
		if admin {
			b.notify.Send(ctx, "🔧 Admin: "+strings.Join(hiddenCommands, "  "))
		}
	case "ai":
		if admin {
			b.toggleAI(ctx, arg)
		}
	case "stats":
		b.stats(ctx, from, arg)
	case "songstats":
		b.songStats(ctx)
	case "w":
		b.notify.Send(ctx, b.weather.Lookup(ctx, arg))
	case "wiki":
		b.runWiki(ctx, arg)
	default:
		return false
	}
	return true
}

func (b *Builtins) toggleAI(ctx context.Context, arg string) {
	switch strings.ToLower(arg) {
	case "on":
		b.ai.SetEnabled(true)
		b.notify.Send(ctx, "🧠 AI: ON")
	case "off":
		b.ai.SetEnabled(false)
		b.notify.Send(ctx, "🧠 AI: OFF")
	default:
		state := "OFF"
		if b.ai.Enabled() {
			state = "ON"
		}
		b.notify.Send(ctx, "🧠 AI is "+state+". Usage: `/ai on|off`")
	}
}

// stats reports a user's card. With no argument it is the caller's own;
// "dj" targets the current DJ; anything else is a case-insensitive name
// match over known users.
func (b *Builtins) stats(ctx context.Context, from game.Sender, arg string) {
	var out string
	b.store.Update(func(st *model.State) {
		uid, name := from.UID, from.Name
		switch {
		case strings.EqualFold(arg, "dj") && st.LastTrack != nil && st.LastTrack.DJUID != "":
			uid, name = st.LastTrack.DJUID, st.LastTrack.DJName
		case arg != "":
			found := false
			for id, u := range st.Users {
				if strings.EqualFold(u.Name, arg) {
					uid, name = id, u.Name
					found = true
					break
				}
			}
			if !found {
				out = fmt.Sprintf("🤷 No stats for %q.", arg)
				return
			}
		}
		out = statsCard(store.EnsureUser(st, uid, name))
	})
	b.notify.Send(ctx, out)
}

func statsCard(u *model.UserRecord) string {
	total := u.Wins + u.Losses
	pct := 0.0
	if total > 0 {
		pct = float64(u.Wins) / float64(total) * 100
	}

	lines := []string{
		fmt.Sprintf("📊 %s", u.Name),
		fmt.Sprintf("• Bankroll: %d chips", u.Bankroll),
		fmt.Sprintf("• Record: %dW / %dL (%.0f%%)", u.Wins, u.Losses, pct),
		fmt.Sprintf("• Reactions: 👍 %d  👎 %d  ⭐ %d", u.Up, u.Down, u.Star),
	}
	if top := topArtists(u.ArtistCounts, 3); len(top) > 0 {
		lines = append(lines, "• Top artists: "+strings.Join(top, ", "))
	}
	return strings.Join(lines, "\n")
}

// topArtists returns the n most-played artists, ties broken by name for
// a stable card.
func topArtists(counts map[string]int, n int) []string {
	type entry struct {
		name  string
		plays int
	}
	entries := make([]entry, 0, len(counts))
	for name, plays := range counts {
		entries = append(entries, entry{name, plays})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].plays != entries[j].plays {
			return entries[i].plays > entries[j].plays
		}
		return entries[i].name < entries[j].name
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = fmt.Sprintf("%s (%d)", e.name, e.plays)
	}
	return out
}

func (b *Builtins) songStats(ctx context.Context) {
	var out string
	b.store.View(func(st *model.State) {
		if st.LastTrack == nil {
			out = "🎧 No track observed yet."
			return
		}
		lt := st.LastTrack
		out = fmt.Sprintf("🎧 %s — %s\n• DJ: %s", lt.Artist, lt.Title, text.CleanName(lt.DJName))
		if rec, ok := st.Songs[lt.SongKey]; ok {
			out += fmt.Sprintf("\n• Plays here: %d (first spun by %s)", rec.Plays, text.CleanName(rec.FirstDJName))
		}
	})
	b.notify.Send(ctx, out)
}

// runWiki defaults the term to the current artist so a bare /wiki during
// a track looks up whoever is playing.
func (b *Builtins) runWiki(ctx context.Context, arg string) {
	term := strings.TrimSpace(arg)
	if term == "" {
		b.store.View(func(st *model.State) {
			if st.LastTrack != nil {
				term = st.LastTrack.Artist
			}
		})
	}
	b.notify.Send(ctx, b.wiki.Lookup(ctx, term))
}
