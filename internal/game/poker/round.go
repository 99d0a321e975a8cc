package poker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"hangout-game-bot/internal/game"
	"hangout-game-bot/internal/model"
	"hangout-game-bot/internal/store"
)

// Default phase durations, overridable via Config.
const (
	DefaultBettingWindow = 15 * time.Second
	DefaultDealerDelay   = 5 * time.Second
)

// Table runs the poker round state machine. One round at a time:
// open for bets, close and reveal the shared player hand, then reveal the
// dealer hand and settle every participant in bet order.
//
// The round's two timers fire independently of the poll loop. Every
// transition re-validates the round's phase and identity (StartedAt)
// inside the store's locked update, so a bet racing the close timer is
// decided by whichever mutation lands first, and a timer outliving a
// cleared round is detected and ignored.
type Table struct {
	store  *store.Store
	notify game.Notifier
	title  string

	bettingWindow time.Duration
	dealerDelay   time.Duration

	mu          sync.Mutex
	closeTimer  *time.Timer
	revealTimer *time.Timer

	// deal is swapped out by tests to fix the cards.
	deal func() (player, dealer Hand)
}

// Config holds the table's tuning.
type Config struct {
	Title         string
	BettingWindow time.Duration
	DealerDelay   time.Duration
}

// NewTable creates the poker table.
func NewTable(st *store.Store, notify game.Notifier, cfg Config) *Table {
	title := cfg.Title
	if title == "" {
		title = "jirf poker"
	}
	bettingWindow := cfg.BettingWindow
	if bettingWindow <= 0 {
		bettingWindow = DefaultBettingWindow
	}
	dealerDelay := cfg.DealerDelay
	if dealerDelay <= 0 {
		dealerDelay = DefaultDealerDelay
	}
	return &Table{
		store:         st,
		notify:        notify,
		title:         title,
		bettingWindow: bettingWindow,
		dealerDelay:   dealerDelay,
		deal:          DealHands,
	}
}

// Name returns the game's display name.
func (t *Table) Name() string { return t.title }

// Commands returns the commands the table claims.
func (t *Table) Commands() []string { return []string{"p", "bet"} }

// Description returns a brief description of the game.
func (t *Table) Description() string {
	return "Three-card poker: /p opens a table, /bet joins before the deal."
}

// Handle routes the table's commands.
func (t *Table) Handle(ctx context.Context, from game.Sender, cmd, arg string) bool {
	switch cmd {
	case "p":
		t.Open(ctx, from)
		return true
	case "bet":
		t.PlaceBet(ctx, from, arg)
		return true
	}
	return false
}

// Open starts a new betting round unless one is already running, and
// schedules the close-betting timer.
func (t *Table) Open(ctx context.Context, from game.Sender) {
	startedAt := time.Now().UnixMilli()
	opened := false
	t.store.Update(func(st *model.State) {
		if st.PokerRound != nil && st.PokerRound.Phase != model.PhaseDone {
			return
		}
		st.PokerRound = &model.RoundState{
			Phase:     model.PhaseBetting,
			StartedAt: startedAt,
			Bets:      make(map[string]int64),
			Order:     []string{},
		}
		opened = true
	})

	if !opened {
		t.notify.Send(ctx, fmt.Sprintf("🃏 A %s round is already running — use `/bet <amount>`.", t.title))
		return
	}

	log.Info().Int64("round", startedAt).Str("opened_by", from.UID).Msg("poker round opened")
	t.notify.Send(ctx, fmt.Sprintf("🃏 %s — %d s to place bets with `/bet <amount>` (≤ your bankroll).",
		t.title, int(t.bettingWindow.Seconds())))

	t.mu.Lock()
	t.closeTimer = time.AfterFunc(t.bettingWindow, func() {
		t.closeBetting(context.Background(), startedAt)
	})
	t.mu.Unlock()
}

// PlaceBet records or replaces the sender's bet while betting is open.
// The phase check and the mutation happen inside one locked store update,
// so a bet racing the close timer is accepted only if the round is still
// in the betting phase at the instant of mutation.
func (t *Table) PlaceBet(ctx context.Context, from game.Sender, arg string) {
	amount, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || amount <= 0 {
		t.notify.Send(ctx, "Usage: `/bet <amount>`")
		return
	}

	var reply string
	t.store.Update(func(st *model.State) {
		r := st.PokerRound
		if r == nil || r.Phase != model.PhaseBetting {
			reply = "⛔ No betting open. Start with `/p`."
			return
		}
		u := store.EnsureUser(st, from.UID, from.Name)
		if u.Bankroll < amount {
			reply = fmt.Sprintf("⛔ Not enough chips. Bankroll: %d", u.Bankroll)
			return
		}
		if _, seen := r.Bets[from.UID]; !seen {
			r.Order = append(r.Order, from.UID)
		}
		r.Bets[from.UID] = amount
		reply = fmt.Sprintf("💰 Bet accepted: %d chips", amount)
	})
	t.notify.Send(ctx, reply)
}

// closeBetting is the close-betting transition: cancel on zero bets, else
// deal both hands, announce the shared player hand, and schedule the
// dealer reveal.
func (t *Table) closeBetting(ctx context.Context, startedAt int64) {
	stale, noBets := false, false
	t.store.Update(func(st *model.State) {
		r := st.PokerRound
		if r == nil || r.Phase != model.PhaseBetting || r.StartedAt != startedAt {
			stale = true
			return
		}
		if len(r.Bets) == 0 {
			st.PokerRound = nil
			noBets = true
		}
		// The round stays in the betting phase for the dealer-delay
		// window; a bet landing now still joins the settlement.
	})
	if stale {
		log.Debug().Int64("round", startedAt).Msg("stale close-betting timer ignored")
		return
	}
	if noBets {
		t.notify.Send(ctx, "⏱️ No bets placed. Round cancelled.")
		return
	}

	player, dealer := t.deal()
	pe := Evaluate(player)
	t.notify.Send(ctx, strings.Join([]string{
		fmt.Sprintf("🂠 Player: %s", player),
		fmt.Sprintf("• Hand: %s", pe.Category),
		fmt.Sprintf("🤫 Dealer reveals in %d s…", int(t.dealerDelay.Seconds())),
	}, "\n"))

	t.mu.Lock()
	t.revealTimer = time.AfterFunc(t.dealerDelay, func() {
		t.settle(context.Background(), startedAt, player, dealer)
	})
	t.mu.Unlock()
}

// settle is the reveal-and-settle transition: compare hands, pay every
// participant in bet order, and clear the round. Whatever happens, the
// round is cleared and persisted so the game cannot wedge.
func (t *Table) settle(ctx context.Context, startedAt int64, player, dealer Hand) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("poker settlement failed")
			t.store.Update(func(st *model.State) {
				st.PokerRound = nil
			})
			t.notify.Send(ctx, "⚠️ Poker error: round cancelled.")
		}
	}()

	pe := Evaluate(player)
	de := Evaluate(dealer)
	cmp := Compare(pe, de)

	dealerLine := strings.Join([]string{
		fmt.Sprintf("🏦 Dealer: %s", dealer),
		fmt.Sprintf("• Hand: %s", de.Category),
	}, "\n")

	stale, push := false, false
	lines := []string{dealerLine}
	t.store.Update(func(st *model.State) {
		r := st.PokerRound
		if r == nil || r.Phase != model.PhaseBetting || r.StartedAt != startedAt {
			stale = true
			return
		}
		if cmp == 0 {
			st.PokerRound = nil
			push = true
			return
		}

		playerWins := cmp > 0
		if playerWins {
			lines = append(lines, "✅ Player wins")
		} else {
			lines = append(lines, "❌ Dealer wins")
		}

		for _, uid := range r.Order {
			bet := r.Bets[uid]
			if bet < 1 {
				bet = 1
			}
			u := store.EnsureUser(st, uid, "")
			if playerWins {
				payout := bet * Multiplier(pe.Category)
				if payout < bet {
					payout = bet
				}
				u.Bankroll += payout - bet
				u.Wins++
				lines = append(lines, fmt.Sprintf("• %s: +%d → %d", u.Name, payout-bet, u.Bankroll))
			} else {
				u.Bankroll -= bet
				if u.Bankroll < 0 {
					u.Bankroll = 0
				}
				u.Losses++
				lines = append(lines, fmt.Sprintf("• %s: -%d → %d", u.Name, bet, u.Bankroll))
			}
		}
		st.PokerRound = nil
	})

	if stale {
		log.Debug().Int64("round", startedAt).Msg("stale settlement timer ignored")
		return
	}
	if push {
		t.notify.Send(ctx, dealerLine+"\n🟰 Push for all players.")
		return
	}
	t.notify.Send(ctx, strings.Join(lines, "\n"))
	log.Info().Int64("round", startedAt).Str("player_hand", pe.Category.String()).
		Str("dealer_hand", de.Category.String()).Bool("player_wins", cmp > 0).
		Msg("poker round settled")
}

// StopTimers cancels any pending round timers, for shutdown.
func (t *Table) StopTimers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closeTimer != nil {
		t.closeTimer.Stop()
	}
	if t.revealTimer != nil {
		t.revealTimer.Stop()
	}
}
