package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hangout-game-bot/internal/comet"
	"hangout-game-bot/internal/model"
	"hangout-game-bot/internal/store"
)

const (
	// primeFetchLimit is the batch size for the startup watermark prime.
	primeFetchLimit = 50
	// rejoinDelay is the pause after a rejoin attempt before re-polling.
	rejoinDelay = 800 * time.Millisecond
	// errorBackoff is the pause after a transient poll failure.
	errorBackoff = time.Second
)

// Transport is the slice of the chat client the driver needs.
type Transport interface {
	ListGroupMessages(ctx context.Context, limit int) ([]comet.Message, error)
	EnsureJoin(ctx context.Context) bool
	SelfUID() string
}

// Dispatcher routes a user chat event. It reports whether the text was
// recognized as a command; unrecognized text is dropped silently.
type Dispatcher interface {
	Dispatch(ctx context.Context, uid, name, body string) bool
}

// Greeter handles join events.
type Greeter interface {
	HandleJoin(ctx context.Context, uid, name string)
}

// Callout answers plain-text messages addressed to the bot. It reports
// whether it produced a reply.
type Callout interface {
	TryReply(ctx context.Context, body string) bool
}

// Driver is the top-level control loop: fetch, order, filter via
// watermark, classify, dispatch, on a fixed interval, resilient to
// transient transport errors.
type Driver struct {
	transport  Transport
	store      *store.Store
	dispatcher Dispatcher
	greeter    Greeter
	callout    Callout

	prefix   string
	interval time.Duration
	limit    int
}

// DriverConfig holds the driver's collaborators and tuning.
type DriverConfig struct {
	Transport  Transport
	Store      *store.Store
	Dispatcher Dispatcher
	Greeter    Greeter
	Callout    Callout
	CmdPrefix  string
	Interval   time.Duration
	Limit      int
}

// NewDriver creates a Driver.
func NewDriver(cfg DriverConfig) *Driver {
	interval := cfg.Interval
	if interval < 300*time.Millisecond {
		interval = 300 * time.Millisecond
	}
	limit := cfg.Limit
	if limit < 1 {
		limit = 1
	}
	prefix := cfg.CmdPrefix
	if prefix == "" {
		prefix = "/"
	}
	return &Driver{
		transport:  cfg.Transport,
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		greeter:    cfg.Greeter,
		callout:    cfg.Callout,
		prefix:     prefix,
		interval:   interval,
		limit:      limit,
	}
}

// Prime advances the watermark past everything currently in the window so
// pre-existing history is never replayed, and persists the mark.
func (d *Driver) Prime(ctx context.Context) {
	items, err := d.transport.ListGroupMessages(ctx, primeFetchLimit)
	if err != nil {
		log.Warn().Err(err).Msg("watermark prime fetch failed")
		return
	}
	newest := Newest(items)
	if newest == nil {
		return
	}
	d.store.Update(func(st *model.State) {
		Advance(&st.Watermark, newest)
	})
	log.Info().
		Int64("sent_at", newest.SentAt).
		Int64("id", int64(newest.ID)).
		Msg("watermark primed")
}

// Run polls until ctx is cancelled. A failed fetch is logged and retried
// after a short backoff; a lapsed group membership triggers a rejoin.
func (d *Driver) Run(ctx context.Context) {
	log.Info().Msg("entering poll loop")
	for {
		d.poll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.interval):
		}
	}
}

// poll performs one fetch-order-filter-dispatch pass.
func (d *Driver) poll(ctx context.Context) {
	items, err := d.transport.ListGroupMessages(ctx, d.limit)
	if err != nil {
		if errors.Is(err, comet.ErrNotJoined) {
			log.Warn().Msg("not joined; attempting rejoin")
			d.transport.EnsureJoin(ctx)
			sleepCtx(ctx, rejoinDelay)
			return
		}
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Msg("poll loop error")
		sleepCtx(ctx, errorBackoff)
		return
	}

	SortMessages(items)
	for i := range items {
		if ctx.Err() != nil {
			return
		}
		d.process(ctx, &items[i])
	}
}

// process filters one message through the watermark, advances and
// persists the mark, then classifies and dispatches.
func (d *Driver) process(ctx context.Context, m *comet.Message) {
	seen := false
	d.store.Update(func(st *model.State) {
		if !IsNew(st.Watermark, m) {
			seen = true
			return
		}
		Advance(&st.Watermark, m)
	})
	if seen {
		return
	}

	ev := Classify(m)
	if ev.Kind == EventSystem {
		d.handleSystem(ctx, ev)
		return
	}

	if self := d.transport.SelfUID(); self != "" && ev.UID == self {
		return
	}

	body := strings.TrimSpace(ev.Text)
	if body == "" {
		return
	}

	if !strings.HasPrefix(body, d.prefix) {
		if d.callout != nil {
			d.callout.TryReply(ctx, body)
		}
		return
	}

	d.dispatcher.Dispatch(ctx, ev.UID, ev.Name, body)
}

// handleSystem feeds song bookkeeping and the greeter. A message can be
// both a play event and a join event; the song is recorded either way.
func (d *Driver) handleSystem(ctx context.Context, ev Event) {
	if ev.Join != nil && d.greeter != nil {
		d.greeter.HandleJoin(ctx, ev.Join.UID, ev.Join.Name)
	}
	if ev.Song != nil {
		d.recordNowPlaying(ev.Song)
	}
}

// recordNowPlaying overwrites the last-track snapshot, bumps the song's
// cumulative play count, and credits the DJ's artist tally.
func (d *Driver) recordNowPlaying(play *SongPlay) {
	d.store.Update(func(st *model.State) {
		st.LastTrack = &model.LastTrack{
			SongKey: play.Key,
			Artist:  play.Artist,
			Title:   play.Title,
			DJUID:   play.DJUID,
			DJName:  play.DJName,
		}
		if rec, ok := st.Songs[play.Key]; ok {
			rec.Plays++
		} else {
			st.Songs[play.Key] = &model.SongRecord{
				Artist:      play.Artist,
				Title:       play.Title,
				FirstDJUID:  play.DJUID,
				FirstDJName: play.DJName,
				Plays:       1,
			}
		}
		if play.DJUID != "" {
			dj := store.EnsureUser(st, play.DJUID, play.DJName)
			dj.ArtistCounts[play.Artist]++
		}
	})
}

// sleepCtx sleeps for dur or until ctx is cancelled.
func sleepCtx(ctx context.Context, dur time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(dur):
	}
}
