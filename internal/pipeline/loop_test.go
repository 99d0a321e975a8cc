package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hangout-game-bot/internal/comet"
	"hangout-game-bot/internal/model"
	"hangout-game-bot/internal/store"
)

type fakeTransport struct {
	batches [][]comet.Message
	self    string
	joins   int
}

func (f *fakeTransport) ListGroupMessages(_ context.Context, _ int) ([]comet.Message, error) {
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeTransport) EnsureJoin(_ context.Context) bool {
	f.joins++
	return true
}

func (f *fakeTransport) SelfUID() string { return f.self }

type fakeDispatcher struct {
	calls []string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, uid, _, body string) bool {
	f.calls = append(f.calls, uid+":"+body)
	return true
}

type fakeCallout struct {
	calls []string
}

func (f *fakeCallout) TryReply(_ context.Context, body string) bool {
	f.calls = append(f.calls, body)
	return true
}

func newTestDriver(t *testing.T, tr *fakeTransport, disp *fakeDispatcher, co *fakeCallout) (*Driver, *store.Store) {
	t.Helper()
	st := store.New(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, st.Load())
	return NewDriver(DriverConfig{
		Transport:  tr,
		Store:      st,
		Dispatcher: disp,
		Callout:    co,
	}), st
}

func userMsg(sentAt, id int64, uid, body string) comet.Message {
	return comet.Message{
		ID:     comet.FlexID(id),
		SentAt: sentAt,
		Sender: comet.SenderField(uid),
		Text:   body,
	}
}

func TestPoll_DispatchesEachMessageOnce(t *testing.T) {
	tr := &fakeTransport{
		self: "bot",
		batches: [][]comet.Message{
			{userMsg(2, 1, "u1", "/p"), userMsg(1, 1, "u2", "/bet 10")},
			// The second window overlaps the first entirely.
			{userMsg(1, 1, "u2", "/bet 10"), userMsg(2, 1, "u1", "/p"), userMsg(3, 1, "u1", "/stats")},
		},
	}
	disp := &fakeDispatcher{}
	d, st := newTestDriver(t, tr, disp, nil)

	ctx := context.Background()
	d.poll(ctx)
	d.poll(ctx)

	assert.Equal(t, []string{"u2:/bet 10", "u1:/p", "u1:/stats"}, disp.calls)
	st.View(func(s *model.State) {
		assert.Equal(t, model.Watermark{SentAt: 3, ID: 1}, s.Watermark)
	})
}

func TestProcess_SkipsOwnMessages(t *testing.T) {
	tr := &fakeTransport{
		self:    "bot",
		batches: [][]comet.Message{{userMsg(1, 1, "bot", "/p")}},
	}
	disp := &fakeDispatcher{}
	d, _ := newTestDriver(t, tr, disp, nil)

	d.poll(context.Background())
	assert.Empty(t, disp.calls)
}

func TestProcess_PlainTextGoesToCallout(t *testing.T) {
	tr := &fakeTransport{
		self:    "bot",
		batches: [][]comet.Message{{userMsg(1, 1, "u1", "hey bot what gives")}},
	}
	disp := &fakeDispatcher{}
	co := &fakeCallout{}
	d, _ := newTestDriver(t, tr, disp, co)

	d.poll(context.Background())
	assert.Empty(t, disp.calls)
	assert.Equal(t, []string{"hey bot what gives"}, co.calls)
}

func TestPrime_AdvancesPastHistory(t *testing.T) {
	tr := &fakeTransport{
		self: "bot",
		batches: [][]comet.Message{
			{userMsg(5, 1, "u1", "/p"), userMsg(9, 2, "u2", "/bet 10")},
			// The same window replayed after priming.
			{userMsg(5, 1, "u1", "/p"), userMsg(9, 2, "u2", "/bet 10")},
		},
	}
	disp := &fakeDispatcher{}
	d, st := newTestDriver(t, tr, disp, nil)

	ctx := context.Background()
	d.Prime(ctx)
	st.View(func(s *model.State) {
		assert.Equal(t, model.Watermark{SentAt: 9, ID: 2}, s.Watermark)
	})

	d.poll(ctx)
	assert.Empty(t, disp.calls)
}

func TestRecordNowPlaying(t *testing.T) {
	d, st := newTestDriver(t, &fakeTransport{}, &fakeDispatcher{}, nil)

	play := &SongPlay{Key: "k1", Artist: "A", Title: "B", DJUID: "dj1", DJName: "Karen"}
	d.recordNowPlaying(play)
	d.recordNowPlaying(play)

	st.View(func(s *model.State) {
		require.NotNil(t, s.LastTrack)
		assert.Equal(t, "A", s.LastTrack.Artist)

		rec := s.Songs["k1"]
		require.NotNil(t, rec)
		assert.Equal(t, int64(2), rec.Plays)
		assert.Equal(t, "dj1", rec.FirstDJUID)

		dj := s.Users["dj1"]
		require.NotNil(t, dj)
		assert.Equal(t, 2, dj.ArtistCounts["A"])
	})
}
