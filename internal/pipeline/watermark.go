// Package pipeline implements the message-intake pipeline: canonical
// ordering, watermark-based de-duplication over the transport's sliding
// window, message classification, and the poll loop driver.
package pipeline

import (
	"sort"

	"hangout-game-bot/internal/comet"
	"hangout-game-bot/internal/model"
)

// The transport returns the most recent N messages with no cursor, so
// consecutive polls overlap arbitrarily. Messages are totally ordered by
// (sentAt ascending, id ascending) and compared against a persisted
// high-water mark; anything at or before the mark has been processed.

// Less reports whether a orders strictly before b under the canonical
// (sentAt, id) order.
func Less(a, b *comet.Message) bool {
	if a.SentAt != b.SentAt {
		return a.SentAt < b.SentAt
	}
	return a.ID < b.ID
}

// SortMessages sorts a fetched batch into canonical order. The transport
// makes no ordering promise of its own.
func SortMessages(msgs []comet.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return Less(&msgs[i], &msgs[j])
	})
}

// IsNew reports whether m lies strictly past the watermark. A message
// exactly at the watermark has already been processed.
func IsNew(wm model.Watermark, m *comet.Message) bool {
	if m.SentAt != wm.SentAt {
		return m.SentAt > wm.SentAt
	}
	return int64(m.ID) > wm.ID
}

// Advance moves the watermark to m's (sentAt, id) if and only if that is
// strictly greater than the current mark, keeping it monotonic.
func Advance(wm *model.Watermark, m *comet.Message) {
	if IsNew(*wm, m) {
		wm.SentAt = m.SentAt
		wm.ID = int64(m.ID)
	}
}

// Newest returns the batch's maximum message under the canonical order,
// used to prime the watermark at startup so history is never replayed.
func Newest(msgs []comet.Message) *comet.Message {
	if len(msgs) == 0 {
		return nil
	}
	newest := &msgs[0]
	for i := 1; i < len(msgs); i++ {
		if Less(newest, &msgs[i]) {
			newest = &msgs[i]
		}
	}
	return newest
}
