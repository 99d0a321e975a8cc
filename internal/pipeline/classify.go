package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"hangout-game-bot/internal/comet"
	"hangout-game-bot/internal/pkg/text"
)

// SystemUID is the reserved sender identity for system/presence events.
const SystemUID = "app_system"

var (
	joinTypeRe = regexp.MustCompile(`member|join|added|enter`)
	joinBlobRe = regexp.MustCompile(`(?i)joined|has joined|entered|member added|joined the room|joined hangout`)
)

// EventKind separates system/presence events from user chat events.
type EventKind int

// Event kinds.
const (
	EventUser EventKind = iota
	EventSystem
)

// SongPlay is a "now playing" fact extracted from system metadata.
type SongPlay struct {
	Key    string
	Artist string
	Title  string
	DJUID  string
	DJName string
}

// Event is one classified message: either a system event (possibly
// carrying a song play and/or a join) or a user chat event with sender
// identity and text.
type Event struct {
	Kind EventKind
	UID  string
	Name string
	Text string

	Song *SongPlay
	Join *comet.UserRef
}

// Classify turns a raw fetched message into an Event, extracting
// best-effort sender identity and text from whichever of the payload's
// alternative locations the transport populated.
func Classify(m *comet.Message) Event {
	uid, name := senderOf(m)
	ev := Event{
		UID:  uid,
		Name: name,
		Text: textOf(m),
	}

	if uid == SystemUID {
		ev.Kind = EventSystem
		ev.Song = songOf(m)
		if looksLikeJoin(m) {
			ev.Join = joinedUser(m)
		}
	}
	return ev
}

// senderOf extracts the sender uid and display name, preferring the
// structured entity over the top-level sender field.
func senderOf(m *comet.Message) (uid, name string) {
	if m.Data != nil && m.Data.Entities != nil && m.Data.Entities.Sender != nil &&
		m.Data.Entities.Sender.Entity != nil {
		e := m.Data.Entities.Sender.Entity
		if e.UID != "" {
			uid = e.UID
			name = e.Name
		}
	}
	if uid == "" {
		uid = string(m.Sender)
	}
	if name == "" {
		if uid == SystemUID {
			name = "System"
		} else {
			name = uid
		}
	}
	return uid, text.CleanName(name)
}

// textOf extracts the message body from the first populated location:
// nested text, top-level text, or either custom payload shape.
func textOf(m *comet.Message) string {
	if m.Data != nil {
		if m.Data.Text != "" {
			return m.Data.Text
		}
	}
	if m.Text != "" {
		return m.Text
	}
	if m.Data != nil {
		if m.Data.Message != nil && m.Data.Message.CustomData != nil {
			if m.Data.Message.CustomData.Message != "" {
				return m.Data.Message.CustomData.Message
			}
		}
		if m.Data.CustomData != nil {
			return m.Data.CustomData.Message
		}
	}
	return ""
}

// songOf extracts a "now playing" fact when the structured metadata names
// a track, resolving the DJ from mentions or the user metadata.
func songOf(m *comet.Message) *SongPlay {
	if m.Data == nil || m.Data.Metadata == nil || m.Data.Metadata.ChatMessage == nil {
		return nil
	}
	songs := m.Data.Metadata.ChatMessage.Songs
	if len(songs) == 0 || songs[0].Song == nil {
		return nil
	}
	song := songs[0].Song

	artist := song.ArtistName
	if artist == "" {
		artist = "Unknown Artist"
	}
	title := song.TrackName
	if title == "" {
		title = "Unknown Title"
	}
	key := string(song.SongID)
	if key == "" {
		key = string(song.CrateSongUUID)
	}
	if key == "" {
		key = fmt.Sprintf("%s — %s", artist, title)
	}

	play := &SongPlay{Key: key, Artist: artist, Title: title, DJName: "Unknown DJ"}
	if dj := metadataUser(m); dj != nil {
		play.DJUID = dj.UID
		play.DJName = text.CleanName(dj.Name)
	}
	return play
}

// metadataUser resolves the user a system message is about: the first
// mention (by sorted key for determinism), else the user metadata.
func metadataUser(m *comet.Message) *comet.UserRef {
	if m.Data == nil {
		return nil
	}
	if len(m.Data.Mentions) > 0 {
		uids := make([]string, 0, len(m.Data.Mentions))
		for uid := range m.Data.Mentions {
			uids = append(uids, uid)
		}
		sort.Strings(uids)
		ref := m.Data.Mentions[uids[0]]
		name := ref.Name
		if name == "" {
			name = uids[0]
		}
		return &comet.UserRef{UID: uids[0], Name: name}
	}
	if m.Data.Metadata != nil && m.Data.Metadata.User != nil && m.Data.Metadata.User.UID != "" {
		return m.Data.Metadata.User
	}
	if m.Data.User != nil && m.Data.User.UID != "" {
		return m.Data.User
	}
	return nil
}

// looksLikeJoin reports whether a system message announces a member
// joining, either via its action type or join phrasing anywhere in the
// payload.
func looksLikeJoin(m *comet.Message) bool {
	cat := strings.ToLower(m.Category)
	typ := strings.ToLower(m.Type)
	if m.Data != nil {
		if cat == "" {
			cat = strings.ToLower(m.Data.Category)
		}
		if typ == "" {
			typ = strings.ToLower(m.Data.Type)
		}
	}
	if cat == "action" && joinTypeRe.MatchString(typ) {
		return true
	}
	return joinBlobRe.Match(m.Raw)
}

// joinedUser resolves who joined from a join-classified message.
func joinedUser(m *comet.Message) *comet.UserRef {
	u := metadataUser(m)
	if u == nil || u.UID == "" {
		return nil
	}
	return &comet.UserRef{UID: u.UID, Name: text.CleanName(u.Name)}
}
