// Package comet is the client for the CometChat-style group messaging
// backend: token exchange via the upstream gateway, group membership,
// sliding-window message listing, and outbound sends.
package comet

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexID is a message id that the backend serves as either a JSON number
// or a numeric string. Unparseable or missing ids decode as 0.
type FlexID int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexID(n)
	return nil
}

// FlexString decodes a JSON string or number into a string.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// SenderField is the top-level sender, served as either a bare uid string
// or an object with a uid.
type SenderField string

// UnmarshalJSON implements json.Unmarshaler.
func (s *SenderField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			UID string `json:"uid"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*s = SenderField(obj.UID)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		*s = ""
		return nil
	}
	*s = SenderField(str)
	return nil
}

// UserRef is a uid/name pair appearing in several payload locations.
type UserRef struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// CustomData is the bot's own structured chat payload.
type CustomData struct {
	Message string `json:"message"`
}

// SongMeta is the structured "now playing" metadata for one track.
type SongMeta struct {
	ArtistName    string     `json:"artistName"`
	TrackName     string     `json:"trackName"`
	SongID        FlexString `json:"songId"`
	CrateSongUUID FlexString `json:"crateSongUuid"`
}

// Metadata is the optional structured metadata on a message.
type Metadata struct {
	ChatMessage *struct {
		Songs []struct {
			Song *SongMeta `json:"song"`
		} `json:"songs"`
	} `json:"chatMessage"`
	User *UserRef `json:"user"`
}

// MessageData is the nested data envelope. The backend populates text and
// sender identity in several alternative locations; the classifier picks
// the first non-empty one.
type MessageData struct {
	Text     string `json:"text"`
	Category string `json:"category"`
	Type     string `json:"type"`
	Entities *struct {
		Sender *struct {
			Entity *UserRef `json:"entity"`
		} `json:"sender"`
	} `json:"entities"`
	Message *struct {
		CustomData *CustomData `json:"customData"`
	} `json:"message"`
	CustomData *CustomData        `json:"customData"`
	Metadata   *Metadata          `json:"metadata"`
	Mentions   map[string]UserRef `json:"mentions"`
	User       *UserRef           `json:"user"`
}

// Message is one fetched group message. Raw preserves the original JSON
// for heuristics that scan the whole payload (join detection).
type Message struct {
	ID       FlexID       `json:"id"`
	SentAt   int64        `json:"sentAt"`
	Sender   SenderField  `json:"sender"`
	Category string       `json:"category"`
	Type     string       `json:"type"`
	Text     string       `json:"text"`
	Data     *MessageData `json:"data"`

	Raw json.RawMessage `json:"-"`
}

// messageAlias avoids recursing into Message.UnmarshalJSON.
type messageAlias Message

// UnmarshalJSON decodes a message, falling back to the stable header
// fields (id, sentAt, sender) when an unexpected payload shape breaks the
// full decode. A header-only message still orders and filters correctly.
func (m *Message) UnmarshalJSON(data []byte) error {
	var a messageAlias
	if err := json.Unmarshal(data, &a); err != nil {
		var header struct {
			ID     FlexID      `json:"id"`
			SentAt int64       `json:"sentAt"`
			Sender SenderField `json:"sender"`
		}
		if herr := json.Unmarshal(data, &header); herr != nil {
			return herr
		}
		a = messageAlias{ID: header.ID, SentAt: header.SentAt, Sender: header.Sender}
	}
	*m = Message(a)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}
