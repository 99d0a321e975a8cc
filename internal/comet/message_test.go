package comet

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexID(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected FlexID
	}{
		{"number", `123`, 123},
		{"numeric string", `"456"`, 456},
		{"garbage string", `"abc"`, 0},
		{"null", `null`, 0},
		{"object", `{}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexID
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &f))
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestFlexString(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected FlexString
	}{
		{"string", `"abc"`, "abc"},
		{"number", `789`, "789"},
		{"null", `null`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexString
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &f))
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestSenderField(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected SenderField
	}{
		{"bare uid", `"u1"`, "u1"},
		{"object with uid", `{"uid":"u2","name":"Karen"}`, "u2"},
		{"number tolerated", `42`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s SenderField
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &s))
			assert.Equal(t, tt.expected, s)
		})
	}
}

func TestMessageUnmarshal_FullShape(t *testing.T) {
	raw := `{"id":"77","sentAt":1700000000,"sender":"u1","text":"hi","data":{"text":"nested"}}`
	var m Message
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	assert.Equal(t, FlexID(77), m.ID)
	assert.Equal(t, int64(1700000000), m.SentAt)
	assert.Equal(t, SenderField("u1"), m.Sender)
	assert.Equal(t, "hi", m.Text)
	require.NotNil(t, m.Data)
	assert.Equal(t, "nested", m.Data.Text)
	assert.JSONEq(t, raw, string(m.Raw))
}

// An unexpected payload shape must still yield a message that orders and
// filters correctly.
func TestMessageUnmarshal_HeaderFallback(t *testing.T) {
	raw := `{"id":5,"sentAt":100,"sender":"u1","data":"not an object"}`
	var m Message
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	assert.Equal(t, FlexID(5), m.ID)
	assert.Equal(t, int64(100), m.SentAt)
	assert.Equal(t, SenderField("u1"), m.Sender)
	assert.Nil(t, m.Data)
	assert.NotEmpty(t, m.Raw)
}
