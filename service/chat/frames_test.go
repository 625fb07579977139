package chat

import (
	"encoding/json"
	"testing"

	"CookTalk/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"typing","data":{"conversationId":"42","isTyping":true}}`))
	require.NoError(t, err)
	assert.Equal(t, EventTyping, f.Event)

	p, err := DecodePayload[TypingPayload](f.Data)
	require.NoError(t, err)
	assert.Equal(t, "42", p.ConversationID)
	assert.True(t, p.IsTyping)
}

func TestParseFrameRejectsGarbage(t *testing.T) {
	_, err := ParseFrame([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseFrame([]byte(`{"data":{}}`))
	assert.Error(t, err)
}

func TestDecodePayloadWeakTyping(t *testing.T) {
	// numeric conversation ids arrive as numbers from sloppy clients
	p, err := DecodePayload[SendMessagePayload](map[string]any{
		"conversationId": 42,
		"content":        "hi",
		"type":           "TEXT",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", p.ConversationID)
	assert.Equal(t, "hi", p.Content)
}

func TestErrorFrameCarriesCodeOnly(t *testing.T) {
	raw := ErrorFrame(errs.ErrUnauthorized.WithDetail("conv 42, user alice"))
	var f Frame
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Equal(t, EventError, f.Event)
	assert.EqualValues(t, errs.CodeUnauthorized, f.Data["code"])
	// internal detail must not leak to the client
	assert.NotContains(t, f.Data["msg"], "alice")
}
