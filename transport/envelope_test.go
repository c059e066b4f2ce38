package transport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

func TestFromEvent_Maps_Broadcast_Events(t *testing.T) {
	req := require.New(t)
	public := domain.PublicMessage{ID: uuid.New(), Author: "Alice", Text: "hi", At: time.Now().UTC()}

	env, ok := FromEvent(event.MessageBroadcast{Message: public})
	req.True(ok)
	req.Equal(TypeMessage, env.Type)
	req.Equal("Alice", env.Message.Author)

	env, ok = FromEvent(event.NoticeBroadcast{Text: "Alice entered the chat."})
	req.True(ok)
	req.Equal(TypeSystem, env.Type)
	req.Equal("Alice entered the chat.", env.Text)

	env, ok = FromEvent(event.HistoryReplay{Messages: []domain.PublicMessage{public, public}})
	req.True(ok)
	req.Equal(TypeHistory, env.Type)
	req.Len(env.Messages, 2)
}

func TestFromEvent_Internal_Events_Have_No_Wire_Form(t *testing.T) {
	req := require.New(t)

	_, ok := FromEvent(event.MessageAccepted{})
	req.False(ok)
	_, ok = FromEvent(event.NoticePosted{})
	req.False(ok)
}

func TestEnvelope_RoundTrip(t *testing.T) {
	req := require.New(t)
	env := Envelope{Type: TypeJoin, Name: "Alice"}

	frame, err := env.Encode()
	req.NoError(err)

	decoded, err := DecodeEnvelope(frame[4:])
	req.NoError(err)
	req.Equal(env, decoded)
}

func TestEnvelope_Wire_Form_Never_Leaks_Identity(t *testing.T) {
	req := require.New(t)
	env, ok := FromEvent(event.MessageBroadcast{Message: domain.PublicMessage{
		ID:     uuid.New(),
		Author: "Alice",
		Text:   "hi",
		At:     time.Now().UTC(),
	}})
	req.True(ok)

	raw, err := json.Marshal(env)
	req.NoError(err)

	// The wire structure has no field for these at all; guard the JSON anyway
	var decoded map[string]any
	req.NoError(json.Unmarshal(raw, &decoded))
	message := decoded["message"].(map[string]any)
	req.NotContains(message, "ip_hash")
	req.NotContains(message, "user_id")
	req.NotContains(message, "session_id")
	req.NotContains(message, "identity_token")
}
