package transport

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"chat-relay/domain"
	"chat-relay/domain/event"
)

type EnvelopeType string

// The envelope taxonomy is exhaustive and closed. Client to server:
// join, message, typing_start, typing_stop. Server to client: history,
// message, system. Disconnect has no envelope, closing the stream is
// the signal.
const (
	TypeJoin        EnvelopeType = "join"
	TypeMessage     EnvelopeType = "message"
	TypeTypingStart EnvelopeType = "typing_start"
	TypeTypingStop  EnvelopeType = "typing_stop"
	TypeHistory     EnvelopeType = "history"
	TypeSystem      EnvelopeType = "system"
)

// Envelope is the single wire structure. Fields are populated according
// to the type; everything else stays omitted.
type Envelope struct {
	Type     EnvelopeType     `json:"type"`
	Name     string           `json:"name,omitempty"`
	Text     string           `json:"text,omitempty"`
	Message  *MessagePayload  `json:"message,omitempty"`
	Messages []MessagePayload `json:"messages,omitempty"`
}

// MessagePayload mirrors domain.PublicMessage on the wire. Identity
// token and session id have no field here at all.
type MessagePayload struct {
	ID     string    `json:"id"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

func (e Envelope) Encode() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return EncodeFrame(payload)
}

func DecodeEnvelope(payload []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(payload, &env)
	return env, err
}

// FromEvent maps a broadcast event to its outbound envelope. The bool
// reports whether the event has a wire representation; engine-internal
// events do not.
func FromEvent(e event.Event) (Envelope, bool) {
	switch evt := e.(type) {
	case event.HistoryReplay:
		return Envelope{Type: TypeHistory, Messages: toPayloads(evt.Messages)}, true
	case event.MessageBroadcast:
		return Envelope{Type: TypeMessage, Message: lo.ToPtr(toPayload(evt.Message))}, true
	case event.NoticeBroadcast:
		return Envelope{Type: TypeSystem, Text: evt.Text}, true
	default:
		return Envelope{}, false
	}
}

func toPayloads(messages []domain.PublicMessage) []MessagePayload {
	return lo.Map(messages, func(m domain.PublicMessage, _ int) MessagePayload {
		return toPayload(m)
	})
}

func toPayload(m domain.PublicMessage) MessagePayload {
	return MessagePayload{
		ID:     m.ID.String(),
		Author: m.Author,
		Text:   m.Text,
		At:     m.At,
	}
}
