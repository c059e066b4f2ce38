// Package domain contains core concepts of the relay.
// This file defines Message records and related rules.
// Messages are immutable once accepted and validated by the domain.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"chat-relay/errors"
)

// MaxMessageLength is the number of characters kept from an accepted
// message; anything beyond it is truncated server-side.
const MaxMessageLength = 1000

// Message is the durable record of one accepted chat text.
// SessionID and IdentityToken are provenance fields: they are persisted
// but must never be part of anything sent to a client.
type Message struct {
	ID            uuid.UUID
	SessionID     SessionID
	IdentityToken string
	DisplayName   string
	Text          string
	At            time.Time
}

// PublicMessage is the projection of a Message safe to leave the server.
type PublicMessage struct {
	ID     uuid.UUID `json:"id"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

func (m Message) Public() PublicMessage {
	return PublicMessage{
		ID:     m.ID,
		Author: m.DisplayName,
		Text:   m.Text,
		At:     m.At,
	}
}

// SanitizeText trims the raw text and truncates it to max characters.
// Empty text after trimming is rejected with ErrEmptyMessage.
func SanitizeText(raw string, max int) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", errors.ErrEmptyMessage
	}
	if runes := []rune(text); len(runes) > max {
		text = string(runes[:max])
	}
	return text, nil
}
