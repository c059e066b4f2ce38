// Package domain contains core concepts of the relay.
// This file defines Session entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AnonymousName is the display name of a session that never announced one.
const AnonymousName = "Anonymous"

type SessionID string

// Session represents one connected participant for the lifetime of one
// connection. The ID is never reused; the identity token is derived once
// at connect time and stays immutable until disconnect.
type Session struct {
	ID            SessionID
	DisplayName   string
	IdentityToken string
	IsTyping      bool
	// Announced reports whether the client ever sent a join event.
	// Departure notices are only emitted for announced sessions.
	Announced   bool
	ConnectedAt time.Time
}

func NewSession(identityToken string) *Session {
	return &Session{
		ID:            SessionID(uuid.NewString()),
		DisplayName:   AnonymousName,
		IdentityToken: identityToken,
		ConnectedAt:   time.Now().UTC(),
	}
}
