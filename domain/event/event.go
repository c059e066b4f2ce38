// Package event defines the closed event taxonomy of the relay.
// Raw events flow from the engine to the broadcast worker; broadcast
// events flow from the worker to the per-connection sinks.
package event

import (
	"chat-relay/domain"
)

type Kind string

const (
	KindMessageAccepted  Kind = "message_accepted"
	KindNoticePosted     Kind = "notice_posted"
	KindMessageBroadcast Kind = "message_broadcast"
	KindNoticeBroadcast  Kind = "notice_broadcast"
	KindHistoryReplay    Kind = "history_replay"
)

type Event interface {
	EventKind() Kind
}

// MessageAccepted carries the full durable record of a message that
// passed validation and rate limiting. It is persisted, then projected
// to PublicMessage before any fan-out.
type MessageAccepted struct {
	Message domain.Message
}

func (e MessageAccepted) EventKind() Kind { return KindMessageAccepted }

// NoticePosted is an ephemeral system notice waiting for fan-out.
// The origin session never receives its own notice.
type NoticePosted struct {
	Text   string
	Origin domain.SessionID
}

func (e NoticePosted) EventKind() Kind { return KindNoticePosted }

// MessageBroadcast is the public projection delivered to every sink.
type MessageBroadcast struct {
	Message domain.PublicMessage
}

func (e MessageBroadcast) EventKind() Kind { return KindMessageBroadcast }

// NoticeBroadcast is a system notice delivered to a subset of sinks.
type NoticeBroadcast struct {
	Text string
}

func (e NoticeBroadcast) EventKind() Kind { return KindNoticeBroadcast }

// HistoryReplay is delivered once, to a newly connected session only.
// Messages are ordered oldest first.
type HistoryReplay struct {
	Messages []domain.PublicMessage
}

func (e HistoryReplay) EventKind() Kind { return KindHistoryReplay }
