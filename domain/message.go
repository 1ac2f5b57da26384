// Package domain contains core concepts of the notification relay.
// This file defines the chat Message value and related rules.
package domain

import (
	"github.com/google/uuid"
)

// Message is a single chat notification. Body is the plain-text form and
// is required for a real send. RichBody is an optional XHTML alternate
// representation. Room is a destination override; when empty the session's
// default room applies.
//
// Messages are passed by value. The copy handed to the dispatcher is a
// snapshot, so routing a message after submission cannot race with an
// in-flight send.
type Message struct {
	ID       uuid.UUID
	Body     string
	RichBody string
	Room     string
}

// Text builds a plain-text message.
func Text(body string) Message {
	return Message{ID: uuid.New(), Body: body}
}

// Rich builds a message carrying both a plain body and an XHTML alternate.
func Rich(body, richBody string) Message {
	return Message{ID: uuid.New(), Body: body, RichBody: richBody}
}

// WithRoom returns a copy of the message routed to the given room.
func (m Message) WithRoom(room string) Message {
	m.Room = room
	return m
}
