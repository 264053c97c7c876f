// Package events mirrors room activity to an append-only stream. Nothing in
// the game reads it back; it exists for audit and analytics.
package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeRoomCreated  = "room_created"
	TypeUserJoined   = "user_joined"
	TypeUserRejoined = "user_rejoined"
	TypeUserLeft     = "user_left"
	TypeWheelResult  = "wheel_result"
	TypeRoomClosed   = "room_closed"
)

type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Room string    `json:"room"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

func New(typ, room string, data any) Event {
	return Event{ID: uuid.NewString(), Type: typ, Room: room, At: time.Now().UTC(), Data: data}
}

// Sink receives events in the order rooms commit them. Publish must not block.
type Sink interface {
	Publish(e Event)
	Close() error
}

type Nop struct{}

func (Nop) Publish(Event) {}
func (Nop) Close() error  { return nil }
