package game

import (
    "math/rand/v2"
    "time"
)

// CodeLength is the number of decimal digits in a room code.
const CodeLength = 6

type Participant struct {
    ConnID   string    `json:"sid"`
    Nickname string    `json:"nickname"`
    JoinedAt time.Time `json:"-"`
}

// Snapshot is a consistent copy of a room taken under its lock.
type Snapshot struct {
    Code         string
    Voci         []string
    Punizioni    []string
    Participants []Participant
    Turn         int
}

// Current returns the participant whose spin is valid.
func (s Snapshot) Current() (Participant, bool) {
    if len(s.Participants) == 0 {
        return Participant{}, false
    }
    return s.Participants[s.Turn], true
}

// CurrentConnID is the connection id of the turn holder, or "" for an empty room.
func (s Snapshot) CurrentConnID() string {
    p, _ := s.Current()
    return p.ConnID
}

type JoinResult struct {
    Participant Participant
    // Creator is set for the first participant of a freshly created room.
    Creator bool
    // Rejoined is set when an existing seat was rebound instead of appended.
    Rejoined bool
    // Previous is the connection id that held the seat before a rejoin.
    Previous string
}

type Outcome struct {
    Voce      string
    Punizione string
    Spinner   Participant
    Next      Participant
    Round     int
}

// Notifier is called by a Room while its lock is held, so notifications
// arrive in commit order. Implementations must not call back into the room.
type Notifier interface {
    Joined(s Snapshot, j JoinResult)
    Left(s Snapshot, p Participant)
    Spun(s Snapshot, o Outcome)
}

type nopNotifier struct{}

func (nopNotifier) Joined(Snapshot, JoinResult) {}
func (nopNotifier) Left(Snapshot, Participant)  {}
func (nopNotifier) Spun(Snapshot, Outcome)      {}

// Picker draws an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Picker interface {
    IntN(n int) int
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int { return rand.IntN(n) }
