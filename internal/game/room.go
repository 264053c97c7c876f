package game

import (
    "slices"
    "sync"
    "time"
)

// Room is the authority for one game: who is seated, in which order, and
// whose turn it is. Every mutation runs under mu.
type Room struct {
    Code      string
    Voci      []string
    Punizioni []string
    CreatedAt time.Time

    mu           sync.Mutex
    participants []Participant
    turn         int
    spins        int
    closed       bool

    notifier Notifier
    picker   Picker
}

// Join seats nickname on connID. With rejoin set, an existing seat held by
// the same nickname is rebound to connID in place; otherwise, or when no
// such seat exists, the participant is appended at the end of the turn order.
func (r *Room) Join(nickname, connID string, rejoin bool) (JoinResult, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    if r.closed {
        return JoinResult{}, ErrRoomNotFound
    }

    // same connection asking twice: acknowledge without touching the order
    if i := r.indexOfConn(connID); i >= 0 {
        res := JoinResult{Participant: r.participants[i], Rejoined: true, Previous: connID}
        r.notifier.Joined(r.snapshotLocked(), res)
        return res, nil
    }

    if rejoin {
        if i := r.indexOfNickname(nickname); i >= 0 {
            res := JoinResult{Rejoined: true, Previous: r.participants[i].ConnID}
            r.participants[i].ConnID = connID
            res.Participant = r.participants[i]
            r.notifier.Joined(r.snapshotLocked(), res)
            return res, nil
        }
    }

    p := Participant{ConnID: connID, Nickname: nickname, JoinedAt: time.Now().UTC()}
    res := JoinResult{Participant: p, Creator: len(r.participants) == 0}
    r.participants = append(r.participants, p)
    if len(r.participants) == 1 {
        r.turn = 0
    }
    r.notifier.Joined(r.snapshotLocked(), res)
    return res, nil
}

// Leave removes the participant bound to connID. A departure before the
// cursor shifts it back by one so the same participant keeps the turn; the
// departure of the turn holder passes the turn to whoever moves into the
// slot, wrapping to the start. An emptied room is closed for good.
func (r *Room) Leave(connID string) (Participant, bool) {
    r.mu.Lock()
    defer r.mu.Unlock()
    i := r.indexOfConn(connID)
    if i < 0 {
        return Participant{}, false
    }
    p := r.participants[i]
    r.participants = slices.Delete(r.participants, i, i+1)

    switch {
    case len(r.participants) == 0:
        r.turn = 0
        r.closed = true
    case i < r.turn:
        r.turn--
    case r.turn >= len(r.participants):
        r.turn = 0
    }
    r.notifier.Left(r.snapshotLocked(), p)
    return p, true
}

// Spin draws a voce and an independent punizione for the turn holder and
// passes the turn on. The turn check runs against the room's own state.
func (r *Room) Spin(connID string) (Outcome, error) {
    r.mu.Lock()
    defer r.mu.Unlock()
    if r.closed || len(r.participants) == 0 {
        return Outcome{}, ErrRoomNotFound
    }
    spinner := r.participants[r.turn]
    if spinner.ConnID != connID {
        return Outcome{}, ErrNotYourTurn
    }

    o := Outcome{
        Voce:      r.Voci[r.picker.IntN(len(r.Voci))],
        Punizione: r.Punizioni[r.picker.IntN(len(r.Punizioni))],
        Spinner:   spinner,
    }
    r.advance()
    r.spins++
    o.Next = r.participants[r.turn]
    o.Round = r.spins
    r.notifier.Spun(r.snapshotLocked(), o)
    return o, nil
}

func (r *Room) Snapshot() Snapshot {
    r.mu.Lock()
    defer r.mu.Unlock()
    return r.snapshotLocked()
}

func (r *Room) advance() {
    r.turn = (r.turn + 1) % len(r.participants)
}

func (r *Room) closeIfEmpty() bool {
    r.mu.Lock()
    defer r.mu.Unlock()
    if len(r.participants) > 0 {
        return false
    }
    r.closed = true
    return true
}

func (r *Room) snapshotLocked() Snapshot {
    return Snapshot{
        Code:         r.Code,
        Voci:         slices.Clone(r.Voci),
        Punizioni:    slices.Clone(r.Punizioni),
        Participants: slices.Clone(r.participants),
        Turn:         r.turn,
    }
}

func (r *Room) indexOfConn(connID string) int {
    return slices.IndexFunc(r.participants, func(p Participant) bool { return p.ConnID == connID })
}

func (r *Room) indexOfNickname(nickname string) int {
    return slices.IndexFunc(r.participants, func(p Participant) bool { return p.Nickname == nickname })
}
