package ws

import (
	"errors"
	"strings"
	"sync"

	"github.com/kiliankoe/ruota/internal/config"
	"github.com/kiliankoe/ruota/internal/events"
	"github.com/kiliankoe/ruota/internal/game"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var (
	ErrRateLimited  = errors.New("too many requests")
	errNotConnected = errors.New("connection not registered")
)

// Conn is the part of a transport connection the hub writes to.
// socketio.Conn satisfies it.
type Conn interface {
	ID() string
	Emit(event string, v ...interface{})
}

type binding struct {
	conn     Conn
	code     string // room the connection is seated in, "" when unbound
	nickname string
	limiter  *rate.Limiter
}

// Hub binds transport connections to seats in rooms and fans room
// notifications out to the bound connections. It is the game.Notifier of
// the RoomManager it is created with.
type Hub struct {
	rooms     *game.RoomManager
	sink      events.Sink
	spinRate  rate.Limit
	spinBurst int

	mu    sync.RWMutex
	conns map[string]*binding // connection id -> binding
}

func NewHub(rm *game.RoomManager, cfg config.Config) *Hub {
	h := &Hub{
		rooms:     rm,
		sink:      events.Nop{},
		spinRate:  rate.Limit(cfg.SpinRate),
		spinBurst: cfg.SpinBurst,
		conns:     make(map[string]*binding),
	}
	if cfg.SpinRate <= 0 {
		h.spinRate = rate.Inf
	}
	if h.spinBurst <= 0 {
		h.spinBurst = 1
	}
	rm.SetNotifier(h)
	return h
}

func (h *Hub) SetSink(s events.Sink) { h.sink = s }

func (h *Hub) Connect(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = &binding{conn: c, limiter: rate.NewLimiter(h.spinRate, h.spinBurst)}
}

// Disconnect drops the connection and frees its seat. An emptied room is
// removed right away.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	b := h.conns[connID]
	delete(h.conns, connID)
	code := ""
	if b != nil {
		code = b.code
	}
	h.mu.Unlock()

	if code != "" {
		h.leave(connID, code)
	}
}

func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CreateRoom opens a room and seats the creator in it.
func (h *Hub) CreateRoom(connID, nickname string, voci, punizioni []string) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return game.ErrInvalidNickname
	}
	if err := h.release(connID, ""); err != nil {
		return err
	}
	room, err := h.rooms.CreateRoom(voci, punizioni)
	if err != nil {
		return err
	}
	if _, err := room.Join(nickname, connID, false); err != nil {
		h.rooms.RemoveIfEmpty(room.Code)
		return err
	}
	h.confirm(connID, room.Code)
	log.Info().Str("sid", connID).Str("code", room.Code).Str("nickname", nickname).Msg("create_room")
	return nil
}

// JoinRoom seats connID in the room with the given code. With rejoin set the
// seat already held by nickname is taken over instead of adding a new one.
func (h *Hub) JoinRoom(connID, code, nickname string, rejoin bool) error {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return game.ErrInvalidNickname
	}
	room, err := h.rooms.Get(code)
	if err != nil {
		return err
	}
	if err := h.release(connID, code); err != nil {
		return err
	}
	res, err := room.Join(nickname, connID, rejoin)
	if err != nil {
		return err
	}
	h.confirm(connID, code)
	log.Info().Str("sid", connID).Str("code", code).Str("nickname", nickname).
		Bool("rejoin", rejoin).Bool("rebound", res.Rejoined).Msg("join_room")
	return nil
}

func (h *Hub) Spin(connID, code string) error {
	if err := game.ValidateCode(code); err != nil {
		return err
	}
	h.mu.RLock()
	b := h.conns[connID]
	h.mu.RUnlock()
	if b == nil {
		return errNotConnected
	}
	if !b.limiter.Allow() {
		return ErrRateLimited
	}
	room, err := h.rooms.Get(code)
	if err != nil {
		return err
	}
	o, err := room.Spin(connID)
	if err != nil {
		return err
	}
	log.Info().Str("sid", connID).Str("code", code).Int("round", o.Round).
		Str("voce", o.Voce).Str("punizione", o.Punizione).Msg("spin_wheel")
	return nil
}

// release unseats connID from its current room unless that room is keep.
func (h *Hub) release(connID, keep string) error {
	h.mu.Lock()
	b := h.conns[connID]
	if b == nil {
		h.mu.Unlock()
		return errNotConnected
	}
	code := b.code
	if code == "" || code == keep {
		h.mu.Unlock()
		return nil
	}
	b.code = ""
	h.mu.Unlock()

	h.leave(connID, code)
	return nil
}

// confirm undoes a join whose connection went away while it was seated.
func (h *Hub) confirm(connID, code string) {
	h.mu.RLock()
	b := h.conns[connID]
	ok := b != nil && b.code == code
	h.mu.RUnlock()
	if !ok {
		h.leave(connID, code)
	}
}

func (h *Hub) leave(connID, code string) {
	room, err := h.rooms.Get(code)
	if err != nil {
		return
	}
	if p, ok := room.Leave(connID); ok {
		log.Info().Str("sid", connID).Str("code", code).Str("nickname", p.Nickname).Msg("participant left")
	}
	if h.rooms.RemoveIfEmpty(code) {
		log.Info().Str("code", code).Msg("room closed")
	}
}

// Joined, Left and Spun run under the room's lock, which keeps every
// recipient's view in commit order.

func (h *Hub) Joined(s game.Snapshot, j game.JoinResult) {
	me := j.Participant
	h.mu.Lock()
	if b := h.conns[me.ConnID]; b != nil {
		b.code = s.Code
		b.nickname = me.Nickname
	}
	if j.Previous != "" && j.Previous != me.ConnID {
		// the stale connection must not free the seat when it finally drops
		if old := h.conns[j.Previous]; old != nil && old.code == s.Code {
			old.code = ""
		}
	}
	h.mu.Unlock()

	ack, typ := evJoinedRoom, events.TypeUserJoined
	switch {
	case j.Creator:
		ack, typ = evRoomCreated, events.TypeRoomCreated
	case j.Rejoined:
		typ = events.TypeUserRejoined
	}
	h.emit(me.ConnID, ack, roomState(s, me))
	if !j.Creator {
		h.broadcast(s, me.ConnID, evUserJoined, membership(s, me.Nickname))
	}
	h.sink.Publish(events.New(typ, s.Code, map[string]any{
		"sid":      me.ConnID,
		"nickname": me.Nickname,
		"users":    len(s.Participants),
	}))
}

func (h *Hub) Left(s game.Snapshot, p game.Participant) {
	if len(s.Participants) > 0 {
		h.broadcast(s, "", evUserLeft, membership(s, p.Nickname))
	}
	h.sink.Publish(events.New(events.TypeUserLeft, s.Code, map[string]any{
		"sid":      p.ConnID,
		"nickname": p.Nickname,
		"users":    len(s.Participants),
	}))
	if len(s.Participants) == 0 {
		h.sink.Publish(events.New(events.TypeRoomClosed, s.Code, nil))
	}
}

func (h *Hub) Spun(s game.Snapshot, o game.Outcome) {
	h.broadcast(s, "", evWheelResult, WheelResult{
		Voce:      o.Voce,
		Punizione: o.Punizione,
		NextTurn:  o.Next.ConnID,
		Spinner:   o.Spinner.ConnID,
	})
	h.sink.Publish(events.New(events.TypeWheelResult, s.Code, map[string]any{
		"round":     o.Round,
		"spinner":   o.Spinner.Nickname,
		"voce":      o.Voce,
		"punizione": o.Punizione,
		"next":      o.Next.Nickname,
	}))
}

func (h *Hub) emit(connID, event string, payload any) {
	h.mu.RLock()
	b := h.conns[connID]
	h.mu.RUnlock()
	if b != nil {
		b.conn.Emit(event, payload)
	}
}

// broadcast sends to every participant in the snapshot except skip.
func (h *Hub) broadcast(s game.Snapshot, skip, event string, payload any) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(s.Participants))
	for _, p := range s.Participants {
		if p.ConnID == skip {
			continue
		}
		if b := h.conns[p.ConnID]; b != nil {
			targets = append(targets, b.conn)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.Emit(event, payload)
	}
}
