package ws

import (
	"errors"

	"github.com/kiliankoe/ruota/internal/game"
)

// Event names on the wire, shared with the browser client.
const (
	evCreateRoom  = "create_room"
	evJoinRoom    = "join_room"
	evSpinWheel   = "spin_wheel"
	evRoomCreated = "room_created"
	evJoinedRoom  = "joined_room"
	evUserJoined  = "user_joined"
	evUserLeft    = "user_left"
	evWheelResult = "wheel_result"
	evError       = "error"
)

type createRoomRequest struct {
	Nickname  string   `json:"nickname"`
	Voci      []string `json:"voci"`
	Punizioni []string `json:"punizioni"`
}

type joinRoomRequest struct {
	Nickname string `json:"nickname"`
	RoomCode string `json:"room_code"`
	IsRejoin bool   `json:"is_rejoin"`
}

type spinWheelRequest struct {
	RoomCode string `json:"room_code"`
}

type User struct {
	SID      string `json:"sid"`
	Nickname string `json:"nickname"`
}

// RoomState is the full acknowledgement a client needs to render a room.
type RoomState struct {
	RoomCode    string   `json:"room_code"`
	Nickname    string   `json:"nickname"`
	Voci        []string `json:"voci"`
	Punizioni   []string `json:"punizioni"`
	MySID       string   `json:"my_sid"`
	CurrentTurn string   `json:"current_turn"`
	Users       []User   `json:"users"`
}

type Membership struct {
	Users       []User `json:"users"`
	CurrentTurn string `json:"current_turn"`
	Nickname    string `json:"nickname"`
}

type WheelResult struct {
	Voce      string `json:"voce"`
	Punizione string `json:"punizione"`
	NextTurn  string `json:"next_turn"`
	Spinner   string `json:"spinner"`
}

type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func users(s game.Snapshot) []User {
	out := make([]User, 0, len(s.Participants))
	for _, p := range s.Participants {
		out = append(out, User{SID: p.ConnID, Nickname: p.Nickname})
	}
	return out
}

func roomState(s game.Snapshot, me game.Participant) RoomState {
	return RoomState{
		RoomCode:    s.Code,
		Nickname:    me.Nickname,
		Voci:        s.Voci,
		Punizioni:   s.Punizioni,
		MySID:       me.ConnID,
		CurrentTurn: s.CurrentConnID(),
		Users:       users(s),
	}
}

func membership(s game.Snapshot, nickname string) Membership {
	return Membership{Users: users(s), CurrentTurn: s.CurrentConnID(), Nickname: nickname}
}

// errorMessage maps an operation error to the payload sent to the client.
// room_not_found tells the client to forget any stored room link.
func errorMessage(err error) ErrorMessage {
	for _, known := range errorCodes {
		if errors.Is(err, known.err) {
			return ErrorMessage{Code: known.code, Message: known.err.Error()}
		}
	}
	return ErrorMessage{Code: "bad_request", Message: err.Error()}
}

var errorCodes = []struct {
	err  error
	code string
}{
	{game.ErrRoomNotFound, "room_not_found"},
	{game.ErrNotYourTurn, "not_your_turn"},
	{game.ErrInvalidConfiguration, "invalid_configuration"},
	{game.ErrMalformedRoomCode, "malformed_room_code"},
	{game.ErrInvalidNickname, "invalid_nickname"},
	{ErrRateLimited, "rate_limited"},
}
