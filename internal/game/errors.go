package game

import "errors"

var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrInvalidConfiguration = errors.New("at least 2 voci and 2 punizioni are required")
	ErrMalformedRoomCode    = errors.New("room code must be 6 digits")
	ErrInvalidNickname      = errors.New("nickname required")
)
