package game

import "errors"

var (
	ErrInvalidRoom  = errors.New("room id is required")
	ErrInvalidName  = errors.New("player name is required")
	ErrRoomNotFound = errors.New("room not found")
	ErrNotJoined    = errors.New("connection has not joined a room")
)
