package domain

import "errors"

var (
	ErrRoomNotFound           = errors.New("room-not-found")
	ErrPlayerNotFound         = errors.New("player-not-found")
	ErrGameAlreadyStarted     = errors.New("game-already-started")
	ErrDuplicateInvestigation = errors.New("duplicate-investigation")
	ErrNotHost                = errors.New("not-host")
	ErrUnauthorized           = errors.New("unauthorized")
)

// StoreError wraps persistence failures so callers can treat them as one
// bucket: log, drop the intent, let the client resubmit.
var StoreError = errors.New("store-error")
