package state

import "errors"

var (
	ErrNotSignedIn   = errors.New("not signed in")
	ErrQuestNotFound = errors.New("quest not found")
	ErrBadgeNotFound = errors.New("badge not found")
	ErrItemNotFound  = errors.New("avatar item not found")
	ErrItemLocked    = errors.New("avatar item is locked")
	ErrNegativeXP    = errors.New("xp amount must not be negative")
	ErrSetNotFound   = errors.New("flashcard set not found")
)
