package gamification

import "errors"

var (
	ErrInvalidAction   = errors.New("invalid gamification action")
	ErrInvalidBadge    = errors.New("invalid badge")
	ErrInvalidSettings = errors.New("invalid gamification settings")
)
