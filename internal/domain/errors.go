package domain

import "errors"

var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrProfileNotFound = errors.New("user profile not found")
	ErrNotMember       = errors.New("user is not a member of the group")
	ErrNotConnected    = errors.New("user has no live connection")
	ErrEmptyMessage    = errors.New("empty message")
	ErrMessageTooLong  = errors.New("message too long")
)
