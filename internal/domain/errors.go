package domain

import "errors"

var (
	ErrUnknownProposal   = errors.New("unknown proposal")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrUnmergeable       = errors.New("proposal cannot be merged")
	ErrTallyNotFound     = errors.New("tally not found")
)
