package services

import "errors"

// Sentinel errors shared by the claim, vote and settlement services. Handlers
// map them onto HTTP status codes; everything else is treated as internal.
var (
	ErrValidation       = errors.New("invalid input")
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("caller is not allowed to perform this action")
	ErrAlreadyVoted     = errors.New("user has already voted on this claim")
	ErrAlreadyFinalized = errors.New("claim voting has already been finalized")
	ErrInvalidState     = errors.New("claim is not in a state that allows this action")
	ErrAlreadyOwned     = errors.New("user already holds this pass")
)
