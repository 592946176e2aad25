package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrValidation          = errors.New("invalid input")
	ErrQuoteExpired        = errors.New("quote expired")
	ErrBondExpired         = errors.New("bond expired")
	ErrBondExhausted       = errors.New("no rentals left")
	ErrAttestationRequired = errors.New("attestation required")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrRateLimited         = errors.New("rate limited")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrLockHeld            = errors.New("lock already held")
)
