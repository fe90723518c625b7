package services

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnknownUser  = errors.New("unknown user")
	ErrForbidden    = errors.New("forbidden")
)
