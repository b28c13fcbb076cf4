package client

import "errors"

var (
	ErrUnavailable    = errors.New("server unavailable")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrEmailTaken     = errors.New("email already registered")
	ErrInvalidRequest = errors.New("invalid request")
)
