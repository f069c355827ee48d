package community

import "errors"

// Store operations report missing rows with ErrNotFound so handlers
// can answer 404 without inspecting driver errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
