package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by services, handlers and middleware. Handlers map these
// onto HTTP statuses with errors.Is; services wrap them with context via %w.
var (
	// ErrValidation is returned for malformed input, a wrong confirmation code
	// or a duplicate review attempt.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced user, genre, book, review or
	// comment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied is returned when an authenticated user lacks the role or
	// ownership required for an action.
	ErrAccessDenied = errors.New("access denied")

	// ErrAuthenticationFailed is returned when an anonymous caller attempts an
	// action that requires identity, or presents an invalid token.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrOneReviewPerBook is returned when a user submits a second review for
	// the same book.
	ErrOneReviewPerBook = fmt.Errorf("%w: only one review allowed per book", ErrValidation)

	// ErrWrongConfirmationCode is returned when the supplied confirmation code
	// does not match the one stored for the user.
	ErrWrongConfirmationCode = fmt.Errorf("%w: wrong confirmation code", ErrValidation)
)
