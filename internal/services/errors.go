// Package services defines the business logic for users, thoughts, and
// reactions. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer (400 for validation, 404 for absence, 409 for uniqueness conflicts).
package services

import "errors"

// User-related errors.
var (
	// ErrMissingFields is returned when a create or update payload omits a
	// required field, or an update supplies no fields at all.
	ErrMissingFields = errors.New("required fields are missing")

	// ErrInvalidEmail is returned when an email does not match the basic
	// local@domain.tld shape.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrDuplicateUser indicates the username or email is already taken,
	// whether detected by the pre-check or by the unique index on insert.
	ErrDuplicateUser = errors.New("username or email already exists")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrFriendNotFound indicates that the target of a friend operation
	// does not exist. Kept distinct from ErrUserNotFound so responses can
	// name which side is missing.
	ErrFriendNotFound = errors.New("friend not found")

	// ErrSelfFriendship is returned when a user attempts to befriend
	// themselves.
	ErrSelfFriendship = errors.New("cannot add yourself as a friend")
)

// Thought-related errors.
var (
	// ErrInvalidThoughtText is returned when thought text is blank or
	// exceeds the maximum length.
	ErrInvalidThoughtText = errors.New("thought text must be 1-280 characters")

	// ErrInvalidReactionBody is returned when a reaction body is blank or
	// exceeds the maximum length.
	ErrInvalidReactionBody = errors.New("reaction body must be 1-280 characters")

	// ErrThoughtNotFound indicates that the requested thought does not exist.
	ErrThoughtNotFound = errors.New("thought not found")
)
