package domain

import (
	"errors"
	"fmt"
)

var ErrInvalidCredentials = errors.New("incorrect email or password")
var ErrUserGone = errors.New("the user belonging to this token does no longer exist")
var ErrEmailNotFound = errors.New("there is no user with that email")
var ErrWrongPassword = errors.New("your current password is incorrect")
var ErrPasswordsMismatch = errors.New("passwords do not match")
var ErrNotLoggedIn = errors.New("not authorized: please log in to gain access")
var ErrTokenInvalid = errors.New("invalid token, please log in again")
var ErrTokenExpired = errors.New("access token has expired, please log in again")
var ErrPasswordChanged = errors.New("password recently changed, please log in again")
var ErrForbidden = errors.New("you do not have permission to perform this action")
var ErrInvalidID = errors.New("invalid identifier")
var ErrResetTokenInvalid = errors.New("password reset token is invalid or has expired")
var ErrBookingRequired = errors.New("you must book the tour before you can write a review")
var ErrPasswordRouteMisuse = errors.New("you cannot update your password here, use /updatePassword instead")

// NotFoundError reports a lookup miss, naming the entity type and the id
// that was requested.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found with the id of '%s'", e.Resource, e.ID)
}

// ValidationError carries an entity-level invariant violation with a message
// safe to show to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// DuplicateKeyError reports a uniqueness violation, naming the conflicting
// field when the store's error payload allows it to be derived.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return "duplicate field value already exists"
	}
	return fmt.Sprintf("duplicate value for field '%s' already exists", e.Field)
}
