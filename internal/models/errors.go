package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrParse            = errors.New("malformed payload")
	ErrRoomMismatch     = errors.New("room totals do not match quote totals")
	ErrCapacityExceeded = errors.New("passenger capacity exceeded")
	ErrMissingContext   = errors.New("missing required search context")
	ErrInvalidFilters   = errors.New("invalid search filters")
	ErrTransport        = errors.New("transport failure")
	ErrRowCommit        = errors.New("row commit failed")
	ErrNothingSelected  = errors.New("no rows selected")
	ErrSessionClosed    = errors.New("session closed")
	ErrUnknownSession   = errors.New("unknown session")
	ErrUnknownRow       = errors.New("unknown row")
	ErrCommitInProgress = errors.New("commit already in progress")
)

// ParseError isolates one malformed payload fragment.
type ParseError struct {
	Fragment string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("%v: %v", ErrParse, e.Err)
	}
	return fmt.Sprintf("%v in %s: %v", ErrParse, e.Fragment, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// RoomMismatchError reports room sums that differ from the quote totals.
type RoomMismatchError struct {
	Want PassengerTotals
	Got  PassengerTotals
}

func (e *RoomMismatchError) Error() string {
	return fmt.Sprintf("%v: rooms hold %d adults, %d children, %d infants; quote has %d, %d, %d",
		ErrRoomMismatch,
		e.Got.Adults, e.Got.Children, e.Got.Infants,
		e.Want.Adults, e.Want.Children, e.Want.Infants)
}

func (e *RoomMismatchError) Is(target error) bool { return target == ErrRoomMismatch }

// CapacityExceededError names the passenger class a room edit would overflow.
type CapacityExceededError struct {
	Class PassengerClass
	Limit int
	Got   int
	// PerRoom is set when a single room's cap was hit rather than the quote total.
	PerRoom bool
}

func (e *CapacityExceededError) Error() string {
	scope := "quote"
	if e.PerRoom {
		scope = "room"
	}
	return fmt.Sprintf("You have exceeded the allowed number of %s passengers (%s limit %d, got %d)", e.Class, scope, e.Limit, e.Got)
}

func (e *CapacityExceededError) Is(target error) bool { return target == ErrCapacityExceeded }

// MissingContextError lists the required filters that were absent.
type MissingContextError struct {
	Fields []string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingContext, strings.Join(e.Fields, ", "))
}

func (e *MissingContextError) Is(target error) bool { return target == ErrMissingContext }

// TransportError wraps a failure returned by an external collaborator.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// RowCommitError records why one selected row could not be committed.
type RowCommitError struct {
	SelectionKey string
	Messages     []string
}

func (e *RowCommitError) Error() string {
	return fmt.Sprintf("%v for %s: %s", ErrRowCommit, e.SelectionKey, strings.Join(e.Messages, "; "))
}

func (e *RowCommitError) Is(target error) bool { return target == ErrRowCommit }
