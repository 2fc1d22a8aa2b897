package auction

import (
	"errors"
	"fmt"
)

// Reason is the machine-checkable cause of a rejected request
type Reason string

const (
	ReasonInvalidPayload Reason = "invalid_payload"
	ReasonInvalidState   Reason = "invalid_state"

	// initialize preconditions
	ReasonInvalidGroup Reason = "invalid_group"
	ReasonNoTeams      Reason = "no_teams"
	ReasonTeamNotReady Reason = "team_not_ready"
	ReasonNoItems      Reason = "no_items"

	// bid rules, in the order they are checked
	ReasonNotInProgress         Reason = "not_in_progress"
	ReasonItemMismatch          Reason = "item_mismatch"
	ReasonTeamUnauthorized      Reason = "team_unauthorized"
	ReasonBidTooLow             Reason = "bid_too_low"
	ReasonInsufficientBudget    Reason = "insufficient_budget"
	ReasonConsecutiveSelfOutbid Reason = "consecutive_self_outbid"
)

// RejectionError reports a request that was refused without touching the session.
type RejectionError struct {
	Reason Reason
	Msg    string
}

func (e *RejectionError) Error() string {
	if e.Msg == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Msg)
}

// Is matches any RejectionError with the same reason.
func (e *RejectionError) Is(target error) bool {
	t, ok := target.(*RejectionError)
	return ok && t.Reason == e.Reason
}

func reject(reason Reason, format string, args ...any) *RejectionError {
	return &RejectionError{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidPayload = &RejectionError{Reason: ReasonInvalidPayload}
	ErrInvalidState   = &RejectionError{Reason: ReasonInvalidState}

	ErrInvalidGroup = &RejectionError{Reason: ReasonInvalidGroup}
	ErrNoTeams      = &RejectionError{Reason: ReasonNoTeams}
	ErrTeamNotReady = &RejectionError{Reason: ReasonTeamNotReady}
	ErrNoItems      = &RejectionError{Reason: ReasonNoItems}

	ErrNotInProgress         = &RejectionError{Reason: ReasonNotInProgress}
	ErrItemMismatch          = &RejectionError{Reason: ReasonItemMismatch}
	ErrTeamUnauthorized      = &RejectionError{Reason: ReasonTeamUnauthorized}
	ErrBidTooLow             = &RejectionError{Reason: ReasonBidTooLow}
	ErrInsufficientBudget    = &RejectionError{Reason: ReasonInsufficientBudget}
	ErrConsecutiveSelfOutbid = &RejectionError{Reason: ReasonConsecutiveSelfOutbid}
)

// ErrEngineStopped is returned once Run has exited.
var ErrEngineStopped = errors.New("auction engine stopped")

// errNoChange aborts a session update without saving it.
var errNoChange = errors.New("no session change")

// AsRejection extracts the rejection carried by err, if any.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
