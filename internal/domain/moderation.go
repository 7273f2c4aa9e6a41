package domain

import (
	"errors"
	"fmt"
)

// Status is the moderation state of a review. Only approved reviews count
// toward a store's aggregate rating.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusFlagged  Status = "flagged"
	StatusRejected Status = "rejected"
)

// IsValidStatus checks whether the given status string is a valid review status.
func IsValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusFlagged, StatusRejected:
		return true
	}
	return false
}

// Approved reports whether a review in this status is included in the
// store's aggregate rating.
func (s Status) Approved() bool {
	return s == StatusApproved
}

// ModerationEvent is an action applied to a review's moderation state.
type ModerationEvent string

const (
	EventFlag    ModerationEvent = "flag"
	EventUnflag  ModerationEvent = "unflag"
	EventApprove ModerationEvent = "approve"
	EventReject  ModerationEvent = "reject"
)

// FlagReason categorizes why a review was flagged. A flagged review always
// carries a reason.
type FlagReason string

const (
	FlagReasonSpam          FlagReason = "spam"
	FlagReasonInappropriate FlagReason = "inappropriate"
	FlagReasonFake          FlagReason = "fake"
	FlagReasonOffensive     FlagReason = "offensive"
	FlagReasonOther         FlagReason = "other"
)

// ValidFlagReasons returns the set of accepted flag reasons.
func ValidFlagReasons() []FlagReason {
	return []FlagReason{
		FlagReasonSpam,
		FlagReasonInappropriate,
		FlagReasonFake,
		FlagReasonOffensive,
		FlagReasonOther,
	}
}

// ValidFlagReasonNames returns the accepted flag reasons as plain strings,
// for use in error messages and API documentation.
func ValidFlagReasonNames() []string {
	reasons := ValidFlagReasons()
	names := make([]string, len(reasons))
	for i, r := range reasons {
		names[i] = string(r)
	}
	return names
}

// IsValidFlagReason checks whether the given reason is in the accepted set.
func IsValidFlagReason(reason FlagReason) bool {
	for _, r := range ValidFlagReasons() {
		if r == reason {
			return true
		}
	}
	return false
}

// ErrInvalidTransition is returned when a moderation event is not allowed
// from the review's current status.
var ErrInvalidTransition = errors.New("invalid moderation transition")

// moderationTransitions is the allowed state table. Any (status, event) pair
// not present is rejected.
var moderationTransitions = map[Status]map[ModerationEvent]Status{
	StatusPending: {
		EventFlag:    StatusFlagged,
		EventApprove: StatusApproved,
		EventReject:  StatusRejected,
	},
	StatusApproved: {
		EventFlag:   StatusFlagged,
		EventReject: StatusRejected,
	},
	StatusFlagged: {
		EventUnflag:  StatusApproved,
		EventApprove: StatusApproved,
		EventReject:  StatusRejected,
	},
}

// Transition returns the status a review moves to when the given event is
// applied, or ErrInvalidTransition when the event is not allowed from the
// current status. Rejected is terminal.
func Transition(current Status, event ModerationEvent) (Status, error) {
	next, ok := moderationTransitions[current][event]
	if !ok {
		return current, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, current)
	}
	return next, nil
}

// ApplyModeration mutates the review's moderation fields for a valid
// transition and reports whether approval membership changed, i.e. whether
// the store's aggregate rating must be recomputed. The flag reason is set on
// flag and cleared on every other event.
func (r *Review) ApplyModeration(event ModerationEvent, reason FlagReason) (approvedChanged bool, err error) {
	next, err := Transition(r.Status, event)
	if err != nil {
		return false, err
	}

	wasApproved := r.IsApproved
	r.Status = next
	r.IsApproved = next.Approved()

	if event == EventFlag {
		r.FlagReason = reason
	} else {
		r.FlagReason = ""
	}

	return wasApproved != r.IsApproved, nil
}
