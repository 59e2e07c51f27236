package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
)

// Status is the lifecycle state of a review.
type Status int

// Lifecycle states. StatusNew is the zero value.
const (
	StatusNew Status = iota
	StatusSelected
	StatusUsed
	StatusDiscarded

	statusCount
)

var statusNames = [statusCount]string{
	StatusNew:       "new",
	StatusSelected:  "selected",
	StatusUsed:      "used",
	StatusDiscarded: "discarded",
}

// AllStatuses lists every lifecycle state in declaration order.
func AllStatuses() []Status {
	out := make([]Status, 0, statusCount)
	for s := StatusNew; s < statusCount; s++ {
		out = append(out, s)
	}

	return out
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("status(%d)", int(s))
	}

	return statusNames[s]
}

// Valid reports whether s is one of the declared states.
func (s Status) Valid() bool {
	return s >= StatusNew && s < statusCount
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusUsed || s == StatusDiscarded
}

// ParseStatus converts a stored or user-supplied name into a Status.
func ParseStatus(name string) (Status, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}

	return StatusNew, fmt.Errorf("%w: %q", apperrors.ErrUnknownStatus, name)
}

// SafetyFlag classifies the reputational or legal risk of surfacing a review.
type SafetyFlag int

// Safety levels ordered from least to most risky.
const (
	SafetySafe SafetyFlag = iota
	SafetyUncertain
	SafetyRisky
)

func (f SafetyFlag) String() string {
	switch f {
	case SafetySafe:
		return "safe"
	case SafetyUncertain:
		return "uncertain"
	case SafetyRisky:
		return "risky"
	default:
		return fmt.Sprintf("safety(%d)", int(f))
	}
}

// ParseSafety converts a stored or model-supplied label into a SafetyFlag.
// Unknown labels map to SafetyUncertain.
func ParseSafety(label string) SafetyFlag {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "safe", "ok":
		return SafetySafe
	case "risky", "unsafe", "not_recommended":
		return SafetyRisky
	default:
		return SafetyUncertain
	}
}

// Stricter returns the more risky of two flags.
func Stricter(a, b SafetyFlag) SafetyFlag {
	if b > a {
		return b
	}

	return a
}

// StatusChange is a compare-and-set status update. The store applies it only
// while the review is still in From.
type StatusChange struct {
	ReviewID string
	From     Status
	To       Status
	CycleID  string
	At       time.Time
}
