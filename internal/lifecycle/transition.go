// Package lifecycle enforces the ticket status state machine. The
// validator is pure business-rule logic: callers resolve whether a
// technician is assigned and pass it as a boolean, so this package
// never touches storage.
package lifecycle

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/soportec/triage-service/internal/domain"
)

// statusOrder is the fixed forward-only progression. Transition
// validity reduces to index(new) == index(current)+1.
var statusOrder = []domain.TicketStatus{
	domain.TicketStatusPending,
	domain.TicketStatusAssigned,
	domain.TicketStatusInProgress,
	domain.TicketStatusResolved,
	domain.TicketStatusClosed,
}

// MinJustificationChars is the minimum trimmed length (in characters,
// not bytes) of the mandatory justification text.
const MinJustificationChars = 10

// Rule identifies which transition rule was violated.
type Rule string

const (
	RuleAlreadyClosed         Rule = "ALREADY_CLOSED"
	RuleNoNextState           Rule = "NO_NEXT_STATE"
	RuleMissingTargetState    Rule = "MISSING_TARGET_STATE"
	RuleStageSkipped          Rule = "STAGE_SKIPPED"
	RuleTechnicianRequired    Rule = "TECHNICIAN_REQUIRED"
	RuleJustificationRequired Rule = "JUSTIFICATION_REQUIRED"
	RuleJustificationTooShort Rule = "JUSTIFICATION_TOO_SHORT"
)

// ViolationError reports a failed transition validation.
type ViolationError struct {
	Rule    Rule
	Message string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

func violation(rule Rule, format string, args ...any) *ViolationError {
	return &ViolationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// Request carries everything the validator needs to judge a transition.
type Request struct {
	Current       domain.TicketStatus
	Requested     domain.TicketStatus
	HasTechnician bool
	Justification string
}

// Validate checks a requested transition against the state machine
// rules, in order: terminal state, successor existence, target
// presence, strict one-step-forward, technician presence past
// pendiente, and justification presence and length. It returns nil
// when the transition may commit.
func Validate(req Request) error {
	if req.Current == domain.TicketStatusClosed {
		return violation(RuleAlreadyClosed, "ticket is closed and cannot change status")
	}
	next, ok := Next(req.Current)
	if !ok {
		return violation(RuleNoNextState, "status %q has no successor", req.Current)
	}
	if req.Requested == "" {
		return violation(RuleMissingTargetState, "target status is required")
	}
	if req.Requested != next {
		return violation(RuleStageSkipped, "only %q follows %q; got %q", next, req.Current, req.Requested)
	}
	if req.Current != domain.TicketStatusPending && !req.HasTechnician {
		return violation(RuleTechnicianRequired, "transitions past %q require an assigned technician", domain.TicketStatusPending)
	}
	trimmed := strings.TrimSpace(req.Justification)
	if trimmed == "" {
		return violation(RuleJustificationRequired, "justification text is required")
	}
	if utf8.RuneCountInString(trimmed) < MinJustificationChars {
		return violation(RuleJustificationTooShort, "justification must be at least %d characters", MinJustificationChars)
	}
	return nil
}

// Next returns the successor of a status in the fixed order. The
// second return is false for the terminal state or unknown tokens.
func Next(s domain.TicketStatus) (domain.TicketStatus, bool) {
	idx := indexOf(s)
	if idx < 0 || idx >= len(statusOrder)-1 {
		return "", false
	}
	return statusOrder[idx+1], true
}

// Statuses returns the fixed progression, first to terminal.
func Statuses() []domain.TicketStatus {
	out := make([]domain.TicketStatus, len(statusOrder))
	copy(out, statusOrder)
	return out
}

// IsTerminal reports whether the status has no outgoing transition.
func IsTerminal(s domain.TicketStatus) bool {
	return s == domain.TicketStatusClosed
}

func indexOf(s domain.TicketStatus) int {
	for i, status := range statusOrder {
		if status == s {
			return i
		}
	}
	return -1
}
