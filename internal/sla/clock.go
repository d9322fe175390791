// Package sla computes deadlines and urgency for tickets against their
// SLA template. Everything here is a pure function of its inputs.
package sla

import (
	"time"

	"github.com/soportec/triage-service/internal/domain"
)

// Urgency classifies how close a ticket is to breaching its SLA.
type Urgency string

const (
	UrgencyCritical Urgency = "CRITICAL"
	UrgencyUrgent   Urgency = "URGENT"
	UrgencyNormal   Urgency = "NORMAL"
)

// Band thresholds in minutes. Comparisons are strict: exactly 60
// minutes remaining is URGENT, exactly 240 is NORMAL.
const (
	criticalBelowMinutes = 60
	urgentBelowMinutes   = 240
)

// Deadlines are the two SLA checkpoints for a ticket.
type Deadlines struct {
	Response   time.Time
	Resolution time.Time
}

// Snapshot is the clock reading for a ticket at a given instant.
type Snapshot struct {
	ResponseDeadline   time.Time
	ResolutionDeadline time.Time
	MinutesRemaining   int
	Urgency            Urgency
}

// ComputeDeadlines derives both deadlines from the creation time.
func ComputeDeadlines(createdAt time.Time, tmpl domain.SLA) Deadlines {
	return Deadlines{
		Response:   createdAt.Add(time.Duration(tmpl.ResponseMinutes) * time.Minute),
		Resolution: createdAt.Add(time.Duration(tmpl.ResolutionMinutes) * time.Minute),
	}
}

// MinutesRemaining returns whole minutes until the pending deadline:
// the response deadline while the ticket is unassigned, the resolution
// deadline afterwards. Negative values mean the SLA is already
// breached.
func MinutesRemaining(d Deadlines, assigned bool, now time.Time) int {
	deadline := d.Response
	if assigned {
		deadline = d.Resolution
	}
	return int(deadline.Sub(now) / time.Minute)
}

// Classify maps remaining minutes to an urgency band.
func Classify(minutes int) Urgency {
	switch {
	case minutes < criticalBelowMinutes:
		return UrgencyCritical
	case minutes < urgentBelowMinutes:
		return UrgencyUrgent
	default:
		return UrgencyNormal
	}
}

// Evaluate produces the full clock reading for a ticket.
func Evaluate(createdAt time.Time, assigned bool, tmpl domain.SLA, now time.Time) Snapshot {
	deadlines := ComputeDeadlines(createdAt, tmpl)
	minutes := MinutesRemaining(deadlines, assigned, now)
	return Snapshot{
		ResponseDeadline:   deadlines.Response,
		ResolutionDeadline: deadlines.Resolution,
		MinutesRemaining:   minutes,
		Urgency:            Classify(minutes),
	}
}
