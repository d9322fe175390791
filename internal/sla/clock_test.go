package sla_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soportec/triage-service/internal/domain"
	"github.com/soportec/triage-service/internal/sla"
)

func TestComputeDeadlines(t *testing.T) {
	createdAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tmpl := domain.SLA{ResponseMinutes: 30, ResolutionMinutes: 480}

	deadlines := sla.ComputeDeadlines(createdAt, tmpl)

	assert.Equal(t, createdAt.Add(30*time.Minute), deadlines.Response)
	assert.Equal(t, createdAt.Add(480*time.Minute), deadlines.Resolution)
}

func TestMinutesRemaining(t *testing.T) {
	createdAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	deadlines := sla.ComputeDeadlines(createdAt, domain.SLA{ResponseMinutes: 60, ResolutionMinutes: 240})

	tests := []struct {
		name     string
		assigned bool
		now      time.Time
		want     int
	}{
		{
			name: "unassigned tracks response deadline",
			now:  createdAt.Add(10 * time.Minute),
			want: 50,
		},
		{
			name:     "assigned tracks resolution deadline",
			assigned: true,
			now:      createdAt.Add(10 * time.Minute),
			want:     230,
		},
		{
			name: "past deadline goes negative",
			now:  createdAt.Add(90 * time.Minute),
			want: -30,
		},
		{
			name: "partial minutes truncate toward zero",
			now:  createdAt.Add(10*time.Minute + 30*time.Second),
			want: 49,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sla.MinutesRemaining(deadlines, tc.assigned, tc.now))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		want    sla.Urgency
	}{
		{"well ahead of breach", 1000, sla.UrgencyNormal},
		{"exactly 240 stays normal", 240, sla.UrgencyNormal},
		{"239 drops to urgent", 239, sla.UrgencyUrgent},
		{"exactly 60 stays urgent", 60, sla.UrgencyUrgent},
		{"59 drops to critical", 59, sla.UrgencyCritical},
		{"zero is critical", 0, sla.UrgencyCritical},
		{"breached is critical", -120, sla.UrgencyCritical},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sla.Classify(tc.minutes))
		})
	}
}

func TestEvaluate(t *testing.T) {
	createdAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	tmpl := domain.SLA{ResponseMinutes: 120, ResolutionMinutes: 480}

	snapshot := sla.Evaluate(createdAt, false, tmpl, createdAt.Add(65*time.Minute))

	require.Equal(t, createdAt.Add(120*time.Minute), snapshot.ResponseDeadline)
	require.Equal(t, createdAt.Add(480*time.Minute), snapshot.ResolutionDeadline)
	assert.Equal(t, 55, snapshot.MinutesRemaining)
	assert.Equal(t, sla.UrgencyCritical, snapshot.Urgency)
}
