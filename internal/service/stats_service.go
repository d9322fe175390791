package service

import (
	"context"
	"time"

	"github.com/soportec/triage-service/internal/persistence"
	"github.com/soportec/triage-service/internal/repository"
	apperrors "github.com/soportec/triage-service/pkg/util"
)

// BucketReader reads the hourly assignment buckets.
type BucketReader interface {
	HourBuckets(ctx context.Context, prefix string, hours int, now time.Time) ([]persistence.BucketCount, error)
}

// TriageStats is the read surface for operators: current backlog plus
// the recent assignment rate.
type TriageStats struct {
	PendingCount int
	Buckets      []persistence.BucketCount
}

// StatsService aggregates triage statistics. Pure read path; no core
// logic beyond aggregation.
type StatsService struct {
	tickets     repository.TicketRepository
	buckets     BucketReader
	windowHours int
	clock       func() time.Time
}

// NewStatsService constructs the service.
func NewStatsService(tickets repository.TicketRepository, buckets BucketReader, windowHours int) *StatsService {
	if windowHours <= 0 {
		windowHours = 24
	}
	return &StatsService{
		tickets:     tickets,
		buckets:     buckets,
		windowHours: windowHours,
		clock:       time.Now,
	}
}

// GetStats returns the pending count and hourly assignment buckets.
func (s *StatsService) GetStats(ctx context.Context) (*TriageStats, error) {
	pending, err := s.tickets.CountPending(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	stats := &TriageStats{PendingCount: pending}
	if s.buckets != nil {
		buckets, err := s.buckets.HourBuckets(ctx, assignmentBucketPrefix, s.windowHours, s.clock())
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		stats.Buckets = buckets
	}
	return stats, nil
}
