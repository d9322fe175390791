package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soportec/triage-service/internal/domain"
	"github.com/soportec/triage-service/internal/persistence"
	"github.com/soportec/triage-service/internal/service"
)

type bucketReaderFake struct {
	prefix  string
	hours   int
	buckets []persistence.BucketCount
}

func (f *bucketReaderFake) HourBuckets(_ context.Context, prefix string, hours int, _ time.Time) ([]persistence.BucketCount, error) {
	f.prefix = prefix
	f.hours = hours
	return f.buckets, nil
}

func TestGetStats(t *testing.T) {
	tickets := newTicketRepoFake()
	tickets.add(domain.Ticket{ID: "tic-001", Status: domain.TicketStatusPending})
	tickets.add(domain.Ticket{ID: "tic-002", Status: domain.TicketStatusPending})
	tickets.add(domain.Ticket{ID: "tic-003", Status: domain.TicketStatusAssigned})

	hour := time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC)
	reader := &bucketReaderFake{buckets: []persistence.BucketCount{
		{Hour: hour, Count: 4},
		{Hour: hour.Add(time.Hour), Count: 2},
	}}

	stats, err := service.NewStatsService(tickets, reader, 12).GetStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.PendingCount)
	require.Len(t, stats.Buckets, 2)
	assert.Equal(t, int64(4), stats.Buckets[0].Count)
	assert.Equal(t, 12, reader.hours)
	assert.Equal(t, "triage:assigned", reader.prefix)
}

func TestGetStatsWithoutBucketReader(t *testing.T) {
	tickets := newTicketRepoFake()

	stats, err := service.NewStatsService(tickets, nil, 0).GetStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, stats.PendingCount)
	assert.Empty(t, stats.Buckets)
}
