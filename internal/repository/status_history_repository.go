package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soportec/triage-service/internal/domain"
)

// StatusHistoryRepository stores the append-only status audit trail.
type StatusHistoryRepository interface {
	Create(ctx context.Context, record *domain.StatusChangeRecord) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.StatusChangeRecord, error)
}

type statusHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewStatusHistoryRepository builds repository.
func NewStatusHistoryRepository(pool *pgxpool.Pool) StatusHistoryRepository {
	return &statusHistoryRepository{pool: pool}
}

func (r *statusHistoryRepository) Create(ctx context.Context, record *domain.StatusChangeRecord) error {
	const query = `
        INSERT INTO status_history (ticket_id, previous_status, new_status, actor_type, actor_id, justification, evidence_ref)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		record.TicketID,
		record.PreviousStatus,
		record.NewStatus,
		record.ActorType,
		record.ActorID,
		record.Justification,
		record.EvidenceRef,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *statusHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.StatusChangeRecord, error) {
	const query = `
        SELECT id, ticket_id, previous_status, new_status, actor_type, actor_id, justification, evidence_ref, created_at
        FROM status_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusChangeRecord
	for rows.Next() {
		var record domain.StatusChangeRecord
		if err := rows.Scan(
			&record.ID,
			&record.TicketID,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.ActorType,
			&record.ActorID,
			&record.Justification,
			&record.EvidenceRef,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
