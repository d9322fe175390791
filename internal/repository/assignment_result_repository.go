package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soportec/triage-service/internal/domain"
)

// AssignmentResultRepository stores the append-only assignment audit log.
type AssignmentResultRepository interface {
	Create(ctx context.Context, result *domain.AssignmentResult) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AssignmentResult, error)
	ListRecent(ctx context.Context, since time.Time, limit int) ([]domain.AssignmentResult, error)
}

type assignmentResultRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentResultRepository builds repository.
func NewAssignmentResultRepository(pool *pgxpool.Pool) AssignmentResultRepository {
	return &assignmentResultRepository{pool: pool}
}

const assignmentResultColumns = `id, ticket_id, tecnico_id, succeeded, failure_reason, score, justification, candidates, mode, actor_id, created_at`

func (r *assignmentResultRepository) Create(ctx context.Context, result *domain.AssignmentResult) error {
	const query = `
        INSERT INTO assignment_results (ticket_id, tecnico_id, succeeded, failure_reason, score, justification, candidates, mode, actor_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		result.TicketID,
		result.TechnicianID,
		result.Succeeded,
		result.FailureReason,
		result.Score,
		result.Justification,
		result.Candidates,
		result.Mode,
		result.ActorID,
	).Scan(&result.ID, &result.CreatedAt)
}

func (r *assignmentResultRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AssignmentResult, error) {
	query := `SELECT ` + assignmentResultColumns + ` FROM assignment_results WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignmentResults(rows)
}

func (r *assignmentResultRepository) ListRecent(ctx context.Context, since time.Time, limit int) ([]domain.AssignmentResult, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + assignmentResultColumns + ` FROM assignment_results WHERE created_at >= $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignmentResults(rows)
}

func scanAssignmentResults(rows pgx.Rows) ([]domain.AssignmentResult, error) {
	var result []domain.AssignmentResult
	for rows.Next() {
		var item domain.AssignmentResult
		if err := rows.Scan(
			&item.ID,
			&item.TicketID,
			&item.TechnicianID,
			&item.Succeeded,
			&item.FailureReason,
			&item.Score,
			&item.Justification,
			&item.Candidates,
			&item.Mode,
			&item.ActorID,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
