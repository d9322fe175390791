package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soportec/triage-service/internal/domain"
)

// SLARepository reads SLA templates.
type SLARepository interface {
	GetByID(ctx context.Context, id string) (*domain.SLA, error)
	List(ctx context.Context) ([]domain.SLA, error)
}

type slaRepository struct {
	pool *pgxpool.Pool
}

// NewSLARepository builds the repository.
func NewSLARepository(pool *pgxpool.Pool) SLARepository {
	return &slaRepository{pool: pool}
}

func (r *slaRepository) GetByID(ctx context.Context, id string) (*domain.SLA, error) {
	const query = `
        SELECT id, name, response_minutes, resolution_minutes, created_at
        FROM slas WHERE id=$1`
	var tmpl domain.SLA
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&tmpl.ID,
		&tmpl.Name,
		&tmpl.ResponseMinutes,
		&tmpl.ResolutionMinutes,
		&tmpl.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *slaRepository) List(ctx context.Context) ([]domain.SLA, error) {
	const query = `
        SELECT id, name, response_minutes, resolution_minutes, created_at
        FROM slas ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLA
	for rows.Next() {
		var tmpl domain.SLA
		if err := rows.Scan(
			&tmpl.ID,
			&tmpl.Name,
			&tmpl.ResponseMinutes,
			&tmpl.ResolutionMinutes,
			&tmpl.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, tmpl)
	}
	return result, rows.Err()
}
