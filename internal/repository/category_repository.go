package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soportec/triage-service/internal/domain"
)

// CategoryRepository reads ticket categories. Category CRUD lives in an
// external collaborator; the core only resolves references.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `
        SELECT id, name, required_specialties, sla_id, active, created_at
        FROM categories WHERE id=$1`
	var cat domain.Category
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&cat.ID,
		&cat.Name,
		&cat.RequiredSpecialties,
		&cat.SLAID,
		&cat.Active,
		&cat.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	const query = `
        SELECT id, name, required_specialties, sla_id, active, created_at
        FROM categories ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var cat domain.Category
		if err := rows.Scan(
			&cat.ID,
			&cat.Name,
			&cat.RequiredSpecialties,
			&cat.SLAID,
			&cat.Active,
			&cat.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, cat)
	}
	return result, rows.Err()
}
