package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soportec/triage-service/internal/domain"
)

// TechnicianFilter defines query params for roster listing.
type TechnicianFilter struct {
	Role      *domain.TechnicianRole
	Available *bool
	Limit     int
	Offset    int
}

// TechnicianRepository handles persistence for technicians.
type TechnicianRepository interface {
	Create(ctx context.Context, tech *domain.Technician) error
	Update(ctx context.Context, tech *domain.Technician) error
	GetByID(ctx context.Context, id string) (*domain.Technician, error)
	GetByEmail(ctx context.Context, email string) (*domain.Technician, error)
	List(ctx context.Context, filter TechnicianFilter) ([]domain.Technician, error)
	// IncrementWorkload applies one atomic read-modify-write to the
	// carga_trabajo counter. Never batched across a run.
	IncrementWorkload(ctx context.Context, id string, delta int) error
}

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository instantiates the repository.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

const technicianColumns = `id, name, email, password_hash, role, specialties, available, carga_trabajo, created_at, updated_at`

func (r *technicianRepository) Create(ctx context.Context, tech *domain.Technician) error {
	const query = `
        INSERT INTO technicians (name, email, password_hash, role, specialties, available, carga_trabajo)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		tech.Name,
		tech.Email,
		tech.PasswordHash,
		tech.Role,
		tech.Specialties,
		tech.Available,
		tech.Workload,
	).Scan(&tech.ID, &tech.CreatedAt, &tech.UpdatedAt)
}

func (r *technicianRepository) Update(ctx context.Context, tech *domain.Technician) error {
	const query = `
        UPDATE technicians
        SET name=$1, email=$2, password_hash=$3, role=$4, specialties=$5, available=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		tech.Name,
		tech.Email,
		tech.PasswordHash,
		tech.Role,
		tech.Specialties,
		tech.Available,
		tech.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *technicianRepository) GetByID(ctx context.Context, id string) (*domain.Technician, error) {
	query := fmt.Sprintf(`SELECT %s FROM technicians WHERE id=$1`, technicianColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *technicianRepository) GetByEmail(ctx context.Context, email string) (*domain.Technician, error) {
	query := fmt.Sprintf(`SELECT %s FROM technicians WHERE email=$1`, technicianColumns)
	return r.fetchSingle(ctx, query, email)
}

func (r *technicianRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Technician, error) {
	var tech domain.Technician
	if err := scanTechnician(r.pool.QueryRow(ctx, query, arg), &tech); err != nil {
		return nil, err
	}
	return &tech, nil
}

func (r *technicianRepository) List(ctx context.Context, filter TechnicianFilter) ([]domain.Technician, error) {
	query := fmt.Sprintf(`SELECT %s FROM technicians`, technicianColumns)
	args := []any{}
	clauses := []string{}

	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if filter.Available != nil {
		args = append(args, *filter.Available)
		clauses = append(clauses, fmt.Sprintf("available=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY id ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Technician
	for rows.Next() {
		var tech domain.Technician
		if err := scanTechnician(rows, &tech); err != nil {
			return nil, err
		}
		result = append(result, tech)
	}
	return result, rows.Err()
}

func (r *technicianRepository) IncrementWorkload(ctx context.Context, id string, delta int) error {
	const query = `
        UPDATE technicians SET carga_trabajo = carga_trabajo + $1, updated_at=NOW()
        WHERE id=$2 AND carga_trabajo + $1 >= 0`
	cmd, err := r.pool.Exec(ctx, query, delta, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTechnician(row pgx.Row, tech *domain.Technician) error {
	return row.Scan(
		&tech.ID,
		&tech.Name,
		&tech.Email,
		&tech.PasswordHash,
		&tech.Role,
		&tech.Specialties,
		&tech.Available,
		&tech.Workload,
		&tech.CreatedAt,
		&tech.UpdatedAt,
	)
}
