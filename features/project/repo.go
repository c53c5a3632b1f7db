package project

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const projectColumns = `id, code, name, base_path, domain_tags, description, visibility, last_sync_at`

func (r *PostgresRepo) GetByCode(ctx context.Context, code string) (*Project, error) {
	p := &Project{}
	query := `SELECT ` + projectColumns + ` FROM projects WHERE code = $1`
	err := r.db.QueryRowContext(ctx, query, code).Scan(
		&p.ID, &p.Code, &p.Name, &p.BasePath, pq.Array(&p.DomainTags), &p.Description, &p.Visibility, &p.LastSyncAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY code`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.BasePath, pq.Array(&p.DomainTags), &p.Description, &p.Visibility, &p.LastSyncAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *PostgresRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM projects WHERE code = $1)`
	err := r.db.QueryRowContext(ctx, query, code).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepo) Save(ctx context.Context, p *Project) error {
	query := `INSERT INTO projects (code, name, base_path, domain_tags, description, visibility) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	return r.db.QueryRowContext(ctx, query, p.Code, p.Name, p.BasePath, pq.Array(p.DomainTags), p.Description, p.Visibility).Scan(&p.ID)
}

func (r *PostgresRepo) Update(ctx context.Context, p *Project) (bool, error) {
	query := `UPDATE projects SET name = $1, base_path = $2, domain_tags = $3, description = $4, visibility = $5, updated_at = NOW() WHERE code = $6`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.BasePath, pq.Array(p.DomainTags), p.Description, p.Visibility, p.Code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepo) DeleteByCode(ctx context.Context, code string) error {
	query := `DELETE FROM projects WHERE code = $1`
	_, err := r.db.ExecContext(ctx, query, code)
	return err
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM projects`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepo) TouchLastSync(ctx context.Context, code string) error {
	query := `UPDATE projects SET last_sync_at = NOW(), updated_at = NOW() WHERE code = $1`
	_, err := r.db.ExecContext(ctx, query, code)
	return err
}
