package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"promptregistry/internal/prompt/model"
	"promptregistry/pkg/apperrors"
	"promptregistry/pkg/logger"

	"github.com/lib/pq"
)

const promptColumns = "id, name, content, category, version, active, created_at, updated_at"

const uniqueViolation = "23505"

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PromptRepository struct {
	DB *sql.DB
	queries
}

var _ Store = (*PromptRepository)(nil)

func NewPromptRepository(db *sql.DB) *PromptRepository {
	return &PromptRepository{DB: db, queries: queries{db: db}}
}

func (r *PromptRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func (r *PromptRepository) WithNameLock(ctx context.Context, name string, fn func(q Querier) error) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		logger.Sugar.Errorf("Failed to begin transaction for prompt %s: %v", name, err)
		return err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.Sugar.Errorf("Failed to roll back transaction for prompt %s: %v", name, rbErr)
			}
		}
	}()

	// Released automatically at commit or rollback.
	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, name); err != nil {
		logger.Sugar.Errorf("Failed to lock prompt %s: %v", name, err)
		return err
	}

	if err = fn(queries{db: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		logger.Sugar.Errorf("Failed to commit transaction for prompt %s: %v", name, err)
	}
	return err
}

type queries struct {
	db dbtx
}

func (q queries) FindActiveByName(ctx context.Context, name string) (*model.Prompt, error) {
	p, err := q.queryOne(ctx, `SELECT `+promptColumns+` FROM prompts WHERE name = $1 AND active = TRUE`, name)
	if err != nil {
		logger.Sugar.Errorf("Failed to find active prompt %s: %v", name, err)
	}
	return p, err
}

func (q queries) FindByID(ctx context.Context, id int64) (*model.Prompt, error) {
	p, err := q.queryOne(ctx, `SELECT `+promptColumns+` FROM prompts WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to find prompt by id %d: %v", id, err)
	}
	return p, err
}

func (q queries) FindLatestVersionByName(ctx context.Context, name string) (*model.Prompt, error) {
	p, err := q.queryOne(ctx, `SELECT `+promptColumns+` FROM prompts WHERE name = $1 ORDER BY version DESC LIMIT 1`, name)
	if err != nil {
		logger.Sugar.Errorf("Failed to find latest version of prompt %s: %v", name, err)
	}
	return p, err
}

func (q queries) FindActiveByCategory(ctx context.Context, category string) ([]model.Prompt, error) {
	prompts, err := q.queryMany(ctx, `SELECT `+promptColumns+` FROM prompts WHERE category = $1 AND active = TRUE ORDER BY name`, category)
	if err != nil {
		logger.Sugar.Errorf("Failed to list prompts in category %s: %v", category, err)
	}
	return prompts, err
}

func (q queries) FindAllActive(ctx context.Context) ([]model.Prompt, error) {
	prompts, err := q.queryMany(ctx, `SELECT `+promptColumns+` FROM prompts WHERE active = TRUE ORDER BY name`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list active prompts: %v", err)
	}
	return prompts, err
}

func (q queries) FindAllVersionsByName(ctx context.Context, name string) ([]model.Prompt, error) {
	prompts, err := q.queryMany(ctx, `SELECT `+promptColumns+` FROM prompts WHERE name = $1 ORDER BY version DESC`, name)
	if err != nil {
		logger.Sugar.Errorf("Failed to list versions of prompt %s: %v", name, err)
	}
	return prompts, err
}

func (q queries) Insert(ctx context.Context, p *model.Prompt) (*model.Prompt, error) {
	saved := *p
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO prompts (name, content, category, version, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		p.Name, p.Content, p.Category, p.Version, p.Active,
	).Scan(&saved.ID, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: prompt with name '%s' already exists", apperrors.ErrAlreadyExists, p.Name)
		}
		logger.Sugar.Errorf("Failed to insert prompt %s v%d: %v", p.Name, p.Version, err)
		return nil, err
	}
	return &saved, nil
}

func (q queries) Update(ctx context.Context, p *model.Prompt) (*model.Prompt, error) {
	saved := *p
	err := q.db.QueryRowContext(ctx, `UPDATE prompts SET active = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`,
		p.Active, p.ID).Scan(&saved.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: prompt with id '%d' not found", apperrors.ErrNotFound, p.ID)
	}
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: prompt with name '%s' already has an active version", apperrors.ErrAlreadyExists, p.Name)
		}
		logger.Sugar.Errorf("Failed to update prompt %d: %v", p.ID, err)
		return nil, err
	}
	return &saved, nil
}

func (q queries) queryOne(ctx context.Context, query string, args ...any) (*model.Prompt, error) {
	var p model.Prompt
	err := q.db.QueryRowContext(ctx, query, args...).
		Scan(&p.ID, &p.Name, &p.Content, &p.Category, &p.Version, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (q queries) queryMany(ctx context.Context, query string, args ...any) ([]model.Prompt, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prompts := []model.Prompt{}
	for rows.Next() {
		var p model.Prompt
		if err := rows.Scan(&p.ID, &p.Name, &p.Content, &p.Category, &p.Version, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}
