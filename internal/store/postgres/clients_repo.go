package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"glowcrm/server/internal/domain"
	"glowcrm/server/internal/store"
)

type ClientRepo struct {
	db *bun.DB
}

func NewClientRepo(db *bun.DB) *ClientRepo {
	return &ClientRepo{db: db}
}

func (r *ClientRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	var row domain.Client
	err := r.db.NewSelect().
		Model(&row).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Client{}, store.ErrNotFound
		}
		return domain.Client{}, err
	}
	return row, nil
}

// Search matches the trimmed query as a substring of name, phone, email,
// city or street. An empty query lists everyone.
func (r *ClientRepo) Search(ctx context.Context, query string) ([]domain.Client, error) {
	var rows []domain.Client
	q := r.db.NewSelect().Model(&rows)

	if trimmed := strings.TrimSpace(query); trimmed != "" {
		pattern := "%" + trimmed + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("first_name ILIKE ?", pattern).
				WhereOr("last_name ILIKE ?", pattern).
				WhereOr("phone ILIKE ?", pattern).
				WhereOr("email ILIKE ?", pattern).
				WhereOr("city ILIKE ?", pattern).
				WhereOr("street ILIKE ?", pattern)
		})
	}

	err := q.OrderExpr("last_name ASC, first_name ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ClientRepo) Create(ctx context.Context, c domain.Client) (domain.Client, error) {
	m := c
	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		return domain.Client{}, err
	}
	return m, nil
}

func (r *ClientRepo) Update(ctx context.Context, c domain.Client) (domain.Client, error) {
	m := c
	result, err := r.db.NewUpdate().
		Model(&m).
		ExcludeColumn("id", "created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Client{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Client{}, err
	}
	if affected == 0 {
		return domain.Client{}, store.ErrNotFound
	}
	return m, nil
}

func (r *ClientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewDelete().
		Model((*domain.Client)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
