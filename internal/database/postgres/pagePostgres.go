package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/linkhub/internal/entity"
)

type pageRepository struct {
	db *sql.DB
}

func NewPageRepository(db *sql.DB) PageRepository {
	return &pageRepository{db: db}
}

const pageColumns = `id, user_id, title, description, avatar, banner, theme_id, is_public, created_at, updated_at`

func (r *pageRepository) Create(ctx context.Context, page *entity.Page) error {
	query := `
		INSERT INTO pages (id, user_id, title, description, theme_id, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query,
		page.ID,
		page.UserID,
		page.Title,
		page.Description,
		page.ThemeID,
		page.IsPublic,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}

	page.CreatedAt, page.UpdatedAt = now, now
	return nil
}

func (r *pageRepository) GetByID(ctx context.Context, id string) (*entity.Page, error) {
	return r.getOne(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = $1`, id)
}

func (r *pageRepository) GetByUserID(ctx context.Context, userID string) (*entity.Page, error) {
	return r.getOne(ctx, `SELECT `+pageColumns+` FROM pages WHERE user_id = $1`, userID)
}

func (r *pageRepository) getOne(ctx context.Context, query, arg string) (*entity.Page, error) {
	var page entity.Page
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&page.ID,
		&page.UserID,
		&page.Title,
		&page.Description,
		&page.Avatar,
		&page.Banner,
		&page.ThemeID,
		&page.IsPublic,
		&page.CreatedAt,
		&page.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return &page, nil
}

func (r *pageRepository) Update(ctx context.Context, page *entity.Page) error {
	query := `
		UPDATE pages
		SET title = $2, description = $3, is_public = $4, updated_at = $5
		WHERE id = $1
	`

	page.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query, page.ID, page.Title, page.Description, page.IsPublic, page.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}
	return expectRow(res, entity.ErrPageNotFound)
}

func (r *pageRepository) SetAvatar(ctx context.Context, pageID, url string) (string, error) {
	return swapImage(ctx, r.db, "pages", "avatar", pageID, url, entity.ErrPageNotFound)
}

func (r *pageRepository) SetBanner(ctx context.Context, pageID, url string) (string, error) {
	return swapImage(ctx, r.db, "pages", "banner", pageID, url, entity.ErrPageNotFound)
}

// swapImage replaces one image column and returns its old value in a single
// statement. table and column are never user input.
func swapImage(ctx context.Context, db *sql.DB, table, column, id, url string, notFound error) (string, error) {
	query := fmt.Sprintf(`
		UPDATE %[1]s t
		SET %[2]s = $2, updated_at = $3
		FROM (SELECT id, %[2]s AS old FROM %[1]s WHERE id = $1 FOR UPDATE) prev
		WHERE t.id = prev.id
		RETURNING prev.old
	`, table, column)

	var previous string
	err := db.QueryRowContext(ctx, query, id, url, time.Now().UTC()).Scan(&previous)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to set %s.%s: %w", table, column, err)
	}
	return previous, nil
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
