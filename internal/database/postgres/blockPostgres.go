package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/linkhub/internal/entity"
)

type blockRepository struct {
	db *sql.DB
}

func NewBlockRepository(db *sql.DB) BlockRepository {
	return &blockRepository{db: db}
}

const blockColumns = `id, page_id, type, title, url, content, banner_url, image_url, position, is_active, created_at, updated_at`

// Create appends the block after the last one on its page.
func (r *blockRepository) Create(ctx context.Context, block *entity.Block) error {
	query := `
		INSERT INTO blocks (id, page_id, type, title, url, content, position, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM blocks WHERE page_id = $2),
			$7, $8, $8)
		RETURNING position
	`

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query,
		block.ID,
		block.PageID,
		block.Type,
		block.Title,
		block.URL,
		jsonParam(block.Content),
		block.IsActive,
		now,
	).Scan(&block.Position)
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}

	block.CreatedAt, block.UpdatedAt = now, now
	return nil
}

func (r *blockRepository) GetByID(ctx context.Context, id string) (*entity.Block, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM blocks WHERE id = $1`, id)

	block, err := scanBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrBlockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block: %w", err)
	}
	return block, nil
}

func (r *blockRepository) GetByPageID(ctx context.Context, pageID string, activeOnly bool) ([]*entity.Block, error) {
	query := `SELECT ` + blockColumns + ` FROM blocks WHERE page_id = $1`
	if activeOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY position ASC`

	rows, err := r.db.QueryContext(ctx, query, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get blocks: %w", err)
	}
	defer rows.Close()

	blocks := make([]*entity.Block, 0)
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		blocks = append(blocks, block)
	}

	return blocks, rows.Err()
}

func (r *blockRepository) Update(ctx context.Context, block *entity.Block) error {
	query := `
		UPDATE blocks
		SET type = $2, title = $3, url = $4, content = $5, is_active = $6, updated_at = $7
		WHERE id = $1
	`

	block.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		block.ID,
		block.Type,
		block.Title,
		block.URL,
		jsonParam(block.Content),
		block.IsActive,
		block.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update block: %w", err)
	}
	return expectRow(res, entity.ErrBlockNotFound)
}

func (r *blockRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}
	return expectRow(res, entity.ErrBlockNotFound)
}

func (r *blockRepository) SetBanner(ctx context.Context, blockID, url string) (string, error) {
	return swapImage(ctx, r.db, "blocks", "banner_url", blockID, url, entity.ErrBlockNotFound)
}

func (r *blockRepository) SetImage(ctx context.Context, blockID, url string) (string, error) {
	return swapImage(ctx, r.db, "blocks", "image_url", blockID, url, entity.ErrBlockNotFound)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBlock(s scanner) (*entity.Block, error) {
	var (
		block   entity.Block
		content []byte
	)
	err := s.Scan(
		&block.ID,
		&block.PageID,
		&block.Type,
		&block.Title,
		&block.URL,
		&content,
		&block.BannerURL,
		&block.ImageURL,
		&block.Position,
		&block.IsActive,
		&block.CreatedAt,
		&block.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(content) > 0 {
		block.Content = append([]byte(nil), content...)
	}
	return &block, nil
}

func jsonParam(raw []byte) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}
