package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/linkhub/internal/entity"
)

type clickRepository struct {
	db *sql.DB
}

func NewClickRepository(db *sql.DB) ClickRepository {
	return &clickRepository{db: db}
}

func (r *clickRepository) Create(ctx context.Context, click *entity.Click) error {
	query := `INSERT INTO clicks (id, block_id, user_agent, country, timestamp) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, click.ID, click.BlockID, click.UserAgent, click.Country, click.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}
	return nil
}

// CountByDay returns clicks per UTC day (YYYY-MM-DD) since the given time.
func (r *clickRepository) CountByDay(ctx context.Context, pageID string, since time.Time) (map[string]int, error) {
	query := `
		SELECT TO_CHAR(DATE(c.timestamp), 'YYYY-MM-DD') AS day, COUNT(*)
		FROM clicks c
		JOIN blocks b ON b.id = c.block_id
		WHERE b.page_id = $1 AND c.timestamp >= $2
		GROUP BY day
	`

	rows, err := r.db.QueryContext(ctx, query, pageID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			day    string
			clicks int
		)
		if err := rows.Scan(&day, &clicks); err != nil {
			return nil, err
		}
		counts[day] = clicks
	}

	return counts, rows.Err()
}

func (r *clickRepository) StatsByBlock(ctx context.Context, pageID string) ([]entity.BlockStat, error) {
	query := `
		SELECT b.id, b.title, b.type, COUNT(c.id)
		FROM blocks b
		LEFT JOIN clicks c ON c.block_id = b.id
		WHERE b.page_id = $1
		GROUP BY b.id, b.title, b.type, b.position
		ORDER BY b.position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get block stats: %w", err)
	}
	defer rows.Close()

	var stats []entity.BlockStat
	for rows.Next() {
		var stat entity.BlockStat
		if err := rows.Scan(&stat.ID, &stat.Title, &stat.Type, &stat.Clicks); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	return stats, rows.Err()
}
