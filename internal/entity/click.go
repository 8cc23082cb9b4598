package entity

import "time"

type Click struct {
	ID        string    `json:"id" db:"id"`
	BlockID   string    `json:"block_id" db:"block_id"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
	Country   string    `json:"country" db:"country"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

type ClickRequest struct {
	BlockID string `json:"block_id" binding:"required"`
}

type Analytics struct {
	TotalClicks int         `json:"total_clicks"`
	ClicksByDay []DailyStat `json:"clicks_by_day"`
	TopBlocks   []BlockStat `json:"top_blocks"`
	BlockStats  []BlockStat `json:"block_stats"`
	Popular     []string    `json:"popular,omitempty"`
}

type DailyStat struct {
	Date   string `json:"date"`
	Clicks int    `json:"clicks"`
}

type BlockStat struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Type   BlockType `json:"type"`
	Clicks int       `json:"clicks"`
}
