package entity

import (
	"encoding/json"
	"time"
)

type BlockType string

const (
	BlockLink    BlockType = "LINK"
	BlockText    BlockType = "TEXT"
	BlockSocial  BlockType = "SOCIAL"
	BlockEmail   BlockType = "EMAIL"
	BlockPhone   BlockType = "PHONE"
	BlockDivider BlockType = "DIVIDER"
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockLink, BlockText, BlockSocial, BlockEmail, BlockPhone, BlockDivider:
		return true
	}
	return false
}

type Block struct {
	ID        string          `json:"id" db:"id"`
	PageID    string          `json:"page_id" db:"page_id"`
	Type      BlockType       `json:"type" db:"type"`
	Title     string          `json:"title" db:"title"`
	URL       string          `json:"url,omitempty" db:"url"`
	Content   json.RawMessage `json:"content,omitempty" db:"content"`
	BannerURL string          `json:"banner_url,omitempty" db:"banner_url"`
	ImageURL  string          `json:"image_url,omitempty" db:"image_url"`
	Position  int             `json:"position" db:"position"`
	IsActive  bool            `json:"is_active" db:"is_active"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

type CreateBlockRequest struct {
	Type    BlockType       `json:"type" binding:"required"`
	Title   string          `json:"title"`
	URL     string          `json:"url"`
	Content json.RawMessage `json:"content"`
}

type UpdateBlockRequest struct {
	Type     *BlockType      `json:"type"`
	Title    *string         `json:"title"`
	URL      *string         `json:"url"`
	Content  json.RawMessage `json:"content"`
	IsActive *bool           `json:"is_active"`
}

type PublicBlock struct {
	ID        string          `json:"id"`
	Type      BlockType       `json:"type"`
	Title     string          `json:"title"`
	URL       string          `json:"url,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	BannerURL string          `json:"banner_url,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
	Position  int             `json:"position"`
}

func (b *Block) Public() *PublicBlock {
	return &PublicBlock{
		ID:        b.ID,
		Type:      b.Type,
		Title:     b.Title,
		URL:       b.URL,
		Content:   b.Content,
		BannerURL: b.BannerURL,
		ImageURL:  b.ImageURL,
		Position:  b.Position,
	}
}
