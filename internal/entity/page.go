package entity

import "time"

type Page struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Avatar      string    `json:"avatar,omitempty" db:"avatar"`
	Banner      string    `json:"banner,omitempty" db:"banner"`
	ThemeID     string    `json:"theme_id" db:"theme_id"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	Blocks      []*Block  `json:"blocks"`
	User        *PageUser `json:"user,omitempty"`
}

type PageUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

type UpdatePageRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
}

type PublicPage struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Avatar      string         `json:"avatar,omitempty"`
	Banner      string         `json:"banner,omitempty"`
	ThemeID     string         `json:"theme_id"`
	Blocks      []*PublicBlock `json:"blocks"`
}
