package entity

import "time"

type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Username  string    `json:"username" db:"username"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// PublicUser is what the public page exposes, without the email.
type PublicUser struct {
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Page     *PublicPage `json:"page"`
}
