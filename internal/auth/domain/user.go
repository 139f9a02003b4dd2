package domain

import "time"

type User struct {
	ID           int64
	Username     string
	Email        string
	Nicename     string // url-safe slug, defaults to the lowercased username
	DisplayName  string
	PasswordHash string // argon2 encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
