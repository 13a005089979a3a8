package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Claims defines the structure of the JWT claims.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller as seen by the review store.
// The zero value means "no identity".
type Identity struct {
	UserID   int64
	Username string
}

// Valid reports whether the identity refers to a real account.
func (i Identity) Valid() bool {
	return i.UserID > 0
}
