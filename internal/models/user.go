package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a stored account. PasswordHash never leaves the service layer;
// responses use PublicUser.
type User struct {
	ID           uuid.UUID `json:"-"`
	Email        string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}

// PublicUser is the outward projection of a User.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Public strips credential material from the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
