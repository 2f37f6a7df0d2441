package user

import "time"

// User is an account row. PasswordHash is nil for accounts created through
// magic-link or OAuth sign-in.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash *string   `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Profile is the user-editable profile row.
type Profile struct {
	UserID      string    `json:"user_id" db:"user_id"`
	DisplayName *string   `json:"display_name" db:"display_name"`
	AvatarURL   *string   `json:"avatar_url" db:"avatar_url"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
