package models

// UserDB represents a user record in the database
type UserDB struct {
	UserID       string `json:"id" db:"id"`             // Primary key (UUID string)
	Username     string `json:"username" db:"username"` // Unique, lower-cased username
	PasswordHash string `json:"-" db:"password_hash"`   // bcrypt hash of the password
}
