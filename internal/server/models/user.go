// Package models contains the server-side domain types shared by the
// repositories, services and transports.
package models

import "time"

// User is a stored account. HashedPassword is the bcrypt hash and never
// leaves the server.
type User struct {
	ID             int64
	Email          string
	Username       string
	HashedPassword string
	FullName       *string
	IsActive       bool
	IsSuperuser    bool
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// UserCreate is the input for registering an account.
type UserCreate struct {
	Email    string  `json:"email" validate:"required,email"`
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=6,max=100"`
	FullName *string `json:"full_name,omitempty"`
}

// UserUpdate is a partial update. A nil field is not present and is left
// untouched. FullName is nullable, so an explicit null clears it.
type UserUpdate struct {
	Email    *string          `json:"email,omitempty" validate:"omitempty,email"`
	Username *string          `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	FullName Optional[string] `json:"full_name"`
	Password *string          `json:"password,omitempty" validate:"omitempty,min=6,max=100"`
}

// IsEmpty reports whether the update carries no fields.
func (u UserUpdate) IsEmpty() bool {
	return u.Email == nil && u.Username == nil && !u.FullName.Set && u.Password == nil
}

// UserFields is the repository-level change set for an update: the same as
// UserUpdate but with the password already hashed.
type UserFields struct {
	Email          *string
	Username       *string
	FullName       Optional[string]
	HashedPassword *string
	IsActive       *bool
	IsSuperuser    *bool
}

// IsEmpty reports whether the change set has nothing to write.
func (f UserFields) IsEmpty() bool {
	return f.Email == nil && f.Username == nil && !f.FullName.Set &&
		f.HashedPassword == nil && f.IsActive == nil && f.IsSuperuser == nil
}

// UserLogin carries username/password credentials.
type UserLogin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Token is an issued bearer token.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
