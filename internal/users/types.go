package users

import "time"

// User is a directory entry. The password hash never leaves this package.
type User struct {
	ID        string    `json:"userId"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// RegisterRequest is the body for POST /register and POST /login.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
