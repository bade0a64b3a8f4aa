package domain

import "strings"

// MinPasswordLength is the shortest password the backend accepts.
const MinPasswordLength = 6

// RegisterRequest creates a customer account from checkout details.
type RegisterRequest struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Address  string
	Town     string
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

// Credentials is what survives a restart: the bearer token and who it
// belongs to.
type Credentials struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (c Credentials) Empty() bool {
	return strings.TrimSpace(c.Token) == ""
}
