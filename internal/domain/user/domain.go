package user

import (
	"errors"
	"time"
)

const DefaultRole = "USER"

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("this email already exists")
	ErrInvalidRole = errors.New("role must not be blank")
)

type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
