package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Phone     string    `json:"phone"`
	Gender    bool      `json:"gender"`
	Status    bool      `json:"status"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Active reports whether the account may sign in.
func (u User) Active() bool {
	return u.Status
}
