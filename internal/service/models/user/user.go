package user

import "time"

// Role grants access levels.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is a registered customer or administrator.
type User struct {
	Email        string    `json:"email"`
	UserName     string    `json:"userName"`
	Role         Role      `json:"role"`
	ProfileImage string    `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
