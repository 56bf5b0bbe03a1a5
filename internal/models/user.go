package models

import "time"

// Roles a user may hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a customer or administrator of the store.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	FirstName string    `json:"firstName" gorm:"type:varchar(100)" validate:"required,max=100"`
	LastName  string    `json:"lastName" gorm:"type:varchar(100)" validate:"required,max=100"`
	AvatarURL string    `json:"avatarUrl" gorm:"type:varchar(500)" validate:"omitempty,url"`
	Role      string    `json:"role" gorm:"type:varchar(16);default:user"`
	Password  string    `json:"password,omitempty" gorm:"type:varchar(255)" validate:"required,min=6"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
