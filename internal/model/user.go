package model

import "time"

// RoleAdmin is the only role in the system; there is no hierarchy.
const RoleAdmin = "admin"

// User is the singular admin account. Password holds the bcrypt hash,
// never the plain text.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Username  string    `gorm:"type:varchar(255);uniqueIndex:idx_user_username;not null"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex:idx_user_email;not null"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      string    `gorm:"type:varchar(32);not null;default:admin"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (User) TableName() string { return "users" }
