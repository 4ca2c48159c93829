package model

import "time"

// Post is a published blog entry. Slug carries a unique index; the
// database enforces uniqueness even if the probe in the slug generator
// races a concurrent writer.
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Title     string    `gorm:"type:varchar(512);not null"`
	Content   string    `gorm:"type:text;not null"`
	Slug      string    `gorm:"type:varchar(512);uniqueIndex:idx_post_slug;not null"`
	Date      time.Time `gorm:"index:idx_post_date;not null"`
	CreatedAt time.Time `gorm:"index:idx_post_created"`
	UpdatedAt time.Time
}

func (Post) TableName() string { return "posts" }
