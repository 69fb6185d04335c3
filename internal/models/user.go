package models

import "time"

// User owns agents. There is no authentication layer; ownership is
// bookkeeping only.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Agents []Agent `gorm:"foreignKey:OwnerID" json:"-"`
}
