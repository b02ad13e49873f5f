package models

import "time"

// User is a registry row. Passwords are never stored; the storefront checks a
// fixed mock credential instead.
type User struct {
	ID               string    `gorm:"column:id;type:text;primaryKey"`
	Email            string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name             string    `gorm:"column:name;not null"`
	Role             string    `gorm:"column:role;not null"`
	Avatar           *string   `gorm:"column:avatar"`
	IsApproved       *bool     `gorm:"column:is_approved"`
	StoreName        *string   `gorm:"column:store_name"`
	StoreDescription *string   `gorm:"column:store_description"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}
