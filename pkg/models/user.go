package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleAdmin    Role = "admin"
	RoleDelivery Role = "delivery"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleDelivery:
		return true
	}
	return false
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

type User struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string         `gorm:"type:varchar(100);not null" json:"name"`
	Email        string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Phone        string         `gorm:"type:varchar(20)" json:"phone"`
	PasswordHash string         `gorm:"type:varchar(100);not null" json:"-"`
	Role         Role           `gorm:"type:varchar(20);default:'user';index" json:"role"`
	Addresses    []Address      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"addresses"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// Address is stored per user and embedded as a copy in orders.
type Address struct {
	ID        uint   `gorm:"primaryKey" bson:"-" json:"id,omitempty"`
	UserID    string `gorm:"type:varchar(36);index" bson:"-" json:"-"`
	Label     string `gorm:"type:varchar(50);default:'Home'" bson:"label" json:"label"`
	Street    string `gorm:"type:varchar(200);not null" bson:"street" json:"street" binding:"required"`
	City      string `gorm:"type:varchar(100);not null" bson:"city" json:"city" binding:"required"`
	State     string `gorm:"type:varchar(100);not null" bson:"state" json:"state" binding:"required"`
	ZipCode   string `gorm:"type:varchar(20);not null" bson:"zip_code" json:"zipCode" binding:"required"`
	IsDefault bool   `bson:"-" json:"isDefault"`
}

func (Address) TableName() string {
	return "user_addresses"
}
