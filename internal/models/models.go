package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" bson:"_id"       json:"id"`
	Name      string    `gorm:"not null"                    bson:"name"      json:"name"     validate:"required"`
	Email     string    `gorm:"uniqueIndex;not null"        bson:"email"     json:"email"    validate:"required,email_address"`
	Password  string    `gorm:"not null"                    bson:"password"  json:"-"        validate:"required"`
	CreatedAt time.Time `                                   bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `                                   bson:"updatedAt" json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Product struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"     bson:"_id"          json:"id"`
	UserID       string    `gorm:"type:varchar(36);index;not null" bson:"user"         json:"user"         validate:"required"`
	Name         string    `gorm:"not null"                        bson:"name"         json:"name"         validate:"required"`
	Image        string    `gorm:"not null"                        bson:"image"        json:"image"        validate:"required"`
	Description  string    `gorm:"not null"                        bson:"description"  json:"description"  validate:"required"`
	Price        float64   `gorm:"not null;default:0"              bson:"price"        json:"price"        validate:"gte=0"`
	CountInStock int       `gorm:"not null;default:0"              bson:"countInStock" json:"countInStock" validate:"gte=0"`
	CreatedAt    time.Time `                                       bson:"createdAt"    json:"createdAt"`
	UpdatedAt    time.Time `                                       bson:"updatedAt"    json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
