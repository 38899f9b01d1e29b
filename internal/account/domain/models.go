// Package domain contains persistence models for accounts and their
// billing addresses.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Account is the billing owner of resources, usage records and invoices.
type Account struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	Email     string       `gorm:"type:text;not null;uniqueIndex"`
	Name      string       `gorm:"type:text;not null"`
	IsActive  bool         `gorm:"not null;default:true"`
	PAN       *string      `gorm:"type:text"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Account) TableName() string { return "accounts" }

// BillingAddress supplies the buyer jurisdiction for tax calculation.
// State and StateCode decide intra-state vs inter-state GST.
type BillingAddress struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	AccountID  snowflake.ID `gorm:"not null;index"`
	Line1      string       `gorm:"type:text;not null"`
	Line2      *string      `gorm:"type:text"`
	City       string       `gorm:"type:text;not null"`
	State      string       `gorm:"type:text;not null"`
	StateCode  string       `gorm:"type:text;not null"`
	PostalCode string       `gorm:"type:text;not null"`
	Country    string       `gorm:"type:text;not null;default:'India'"`
	GSTIN      *string      `gorm:"type:text"`
	IsDefault  bool         `gorm:"not null;default:false;index"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (BillingAddress) TableName() string { return "billing_addresses" }
