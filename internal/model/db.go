package model

import "time"

type PaymentOrder struct {
	OrderID       string `gorm:"primaryKey;size:128;not null"` // provider order id
	Provider      string `gorm:"size:32;index;not null"`
	Purpose       string `gorm:"size:32;not null"` // SUBSCRIPTION, TIP, PRODUCT_PURCHASE
	Status        string `gorm:"size:32;index;not null"`
	PayerID       string `gorm:"size:64;index;not null"`
	BeneficiaryID string `gorm:"size:64;index;not null"` // creator
	Amount        int64  `gorm:"not null"`               // minor units
	Currency      string `gorm:"size:8;not null"`
	RedirectURL   string `gorm:"size:1024"`

	ProviderFee        int64  `gorm:"not null"`
	PlatformCommission int64  `gorm:"not null"`
	NetEarnings        int64  `gorm:"not null"`
	PlanTier           string `gorm:"size:16"`

	IdempotencyKey string `gorm:"size:128;index"`
	Metadata       string `gorm:"type:text"` // json object

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Creator struct {
	ID          string `gorm:"primaryKey;size:64;not null"`
	DisplayName string `gorm:"size:128"`
	Active      bool   `gorm:"not null"`
	PlanTier    string `gorm:"size:16;not null;default:STANDARD"` // STANDARD, PREMIUM, PARTNER
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	OrderStatusCreated = "CREATED"
)
