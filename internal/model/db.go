package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

type Plan struct {
	ID              string          `gorm:"primaryKey;size:64;not null"`
	Name            string          `gorm:"size:128;not null"`
	MonthlyPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	MaxInstallments int             `gorm:"not null"`
	Active          bool            `gorm:"not null;default:true"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Profile struct {
	UserID    string `gorm:"primaryKey;size:64;not null"`
	Name      string `gorm:"size:128"`
	Email     string `gorm:"size:128;index"`
	Document  string `gorm:"size:32"` // CPF or CNPJ
	Phone     string `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Subscription struct {
	ID         string             `gorm:"primaryKey;size:64;not null"`
	UserID     string             `gorm:"size:64;index;not null"`
	PlanID     string             `gorm:"size:64;index;not null"`
	Status     SubscriptionStatus `gorm:"size:32;index;not null"`
	PeriodEnd  *time.Time

	ContractAccepted   bool `gorm:"not null;default:false"`
	ContractAcceptedAt *time.Time

	// gateway-side identifiers
	AsaasCustomerID      string `gorm:"size:64;index"`
	AsaasSubscriptionID  string `gorm:"size:64;index"`
	StripeSubscriptionID string `gorm:"size:64;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Payment struct {
	ID             string          `gorm:"primaryKey;size:64;not null"` // gateway payment id
	SubscriptionID string          `gorm:"size:64;index;not null"`
	Reference      string          `gorm:"size:64;index"` // externalReference sent to the gateway
	Status         string          `gorm:"size:32;index;not null"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Installments   int             `gorm:"not null;default:1"`
	BillingType    string          `gorm:"size:32"`
	InvoiceURL     string          `gorm:"size:512"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;uniqueIndex;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

// CheckoutState mirrors a session's checkout store server-side so throttle
// and recovery survive restarts. Data holds the key/value map as JSON;
// Version backs the optimistic compare-and-swap on the recovery slot.
type CheckoutState struct {
	SessionID string `gorm:"primaryKey;size:64;not null"`
	Data      string `gorm:"type:text"`
	Version   int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
