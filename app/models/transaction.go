package models

import "time"

const (
	TxnStatusSuccess  = "success"
	TxnStatusFailed   = "failed"
	TxnStatusOrphaned = "orphaned"
)

const (
	PaymentModeGateway = "gateway"
	PaymentModeWaived  = "waived"
)

// Transaction is the audit record for a payment gateway callback. One row is
// written for every accepted callback, success or failure. GatewayTxnID carries
// a unique index so a replayed callback cannot create a second row.
type Transaction struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Reference    string    `gorm:"type:varchar(64);uniqueIndex" json:"reference"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Amount       float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	GatewayTxnID string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_transactions_gateway_txn_id" json:"gateway_txn_id"`
	Status       string    `gorm:"type:varchar(32);not null;index" json:"status"`
	PaymentMode  string    `gorm:"type:varchar(32);not null;default:'gateway'" json:"payment_mode"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
