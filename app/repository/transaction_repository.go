package repository

import (
	"github.com/crafthaven/crafthaven/app/models"
	"gorm.io/gorm"
)

// transactionRepository implements the TransactionRepository interface
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Create inserts a new transaction row. The unique index on gateway_txn_id
// surfaces replayed callbacks as gorm.ErrDuplicatedKey.
func (r *transactionRepository) Create(txn *models.Transaction) error {
	return r.db.Create(txn).Error
}

// GetByGatewayTxnID retrieves a transaction by the gateway's transaction id
func (r *transactionRepository) GetByGatewayTxnID(gatewayTxnID string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.Where("gateway_txn_id = ?", gatewayTxnID).First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// UpdateStatus sets the status column of an existing transaction
func (r *transactionRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Transaction{}).Where("id = ?", id).Update("status", status).Error
}
