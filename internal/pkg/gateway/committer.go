package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/crafthaven/crafthaven/app/models"
	"github.com/crafthaven/crafthaven/app/repository"
	"github.com/crafthaven/crafthaven/internal/pkg/push"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderPlacer is the external order catalog collaborator. It owns pricing and
// line-item handling; the committer only invokes it and links the result.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, userID uint, order *OrderDetail, extra *ExtraDetail) (orderID uint, err error)
}

// Notifier is the slice of the dispatcher the committer needs.
type Notifier interface {
	NotifyUser(ctx context.Context, userID uint, notificationType string, payload push.Payload, aux map[string]interface{}) error
}

// Result is the normalized outcome of committing one callback, shaped for the
// redirect query string and the verify JSON response.
type Result struct {
	Reference        string
	GatewayTxnID     string
	Status           string
	Amount           float64
	Message          string
	OrderID          uint
	AlreadyProcessed bool
}

// Committer turns a verified callback into a persisted transaction and a
// placed order. The transaction insert and the order placement are two steps
// without a shared transactional boundary; a placement failure strands the
// transaction row, which gets marked orphaned for reconciliation.
type Committer struct {
	transactions repository.TransactionRepository
	orders       repository.OrderRepository
	placer       OrderPlacer
	notifier     Notifier

	// lowercase email domains allowed to skip payment entirely
	waiverDomains []string
}

// NewCommitter wires a committer. waiverDomains is the server-side allow-list
// for the skip-payment path; empty disables it.
func NewCommitter(
	transactions repository.TransactionRepository,
	orders repository.OrderRepository,
	placer OrderPlacer,
	notifier Notifier,
	waiverDomains []string,
) *Committer {
	normalized := make([]string, 0, len(waiverDomains))
	for _, d := range waiverDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			normalized = append(normalized, d)
		}
	}
	return &Committer{
		transactions:  transactions,
		orders:        orders,
		placer:        placer,
		notifier:      notifier,
		waiverDomains: normalized,
	}
}

// Commit persists the outcome of an already-verified callback. Failure status
// writes only an audit transaction; success writes the transaction, places
// the order and links the two. The returned Result is always usable for
// shaping a response; err is non-nil only for hard processing failures.
func (c *Committer) Commit(ctx context.Context, cb CallbackFields, detail *DecodedDetail) (*Result, error) {
	if detail == nil || detail.User == nil || detail.User.UserID == 0 {
		return nil, ErrIdentityMissing
	}
	amount, err := strconv.ParseFloat(cb.Amount, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q is not numeric", ErrMalformedPayload, cb.Amount)
	}

	if cb.Status != CallbackStatusSuccess {
		return c.commitFailure(ctx, cb, detail, amount)
	}
	return c.commitSuccess(ctx, cb, detail, amount)
}

func (c *Committer) commitFailure(ctx context.Context, cb CallbackFields, detail *DecodedDetail, amount float64) (*Result, error) {
	gatewayTxnID := cb.GatewayTxnID
	if gatewayTxnID == "" {
		// some gateways omit their id on early failures; keep the audit row
		// insertable under the unique index
		gatewayTxnID = "failed-" + uuid.NewString()
	}
	txn := &models.Transaction{
		Reference:    uuid.NewString(),
		UserID:       detail.User.UserID,
		Amount:       amount,
		GatewayTxnID: gatewayTxnID,
		Status:       models.TxnStatusFailed,
		PaymentMode:  paymentMode(cb),
	}
	if err := c.transactions.Create(txn); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.alreadyProcessed(cb, amount), nil
		}
		return nil, fmt.Errorf("persisting failed transaction: %w", err)
	}

	c.notifyAsync(detail.User.UserID, models.NotificationTypePaymentFailed, push.Payload{
		Title: "Payment failed",
		Body:  failureMessage(cb),
		URL:   "/orders",
	}, map[string]interface{}{
		"reference":      txn.Reference,
		"gateway_txn_id": cb.GatewayTxnID,
	})

	return &Result{
		Reference:    txn.Reference,
		GatewayTxnID: cb.GatewayTxnID,
		Status:       models.TxnStatusFailed,
		Amount:       amount,
		Message:      failureMessage(cb),
	}, nil
}

func (c *Committer) commitSuccess(ctx context.Context, cb CallbackFields, detail *DecodedDetail, amount float64) (*Result, error) {
	if detail.Order == nil {
		return nil, fmt.Errorf("%w: success callback without order detail", ErrMalformedPayload)
	}

	txn := &models.Transaction{
		Reference:    uuid.NewString(),
		UserID:       detail.User.UserID,
		Amount:       amount,
		GatewayTxnID: cb.GatewayTxnID,
		Status:       models.TxnStatusSuccess,
		PaymentMode:  paymentMode(cb),
	}
	if err := c.transactions.Create(txn); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.alreadyProcessed(cb, amount), nil
		}
		return nil, fmt.Errorf("persisting transaction: %w", err)
	}

	return c.placeAndLink(ctx, txn, detail)
}

// CommitWaived is the skip-payment path for allow-listed email domains. It
// synthesizes an always-successful transaction and places the order without
// ever touching the verifier. Callers must pass the server-resolved email,
// never client input alone.
func (c *Committer) CommitWaived(ctx context.Context, userID uint, email string, order *OrderDetail, extra *ExtraDetail) (*Result, error) {
	if !c.waiverAllowed(email) {
		return nil, ErrWaiverNotAllowed
	}
	if userID == 0 {
		return nil, ErrIdentityMissing
	}
	if order == nil {
		return nil, fmt.Errorf("%w: waived order without order detail", ErrMalformedPayload)
	}

	amount := order.ShippingTotal
	for _, item := range order.Items {
		amount += item.UnitPrice * float64(item.Quantity)
	}

	txn := &models.Transaction{
		Reference:    uuid.NewString(),
		UserID:       userID,
		Amount:       amount,
		GatewayTxnID: "waived-" + uuid.NewString(),
		Status:       models.TxnStatusSuccess,
		PaymentMode:  models.PaymentModeWaived,
	}
	if err := c.transactions.Create(txn); err != nil {
		return nil, fmt.Errorf("persisting waived transaction: %w", err)
	}

	return c.placeAndLink(ctx, txn, &DecodedDetail{
		Order: order,
		User:  &UserDetail{UserID: userID, Email: email},
		Extra: extra,
	})
}

// placeAndLink invokes order placement and links the order back to the
// transaction. Placement failure propagates while the transaction row stays,
// marked orphaned. A failed link is logged only.
func (c *Committer) placeAndLink(ctx context.Context, txn *models.Transaction, detail *DecodedDetail) (*Result, error) {
	orderID, err := c.placer.PlaceOrder(ctx, detail.User.UserID, detail.Order, detail.Extra)
	if err != nil {
		if markErr := c.transactions.UpdateStatus(txn.ID, models.TxnStatusOrphaned); markErr != nil {
			log.Errorf("[gateway] marking transaction %s orphaned failed: %v", txn.Reference, markErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrOrderPlacement, err)
	}

	if err := c.orders.LinkTransaction(orderID, txn.ID); err != nil {
		log.Errorf("[gateway] linking order %d to transaction %s failed: %v", orderID, txn.Reference, err)
	}

	c.notifyAsync(detail.User.UserID, models.NotificationTypeOrderPlaced, push.Payload{
		Title: "Order placed",
		Body:  fmt.Sprintf("Your payment of %.2f was received and your order is confirmed.", txn.Amount),
		URL:   fmt.Sprintf("/orders/%d", orderID),
	}, map[string]interface{}{
		"order_id":  orderID,
		"reference": txn.Reference,
	})

	return &Result{
		Reference:    txn.Reference,
		GatewayTxnID: txn.GatewayTxnID,
		Status:       models.TxnStatusSuccess,
		Amount:       txn.Amount,
		OrderID:      orderID,
	}, nil
}

// notifyAsync dispatches a notification as its own background unit of work so
// the webhook response never waits on push delivery. Failures land in the log.
func (c *Committer) notifyAsync(userID uint, notificationType string, payload push.Payload, aux map[string]interface{}) {
	if c.notifier == nil {
		return
	}
	go func() {
		if err := c.notifier.NotifyUser(context.Background(), userID, notificationType, payload, aux); err != nil {
			log.Errorf("[gateway] notifying user %d about %s failed: %v", userID, notificationType, err)
		}
	}()
}

func (c *Committer) alreadyProcessed(cb CallbackFields, amount float64) *Result {
	existing, err := c.transactions.GetByGatewayTxnID(cb.GatewayTxnID)
	result := &Result{
		GatewayTxnID:     cb.GatewayTxnID,
		Status:           cb.Status,
		Amount:           amount,
		Message:          "callback already processed",
		AlreadyProcessed: true,
	}
	if err == nil {
		result.Reference = existing.Reference
		result.Status = existing.Status
	}
	return result
}

func (c *Committer) waiverAllowed(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	for _, allowed := range c.waiverDomains {
		if domain == allowed {
			return true
		}
	}
	return false
}

func paymentMode(cb CallbackFields) string {
	if cb.Mode == "" {
		return models.PaymentModeGateway
	}
	return cb.Mode
}

func failureMessage(cb CallbackFields) string {
	if strings.TrimSpace(cb.ErrorMessage) != "" {
		return cb.ErrorMessage
	}
	return "The payment could not be completed."
}
