package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crafthaven/crafthaven/app/models"
	"github.com/crafthaven/crafthaven/internal/pkg/push"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeTxnRepo struct {
	mu   sync.Mutex
	rows []*models.Transaction

	createErr     error
	statusUpdates map[uint]string
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{statusUpdates: map[uint]string{}}
}

func (f *fakeTxnRepo) Create(txn *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.rows {
		if existing.GatewayTxnID == txn.GatewayTxnID {
			return gorm.ErrDuplicatedKey
		}
	}
	txn.ID = uint(len(f.rows) + 1)
	f.rows = append(f.rows, txn)
	return nil
}

func (f *fakeTxnRepo) GetByGatewayTxnID(gatewayTxnID string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.rows {
		if existing.GatewayTxnID == gatewayTxnID {
			return existing, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTxnRepo) UpdateStatus(id uint, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates[id] = status
	for _, existing := range f.rows {
		if existing.ID == id {
			existing.Status = status
		}
	}
	return nil
}

type fakeOrderRepo struct {
	mu    sync.Mutex
	links map[uint]uint // orderID -> transactionID

	linkErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{links: map[uint]uint{}}
}

func (f *fakeOrderRepo) GetByID(id uint) (*models.Order, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) LinkTransaction(orderID, transactionID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.linkErr != nil {
		return f.linkErr
	}
	f.links[orderID] = transactionID
	return nil
}

type fakePlacer struct {
	orderID uint
	err     error

	mu    sync.Mutex
	calls int
}

func (f *fakePlacer) PlaceOrder(ctx context.Context, userID uint, order *OrderDetail, extra *ExtraDetail) (uint, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	return f.orderID, nil
}

type notifyCall struct {
	userID           uint
	notificationType string
	payload          push.Payload
	aux              map[string]interface{}
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	ch    chan notifyCall
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ch: make(chan notifyCall, 16)}
}

func (f *fakeNotifier) NotifyUser(ctx context.Context, userID uint, notificationType string, payload push.Payload, aux map[string]interface{}) error {
	call := notifyCall{userID: userID, notificationType: notificationType, payload: payload, aux: aux}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	f.ch <- call
	return nil
}

// awaitCall blocks until the dispatcher goroutine delivered one notification.
func (f *fakeNotifier) awaitCall(t *testing.T) notifyCall {
	t.Helper()
	select {
	case call := <-f.ch:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification dispatch")
		return notifyCall{}
	}
}

func successDetail() *DecodedDetail {
	return &DecodedDetail{
		Order: &OrderDetail{
			Items: []OrderItemDetail{
				{ProductID: 3, Title: "Clay mug", Quantity: 2, UnitPrice: 350},
			},
			ShippingTotal: 49,
		},
		User: &UserDetail{UserID: 42, Name: "Asha", Email: "asha@example.com"},
	}
}

func successCallback() CallbackFields {
	return CallbackFields{
		TxnID:        "txn-1001",
		Amount:       "749.00",
		Status:       CallbackStatusSuccess,
		GatewayTxnID: "gw-555",
	}
}

func TestCommitSuccessPlacesAndLinksOrder(t *testing.T) {
	txns := newFakeTxnRepo()
	orders := newFakeOrderRepo()
	placer := &fakePlacer{orderID: 17}
	notifier := newFakeNotifier()
	c := NewCommitter(txns, orders, placer, notifier, nil)

	result, err := c.Commit(context.Background(), successCallback(), successDetail())
	assert.NoError(t, err)
	assert.Equal(t, uint(17), result.OrderID)
	assert.Equal(t, models.TxnStatusSuccess, result.Status)
	assert.Equal(t, 749.0, result.Amount)
	assert.False(t, result.AlreadyProcessed)
	assert.NotEmpty(t, result.Reference)

	assert.Len(t, txns.rows, 1)
	assert.Equal(t, models.TxnStatusSuccess, txns.rows[0].Status)
	assert.Equal(t, "gw-555", txns.rows[0].GatewayTxnID)
	assert.Equal(t, txns.rows[0].ID, orders.links[17])

	call := notifier.awaitCall(t)
	assert.Equal(t, uint(42), call.userID)
	assert.Equal(t, models.NotificationTypeOrderPlaced, call.notificationType)
	assert.Equal(t, "/orders/17", call.payload.URL)
}

func TestCommitFailureWritesAuditRowOnly(t *testing.T) {
	txns := newFakeTxnRepo()
	orders := newFakeOrderRepo()
	placer := &fakePlacer{orderID: 17}
	notifier := newFakeNotifier()
	c := NewCommitter(txns, orders, placer, notifier, nil)

	cb := successCallback()
	cb.Status = CallbackStatusFailure
	cb.ErrorMessage = "Insufficient funds"

	result, err := c.Commit(context.Background(), cb, successDetail())
	assert.NoError(t, err)
	assert.Equal(t, models.TxnStatusFailed, result.Status)
	assert.Equal(t, "Insufficient funds", result.Message)
	assert.Zero(t, result.OrderID)

	assert.Len(t, txns.rows, 1)
	assert.Equal(t, models.TxnStatusFailed, txns.rows[0].Status)
	assert.Zero(t, placer.calls)
	assert.Empty(t, orders.links)

	call := notifier.awaitCall(t)
	assert.Equal(t, models.NotificationTypePaymentFailed, call.notificationType)
	assert.Equal(t, "Insufficient funds", call.payload.Body)
}

func TestCommitFailureWithoutOrderDetail(t *testing.T) {
	txns := newFakeTxnRepo()
	c := NewCommitter(txns, newFakeOrderRepo(), &fakePlacer{}, nil, nil)

	cb := successCallback()
	cb.Status = CallbackStatusFailure

	// a failure callback whose order slot was undecodable still gets its
	// audit row; the failure branch never needs the order detail
	detail := successDetail()
	detail.Order = nil

	result, err := c.Commit(context.Background(), cb, detail)
	assert.NoError(t, err)
	assert.Equal(t, models.TxnStatusFailed, result.Status)
	assert.Len(t, txns.rows, 1)
}

func TestCommitFailureWithoutGatewayIDStaysInsertable(t *testing.T) {
	txns := newFakeTxnRepo()
	c := NewCommitter(txns, newFakeOrderRepo(), &fakePlacer{}, nil, nil)

	cb := successCallback()
	cb.Status = CallbackStatusFailure
	cb.GatewayTxnID = ""

	_, err := c.Commit(context.Background(), cb, successDetail())
	assert.NoError(t, err)
	assert.Len(t, txns.rows, 1)
	assert.True(t, strings.HasPrefix(txns.rows[0].GatewayTxnID, "failed-"))
}

func TestCommitReplayIsIdempotent(t *testing.T) {
	txns := newFakeTxnRepo()
	orders := newFakeOrderRepo()
	placer := &fakePlacer{orderID: 17}
	notifier := newFakeNotifier()
	c := NewCommitter(txns, orders, placer, notifier, nil)

	first, err := c.Commit(context.Background(), successCallback(), successDetail())
	assert.NoError(t, err)
	notifier.awaitCall(t)

	second, err := c.Commit(context.Background(), successCallback(), successDetail())
	assert.NoError(t, err)
	assert.True(t, second.AlreadyProcessed)
	assert.Equal(t, first.Reference, second.Reference)

	// no second row, no second placement
	assert.Len(t, txns.rows, 1)
	assert.Equal(t, 1, placer.calls)
}

func TestCommitPlacementFailureOrphansTransaction(t *testing.T) {
	txns := newFakeTxnRepo()
	placer := &fakePlacer{err: errors.New("catalog down")}
	c := NewCommitter(txns, newFakeOrderRepo(), placer, nil, nil)

	_, err := c.Commit(context.Background(), successCallback(), successDetail())
	assert.ErrorIs(t, err, ErrOrderPlacement)

	// transaction row survives, flagged for reconciliation
	assert.Len(t, txns.rows, 1)
	assert.Equal(t, models.TxnStatusOrphaned, txns.statusUpdates[txns.rows[0].ID])
}

func TestCommitLinkFailureIsNotFatal(t *testing.T) {
	orders := newFakeOrderRepo()
	orders.linkErr = errors.New("lock wait timeout")
	notifier := newFakeNotifier()
	c := NewCommitter(newFakeTxnRepo(), orders, &fakePlacer{orderID: 9}, notifier, nil)

	result, err := c.Commit(context.Background(), successCallback(), successDetail())
	assert.NoError(t, err)
	assert.Equal(t, uint(9), result.OrderID)
	notifier.awaitCall(t)
}

func TestCommitValidation(t *testing.T) {
	c := NewCommitter(newFakeTxnRepo(), newFakeOrderRepo(), &fakePlacer{}, nil, nil)

	t.Run("missing identity", func(t *testing.T) {
		_, err := c.Commit(context.Background(), successCallback(), &DecodedDetail{})
		assert.ErrorIs(t, err, ErrIdentityMissing)
	})

	t.Run("non-numeric amount", func(t *testing.T) {
		cb := successCallback()
		cb.Amount = "12,99"
		_, err := c.Commit(context.Background(), cb, successDetail())
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})

	t.Run("success without order detail", func(t *testing.T) {
		detail := successDetail()
		detail.Order = nil
		_, err := c.Commit(context.Background(), successCallback(), detail)
		assert.ErrorIs(t, err, ErrMalformedPayload)
	})
}

func TestCommitWaived(t *testing.T) {
	t.Run("domain not allow-listed", func(t *testing.T) {
		c := NewCommitter(newFakeTxnRepo(), newFakeOrderRepo(), &fakePlacer{}, nil, []string{"partner.example"})
		_, err := c.CommitWaived(context.Background(), 42, "asha@example.com", successDetail().Order, nil)
		assert.ErrorIs(t, err, ErrWaiverNotAllowed)
	})

	t.Run("empty allow-list disables waivers", func(t *testing.T) {
		c := NewCommitter(newFakeTxnRepo(), newFakeOrderRepo(), &fakePlacer{}, nil, nil)
		_, err := c.CommitWaived(context.Background(), 42, "asha@partner.example", successDetail().Order, nil)
		assert.ErrorIs(t, err, ErrWaiverNotAllowed)
	})

	t.Run("allow-listed domain places order", func(t *testing.T) {
		txns := newFakeTxnRepo()
		orders := newFakeOrderRepo()
		notifier := newFakeNotifier()
		c := NewCommitter(txns, orders, &fakePlacer{orderID: 31}, notifier, []string{"Partner.Example"})

		result, err := c.CommitWaived(context.Background(), 42, "asha@PARTNER.example", successDetail().Order, nil)
		assert.NoError(t, err)
		assert.Equal(t, uint(31), result.OrderID)
		// amount is derived server-side: 2 * 350 + 49 shipping
		assert.Equal(t, 749.0, result.Amount)

		assert.Len(t, txns.rows, 1)
		assert.Equal(t, models.PaymentModeWaived, txns.rows[0].PaymentMode)
		assert.True(t, strings.HasPrefix(txns.rows[0].GatewayTxnID, "waived-"))
		notifier.awaitCall(t)
	})
}
