package paymentControllers

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mertarslna/b2c-ecommerce-sub000/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Customer{}, &models.Address{},
		&models.Product{}, &models.Category{},
		&models.Cart{}, &models.CartItem{},
		&models.Order{}, &models.OrderItem{},
		&models.Payment{}, &models.Shipping{},
	))
	return db
}

type fixture struct {
	customer models.Customer
	product  models.Product
	order    models.Order
	payment  models.Payment
	shipping models.Shipping
}

// seedPaidOrder writes the state an order is in right after checkout plus a
// created gateway session: stock already reserved, payment PROCESSING with a
// provider reference.
func seedPaidOrder(t *testing.T, db *gorm.DB, txID string) fixture {
	t.Helper()

	f := fixture{}
	f.customer = models.Customer{ID: "cust-1", Email: "ayse@example.com", Name: "Ayse Yilmaz"}
	require.NoError(t, db.Create(&f.customer).Error)

	// Stock 5, two units reserved by the order below.
	f.product = models.Product{Name: "Ceramic Mug", Price: 100, Stock: 3}
	require.NoError(t, db.Create(&f.product).Error)

	f.order = models.Order{
		CustomerID: f.customer.ID,
		Status:     models.OrderStatusPending,
		Items: []models.OrderItem{{
			ProductID:   f.product.ID,
			ProductName: f.product.Name,
			Quantity:    2,
			UnitPrice:   100,
			TotalPrice:  200,
		}},
		TotalAmount: 249.90,
	}
	require.NoError(t, db.Create(&f.order).Error)

	f.payment = models.Payment{
		OrderID:       f.order.ID,
		Amount:        f.order.TotalAmount,
		Currency:      "TRY",
		Method:        models.PaymentMethodPaythor,
		Status:        models.PaymentStatusProcessing,
		TransactionID: &txID,
	}
	require.NoError(t, db.Create(&f.payment).Error)

	f.shipping = models.Shipping{
		OrderID:        f.order.ID,
		TrackingNumber: "TRK-" + txID,
		Carrier:        "Yurtici Kargo",
		Status:         models.ShippingStatusPending,
	}
	require.NoError(t, db.Create(&f.shipping).Error)
	return f
}

func paymentStatus(t *testing.T, db *gorm.DB, id uint) models.PaymentStatus {
	t.Helper()
	var p models.Payment
	require.NoError(t, db.First(&p, id).Error)
	return p.Status
}

func orderStatus(t *testing.T, db *gorm.DB, id uint) models.OrderStatus {
	t.Helper()
	var o models.Order
	require.NoError(t, db.First(&o, id).Error)
	return o.Status
}

func productStock(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.Stock
}

func TestReconcileSuccess(t *testing.T) {
	db := newTestDB(t)
	f := seedPaidOrder(t, db, "pt_tok_1")

	out, err := Reconcile(db, f.payment.ID, EventSuccess)
	require.NoError(t, err)
	require.True(t, out.Applied)

	assert.Equal(t, models.PaymentStatusCompleted, paymentStatus(t, db, f.payment.ID))
	assert.Equal(t, models.OrderStatusProcessing, orderStatus(t, db, f.order.ID))

	var p models.Payment
	require.NoError(t, db.First(&p, f.payment.ID).Error)
	require.NotNil(t, p.PaymentDate)

	// Shipping stays PENDING, awaiting fulfilment.
	var s models.Shipping
	require.NoError(t, db.First(&s, f.shipping.ID).Error)
	assert.Equal(t, models.ShippingStatusPending, s.Status)
}

func TestReconcileDuplicateSuccess(t *testing.T) {
	db := newTestDB(t)
	f := seedPaidOrder(t, db, "pt_tok_1")

	out, err := Reconcile(db, f.payment.ID, EventSuccess)
	require.NoError(t, err)
	require.True(t, out.Applied)

	out, err = Reconcile(db, f.payment.ID, EventSuccess)
	require.NoError(t, err)
	assert.False(t, out.Applied, "re-delivered event must be a no-op")
	assert.Equal(t, models.PaymentStatusCompleted, paymentStatus(t, db, f.payment.ID))
}

func TestReconcileFailed(t *testing.T) {
	db := newTestDB(t)
	f := seedPaidOrder(t, db, "pt_tok_1")

	out, err := Reconcile(db, f.payment.ID, EventFailed)
	require.NoError(t, err)
	require.True(t, out.Applied)

	assert.Equal(t, models.PaymentStatusFailed, paymentStatus(t, db, f.payment.ID))
	// Order is left PENDING for a retry attempt; stock stays reserved.
	assert.Equal(t, models.OrderStatusPending, orderStatus(t, db, f.order.ID))
	assert.Equal(t, 3, productStock(t, db, f.product.ID))
}

func TestReconcileCancelledRestocks(t *testing.T) {
	db := newTestDB(t)
	f := seedPaidOrder(t, db, "pt_tok_1")

	out, err := Reconcile(db, f.payment.ID, EventCancelled)
	require.NoError(t, err)
	require.True(t, out.Applied)

	assert.Equal(t, models.PaymentStatusCancelled, paymentStatus(t, db, f.payment.ID))
	assert.Equal(t, models.OrderStatusCancelled, orderStatus(t, db, f.order.ID))
	assert.Equal(t, 5, productStock(t, db, f.product.ID), "reserved units go back into stock")

	var s models.Shipping
	require.NoError(t, db.First(&s, f.shipping.ID).Error)
	assert.Equal(t, models.ShippingStatusCanceled, s.Status)
}

func TestReconcileRefundIdempotent(t *testing.T) {
	db := newTestDB(t)
	f := seedPaidOrder(t, db, "pt_tok_1")

	out, err := Reconcile(db, f.payment.ID, EventSuccess)
	require.NoError(t, err)
	require.True(t, out.Applied)

	out, err = Reconcile(db, f.payment.ID, EventRefunded)
	require.NoError(t, err)
	require.True(t, out.Applied)
	assert.Equal(t, 5, productStock(t, db, f.product.ID))

	// Same refund delivered again: no state change, no double restock.
	out, err = Reconcile(db, f.payment.ID, EventRefunded)
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, models.PaymentStatusRefunded, paymentStatus(t, db, f.payment.ID))
	assert.Equal(t, models.OrderStatusCancelled, orderStatus(t, db, f.order.ID))
	assert.Equal(t, 5, productStock(t, db, f.product.ID), "duplicate refund must not restock twice")
}

func TestReconcileTerminalStates(t *testing.T) {
	tests := []struct {
		name  string
		setup string // first event to reach the terminal state
		event string // the event that must then bounce
	}{
		{name: "failed cannot complete", setup: EventFailed, event: EventSuccess},
		{name: "cancelled cannot complete", setup: EventCancelled, event: EventSuccess},
		{name: "completed cannot go pending", setup: EventSuccess, event: EventPending},
		{name: "failed cannot refund", setup: EventFailed, event: EventRefunded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			f := seedPaidOrder(t, db, "pt_tok_1")

			out, err := Reconcile(db, f.payment.ID, tt.setup)
			require.NoError(t, err)
			require.True(t, out.Applied)
			reached := paymentStatus(t, db, f.payment.ID)

			out, err = Reconcile(db, f.payment.ID, tt.event)
			require.NoError(t, err)
			assert.False(t, out.Applied)
			assert.Equal(t, reached, paymentStatus(t, db, f.payment.ID))
		})
	}
}

func TestReconcileSingleCompletedPerOrder(t *testing.T) {
	db := newTestDB(t)
	f := seedPaidOrder(t, db, "pt_tok_1")

	second := "pt_tok_2"
	retry := models.Payment{
		OrderID:       f.order.ID,
		Amount:        f.payment.Amount,
		Currency:      "TRY",
		Method:        models.PaymentMethodPaythor,
		Status:        models.PaymentStatusProcessing,
		TransactionID: &second,
	}
	require.NoError(t, db.Create(&retry).Error)

	out, err := Reconcile(db, f.payment.ID, EventSuccess)
	require.NoError(t, err)
	require.True(t, out.Applied)

	out, err = Reconcile(db, retry.ID, EventSuccess)
	require.NoError(t, err)
	assert.False(t, out.Applied, "order already has a completed payment")
	assert.Equal(t, models.PaymentStatusProcessing, paymentStatus(t, db, retry.ID))
}

func TestReconcileUnknownEvent(t *testing.T) {
	db := newTestDB(t)
	f := seedPaidOrder(t, db, "pt_tok_1")

	_, err := Reconcile(db, f.payment.ID, "mystery")
	require.ErrorIs(t, err, ErrUnknownEvent)
}
