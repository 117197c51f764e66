package orderControllers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	paymentControllers "github.com/mertarslna/b2c-ecommerce-sub000/controllers/payment"
	"github.com/mertarslna/b2c-ecommerce-sub000/gateway"
	"github.com/mertarslna/b2c-ecommerce-sub000/models"
)

// orderTxTimeout bounds the checkout transaction; on expiry no partial writes
// survive, so the caller may safely retry.
const orderTxTimeout = 10 * time.Second

// trackingAttempts is how many fresh tracking numbers we try before giving up
// on a unique-constraint collision.
const trackingAttempts = 3

var (
	ErrCustomerNotFound   = errors.New("order: customer not found")
	ErrProductNotFound    = errors.New("order: product not found")
	ErrInsufficientStock  = errors.New("order: insufficient stock")
	ErrEmptyCart          = errors.New("order: no items")
	ErrTrackingConflict   = errors.New("order: tracking number conflict")
	ErrTransactionTimeout = errors.New("order: transaction timed out")
)

// -------- Request Structs --------

type OrderItemInput struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type AddressInput struct {
	FullName   string `json:"full_name" binding:"required"`
	Phone      string `json:"phone"`
	Country    string `json:"country" binding:"required"`
	City       string `json:"city" binding:"required"`
	District   string `json:"district"`
	Street     string `json:"street" binding:"required"`
	PostalCode string `json:"postal_code"`
}

type PaymentInfo struct {
	Method   string `json:"method" binding:"required"` // stripe | paythor | credit_card
	Currency string `json:"currency"`
}

type PlaceOrderRequest struct {
	CustomerID     string           `json:"customer_id" binding:"required"`
	Items          []OrderItemInput `json:"items" binding:"required"`
	ShippingInfo   AddressInput     `json:"shipping_info" binding:"required"`
	BillingInfo    *AddressInput    `json:"billing_info"` // defaults to shipping address
	PaymentInfo    PaymentInfo      `json:"payment_info" binding:"required"`
	ShippingMethod string           `json:"shipping_method"`
}

type UpdateOrderRequest struct {
	Status         string `json:"status"`
	ShippingStatus string `json:"shipping_status"`
}

// PlaceOrderResult is everything the checkout transaction committed.
type PlaceOrderResult struct {
	Order    models.Order
	Payment  models.Payment
	Shipping models.Shipping
	Customer models.Customer
}

// -------- Helpers --------

func mapPaymentMethod(method string) (models.PaymentMethod, error) {
	switch strings.ToLower(method) {
	case "stripe":
		return models.PaymentMethodStripe, nil
	case "paythor":
		return models.PaymentMethodPaythor, nil
	case "credit_card", "card":
		return models.PaymentMethodCreditCard, nil
	default:
		return "", fmt.Errorf("invalid payment method %q", method)
	}
}

// gatewayKey picks the adapter for a stored payment method. Raw card payments
// go through the global card processor.
func gatewayKey(method models.PaymentMethod) string {
	if method == models.PaymentMethodPaythor {
		return "paythor"
	}
	return "stripe"
}

func generateTrackingNumber() string {
	return "TRK-" + ulid.Make().String()
}

var shippingRates = map[string]struct {
	carrier string
	cost    float64
}{
	"standard": {"Yurtici Kargo", 49.90},
	"express":  {"MNG Kargo Express", 89.90},
}

func shippingRateFor(method string) (string, float64) {
	rate, ok := shippingRates[strings.ToLower(method)]
	if !ok {
		rate = shippingRates["standard"]
	}
	return rate.carrier, rate.cost
}

func addressRow(customerID string, in AddressInput) models.Address {
	return models.Address{
		CustomerID: customerID,
		FullName:   in.FullName,
		Phone:      in.Phone,
		Country:    in.Country,
		City:       in.City,
		District:   in.District,
		Street:     in.Street,
		PostalCode: in.PostalCode,
	}
}

// -------- Core Logic --------

// PlaceOrder creates the order, its items, the address rows, a PENDING
// payment and a PENDING shipping record in one transaction, decrementing
// stock under row locks. Either everything commits or nothing does. The
// customer's server-side cart is cleared after commit, best effort.
//
// PlaceOrder is not idempotent; double-submit protection belongs to the
// caller.
func PlaceOrder(db *gorm.DB, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	method, err := mapPaymentMethod(req.PaymentInfo.Method)
	if err != nil {
		return nil, err
	}
	currency := strings.ToUpper(req.PaymentInfo.Currency)
	if currency == "" {
		currency = "TRY"
	}

	ctx, cancel := context.WithTimeout(context.Background(), orderTxTimeout)
	defer cancel()

	var res PlaceOrderResult
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, "id = ?", req.CustomerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return err
		}
		res.Customer = customer

		// Stock is checked and decremented under a row lock so two checkouts
		// racing for the last unit cannot both succeed.
		var total float64
		var items []models.OrderItem
		for _, in := range req.Items {
			var product models.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, "id = ?", in.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrProductNotFound, in.ProductID)
				}
				return err
			}

			if product.Stock < in.Quantity {
				return fmt.Errorf("%w: product %d", ErrInsufficientStock, in.ProductID)
			}

			product.Stock -= in.Quantity
			if err := tx.Save(&product).Error; err != nil {
				return err
			}

			line := product.Price * float64(in.Quantity)
			total += line
			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    in.Quantity,
				UnitPrice:   product.Price,
				TotalPrice:  line,
			})
		}

		shippingAddr := addressRow(req.CustomerID, req.ShippingInfo)
		if err := tx.Create(&shippingAddr).Error; err != nil {
			return err
		}
		billingAddr := shippingAddr
		if req.BillingInfo != nil {
			billingAddr = addressRow(req.CustomerID, *req.BillingInfo)
			if err := tx.Create(&billingAddr).Error; err != nil {
				return err
			}
		}

		carrier, shippingCost := shippingRateFor(req.ShippingMethod)

		order := models.Order{
			CustomerID:        req.CustomerID,
			Items:             items,
			OrderDate:         time.Now(),
			Status:            models.OrderStatusPending,
			TotalAmount:       total + shippingCost,
			ShippingAddressID: shippingAddr.ID,
			BillingAddressID:  billingAddr.ID,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		payment := models.Payment{
			OrderID:  order.ID,
			Amount:   order.TotalAmount,
			Currency: currency,
			Method:   method,
			Status:   models.PaymentStatusPending,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		est := time.Now().AddDate(0, 0, 5)
		var shipping models.Shipping
		created := false
		for attempt := 0; attempt < trackingAttempts; attempt++ {
			shipping = models.Shipping{
				OrderID:           order.ID,
				TrackingNumber:    generateTrackingNumber(),
				Carrier:           carrier,
				Status:            models.ShippingStatusPending,
				ShippingCost:      shippingCost,
				EstimatedDelivery: &est,
				LastStatusUpdate:  time.Now(),
			}
			err := tx.Create(&shipping).Error
			if err == nil {
				created = true
				break
			}
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return err
			}
		}
		if !created {
			return ErrTrackingConflict
		}

		res.Order = order
		res.Payment = payment
		res.Shipping = shipping
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTransactionTimeout
		}
		return nil, err
	}

	clearCart(db, req.CustomerID)
	return &res, nil
}

// clearCart empties the customer's cart after a committed checkout. A failure
// here must not fail the order, so it is only logged.
func clearCart(db *gorm.DB, customerID string) {
	var cart models.Cart
	if err := db.Where("customer_id = ?", customerID).First(&cart).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("customer %s: cart lookup after checkout failed: %v", customerID, err)
		}
		return
	}
	if err := db.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error; err != nil {
		log.Printf("customer %s: cart clear after checkout failed: %v", customerID, err)
	}
}

func orderErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrCustomerNotFound), errors.Is(err, ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrTrackingConflict):
		return http.StatusConflict
	case errors.Is(err, ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, ErrTransactionTimeout):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// -------- Handlers --------

// PlaceOrderHandler runs the checkout and then opens a gateway session for
// the new payment. The order is committed before the provider is contacted;
// if the provider call fails the payment is marked FAILED and the client can
// request a fresh session for it later.
func PlaceOrderHandler(db *gorm.DB, gateways gateway.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		res, err := PlaceOrder(db, req)
		if err != nil {
			c.JSON(orderErrorStatus(err), gin.H{"success": false, "error": err.Error()})
			return
		}

		response := gin.H{
			"order_id":        res.Order.ID,
			"tracking_number": res.Shipping.TrackingNumber,
			"total":           res.Order.TotalAmount,
			"status":          res.Order.Status,
			"payment_id":      res.Payment.ID,
		}

		gw, ok := gateways.Lookup(gatewayKey(res.Payment.Method))
		if !ok {
			c.JSON(http.StatusCreated, response)
			return
		}

		session, err := paymentControllers.CreateSession(c.Request.Context(), db, gw, &res.Payment, res.Order, res.Customer)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, gateway.ErrRejected) {
				status = http.StatusBadRequest
			}
			response["success"] = false
			response["error"] = err.Error()
			c.JSON(status, response)
			return
		}

		response["payment"] = session
		c.JSON(http.StatusCreated, response)
	}
}

func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("orderID")
		var order models.Order
		if err := db.
			Preload("Items").
			Preload("Payments").
			Preload("Shipping").
			Preload("ShippingAddress").
			Preload("BillingAddress").
			First(&order, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func GetCustomerOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.Param("customerID")
		var orders []models.Order
		if err := db.
			Where("customer_id = ?", customerID).
			Preload("Items").
			Preload("Payments").
			Preload("Shipping").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.
			Preload("Items").
			Preload("Payments").
			Preload("Shipping").
			Order("created_at DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// UpdateOrderHandler applies manual status corrections. Values outside the
// known enums are rejected. Marking the shipment DELIVERED also closes the
// order and stamps every item.
func UpdateOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID := c.Param("orderID")
		var req UpdateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		if req.Status == "" && req.ShippingStatus == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "nothing to update"})
			return
		}

		orderStatus := models.OrderStatus(strings.ToUpper(req.Status))
		if req.Status != "" && !models.ValidOrderStatus(orderStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid order status"})
			return
		}
		shippingStatus := models.ShippingStatus(strings.ToUpper(req.ShippingStatus))
		if req.ShippingStatus != "" && !models.ValidShippingStatus(shippingStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid shipping status"})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			var order models.Order
			if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
				return err
			}

			if req.Status != "" {
				if err := tx.Model(&order).Update("status", orderStatus).Error; err != nil {
					return err
				}
			}

			if req.ShippingStatus != "" {
				now := time.Now()
				updates := map[string]interface{}{
					"status":             shippingStatus,
					"last_status_update": now,
				}
				if shippingStatus == models.ShippingStatusDelivered {
					updates["actual_delivery"] = now
				}
				if err := tx.Model(&models.Shipping{}).
					Where("order_id = ?", order.ID).
					Updates(updates).Error; err != nil {
					return err
				}
				if shippingStatus == models.ShippingStatusDelivered {
					if err := tx.Model(&order).Update("status", models.OrderStatusDelivered).Error; err != nil {
						return err
					}
					if err := tx.Model(&models.OrderItem{}).
						Where("order_id = ?", order.ID).
						Update("delivered_at", now).Error; err != nil {
						return err
					}
				}
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
