package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/mertarslna/b2c-ecommerce-sub000/controllers/order"
	"github.com/mertarslna/b2c-ecommerce-sub000/gateway"
	"github.com/mertarslna/b2c-ecommerce-sub000/notification"
)

// Deps carries the collaborators constructed once in main; nothing here is
// module-level state.
type Deps struct {
	DB       *gorm.DB
	Gateways gateway.Registry
	Notifier notification.Sender
	Hub      *orderControllers.Hub
}

// SetupRoutes is the single entry point that wires up all route groups.
func SetupRoutes(r *gin.Engine, deps Deps) {
	SetupOrderRoutes(r, deps)
	SetupPaymentRoutes(r, deps)
	SetupCustomerRoutes(r, deps)
	SetupAdminRoutes(r, deps)
}
