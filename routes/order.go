package routes

import (
	"github.com/gin-gonic/gin"

	orderControllers "github.com/mertarslna/b2c-ecommerce-sub000/controllers/order"
)

func SetupOrderRoutes(r *gin.Engine, deps Deps) {
	orders := r.Group("/orders")
	{
		// Checkout: creates order + payment + shipping atomically, then opens
		// a gateway session.
		orders.POST("", orderControllers.PlaceOrderHandler(deps.DB, deps.Gateways))

		// Derived shipment timeline, public by tracking number.
		orders.GET("/track/:trackingNumber", orderControllers.GetTrackingHandler(deps.DB))

		// Live order-status feed.
		orders.GET("/ws", orderControllers.OrderFeedHandler(deps.Hub))

		orders.GET("/:orderID", orderControllers.GetOrderByIDHandler(deps.DB))
		orders.PATCH("/:orderID", orderControllers.UpdateOrderHandler(deps.DB))

		orders.GET("/customer/:customerID", orderControllers.GetCustomerOrdersHandler(deps.DB))
	}
}
