package routes

import (
	"github.com/gin-gonic/gin"

	orderControllers "github.com/mertarslna/b2c-ecommerce-sub000/controllers/order"
	productControllers "github.com/mertarslna/b2c-ecommerce-sub000/controllers/product"
	"github.com/mertarslna/b2c-ecommerce-sub000/middleware"
)

// SetupAdminRoutes registers back-office endpoints behind the API key.
func SetupAdminRoutes(r *gin.Engine, deps Deps) {
	admin := r.Group("/admin")
	admin.Use(middleware.ValidateAPIKey)
	{
		admin.GET("/orders", orderControllers.GetAllOrdersHandler(deps.DB))
		admin.GET("/orders/export", orderControllers.ExportOrdersToExcel(deps.DB))

		admin.POST("/products", productControllers.CreateProduct(deps.DB))
		admin.POST("/products/:id/stock", productControllers.AdjustStockHandler(deps.DB))
	}
}
