package routes

import (
	"github.com/gin-gonic/gin"

	cartControllers "github.com/mertarslna/b2c-ecommerce-sub000/controllers/cart"
	customerControllers "github.com/mertarslna/b2c-ecommerce-sub000/controllers/customer"
	productControllers "github.com/mertarslna/b2c-ecommerce-sub000/controllers/product"
	"github.com/mertarslna/b2c-ecommerce-sub000/middleware"
)

// SetupCustomerRoutes registers the storefront endpoints. Browsing is public;
// profile and cart require a bearer token.
func SetupCustomerRoutes(r *gin.Engine, deps Deps) {
	r.GET("/products", productControllers.GetProducts(deps.DB))
	r.GET("/products/:id", productControllers.GetProductByID(deps.DB))

	me := r.Group("/me")
	me.Use(middleware.ValidateToken)
	{
		me.GET("", customerControllers.GetProfile(deps.DB))
		me.PUT("", customerControllers.UpdateProfile(deps.DB))

		cart := me.Group("/cart")
		{
			cart.GET("", cartControllers.GetCart(deps.DB))
			cart.POST("", cartControllers.UpsertCartItem(deps.DB))
			cart.DELETE("/:product_id", cartControllers.DeleteCartItem(deps.DB))
			cart.DELETE("", cartControllers.ClearCart(deps.DB))
		}
	}
}
