package routes

import (
	"github.com/gin-gonic/gin"

	paymentControllers "github.com/mertarslna/b2c-ecommerce-sub000/controllers/payment"
	"github.com/mertarslna/b2c-ecommerce-sub000/middleware"
)

func SetupPaymentRoutes(r *gin.Engine, deps Deps) {
	payments := r.Group("/payments")
	{
		// Provider callbacks: signature middleware authenticates the raw body
		// before the reconciler sees it.
		payments.POST("/webhook/:provider",
			middleware.VerifyWebhookSignature(),
			paymentControllers.WebhookHandler(deps.DB, deps.Notifier, deps.Hub.BroadcastOrder),
		)

		payments.GET("/:paymentID", paymentControllers.GetPaymentHandler(deps.DB))
		payments.PATCH("/:paymentID", paymentControllers.UpdatePaymentHandler(deps.DB))

		// (Re)create a gateway session for a pending or failed payment.
		payments.POST("/:paymentID/session", paymentControllers.CreateSessionHandler(deps.DB, deps.Gateways))
	}
}
