package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// RawBodyKey is where the verified webhook body is stashed for the handler,
// which must parse exactly the bytes the signature covered.
const RawBodyKey = "webhook_raw_body"

var webhookSecrets = map[string]string{
	"stripe":  "STRIPE_WEBHOOK_SECRET",
	"paythor": "PAYTHOR_WEBHOOK_SECRET",
}

var webhookHeaders = map[string]string{
	"stripe":  "X-Stripe-Signature",
	"paythor": "X-Paythor-Signature",
}

// VerifyWebhookSignature authenticates a provider callback: the signature
// header must be a hex HMAC-SHA256 of the raw body under the provider's
// shared secret. Unknown providers and bad signatures are rejected before the
// handler runs.
func VerifyWebhookSignature() gin.HandlerFunc {
	return func(c *gin.Context) {
		provider := strings.ToLower(c.Param("provider"))
		secretEnv, ok := webhookSecrets[provider]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "unknown provider"})
			c.Abort()
			return
		}

		secret := os.Getenv(secretEnv)
		if secret == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "webhook secret not configured"})
			c.Abort()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unreadable body"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		provided := c.GetHeader(webhookHeaders[provider])
		if provided == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing signature"})
			c.Abort()
			return
		}

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))

		if !hmac.Equal([]byte(strings.ToLower(provided)), []byte(expected)) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid signature"})
			c.Abort()
			return
		}

		c.Set(RawBodyKey, body)
		c.Next()
	}
}
