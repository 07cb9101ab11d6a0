package middleware

import (
	"bytes"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

const maxPOSBody = 1 << 20

// POSSignatureMiddleware checks X-POS-Signature, an HMAC-SHA256 of the raw
// body under the shared secret. An empty secret disables the check.
func POSSignatureMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" || c.Request.Method == "GET" {
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPOSBody+1))
		if err != nil || len(body) > maxPOSBody {
			utils.Error(c, 400, "VALIDATION_ERROR", "Request body too large or unreadable")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		signature := c.GetHeader("X-POS-Signature")
		if signature == "" || !utils.VerifySignature(body, signature, secret) {
			log.Warn().Str("ip", c.ClientIP()).Str("path", c.Request.URL.Path).Msg("POS signature rejected")
			utils.Error(c, 401, "INVALID_SIGNATURE", "Invalid POS signature")
			c.Abort()
			return
		}
		c.Next()
	}
}
