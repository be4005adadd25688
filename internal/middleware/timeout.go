package middleware

import (
	"context"
	"net/http"
	"time"

	"petzap/internal/apierror"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
)

// Timeout answers 504 once d elapses. The request context carries the same
// deadline, so repositories and the cart store give up on their own.
func Timeout(d time.Duration) gin.HandlerFunc {
	if d <= 0 {
		d = 10 * time.Second
	}
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithHandler(func(c *gin.Context) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), d)
			defer cancel()
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		}),
		timeout.WithResponse(func(c *gin.Context) {
			c.JSON(http.StatusGatewayTimeout, apierror.New("Tempo limite da requisição excedido"))
		}),
	)
}
