package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/userlink/userlink-server/internal/config"
	"github.com/userlink/userlink-server/internal/modules/serializer"
	"github.com/userlink/userlink-server/internal/pkg/utils/tokens"
)

// APIKeyAuth gates requests behind the configured API bearer token.
// With no token configured every request passes.
func APIKeyAuth(cfg *config.Config) gin.HandlerFunc {
	want := cfg.Root.ApiBearerToken
	return func(c *gin.Context) {
		if want == "" {
			c.Next()
			return
		}

		_, authSpan := otel.Tracer("middleware").Start(c.Request.Context(), "api_key_auth",
			trace.WithAttributes(attribute.String("middleware", "api_key_auth")))

		secret, ok := tokens.ParseBearer(c.GetHeader("Authorization"), cfg.Root.BearerTokenPrefix)
		if !ok || !tokens.Matches(cfg.Root.SecretPepper, secret, want) {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}

		authSpan.SetAttributes(attribute.Bool("authenticated", true))
		authSpan.End()
		c.Next()
	}
}
