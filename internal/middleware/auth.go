package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"appointment-booking-api/internal/service"
)

// Verifier checks a raw session token and returns the admin username.
type Verifier interface {
	Verify(raw string) (string, error)
}

func bearer(h string) string {
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// RequireAdmin is the capability gate for admin-only routes.
func RequireAdmin(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Admin token required"})
			return
		}
		user, err := v.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}
		c.Request = c.Request.WithContext(service.WithAdmin(c.Request.Context(), user))
		c.Next()
	}
}

// OptionalAdmin attaches the admin identity when a valid token is present and
// otherwise lets the request through unchanged.
func OptionalAdmin(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearer(c.GetHeader("Authorization")); raw != "" {
			if user, err := v.Verify(raw); err == nil {
				c.Request = c.Request.WithContext(service.WithAdmin(c.Request.Context(), user))
			}
		}
		c.Next()
	}
}

// Auth is the gRPC equivalent. Methods in open skip the check but still pick
// up a valid token if one is sent.
func Auth(v Verifier, open map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		raw := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			// token from authorization: Bearer <jwt>
			if vals := md.Get("authorization"); len(vals) > 0 {
				raw = bearer(vals[0])
			}
		}

		if open[info.FullMethod] {
			if raw != "" {
				if user, err := v.Verify(raw); err == nil {
					ctx = service.WithAdmin(ctx, user)
				}
			}
			return next(ctx, req)
		}

		if raw == "" {
			return nil, status.Error(codes.Unauthenticated, "no token")
		}
		user, err := v.Verify(raw)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "bad token")
		}
		return next(service.WithAdmin(ctx, user), req)
	}
}
