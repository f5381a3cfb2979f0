package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"genmedia-backend/internal/fal"
)

// CORS allows browser tooling to reach the webhook endpoints. Provider
// deliveries are server to server and carry no Origin.
func CORS() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{
		"Origin", "Content-Type", "Content-Length", "Authorization",
		"X-Client-Info", "Apikey", RequestIDHeader,
		fal.HeaderRequestID, fal.HeaderUserID, fal.HeaderTimestamp, fal.HeaderSignature,
	}
	cfg.ExposeHeaders = []string{RequestIDHeader}
	cfg.MaxAge = 12 * time.Hour
	return cors.New(cfg)
}
